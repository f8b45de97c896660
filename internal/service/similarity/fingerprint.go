// Package similarity отсекает повторы и почти-повторы вопросов
// в пределах сессии и исторического окна студента.
package similarity

import (
	"sort"
	"unicode"

	"github.com/yourusername/practice-api/internal/domain/entity"
)

const (
	maxKeywords      = 10
	minKeywordRunes  = 3
	overlapThreshold = 0.5
)

// Fingerprint - «отпечаток» текста: частые слова на иврите и числовые литералы
type Fingerprint struct {
	Keywords []string `json:"k"`
	Numbers  []string `json:"n"`
}

// NewFingerprint строит отпечаток: до 10 самых частых ивритских токенов длиной от 3 букв
// (при равной частоте раньше встретившийся) и множество чисел
func NewFingerprint(text string) Fingerprint {
	normalized := entity.NormalizeText(text)

	type counted struct {
		token string
		count int
		first int
	}
	seen := make(map[string]*counted)
	var order []*counted
	numbers := make(map[string]struct{})
	var numberOrder []string

	runes := []rune(normalized)
	for i := 0; i < len(runes); {
		r := runes[i]
		switch {
		case unicode.Is(unicode.Hebrew, r):
			j := i
			for j < len(runes) && unicode.Is(unicode.Hebrew, runes[j]) {
				j++
			}
			if j-i >= minKeywordRunes {
				token := string(runes[i:j])
				if c, ok := seen[token]; ok {
					c.count++
				} else {
					c := &counted{token: token, count: 1, first: len(order)}
					seen[token] = c
					order = append(order, c)
				}
			}
			i = j
		case unicode.IsDigit(r):
			j := i
			for j < len(runes) && unicode.IsDigit(runes[j]) {
				j++
			}
			// десятичная часть: 2.5 / 2,5
			if j+1 < len(runes) && (runes[j] == '.' || runes[j] == ',') && unicode.IsDigit(runes[j+1]) {
				j++
				for j < len(runes) && unicode.IsDigit(runes[j]) {
					j++
				}
			}
			num := string(runes[i:j])
			if _, ok := numbers[num]; !ok {
				numbers[num] = struct{}{}
				numberOrder = append(numberOrder, num)
			}
			i = j
		default:
			i++
		}
	}

	sort.SliceStable(order, func(a, b int) bool {
		if order[a].count != order[b].count {
			return order[a].count > order[b].count
		}
		return order[a].first < order[b].first
	})
	if len(order) > maxKeywords {
		order = order[:maxKeywords]
	}

	fp := Fingerprint{
		Keywords: make([]string, 0, len(order)),
		Numbers:  numberOrder,
	}
	for _, c := range order {
		fp.Keywords = append(fp.Keywords, c.token)
	}
	if fp.Numbers == nil {
		fp.Numbers = []string{}
	}
	return fp
}

// overlap = |A∩B| / max(|A|, |B|, 1)
func overlap(a, b []string) float64 {
	set := make(map[string]struct{}, len(a))
	for _, v := range a {
		set[v] = struct{}{}
	}
	common := 0
	for _, v := range b {
		if _, ok := set[v]; ok {
			common++
			delete(set, v)
		}
	}
	denom := len(a)
	if len(b) > denom {
		denom = len(b)
	}
	if denom < 1 {
		denom = 1
	}
	return float64(common) / float64(denom)
}

// IsSimilar возвращает true, если хотя бы с одним недавним отпечатком
// совпадает больше половины чисел И больше половины ключевых слов
func IsSimilar(candidate Fingerprint, recent []Fingerprint) bool {
	for _, r := range recent {
		if overlap(candidate.Numbers, r.Numbers) > overlapThreshold &&
			overlap(candidate.Keywords, r.Keywords) > overlapThreshold {
			return true
		}
	}
	return false
}
