package service

import (
	"math/big"
	"regexp"
	"strings"

	"github.com/yourusername/practice-api/internal/domain/entity"
)

// variablePrefix срезает "x =" / "y=" в начале ответа
var variablePrefix = regexp.MustCompile(`^[a-z]\s*=\s*`)

// CheckAnswer сравнивает ответ студента с правильным.
// Числа сравниваются по значению: "0.5", ".5", "1/2" и "2/4" эквивалентны.
// Десятичный ответ с двумя и более знаками принимается, если он верно округляет правильное значение.
func CheckAnswer(given, expected string) bool {
	g, e := canonicalAnswer(given), canonicalAnswer(expected)
	if g == "" || e == "" {
		return false
	}
	if g == e {
		return true
	}

	gv, gok := parseNumber(g)
	ev, eok := parseNumber(e)
	if !gok || !eok {
		return false
	}
	if gv.Cmp(ev) == 0 {
		return true
	}
	return roundsTo(g, gv, ev)
}

func canonicalAnswer(s string) string {
	s = entity.NormalizeText(s)
	s = variablePrefix.ReplaceAllString(s, "")
	s = strings.TrimRight(s, ".")
	s = strings.ReplaceAll(s, " ", "")
	s = strings.ReplaceAll(s, "−", "-")
	// десятичная запятая
	if strings.Count(s, ",") == 1 && !strings.Contains(s, ".") {
		s = strings.Replace(s, ",", ".", 1)
	}
	return s
}

func parseNumber(s string) (*big.Rat, bool) {
	if strings.Count(s, "/") > 1 {
		return nil, false
	}
	if num, den, ok := strings.Cut(s, "/"); ok {
		n, nok := new(big.Rat).SetString(num)
		d, dok := new(big.Rat).SetString(den)
		if !nok || !dok || d.Sign() == 0 {
			return nil, false
		}
		return n.Quo(n, d), true
	}
	r, ok := new(big.Rat).SetString(s)
	return r, ok
}

// roundsTo: given с d >= 2 знаками после точки принимается, если |given - expected| <= 0.5·10^-d
func roundsTo(raw string, given, expected *big.Rat) bool {
	_, frac, ok := strings.Cut(raw, ".")
	if !ok || len(frac) < 2 || strings.Contains(raw, "/") {
		return false
	}
	tolerance := new(big.Rat).SetFrac(big.NewInt(5), new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(len(frac)+1)), nil))
	diff := new(big.Rat).Sub(given, expected)
	return diff.Abs(diff).Cmp(tolerance) <= 0
}
