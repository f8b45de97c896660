// Package classifier назначает тексту вопроса класс, מסלול יח"ל (3/4/5),
// тему, подтему и сложность по ранжированным таблицам ключевых слов.
// Все функции чистые и детерминированные.
package classifier

import (
	"strings"
	"unicode/utf8"

	"github.com/yourusername/practice-api/internal/domain/entity"
)

// Metadata - частичные метки из источника вопроса (импорт, запрос)
type Metadata struct {
	Grade *int
	// Topic: slug или человекочитаемое название
	Topic    string
	Subtopic string
}

// Classification - результат классификации
type Classification struct {
	Grade       int               `json:"grade"`
	UnitTrack   *int              `json:"unit_track,omitempty"`
	TopicKey    string            `json:"topic_key"`
	Topic       string            `json:"topic"`
	SubtopicKey *string           `json:"subtopic_key,omitempty"`
	Subtopic    *string           `json:"subtopic,omitempty"`
	Difficulty  entity.Difficulty `json:"difficulty"`
	Score       int               `json:"score"`
}

var (
	topicsByKey   map[string]*topicEntry
	topicsByLabel map[string]*topicEntry
)

func init() {
	normalizeAll := func(kws []string) {
		for i, kw := range kws {
			kws[i] = entity.NormalizeText(kw)
		}
	}
	for i := range gradeTiers {
		normalizeAll(gradeTiers[i].keywords)
	}
	for i := range unitTiers {
		normalizeAll(unitTiers[i].keywords)
	}
	normalizeAll(complexityIndicators)
	normalizeAll(multiStepMarkers)

	topicsByKey = make(map[string]*topicEntry, len(topics))
	topicsByLabel = make(map[string]*topicEntry, len(topics)*2)
	for i := range topics {
		t := &topics[i]
		normalizeAll(t.keywords)
		for j := range t.subtopics {
			normalizeAll(t.subtopics[j].keywords)
		}
		topicsByKey[t.key] = t
		topicsByLabel[entity.NormalizeText(t.label)] = t
		for _, alias := range t.aliases {
			topicsByLabel[entity.NormalizeText(alias)] = t
		}
	}
}

// Classify возвращает метки для текста вопроса. Никогда не падает:
// без сигналов получается класс 8 (или из метаданных), тема "general", сложность medium.
func Classify(text string, meta Metadata) Classification {
	normalized := entity.NormalizeText(text)
	signal := false

	grade, ok := firstTier(gradeTiers, normalized)
	switch {
	case ok:
		signal = true
	case meta.Grade != nil && *meta.Grade >= MinGrade && *meta.Grade <= MaxGrade:
		grade = *meta.Grade
	default:
		grade = DefaultGrade
	}

	result := Classification{Grade: grade, TopicKey: GeneralTopicKey, Topic: GeneralTopicKey}

	result.UnitTrack = unitTrack(normalized, grade)

	topic, subtopic, _ := detectTopic(normalized)
	if topic != nil {
		signal = true
	} else if meta.Topic != "" {
		// Подсказка из метаданных используется, только если словарь ничего не нашёл
		topic = lookupTopic(meta.Topic)
		if topic != nil && meta.Subtopic != "" {
			subtopic = lookupSubtopic(topic, meta.Subtopic)
		}
	}
	if topic != nil {
		result.TopicKey = topic.key
		result.Topic = topic.label
		if subtopic != nil {
			key, label := subtopic.key, subtopic.label
			result.SubtopicKey = &key
			result.Subtopic = &label
		}
	}

	score, indicators := difficultyScore(normalized, grade, result.UnitTrack, topic)
	if indicators {
		signal = true
	}
	result.Score = score

	switch {
	case !signal:
		result.Difficulty = entity.DifficultyMedium
	case score >= hardScoreThreshold:
		result.Difficulty = entity.DifficultyHard
	case score >= mediumScoreThreshold:
		result.Difficulty = entity.DifficultyMedium
	default:
		result.Difficulty = entity.DifficultyEasy
	}
	return result
}

// UnitTrackFor определяет מסלול יח"ל текста для заданного класса; до 10 класса nil
func UnitTrackFor(text string, grade int) *int {
	return unitTrack(entity.NormalizeText(text), grade)
}

func unitTrack(normalized string, grade int) *int {
	if grade < minUnitGrade {
		return nil
	}
	unit, ok := firstTier(unitTiers, normalized)
	if !ok {
		unit = defaultUnitTrack
	}
	return &unit
}

// firstTier возвращает метку первого яруса, в котором нашлось хоть одно ключевое слово
func firstTier(tiers []tier, text string) (int, bool) {
	for _, t := range tiers {
		if countMatches(text, t.keywords) > 0 {
			return t.label, true
		}
	}
	return 0, false
}

// countMatches считает различные ключевые слова, встречающиеся в тексте
func countMatches(text string, keywords []string) int {
	n := 0
	for _, kw := range keywords {
		if kw != "" && strings.Contains(text, kw) {
			n++
		}
	}
	return n
}

// detectTopic выбирает лучшую пару (тема, подтема): score = темы + 2*подтемы.
// При равенстве остаётся найденная раньше.
func detectTopic(text string) (*topicEntry, *subtopicEntry, int) {
	var (
		bestTopic    *topicEntry
		bestSubtopic *subtopicEntry
		bestScore    int
	)
	for i := range topics {
		t := &topics[i]
		keywordMatches := countMatches(text, t.keywords)
		if keywordMatches > bestScore {
			bestTopic, bestSubtopic, bestScore = t, nil, keywordMatches
		}
		for j := range t.subtopics {
			st := &t.subtopics[j]
			subtopicMatches := countMatches(text, st.keywords)
			if subtopicMatches == 0 {
				continue
			}
			if score := keywordMatches + 2*subtopicMatches; score > bestScore {
				bestTopic, bestSubtopic, bestScore = t, st, score
			}
		}
	}
	return bestTopic, bestSubtopic, bestScore
}

// difficultyScore суммирует баллы сложности. indicators=true, если сработали
// маркеры сложности или многошаговости.
func difficultyScore(text string, grade int, unitTrack *int, topic *topicEntry) (int, bool) {
	score := 0
	switch {
	case grade >= 12:
		score += 2
	case grade >= 10:
		score++
	}

	if unitTrack != nil {
		switch *unitTrack {
		case 5:
			score += 3
		case 4:
			score += 2
		case 3:
			score++
		}
	}

	if topic != nil {
		switch topic.weight {
		case weightHard:
			score += 2
		case weightMedium:
			score++
		}
	}

	indicators := false
	complexity := countMatches(text, complexityIndicators)
	if complexity > maxComplexityPoints {
		complexity = maxComplexityPoints
	}
	if complexity > 0 {
		score += complexity
		indicators = true
	}
	if countMatches(text, multiStepMarkers) > 0 {
		score++
		indicators = true
	}

	runes := utf8.RuneCountInString(text)
	if runes > longTextRunes {
		score++
	}
	if runes > veryLongTextRunes {
		score++
	}
	return score, indicators
}

// SubtopicWithin возвращает подтему результата, если он относится к теме topicKey.
// Иначе пробует найти hint среди подтем topicKey. Ничего не нашлось - nil, nil.
func (c Classification) SubtopicWithin(topicKey, hint string) (key, label *string) {
	if c.TopicKey == topicKey && c.SubtopicKey != nil {
		return c.SubtopicKey, c.Subtopic
	}
	if hint = strings.TrimSpace(hint); hint == "" {
		return nil, nil
	}
	k, l, ok := ResolveSubtopic(topicKey, hint)
	if !ok {
		return nil, nil
	}
	return &k, &l
}
