package classifier

import (
	"strings"

	"github.com/yourusername/practice-api/internal/domain/entity"
)

func lookupTopic(s string) *topicEntry {
	s = strings.TrimSpace(s)
	if t, ok := topicsByKey[strings.ToLower(s)]; ok {
		return t
	}
	if t, ok := topicsByLabel[entity.NormalizeText(s)]; ok {
		return t
	}
	return nil
}

func lookupSubtopic(t *topicEntry, s string) *subtopicEntry {
	s = strings.TrimSpace(s)
	normalized := entity.NormalizeText(s)
	for i := range t.subtopics {
		st := &t.subtopics[i]
		if st.key == strings.ToLower(s) || entity.NormalizeText(st.label) == normalized {
			return st
		}
	}
	return nil
}

// ResolveTopic принимает slug или название темы (включая синонимы)
// и возвращает slug и каноническое название
func ResolveTopic(s string) (key, label string, ok bool) {
	t := lookupTopic(s)
	if t == nil {
		return "", "", false
	}
	return t.key, t.label, true
}

// ResolveSubtopic находит подтему внутри темы по slug или названию
func ResolveSubtopic(topicKey, s string) (key, label string, ok bool) {
	t, found := topicsByKey[topicKey]
	if !found {
		return "", "", false
	}
	st := lookupSubtopic(t, s)
	if st == nil {
		return "", "", false
	}
	return st.key, st.label, true
}

// TopicLabels возвращает все названия темы (каноническое + синонимы) для
// поиска в банке готовых вопросов, где темы хранятся текстом
func TopicLabels(topicKey string) []string {
	t, ok := topicsByKey[topicKey]
	if !ok {
		return []string{topicKey}
	}
	labels := make([]string, 0, 1+len(t.aliases))
	labels = append(labels, t.label)
	labels = append(labels, t.aliases...)
	return labels
}

// TopicKeys возвращает slug всех известных тем в порядке словаря
func TopicKeys() []string {
	keys := make([]string, 0, len(topics))
	for _, t := range topics {
		keys = append(keys, t.key)
	}
	return keys
}

// KeywordsAboveGrade возвращает ключевые слова всех ярусов строго выше grade
func KeywordsAboveGrade(grade int) []string {
	var out []string
	for _, t := range gradeTiers {
		if t.label > grade {
			out = append(out, t.keywords...)
		}
	}
	return out
}

// LeaksAboveGrade сообщает, содержит ли текст слова, зарезервированные за классами выше grade.
// Возвращает первое найденное слово.
func LeaksAboveGrade(text string, grade int) (string, bool) {
	normalized := entity.NormalizeText(text)
	for _, kw := range KeywordsAboveGrade(grade) {
		if strings.Contains(normalized, kw) {
			return kw, true
		}
	}
	return "", false
}
