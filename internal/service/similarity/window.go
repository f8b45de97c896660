package similarity

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// DefaultWindowSize - сколько последних вопросов помнит сессионное окно на пару (студент, тема)
const DefaultWindowSize = 15

// Entry - вопрос, недавно показанный студенту
type Entry struct {
	QuestionID  uint        `json:"id,omitempty"`
	Text        string      `json:"text"`
	Fingerprint Fingerprint `json:"fp"`
	ShownAt     time.Time   `json:"at"`
}

// NewEntry строит запись окна вместе с отпечатком
func NewEntry(questionID uint, text string, shownAt time.Time) Entry {
	return Entry{
		QuestionID:  questionID,
		Text:        text,
		Fingerprint: NewFingerprint(text),
		ShownAt:     shownAt,
	}
}

// RecentWindow хранит короткое окно недавних вопросов на пару (студент, тема).
// Окно best-effort: долговременной гарантией служит журнал показов.
type RecentWindow interface {
	// Recent возвращает записи окна, новые первыми
	Recent(ctx context.Context, studentID uint, topicKey string) ([]Entry, error)
	Remember(ctx context.Context, studentID uint, topicKey string, entry Entry) error
}

func windowKey(studentID uint, topicKey string) string {
	return fmt.Sprintf("%d:%s", studentID, topicKey)
}

// MemoryWindow - окно в памяти процесса (один инстанс сервиса)
type MemoryWindow struct {
	mu       sync.Mutex
	capacity int
	ttl      time.Duration
	entries  map[string][]Entry
	now      func() time.Time
}

// NewMemoryWindow создает окно в памяти. ttl <= 0 отключает устаревание записей.
func NewMemoryWindow(capacity int, ttl time.Duration) *MemoryWindow {
	if capacity <= 0 {
		capacity = DefaultWindowSize
	}
	return &MemoryWindow{
		capacity: capacity,
		ttl:      ttl,
		entries:  make(map[string][]Entry),
		now:      time.Now,
	}
}

// Recent возвращает копию записей окна, отбрасывая устаревшие
func (w *MemoryWindow) Recent(_ context.Context, studentID uint, topicKey string) ([]Entry, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	key := windowKey(studentID, topicKey)
	entries := w.entries[key]
	if w.ttl > 0 {
		cutoff := w.now().Add(-w.ttl)
		fresh := entries[:0]
		for _, e := range entries {
			if e.ShownAt.After(cutoff) {
				fresh = append(fresh, e)
			}
		}
		entries = fresh
		if len(entries) == 0 {
			delete(w.entries, key)
		} else {
			w.entries[key] = entries
		}
	}

	out := make([]Entry, len(entries))
	copy(out, entries)
	return out, nil
}

// Remember добавляет запись в голову окна и обрезает его до capacity
func (w *MemoryWindow) Remember(_ context.Context, studentID uint, topicKey string, entry Entry) error {
	if entry.ShownAt.IsZero() {
		entry.ShownAt = w.now()
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	key := windowKey(studentID, topicKey)
	entries := append([]Entry{entry}, w.entries[key]...)
	if len(entries) > w.capacity {
		entries = entries[:w.capacity]
	}
	w.entries[key] = entries
	return nil
}
