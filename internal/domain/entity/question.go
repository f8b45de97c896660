package entity

import (
	"database/sql/driver"
	"encoding/hex"
	"encoding/json"
	"errors"
	"strings"
	"time"
	"unicode"

	"golang.org/x/crypto/blake2b"
	"golang.org/x/text/unicode/norm"
)

// StringArray - пользовательский тип для работы с JSONB
type StringArray []string

// Scan реализует интерфейс sql.Scanner для StringArray
// Используется GORM для чтения JSONB данных из базы
func (o *StringArray) Scan(value interface{}) error {
	// Обработка NULL значений из базы данных
	if value == nil {
		*o = StringArray{}
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		// pgx stdlib может вернуть jsonb как строку
		bytes = []byte(v)
	default:
		return errors.New("failed to unmarshal JSONB value: expected []byte or string")
	}

	if len(bytes) == 0 {
		*o = StringArray{}
		return nil
	}

	return json.Unmarshal(bytes, o)
}

// Value реализует интерфейс driver.Valuer для StringArray
func (o StringArray) Value() (driver.Value, error) {
	if len(o) == 0 {
		return []byte("[]"), nil // Пустой JSON массив вместо null
	}
	return json.Marshal(o)
}

// QuestionSource - происхождение вопроса в хранилище
type QuestionSource string

const (
	SourceCurated     QuestionSource = "curated"
	SourceAIGenerated QuestionSource = "ai_generated"
	SourceTemplate    QuestionSource = "template"
)

// Question - запись каталога вопросов (кеш готовых и сгенерированных вопросов).
// Метки классификации выставляются один раз при создании; меняется только статистика.
type Question struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	ContentHash string `gorm:"size:64;not null;uniqueIndex" json:"-"`

	Text          string      `gorm:"type:text;not null" json:"text"`
	CorrectAnswer string      `gorm:"type:text;not null" json:"-"` // Скрыто от клиента
	Explanation   string      `gorm:"type:text" json:"explanation,omitempty"`
	Hints         StringArray `gorm:"type:jsonb;not null" json:"hints"`
	SolutionSteps StringArray `gorm:"type:jsonb;not null" json:"solution_steps,omitempty"`

	Grade       *int       `gorm:"index" json:"grade,omitempty"`
	UnitTrack   *int       `json:"unit_track,omitempty"`
	TopicKey    string     `gorm:"size:100;not null;index:idx_questions_lookup,priority:1" json:"topic_key"`
	Topic       string     `gorm:"size:200;not null" json:"topic"`
	SubtopicKey *string    `gorm:"size:100;index:idx_questions_lookup,priority:2" json:"subtopic_key,omitempty"`
	Subtopic    *string    `gorm:"size:200" json:"subtopic,omitempty"`
	Difficulty  Difficulty `gorm:"size:10;not null;index:idx_questions_lookup,priority:3" json:"difficulty"`

	Source    QuestionSource `gorm:"size:20;not null" json:"source"`
	OriginRef string         `gorm:"size:255" json:"-"`

	UsageCount         int     `gorm:"not null;default:0" json:"usage_count"`
	SuccessRate        float64 `gorm:"not null;default:0" json:"success_rate"`
	AverageTimeSeconds float64 `gorm:"not null;default:0" json:"average_time_seconds"`
	QualityScore       int     `gorm:"not null;default:50" json:"quality_score"`

	IsActive  bool      `gorm:"not null;default:true;index" json:"-"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName определяет имя таблицы для GORM
func (Question) TableName() string {
	return "questions"
}

// QualityTier возвращает «корзину» качества 0–4 (quality_score / 25), по которой ранжируются кандидаты
func (q *Question) QualityTier() int {
	return q.QualityScore / 25
}

// GradeValue возвращает класс или 0, если он не задан
func (q *Question) GradeValue() int {
	if q.Grade == nil {
		return 0
	}
	return *q.Grade
}

// HintCount возвращает количество подсказок
func (q *Question) HintCount() int {
	return len(q.Hints)
}

// NormalizeText приводит текст к канонической форме для сравнения и хеширования:
// NFKC, нижний регистр, без огласовок (niqqud), схлопнутые пробелы.
func NormalizeText(s string) string {
	s = norm.NFKC.String(s)
	var b strings.Builder
	b.Grow(len(s))
	space := false
	for _, r := range s {
		if unicode.Is(unicode.Mn, r) {
			continue
		}
		if unicode.IsSpace(r) {
			space = true
			continue
		}
		if space && b.Len() > 0 {
			b.WriteByte(' ')
		}
		space = false
		b.WriteRune(unicode.ToLower(r))
	}
	return b.String()
}

// ContentHash возвращает hex BLAKE2b-256 от нормализованного текста
func ContentHash(text string) string {
	sum := blake2b.Sum256([]byte(NormalizeText(text)))
	return hex.EncodeToString(sum[:])
}
