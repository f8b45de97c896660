package classifier

// tier - ранжированная пара (метка, ключевые слова). Таблицы упорядочены
// от самой сильной метки к самой слабой; первая совпавшая побеждает.
type tier struct {
	label    int
	keywords []string
}

// gradeTiers: от 12 класса вниз до 9. Слова здесь должны быть
// «зарезервированы» за своим классом, на них опирается защита от утечки классов.
var gradeTiers = []tier{
	{label: 12, keywords: []string{
		"נגזרת", "נגזרות", "אינטגרל", "גבול הפונקציה", "אסימפטוטה", "חקירת פונקציה",
		"נקודת קיצון", "נקודות קיצון", "פונקציה קדומה", "לוגריתם טבעי", "משיק לגרף",
	}},
	{label: 11, keywords: []string{
		"לוגריתם", "סדרה חשבונית", "סדרה הנדסית", "סינוס", "קוסינוס", "טנגנס",
		"וקטור", "מספר מרוכב", "מספרים מרוכבים", "הסתברות מותנית", "התפלגות בינומית",
	}},
	{label: 10, keywords: []string{
		"פונקציה ריבועית", "פרבולה", "משוואה ריבועית", "נוסחת השורשים", "דיסקרימיננטה",
		"משוואת ישר", "משוואת מעגל", "גאומטריה אנליטית", "סטיית תקן",
	}},
	{label: 9, keywords: []string{
		"מערכת משוואות", "משפט פיתגורס", "פיתגורס", "דמיון משולשים", "משולשים דומים",
		"פונקציה קווית", "שורש ריבועי",
	}},
}

// unitTiers: מסלול יחידות לכיתות 10–12
var unitTiers = []tier{
	{label: 5, keywords: []string{
		"אינטגרל", "מספר מרוכב", "מספרים מרוכבים", "וקטור", "אינדוקציה", "גבול הפונקציה",
		"פונקציה מעריכית", "לוגריתם טבעי", "דה מואבר", "דה-מואבר",
	}},
	{label: 4, keywords: []string{
		"נגזרת", "חקירת פונקציה", "סדרה הנדסית", "סדרה חשבונית", "סינוס", "קוסינוס",
		"לוגריתם", "הסתברות מותנית", "התפלגות בינומית",
	}},
	{label: 3, keywords: []string{
		"פונקציה ריבועית", "משוואה", "סטטיסטיקה", "ממוצע", "אחוזים", "גרף", "פרבולה",
	}},
}

const (
	// DefaultGrade - класс, когда ни текст, ни метаданные его не задают
	DefaultGrade     = 8
	defaultUnitTrack = 3
	minUnitGrade     = 10
	// MinGrade и MaxGrade - диапазон классов, с которыми работает движок
	MinGrade = 7
	MaxGrade = 12

	// GeneralTopicKey - тема по умолчанию, когда словарь ничего не нашёл
	GeneralTopicKey = "general"
)

type subtopicEntry struct {
	key      string
	label    string
	keywords []string
}

type topicWeight int

const (
	weightLight topicWeight = iota
	weightMedium
	weightHard
)

type topicEntry struct {
	key       string
	label     string
	aliases   []string
	keywords  []string
	subtopics []subtopicEntry
	weight    topicWeight
}

// topics - словарь тем. Порядок важен: при равном счёте побеждает более ранняя тема.
var topics = []topicEntry{
	{
		key: "calculus", label: "חשבון דיפרנציאלי",
		aliases:  []string{"חדו\"א", "חדוא", "חשבון אינפיניטסימלי"},
		keywords: []string{"פונקציה", "נגזרת", "גבול", "קיצון", "משיק", "עלייה", "ירידה", "אסימפטוטה"},
		subtopics: []subtopicEntry{
			{key: "derivatives", label: "נגזרות", keywords: []string{"נגזרת", "נגזרות", "גזור"}},
			{key: "extrema", label: "נקודות קיצון", keywords: []string{"קיצון", "מקסימום", "מינימום"}},
			{key: "function-analysis", label: "חקירת פונקציה", keywords: []string{"חקירת פונקציה", "תחום הגדרה", "אסימפטוטה"}},
			{key: "tangents", label: "משיקים", keywords: []string{"משיק"}},
		},
		weight: weightHard,
	},
	{
		key: "integrals", label: "חשבון אינטגרלי",
		keywords: []string{"אינטגרל", "פונקציה קדומה", "שטח מתחת"},
		subtopics: []subtopicEntry{
			{key: "indefinite", label: "אינטגרל לא מסוים", keywords: []string{"פונקציה קדומה", "אינטגרל לא מסוים"}},
			{key: "definite", label: "אינטגרל מסוים", keywords: []string{"אינטגרל מסוים", "שטח מתחת", "שטח בין"}},
		},
		weight: weightHard,
	},
	{
		key: "algebra", label: "אלגברה",
		keywords: []string{"משוואה", "נעלם", "ביטוי", "פתור", "פשט"},
		subtopics: []subtopicEntry{
			{key: "linear-equations", label: "משוואות ליניאריות", keywords: []string{"משוואה ליניארית", "משוואה קווית"}},
			{key: "quadratic-equations", label: "משוואות ריבועיות", keywords: []string{"משוואה ריבועית", "נוסחת השורשים", "דיסקרימיננטה"}},
			{key: "systems", label: "מערכות משוואות", keywords: []string{"מערכת משוואות", "שתי משוואות"}},
			{key: "inequalities", label: "אי-שוויונות", keywords: []string{"אי-שוויון", "אי שוויון", "אי-השוויון", "אי השוויון"}},
		},
		weight: weightLight,
	},
	{
		key: "geometry", label: "גאומטריה",
		aliases:  []string{"גיאומטריה"},
		keywords: []string{"משולש", "זווית", "מעגל", "מרובע", "צלע", "היקף", "שטח"},
		subtopics: []subtopicEntry{
			{key: "triangles", label: "משולשים", keywords: []string{"משולש", "פיתגורס", "דמיון"}},
			{key: "circles", label: "מעגלים", keywords: []string{"מעגל", "רדיוס", "קוטר", "מיתר"}},
			{key: "area-perimeter", label: "שטח והיקף", keywords: []string{"שטח", "היקף"}},
			{key: "analytic-geometry", label: "גאומטריה אנליטית", keywords: []string{"משוואת ישר", "שיפוע", "נקודת חיתוך", "מערכת צירים"}},
		},
		weight: weightMedium,
	},
	{
		key: "trigonometry", label: "טריגונומטריה",
		keywords: []string{"סינוס", "קוסינוס", "טנגנס", "sin", "cos", "tan"},
		subtopics: []subtopicEntry{
			{key: "trig-equations", label: "משוואות טריגונומטריות", keywords: []string{"משוואה טריגונומטרית"}},
			{key: "identities", label: "זהויות טריגונומטריות", keywords: []string{"זהות", "זהויות"}},
			{key: "triangle-trig", label: "טריגונומטריה במשולש", keywords: []string{"משפט הסינוסים", "משפט הקוסינוסים"}},
		},
		weight: weightMedium,
	},
	{
		key: "probability", label: "הסתברות",
		keywords: []string{"הסתברות", "מטבע", "קובייה", "אקראי", "סיכוי"},
		subtopics: []subtopicEntry{
			{key: "conditional", label: "הסתברות מותנית", keywords: []string{"הסתברות מותנית", "בהינתן"}},
			{key: "combinatorics", label: "קומבינטוריקה", keywords: []string{"צירופים", "תמורות", "סידורים"}},
			{key: "binomial", label: "התפלגות בינומית", keywords: []string{"בינומית", "ברנולי"}},
		},
		weight: weightMedium,
	},
	{
		key: "statistics", label: "סטטיסטיקה",
		keywords: []string{"ממוצע", "חציון", "שכיח", "סטיית תקן", "נתונים"},
		subtopics: []subtopicEntry{
			{key: "central-tendency", label: "מדדי מרכז", keywords: []string{"ממוצע", "חציון", "שכיח"}},
			{key: "dispersion", label: "מדדי פיזור", keywords: []string{"סטיית תקן", "שונות", "טווח"}},
			{key: "normal-distribution", label: "התפלגות נורמלית", keywords: []string{"התפלגות נורמלית", "פעמון"}},
		},
		weight: weightLight,
	},
	{
		key: "sequences", label: "סדרות",
		keywords: []string{"סדרה", "איבר", "הפרש", "מנה"},
		subtopics: []subtopicEntry{
			{key: "arithmetic", label: "סדרה חשבונית", keywords: []string{"סדרה חשבונית", "הפרש הסדרה"}},
			{key: "geometric", label: "סדרה הנדסית", keywords: []string{"סדרה הנדסית", "מנת הסדרה"}},
			{key: "recursive", label: "סדרות רקורסיביות", keywords: []string{"נוסחת נסיגה", "רקורסיבית"}},
		},
		weight: weightMedium,
	},
	{
		key: "functions", label: "פונקציות",
		keywords: []string{"פונקציה", "גרף", "תחום"},
		subtopics: []subtopicEntry{
			{key: "linear", label: "פונקציה קווית", keywords: []string{"פונקציה קווית", "שיפוע"}},
			{key: "quadratic", label: "פונקציה ריבועית", keywords: []string{"פונקציה ריבועית", "פרבולה", "קודקוד"}},
			{key: "exponential", label: "פונקציה מעריכית", keywords: []string{"פונקציה מעריכית", "גדילה מעריכית", "דעיכה"}},
		},
		weight: weightMedium,
	},
	{
		key: "logarithms", label: "לוגריתמים",
		keywords: []string{"לוגריתם", "log"},
		subtopics: []subtopicEntry{
			{key: "log-equations", label: "משוואות לוגריתמיות", keywords: []string{"משוואה לוגריתמית"}},
			{key: "log-rules", label: "חוקי לוגריתמים", keywords: []string{"חוקי לוגריתמים", "בסיס הלוגריתם"}},
		},
		weight: weightMedium,
	},
	{
		key: "vectors", label: "וקטורים",
		keywords: []string{"וקטור", "וקטורים"},
		subtopics: []subtopicEntry{
			{key: "vector-algebra", label: "אלגברה וקטורית", keywords: []string{"מכפלה סקלרית", "אורך וקטור"}},
			{key: "vectors-in-space", label: "וקטורים במרחב", keywords: []string{"במרחב", "מישור"}},
		},
		weight: weightHard,
	},
	{
		key: "complex-numbers", label: "מספרים מרוכבים",
		keywords: []string{"מספר מרוכב", "מספרים מרוכבים", "חלק ממשי", "חלק מדומה"},
		subtopics: []subtopicEntry{
			{key: "polar-form", label: "הצגה קוטבית", keywords: []string{"הצגה קוטבית", "צורה טריגונומטרית"}},
			{key: "de-moivre", label: "משפט דה-מואבר", keywords: []string{"דה מואבר", "דה-מואבר"}},
		},
		weight: weightHard,
	},
}

// complexityIndicators: формулировки доказательства и многоэтапного анализа
var complexityIndicators = []string{
	"הוכח", "הראה כי", "הראו כי", "נמק", "הסבר מדוע", "חקור", "מצא את כל", "בטא את",
}

const maxComplexityPoints = 2

// multiStepMarkers: явное деление задачи на части
var multiStepMarkers = []string{
	"א)", "ב)", "(א)", "(ב)", "סעיף ב", "לאחר מכן", "בשלב הבא",
}

// Пороги длины текста в рунах
const (
	longTextRunes     = 150
	veryLongTextRunes = 300
)

// Пороги итоговой метки сложности
const (
	hardScoreThreshold   = 7
	mediumScoreThreshold = 4
)
