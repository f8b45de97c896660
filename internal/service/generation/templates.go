package generation

import (
	"context"
	"fmt"
	"math/rand"
	"strconv"

	"github.com/yourusername/practice-api/internal/domain/entity"
	"github.com/yourusername/practice-api/internal/service/similarity"
)

const maxTemplateDraws = 12

type templateFunc func(r *rand.Rand, d entity.Difficulty) Generated

// templates по slug темы; "general" - запасной вариант для тем без своего шаблона
var templates = map[string]templateFunc{
	"algebra":     linearEquation,
	"geometry":    rectangleProblem,
	"probability": ballsProbability,
	"statistics":  meanProblem,
	"sequences":   arithmeticSequence,
	"calculus":    polynomialDerivative,
	"general":     percentDiscount,
}

// TemplateGenerator - детерминированный запасной генератор: при одинаковых Seed и Avoid
// результат одинаков
type TemplateGenerator struct {
	// Fallback разрешает шаблон "general" для тем без своего шаблона
	Fallback bool
}

// NewTemplateGenerator создает генератор шаблонов
func NewTemplateGenerator() *TemplateGenerator {
	return &TemplateGenerator{Fallback: true}
}

func (g *TemplateGenerator) Name() string {
	return "template"
}

// Generate перебирает параметры, пока текст не перестанет повторять недавние вопросы
func (g *TemplateGenerator) Generate(ctx context.Context, in Input) (*Generated, error) {
	tmpl, ok := templates[in.TopicKey]
	name := in.TopicKey
	if !ok {
		if !g.Fallback {
			return nil, fmt.Errorf("%w: %s", ErrNoTemplate, in.TopicKey)
		}
		tmpl, name = templates["general"], "general"
	}

	excl := similarity.NewExclusions(nil, in.Avoid)
	r := rand.New(rand.NewSource(in.Seed))

	var out Generated
	for i := 0; i < maxTemplateDraws; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		out = tmpl(r, in.Difficulty)
		if !excl.ShownText(out.Text) && !excl.Rejects(out.Text) {
			break
		}
	}
	out.Source = entity.SourceTemplate
	out.Model = "template:" + name
	return &out, nil
}

func between(r *rand.Rand, lo, hi int) int {
	return lo + r.Intn(hi-lo+1)
}

// signed форматирует слагаемое со знаком: "+ 5" / "- 5"
func signed(v int) string {
	if v < 0 {
		return "- " + strconv.Itoa(-v)
	}
	return "+ " + strconv.Itoa(v)
}

func gcd(a, b int) int {
	for b != 0 {
		a, b = b, a%b
	}
	if a < 0 {
		return -a
	}
	return a
}

func fraction(num, den int) string {
	g := gcd(num, den)
	num, den = num/g, den/g
	if den == 1 {
		return strconv.Itoa(num)
	}
	return fmt.Sprintf("%d/%d", num, den)
}

func linearEquation(r *rand.Rand, d entity.Difficulty) Generated {
	switch d {
	case entity.DifficultyEasy:
		x, a, b := between(r, 1, 10), between(r, 2, 5), between(r, 1, 20)
		c := a*x + b
		return Generated{
			Text:          fmt.Sprintf("פתרו את המשוואה: %dx %s = %d", a, signed(b), c),
			CorrectAnswer: strconv.Itoa(x),
			Hints:         []string{"העבירו את המספר החופשי לאגף הימני", fmt.Sprintf("חלקו את שני האגפים ב-%d", a)},
			SolutionSteps: []string{fmt.Sprintf("%dx = %d", a, c-b), fmt.Sprintf("x = %d", x)},
		}
	case entity.DifficultyHard:
		x := between(r, -9, 12)
		a := between(r, 5, 12)
		dd := between(r, 2, a-1)
		b := between(r, -30, 30)
		e := (a-dd)*x + b
		return Generated{
			Text:          fmt.Sprintf("פתרו את המשוואה: %dx %s = %dx %s", a, signed(b), dd, signed(e)),
			CorrectAnswer: strconv.Itoa(x),
			Explanation:   "מכנסים איברים עם x לאגף אחד ומספרים לאגף השני",
			Hints:         []string{"העבירו את כל האיברים עם x לאגף השמאלי", "כנסו איברים דומים", "חלקו במקדם של x"},
			SolutionSteps: []string{fmt.Sprintf("%dx = %d", a-dd, e-b), fmt.Sprintf("x = %d", x)},
		}
	}
	x, a, b := between(r, -10, 15), between(r, 3, 9), between(r, -25, 25)
	c := a*x + b
	return Generated{
		Text:          fmt.Sprintf("פתרו את המשוואה: %dx %s = %d", a, signed(b), c),
		CorrectAnswer: strconv.Itoa(x),
		Hints:         []string{"בודדו את האיבר עם x", "חלקו במקדם של x"},
		SolutionSteps: []string{fmt.Sprintf("%dx = %d", a, c-b), fmt.Sprintf("x = %d", x)},
	}
}

func rectangleProblem(r *rand.Rand, d entity.Difficulty) Generated {
	w, h := between(r, 2, 15), between(r, 3, 20)
	switch d {
	case entity.DifficultyEasy:
		return Generated{
			Text:          fmt.Sprintf("אורך מלבן הוא %d ס\"מ ורוחבו %d ס\"מ. מהו שטח המלבן בסמ\"ר?", h, w),
			CorrectAnswer: strconv.Itoa(w * h),
			Hints:         []string{"שטח מלבן שווה לאורך כפול רוחב"},
			SolutionSteps: []string{fmt.Sprintf("%d · %d = %d", h, w, w*h)},
		}
	case entity.DifficultyHard:
		s := between(r, 1, min(w, h)-1)
		area := w*h - s*s
		return Generated{
			Text: fmt.Sprintf("מלוח מלבני שמידותיו %d ס\"מ על %d ס\"מ גזרו ריבוע שצלעו %d ס\"מ מאחת הפינות. "+
				"מהו השטח של החלק שנשאר בסמ\"ר?", h, w, s),
			CorrectAnswer: strconv.Itoa(area),
			Explanation:   fmt.Sprintf("ההיקף לא משתנה בגזירת ריבוע מפינה ונשאר %d ס\"מ", 2*(w+h)),
			Hints:         []string{"חשבו את שטח המלוח כולו", "החסירו את שטח הריבוע שנגזר"},
			SolutionSteps: []string{fmt.Sprintf("%d · %d = %d", h, w, w*h), fmt.Sprintf("%d - %d = %d", w*h, s*s, area)},
		}
	}
	return Generated{
		Text:          fmt.Sprintf("שטח מלבן הוא %d סמ\"ר ואורך אחת מצלעותיו %d ס\"מ. מהו היקף המלבן?", w*h, h),
		CorrectAnswer: strconv.Itoa(2 * (w + h)),
		Hints:         []string{"מצאו קודם את הצלע השנייה", "היקף הוא סכום כל הצלעות"},
		SolutionSteps: []string{fmt.Sprintf("%d : %d = %d", w*h, h, w), fmt.Sprintf("2 · (%d + %d) = %d", h, w, 2*(w+h))},
	}
}

func ballsProbability(r *rand.Rand, d entity.Difficulty) Generated {
	red, blue := between(r, 2, 9), between(r, 2, 9)
	n := red + blue
	switch d {
	case entity.DifficultyEasy:
		return Generated{
			Text:          fmt.Sprintf("בשקית יש %d כדורים אדומים ו-%d כדורים כחולים. מוציאים כדור אחד באקראי. מה ההסתברות שהוא אדום?", red, blue),
			CorrectAnswer: fraction(red, n),
			Hints:         []string{"הסתברות = מספר התוצאות הרצויות חלקי מספר כל התוצאות"},
			SolutionSteps: []string{fmt.Sprintf("%d/%d", red, n), fraction(red, n)},
		}
	case entity.DifficultyHard:
		return Generated{
			Text: fmt.Sprintf("בשקית יש %d כדורים אדומים ו-%d כדורים כחולים. מוציאים שני כדורים בזה אחר זה בלי להחזיר. "+
				"מה ההסתברות ששני הכדורים באותו צבע?", red, blue),
			CorrectAnswer: fraction(red*(red-1)+blue*(blue-1), n*(n-1)),
			Hints:         []string{"חשבו בנפרד את ההסתברות לשני אדומים ולשני כחולים", "אחרי ההוצאה הראשונה נשאר כדור אחד פחות"},
			SolutionSteps: []string{
				fmt.Sprintf("%d/%d · %d/%d + %d/%d · %d/%d", red, n, red-1, n-1, blue, n, blue-1, n-1),
				fraction(red*(red-1)+blue*(blue-1), n*(n-1)),
			},
		}
	}
	return Generated{
		Text:          fmt.Sprintf("בשקית יש %d כדורים אדומים ו-%d כדורים כחולים. מוציאים כדור, מחזירים אותו ומוציאים שוב. מה ההסתברות ששני הכדורים כחולים?", red, blue),
		CorrectAnswer: fraction(blue*blue, n*n),
		Hints:         []string{"ההוצאות בלתי תלויות כי מחזירים את הכדור"},
		SolutionSteps: []string{fmt.Sprintf("%d/%d · %d/%d", blue, n, blue, n), fraction(blue*blue, n*n)},
	}
}

func meanProblem(r *rand.Rand, d entity.Difficulty) Generated {
	count := 4
	if d == entity.DifficultyHard {
		count = 5
	}
	grades := make([]int, count)
	sum := 0
	for i := 0; i < count-1; i++ {
		grades[i] = between(r, 55, 95)
		sum += grades[i]
	}
	// целый средний балл, при котором последняя оценка остаётся в пределах 50-100
	lo := (sum + 50 + count - 1) / count
	hi := (sum + 100) / count
	mean := between(r, lo, hi)
	grades[count-1] = mean*count - sum

	list := ""
	for i, g := range grades[:count-1] {
		if i > 0 {
			list += ", "
		}
		list += strconv.Itoa(g)
	}

	if d == entity.DifficultyEasy {
		all := list + ", " + strconv.Itoa(grades[count-1])
		return Generated{
			Text:          fmt.Sprintf("ציוני תלמיד בארבעה מבחנים הם: %s. מהו ממוצע הציונים?", all),
			CorrectAnswer: strconv.Itoa(mean),
			Hints:         []string{"חברו את כל הציונים וחלקו במספר המבחנים"},
			SolutionSteps: []string{fmt.Sprintf("%d : %d = %d", mean*count, count, mean)},
		}
	}
	return Generated{
		Text: fmt.Sprintf("ציוני תלמיד ב-%d מבחנים הם: %s. איזה ציון עליו לקבל במבחן הבא כדי שהממוצע של כל %d המבחנים יהיה %d?",
			count-1, list, count, mean),
		CorrectAnswer: strconv.Itoa(grades[count-1]),
		Hints:         []string{"חשבו את סכום הציונים הדרוש", "החסירו את סכום הציונים הקיימים"},
		SolutionSteps: []string{fmt.Sprintf("%d · %d = %d", mean, count, mean*count), fmt.Sprintf("%d - %d = %d", mean*count, sum, grades[count-1])},
	}
}

func arithmeticSequence(r *rand.Rand, d entity.Difficulty) Generated {
	a1, diff := between(r, -5, 20), between(r, 2, 9)
	n := between(r, 8, 30)
	an := a1 + (n-1)*diff
	if d == entity.DifficultyHard {
		sum := n * (a1 + an) / 2
		return Generated{
			Text:          fmt.Sprintf("בסדרה חשבונית האיבר הראשון הוא %d וההפרש הוא %d. מהו סכום %d האיברים הראשונים?", a1, diff, n),
			CorrectAnswer: strconv.Itoa(sum),
			Hints:         []string{"מצאו את האיבר האחרון", "סכום = מספר האיברים כפול ממוצע האיבר הראשון והאחרון"},
			SolutionSteps: []string{fmt.Sprintf("a%d = %d", n, an), fmt.Sprintf("S%d = %d · (%d + %d) / 2 = %d", n, n, a1, an, sum)},
		}
	}
	if d == entity.DifficultyEasy {
		n = between(r, 4, 8)
		an = a1 + (n-1)*diff
	}
	return Generated{
		Text:          fmt.Sprintf("בסדרה חשבונית האיבר הראשון הוא %d וההפרש הוא %d. מהו האיבר ה-%d בסדרה?", a1, diff, n),
		CorrectAnswer: strconv.Itoa(an),
		Hints:         []string{"האיבר ה-n שווה לאיבר הראשון ועוד (n-1) הפרשים"},
		SolutionSteps: []string{fmt.Sprintf("a%d = %d + (%d - 1) · %d = %d", n, a1, n, diff, an)},
	}
}

func polynomialDerivative(r *rand.Rand, d entity.Difficulty) Generated {
	a, b, c := between(r, 1, 6), between(r, -9, 9), between(r, -10, 10)
	k := between(r, -4, 5)
	if d == entity.DifficultyHard {
		value := 3*a*k*k + 2*b*k + c
		return Generated{
			Text:          fmt.Sprintf("נתונה הפונקציה f(x) = %dx³ %sx² %sx. חשבו את הנגזרת של הפונקציה בנקודה x = %d.", a, signed(b), signed(c), k),
			CorrectAnswer: strconv.Itoa(value),
			Hints:         []string{"גזרו כל איבר בנפרד", "הציבו את x בנגזרת"},
			SolutionSteps: []string{fmt.Sprintf("f'(x) = %dx² %sx %s", 3*a, signed(2*b), signed(c)), fmt.Sprintf("f'(%d) = %d", k, value)},
		}
	}
	value := 2*a*k + b
	return Generated{
		Text:          fmt.Sprintf("נתונה הפונקציה f(x) = %dx² %sx %s. מהי הנגזרת של הפונקציה בנקודה x = %d?", a, signed(b), signed(c), k),
		CorrectAnswer: strconv.Itoa(value),
		Hints:         []string{"הנגזרת של x² היא 2x"},
		SolutionSteps: []string{fmt.Sprintf("f'(x) = %dx %s", 2*a, signed(b)), fmt.Sprintf("f'(%d) = %d", k, value)},
	}
}

func percentDiscount(r *rand.Rand, d entity.Difficulty) Generated {
	price := between(r, 1, 15) * 40
	discounts := []int{10, 20, 25, 50}
	p := discounts[r.Intn(len(discounts))]
	final := price * (100 - p) / 100
	if d == entity.DifficultyHard {
		q := discounts[r.Intn(len(discounts))]
		twice := final * (100 - q) / 100
		// оставляем только целые ответы
		if final*(100-q)%100 != 0 {
			q = 50
			twice = final / 2
		}
		return Generated{
			Text: fmt.Sprintf("מחיר מעיל היה %d ש\"ח. בחודש הראשון המחיר הוזל ב-%d%%, ובחודש השני הוזל המחיר החדש בעוד %d%%. מה המחיר הסופי?",
				price, p, q),
			CorrectAnswer: strconv.Itoa(twice),
			Hints:         []string{"ההנחה השנייה מחושבת מהמחיר שאחרי ההנחה הראשונה"},
			SolutionSteps: []string{fmt.Sprintf("%d · %d%% = %d", price, 100-p, final), fmt.Sprintf("%d · %d%% = %d", final, 100-q, twice)},
		}
	}
	return Generated{
		Text:          fmt.Sprintf("מחיר חולצה הוא %d ש\"ח. המחיר הוזל ב-%d%%. מה המחיר החדש?", price, p),
		CorrectAnswer: strconv.Itoa(final),
		Hints:         []string{fmt.Sprintf("%d%% מהמחיר הם ההנחה", p)},
		SolutionSteps: []string{fmt.Sprintf("%d · %d / 100 = %d", price, p, price-final), fmt.Sprintf("%d - %d = %d", price, price-final, final)},
	}
}
