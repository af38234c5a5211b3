package course

import (
	"testing"

	"changeflow/api/internal/catalog"
)

func resistance(t *testing.T) catalog.Course {
	t.Helper()
	c, ok := catalog.CourseFor("lm3")
	if !ok {
		t.Fatal("lm3 course missing")
	}
	return c
}

func basics(t *testing.T) catalog.Course {
	t.Helper()
	c, ok := catalog.CourseFor("lm1")
	if !ok {
		t.Fatal("lm1 course missing")
	}
	return c
}

func TestSequentialUnlocking(t *testing.T) {
	c := resistance(t)
	completed := map[string]bool{}

	if !LessonUnlocked(c, completed, 0) {
		t.Fatal("first lesson must start unlocked")
	}
	for i := 1; i < len(c.Lessons); i++ {
		if LessonUnlocked(c, completed, i) {
			t.Fatalf("lesson %d unlocked with nothing completed", i)
		}
	}

	completed[c.Lessons[0].ID] = true
	if !LessonUnlocked(c, completed, 1) {
		t.Fatal("lesson 1 should unlock after lesson 0")
	}
	if LessonUnlocked(c, completed, 2) {
		t.Fatal("lesson 2 should stay locked")
	}

	if LessonUnlocked(c, completed, -1) || LessonUnlocked(c, completed, len(c.Lessons)) {
		t.Fatal("out-of-range index should never be unlocked")
	}
}

func TestPercentWithQuizUnit(t *testing.T) {
	c := resistance(t) // 5 lessons, quiz weight 1

	cases := []struct {
		lessons  int
		quizDone bool
		want     int
	}{
		{0, false, 0},
		{1, false, 17},
		{2, false, 33},
		{3, false, 50},
		{5, false, 83},
		{5, true, 100},
	}
	for _, tc := range cases {
		if got := Percent(c, tc.lessons, tc.quizDone); got != tc.want {
			t.Errorf("Percent(%d lessons, quiz=%v) = %d, want %d", tc.lessons, tc.quizDone, got, tc.want)
		}
	}
}

func TestPercentWithoutQuizUnit(t *testing.T) {
	c := basics(t) // 5 lessons, quiz weight 0

	cases := []struct {
		lessons  int
		quizDone bool
		want     int
	}{
		{0, false, 0},
		{2, false, 40},
		{3, false, 60},
		{5, false, 100},
		{5, true, 100},
	}
	for _, tc := range cases {
		if got := Percent(c, tc.lessons, tc.quizDone); got != tc.want {
			t.Errorf("Percent(%d lessons, quiz=%v) = %d, want %d", tc.lessons, tc.quizDone, got, tc.want)
		}
	}
}

func TestQuizGatedOnAllLessons(t *testing.T) {
	c := resistance(t)
	completed := map[string]bool{}
	for _, l := range c.Lessons[:len(c.Lessons)-1] {
		completed[l.ID] = true
	}
	if QuizAvailable(c, completed) {
		t.Fatal("quiz available with a lesson outstanding")
	}
	completed[c.Lessons[len(c.Lessons)-1].ID] = true
	if !QuizAvailable(c, completed) {
		t.Fatal("quiz should be available after all lessons")
	}
}

func TestCompletedCountIgnoresForeignLessons(t *testing.T) {
	c := resistance(t)
	completed := map[string]bool{
		c.Lessons[0].ID: true,
		"lm1-lesson-1":  true,
	}
	if got := CompletedCount(c, completed); got != 1 {
		t.Fatalf("expected 1 completed lesson, got %d", got)
	}
}

func TestScoreAndPassThreshold(t *testing.T) {
	c := resistance(t)
	q := c.Quiz

	// All correct
	answers := make([]int, len(q.Questions))
	for i, qq := range q.Questions {
		answers[i] = qq.CorrectIndex
	}
	if got := Score(q, answers); got != len(q.Questions) {
		t.Fatalf("expected full score, got %d", got)
	}
	if !Passed(q, Score(q, answers)) {
		t.Fatal("full score should pass")
	}

	// Exactly at threshold
	short := make([]int, len(q.Questions))
	copy(short, answers)
	for i := q.PassThreshold; i < len(short); i++ {
		short[i] = -1
	}
	score := Score(q, short)
	if score != q.PassThreshold {
		t.Fatalf("expected score %d, got %d", q.PassThreshold, score)
	}
	if !Passed(q, score) {
		t.Fatal("threshold score should pass")
	}
	if Passed(q, score-1) {
		t.Fatal("below threshold should fail")
	}
}

func TestScoreWithPartialAnswerSlice(t *testing.T) {
	c := resistance(t)
	q := c.Quiz
	answers := []int{q.Questions[0].CorrectIndex}
	if got := Score(q, answers); got != 1 {
		t.Fatalf("expected 1, got %d", got)
	}
	if got := Score(q, nil); got != 0 {
		t.Fatalf("expected 0 for no answers, got %d", got)
	}
}
