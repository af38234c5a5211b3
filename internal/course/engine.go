// Package course implements the lesson progression rules: sequential
// unlocking, progress percentages, and quiz scoring. It operates on
// catalog course definitions and a set of completed lesson ids, so the
// same rules serve every course variant.
package course

import (
	"math"

	"changeflow/api/internal/catalog"
)

// LessonUnlocked reports whether the lesson at index is available.
// Lesson 0 is always unlocked; lesson i requires lesson i-1 complete.
func LessonUnlocked(c catalog.Course, completed map[string]bool, index int) bool {
	if index < 0 || index >= len(c.Lessons) {
		return false
	}
	if index == 0 {
		return true
	}
	return completed[c.Lessons[index-1].ID]
}

// CompletedCount counts the course's lessons present in the completed
// set. Ids from other courses are ignored.
func CompletedCount(c catalog.Course, completed map[string]bool) int {
	n := 0
	for _, l := range c.Lessons {
		if completed[l.ID] {
			n++
		}
	}
	return n
}

// Percent computes the material progress. The quiz contributes
// QuizWeight units to both sides of the ratio.
func Percent(c catalog.Course, completedLessons int, quizDone bool) int {
	total := len(c.Lessons) + c.QuizWeight
	if total == 0 {
		return 0
	}
	units := completedLessons
	if quizDone {
		units += c.QuizWeight
	}
	if units > total {
		units = total
	}
	return int(math.Round(float64(units) / float64(total) * 100))
}

// QuizAvailable reports whether the final quiz is unlocked. Every
// lesson must be completed first.
func QuizAvailable(c catalog.Course, completed map[string]bool) bool {
	return CompletedCount(c, completed) == len(c.Lessons)
}

// Score counts correct answers. Answers beyond the question list and
// sentinel -1 entries are ignored.
func Score(q catalog.Quiz, answers []int) int {
	score := 0
	for i, qq := range q.Questions {
		if i >= len(answers) {
			break
		}
		if answers[i] == qq.CorrectIndex {
			score++
		}
	}
	return score
}

// Passed reports whether a score meets the course's pass threshold.
func Passed(q catalog.Quiz, score int) bool {
	return score >= q.PassThreshold
}
