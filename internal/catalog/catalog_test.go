package catalog

import "testing"

func TestEveryTemplateHasFiveOrderedSteps(t *testing.T) {
	for _, tpl := range Templates() {
		steps := StepsFor(tpl.ID)
		if len(steps) != 5 {
			t.Fatalf("template %s: expected 5 steps, got %d", tpl.ID, len(steps))
		}
		for i, st := range steps {
			if st.StepNumber != i+1 {
				t.Fatalf("template %s: step %d has number %d", tpl.ID, i, st.StepNumber)
			}
			if st.TemplateID != tpl.ID {
				t.Fatalf("step %s references wrong template", st.ID)
			}
		}
	}
}

func TestTemplateByID(t *testing.T) {
	if _, ok := TemplateByID("tmpl1"); !ok {
		t.Fatal("expected tmpl1 to exist")
	}
	if _, ok := TemplateByID("tmpl99"); ok {
		t.Fatal("expected tmpl99 to be missing")
	}
}

func TestMaterialsForRole(t *testing.T) {
	for _, m := range MaterialsForRole("employee") {
		found := false
		for _, r := range m.TargetRoles {
			if r == "employee" {
				found = true
			}
		}
		if !found {
			t.Fatalf("material %s not targeted at employee", m.ID)
		}
	}
	if len(MaterialsForRole("employee")) == 0 {
		t.Fatal("expected employee materials")
	}
}

func TestResistanceCourseShape(t *testing.T) {
	course, ok := CourseFor("lm3")
	if !ok {
		t.Fatal("expected lm3 course")
	}
	if len(course.Lessons) != 5 {
		t.Fatalf("expected 5 lessons, got %d", len(course.Lessons))
	}
	if len(course.Quiz.Questions) != 8 {
		t.Fatalf("expected 8 quiz questions, got %d", len(course.Quiz.Questions))
	}
	if course.Quiz.PassThreshold != 6 {
		t.Fatalf("expected pass threshold 6, got %d", course.Quiz.PassThreshold)
	}
	if course.QuizWeight != 1 {
		t.Fatalf("expected quiz weight 1, got %d", course.QuizWeight)
	}
	if course.Lessons[0].ID != "lm3-lesson-1" {
		t.Fatalf("unexpected lesson id %q", course.Lessons[0].ID)
	}
	for _, q := range course.Quiz.Questions {
		if q.CorrectIndex < 0 || q.CorrectIndex >= len(q.Options) {
			t.Fatalf("question %s: correct index out of range", q.ID)
		}
	}
}

func TestGenericCourseOnlyForCourseMaterials(t *testing.T) {
	course, ok := CourseFor("lm1")
	if !ok {
		t.Fatal("expected generated course for lm1")
	}
	if course.QuizWeight != 0 {
		t.Fatalf("expected quiz weight 0, got %d", course.QuizWeight)
	}
	if len(course.Lessons) != 5 || len(course.Quiz.Questions) != 5 {
		t.Fatalf("unexpected course shape: %d lessons, %d questions", len(course.Lessons), len(course.Quiz.Questions))
	}
	if course.Lessons[2].ID != "lm1-lesson-3" {
		t.Fatalf("unexpected lesson id %q", course.Lessons[2].ID)
	}

	// lm2 is an article, no course runner
	if _, ok := CourseFor("lm2"); ok {
		t.Fatal("expected no course for article material")
	}
	if _, ok := CourseFor("missing"); ok {
		t.Fatal("expected no course for unknown material")
	}
}

func TestSeedReferencesExistingTemplates(t *testing.T) {
	seed := Seed()
	if len(seed.Users) != 5 {
		t.Fatalf("expected 5 seed users, got %d", len(seed.Users))
	}
	for _, p := range seed.Projects {
		if _, ok := TemplateByID(p.TemplateID); !ok {
			t.Fatalf("project %s references unknown template %s", p.ID, p.TemplateID)
		}
	}
	for _, lp := range seed.LearningProgress {
		if _, ok := MaterialByID(lp.MaterialID); !ok {
			t.Fatalf("progress %s references unknown material %s", lp.ID, lp.MaterialID)
		}
	}
}
