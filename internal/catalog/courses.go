package catalog

import "fmt"

// Lesson is one unit of a structured course. Lesson ids are strings of
// the form "<material>-lesson-<n>" so progress records stay unique per
// material.
type Lesson struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Subtitle    string `json:"subtitle,omitempty"`
	DurationMin int    `json:"duration_min"`
}

type QuizQuestion struct {
	ID           string   `json:"id"`
	Question     string   `json:"question"`
	Options      []string `json:"options"`
	CorrectIndex int      `json:"correct_index"`
	Explanation  string   `json:"explanation"`
}

type Quiz struct {
	Questions     []QuizQuestion `json:"questions"`
	PassThreshold int            `json:"pass_threshold"`
}

// Course pairs a material's lessons with its final quiz. QuizWeight is
// the number of extra units the quiz contributes to the progress
// denominator; course variants disagree on whether the quiz counts, so
// it is carried as data instead of a fixed rule.
type Course struct {
	MaterialID string   `json:"material_id"`
	Lessons    []Lesson `json:"lessons"`
	Quiz       Quiz     `json:"quiz"`
	QuizWeight int      `json:"quiz_weight"`
}

var resistanceCourse = Course{
	MaterialID: "lm3",
	QuizWeight: 1,
	Lessons: []Lesson{
		{ID: "lm3-lesson-1", Title: "Природа сопротивления", Subtitle: "Почему люди сопротивляются изменениям и как это распознать", DurationMin: 25},
		{ID: "lm3-lesson-2", Title: "Диагностика и анализ", Subtitle: "Инструменты выявления причин и масштабов сопротивления", DurationMin: 30},
		{ID: "lm3-lesson-3", Title: "Стратегии преодоления", Subtitle: "Проверенные подходы к работе с разными типами сопротивления", DurationMin: 35},
		{ID: "lm3-lesson-4", Title: "Роль лидера и команды", Subtitle: "Как лидеры могут стать катализаторами изменений", DurationMin: 30},
		{ID: "lm3-lesson-5", Title: "Закрепление результатов", Subtitle: "Как сделать изменения необратимыми и устойчивыми", DurationMin: 35},
	},
	Quiz: Quiz{
		PassThreshold: 6,
		Questions: []QuizQuestion{
			{ID: "lm3-q1", Question: "Какой процент программ изменений терпит неудачу из-за сопротивления сотрудников?", Options: []string{"30%", "50%", "70%", "90%"}, CorrectIndex: 2, Explanation: "Исследования показывают, что до 70% программ организационных изменений терпят неудачу."},
			{ID: "lm3-q2", Question: "Какая модель описывает 5 барьеров принятия изменений?", Options: []string{"Модель Левина", "ADKAR", "8 шагов Коттера", "Модель Бриджеса"}, CorrectIndex: 1, Explanation: "ADKAR (Awareness, Desire, Knowledge, Ability, Reinforcement) описывает последовательные барьеры."},
			{ID: "lm3-q3", Question: "Что означает правило 7×7 в коммуникации изменений?", Options: []string{"7 встреч по 7 минут", "7 сообщений через 7 каналов", "7 дней по 7 часов", "7 команд по 7 человек"}, CorrectIndex: 1, Explanation: "Сообщение должно быть донесено 7 раз через 7 разных каналов для усвоения."},
			{ID: "lm3-q4", Question: "Какой фактор является главным предиктором успеха трансформации?", Options: []string{"Бюджет проекта", "Технология", "Сильный спонсор-лидер", "Внешние консультанты"}, CorrectIndex: 2, Explanation: "93% успешных трансформаций имели сильного лидера-спонсора."},
			{ID: "lm3-q5", Question: "По Коттеру, какой шаг чаще всего игнорируется?", Options: []string{"Создание видения", "Формирование коалиции", "Быстрые победы", "Закрепление в культуре"}, CorrectIndex: 3, Explanation: "8-й шаг — закрепление в корпоративной культуре — самый часто игнорируемый."},
			{ID: "lm3-q6", Question: "Какой инструмент помогает визуализировать движущие и сдерживающие силы?", Options: []string{"SWOT-анализ", "Анализ силового поля Левина", "Матрица Эйзенхауэра", "Диаграмма Ганта"}, CorrectIndex: 1, Explanation: "Метод Курта Левина визуализирует баланс движущих и сдерживающих сил."},
			{ID: "lm3-q7", Question: "Что такое «агенты изменений»?", Options: []string{"Внешние консультанты", "Неформальные лидеры в подразделениях", "Топ-менеджеры", "HR-специалисты"}, CorrectIndex: 1, Explanation: "Агенты изменений — 1-2 человека в каждом подразделении, продвигающие изменения на местах."},
			{ID: "lm3-q8", Question: "Без закрепления, какой процент изменений откатывается в течение 2 лет?", Options: []string{"30%", "50%", "65%", "80%"}, CorrectIndex: 3, Explanation: "Без институционализации до 80% изменений откатываются в течение 2 лет."},
		},
	},
}

var basicsLessonNames = []string{"Введение и контекст", "Диагностика", "Инструменты", "Практика применения", "Закрепление"}
var basicsLessonDurations = []int{35, 40, 45, 40, 50}

// buildBasicsCourse derives a generic 5-lesson course for materials
// without a hand-authored course. The quiz does not add a unit to the
// progress denominator in this variant.
func buildBasicsCourse(m Material) Course {
	lessons := make([]Lesson, len(basicsLessonNames))
	for i, name := range basicsLessonNames {
		lessons[i] = Lesson{
			ID:          fmt.Sprintf("%s-lesson-%d", m.ID, i+1),
			Title:       fmt.Sprintf("Занятие %d. %s", i+1, name),
			Subtitle:    m.Title,
			DurationMin: basicsLessonDurations[i],
		}
	}
	return Course{
		MaterialID: m.ID,
		QuizWeight: 0,
		Lessons:    lessons,
		Quiz: Quiz{
			PassThreshold: 3,
			Questions: []QuizQuestion{
				{ID: m.ID + "-q1", Question: fmt.Sprintf("Какова главная цель курса «%s»?", m.Title), Options: []string{"Сократить бюджет", "Освоить системный подход к изменениям", "Заменить руководителей", "Отменить изменения"}, CorrectIndex: 1, Explanation: "Курс учит системному подходу к планированию и проведению изменений."},
				{ID: m.ID + "-q2", Question: "С чего начинается работа с изменениями в подразделении?", Options: []string{"С приказа", "С наказаний", "С диагностики текущего состояния", "С найма консультантов"}, CorrectIndex: 2, Explanation: "Диагностика текущего состояния предшествует любым вмешательствам."},
				{ID: m.ID + "-q3", Question: "Что усиливает вовлечённость сотрудников в изменения?", Options: []string{"Жёсткий контроль", "Регулярная коммуникация и участие", "Секретность планов", "Сокращение обучения"}, CorrectIndex: 1, Explanation: "Коммуникация и вовлечение снижают сопротивление и повышают принятие."},
				{ID: m.ID + "-q4", Question: "Зачем нужны быстрые победы в программе изменений?", Options: []string{"Чтобы показать ценность изменений на раннем этапе", "Чтобы отчитаться перед советом", "Чтобы сократить бюджет", "Чтобы ускорить увольнения"}, CorrectIndex: 0, Explanation: "Быстрые победы подтверждают направление и поддерживают мотивацию."},
				{ID: m.ID + "-q5", Question: "Что делает изменения устойчивыми?", Options: []string{"Разовая презентация", "Устные договорённости", "Закрепление в процессах и системе мотивации", "Смена названия отдела"}, CorrectIndex: 2, Explanation: "Институционализация в процессах и KPI предотвращает откат."},
			},
		},
	}
}

// CourseFor returns the course definition for a material id. Materials
// without lessons (articles, checklists) have no course.
func CourseFor(materialID string) (Course, bool) {
	if materialID == resistanceCourse.MaterialID {
		return resistanceCourse, true
	}
	m, ok := MaterialByID(materialID)
	if !ok || m.ContentType != "course" {
		return Course{}, false
	}
	return buildBasicsCourse(m), true
}
