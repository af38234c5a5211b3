// Package catalog holds the static reference content: transformation
// algorithm templates, the learning material library, and structured
// course definitions. The content is configuration data for the
// engine, not logic.
package catalog

type Template struct {
	ID                 string `json:"id"`
	Name               string `json:"name"`
	Description        string `json:"description"`
	TransformationType string `json:"transformation_type"`
	DurationWeeks      int    `json:"duration_weeks"`
	Icon               string `json:"icon"`
	Color              string `json:"color"`
}

type TemplateStep struct {
	ID           string `json:"id"`
	TemplateID   string `json:"template_id"`
	StepNumber   int    `json:"step_number"`
	Name         string `json:"name"`
	Description  string `json:"description"`
	DurationDays int    `json:"duration_days"`
}

var templates = []Template{
	{
		ID: "tmpl1", Name: "Бережливое производство (Lean)",
		Description:        "Внедрение принципов бережливого производства: устранение потерь, оптимизация потоков создания ценности, стандартизация процессов. Основан на методологии Toyota Production System.",
		TransformationType: "lean", DurationWeeks: 24, Icon: "Cog", Color: "hsl(142, 76%, 36%)",
	},
	{
		ID: "tmpl2", Name: "Цифровая трансформация",
		Description:        "Комплексная цифровизация бизнес-процессов: внедрение ERP/CRM, автоматизация документооборота, цифровые рабочие места, аналитика данных.",
		TransformationType: "digital", DurationWeeks: 36, Icon: "Monitor", Color: "hsl(224, 76%, 48%)",
	},
	{
		ID: "tmpl3", Name: "Трансформация корпоративной культуры",
		Description:        "Изменение ценностей и поведенческих моделей: от иерархической к адаптивной культуре. Развитие лидерства, вовлечённости и кросс-функционального взаимодействия.",
		TransformationType: "culture", DurationWeeks: 48, Icon: "Users", Color: "hsl(280, 67%, 51%)",
	},
	{
		ID: "tmpl4", Name: "Производственная система предприятия (ПСС)",
		Description:        "Создание целостной производственной системы: стандартизация, визуальное управление, TPM, встроенное качество, непрерывное совершенствование.",
		TransformationType: "pss", DurationWeeks: 52, Icon: "Factory", Color: "hsl(38, 92%, 50%)",
	},
	{
		ID: "tmpl5", Name: "Организационная реструктуризация",
		Description:        "Перестройка организационной структуры: переход к процессному управлению, оптимизация уровней управления, создание центров компетенций.",
		TransformationType: "structure", DurationWeeks: 20, Icon: "Network", Color: "hsl(0, 84%, 60%)",
	},
}

var templateSteps = []TemplateStep{
	{ID: "ts1", TemplateID: "tmpl1", StepNumber: 1, Name: "Диагностика текущего состояния", Description: "Картирование потоков создания ценности", DurationDays: 21},
	{ID: "ts2", TemplateID: "tmpl1", StepNumber: 2, Name: "Определение потерь", Description: "Выявление 8 видов потерь в процессах", DurationDays: 14},
	{ID: "ts3", TemplateID: "tmpl1", StepNumber: 3, Name: "Разработка целевого состояния", Description: "Проектирование оптимизированных процессов", DurationDays: 21},
	{ID: "ts4", TemplateID: "tmpl1", StepNumber: 4, Name: "Пилотное внедрение", Description: "Запуск на одном участке", DurationDays: 42},
	{ID: "ts5", TemplateID: "tmpl1", StepNumber: 5, Name: "Масштабирование и стандартизация", Description: "Тиражирование на все подразделения", DurationDays: 70},

	{ID: "ts6", TemplateID: "tmpl2", StepNumber: 1, Name: "Аудит цифровой зрелости", Description: "Оценка текущего уровня цифровизации", DurationDays: 14},
	{ID: "ts7", TemplateID: "tmpl2", StepNumber: 2, Name: "Разработка дорожной карты", Description: "Приоритизация инициатив цифровизации", DurationDays: 21},
	{ID: "ts8", TemplateID: "tmpl2", StepNumber: 3, Name: "Выбор и настройка платформ", Description: "Подбор технологических решений", DurationDays: 42},
	{ID: "ts9", TemplateID: "tmpl2", StepNumber: 4, Name: "Обучение и адаптация", Description: "Подготовка персонала к работе с новыми системами", DurationDays: 35},
	{ID: "ts10", TemplateID: "tmpl2", StepNumber: 5, Name: "Полное развёртывание", Description: "Запуск систем в промышленную эксплуатацию", DurationDays: 56},

	{ID: "ts11", TemplateID: "tmpl3", StepNumber: 1, Name: "Исследование текущей культуры", Description: "Опросы, интервью, анализ артефактов", DurationDays: 28},
	{ID: "ts12", TemplateID: "tmpl3", StepNumber: 2, Name: "Формулирование целевых ценностей", Description: "Воркшопы с лидерами", DurationDays: 21},
	{ID: "ts13", TemplateID: "tmpl3", StepNumber: 3, Name: "Программа лидерства", Description: "Развитие лидеров-агентов изменений", DurationDays: 56},
	{ID: "ts14", TemplateID: "tmpl3", StepNumber: 4, Name: "Каскадирование изменений", Description: "Вовлечение всех уровней организации", DurationDays: 84},
	{ID: "ts15", TemplateID: "tmpl3", StepNumber: 5, Name: "Закрепление и мониторинг", Description: "Ритуалы, признание, метрики культуры", DurationDays: 70},

	{ID: "ts16", TemplateID: "tmpl4", StepNumber: 1, Name: "Формирование команды ПСС", Description: "Отбор и обучение внутренних экспертов", DurationDays: 21},
	{ID: "ts17", TemplateID: "tmpl4", StepNumber: 2, Name: "Диагностика производства", Description: "Анализ OEE, качества, безопасности", DurationDays: 28},
	{ID: "ts18", TemplateID: "tmpl4", StepNumber: 3, Name: "Внедрение базовых инструментов", Description: "5S, визуальное управление, стандартные операции", DurationDays: 56},
	{ID: "ts19", TemplateID: "tmpl4", StepNumber: 4, Name: "Продвинутые практики", Description: "TPM, SMED, встроенное качество", DurationDays: 84},
	{ID: "ts20", TemplateID: "tmpl4", StepNumber: 5, Name: "Система непрерывного улучшения", Description: "Кайдзен, A3, система предложений", DurationDays: 70},

	{ID: "ts21", TemplateID: "tmpl5", StepNumber: 1, Name: "Анализ текущей структуры", Description: "Аудит оргструктуры и функций", DurationDays: 14},
	{ID: "ts22", TemplateID: "tmpl5", StepNumber: 2, Name: "Проектирование новой структуры", Description: "Моделирование вариантов", DurationDays: 21},
	{ID: "ts23", TemplateID: "tmpl5", StepNumber: 3, Name: "План перехода", Description: "Дорожная карта трансформации", DurationDays: 14},
	{ID: "ts24", TemplateID: "tmpl5", StepNumber: 4, Name: "Реализация изменений", Description: "Поэтапный переход", DurationDays: 56},
	{ID: "ts25", TemplateID: "tmpl5", StepNumber: 5, Name: "Стабилизация", Description: "Адаптация и оптимизация", DurationDays: 35},
}

// Templates returns all transformation algorithm templates.
func Templates() []Template {
	out := make([]Template, len(templates))
	copy(out, templates)
	return out
}

// TemplateByID looks up a template.
func TemplateByID(id string) (Template, bool) {
	for _, t := range templates {
		if t.ID == id {
			return t, true
		}
	}
	return Template{}, false
}

// StepsFor returns the ordered step definitions of a template.
func StepsFor(templateID string) []TemplateStep {
	var out []TemplateStep
	for _, st := range templateSteps {
		if st.TemplateID == templateID {
			out = append(out, st)
		}
	}
	return out
}
