package catalog

type Material struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	ContentType string   `json:"content_type"`
	TargetRoles []string `json:"target_roles"`
	Content     string   `json:"content"`
	FileURL     string   `json:"file_url,omitempty"`
	DurationMin int      `json:"duration_min,omitempty"`
	Category    string   `json:"category"`
}

var materials = []Material{
	{ID: "lm1", Title: "Основы управления изменениями", ContentType: "course", TargetRoles: []string{"admin", "manager", "employee"}, Content: "Курс охватывает модели Коттера, ADKAR и Левина. Практические кейсы внедрения изменений на российских предприятиях.", DurationMin: 120, Category: "Основы"},
	{ID: "lm2", Title: "8 шагов Коттера для трансформации", ContentType: "article", TargetRoles: []string{"admin", "manager"}, Content: "Детальный разбор 8 шагов Джона Коттера с примерами из практики.", DurationMin: 30, Category: "Методологии"},
	{ID: "lm3", Title: "Преодоление сопротивления изменениям", ContentType: "guide", TargetRoles: []string{"manager"}, Content: "Практическое руководство по работе с сопротивлением: диагностика, стратегии, коммуникация.", DurationMin: 45, Category: "Коммуникация"},
	{ID: "lm4", Title: "Картирование потока создания ценности (VSM)", ContentType: "video", TargetRoles: []string{"manager", "employee"}, Content: "Видеоурок по составлению карт потоков создания ценности.", DurationMin: 60, Category: "Lean"},
	{ID: "lm5", Title: "Цифровая трансформация: с чего начать", ContentType: "course", TargetRoles: []string{"admin", "manager"}, Content: "Пошаговое руководство по запуску цифровой трансформации предприятия.", DurationMin: 90, Category: "Цифровизация"},
	{ID: "lm6", Title: "Чек-лист запуска проекта изменений", ContentType: "checklist", TargetRoles: []string{"manager"}, Content: "25 пунктов для проверки готовности к запуску проекта трансформации.", DurationMin: 15, Category: "Инструменты"},
	{ID: "lm7", Title: "Лидерство в период изменений", ContentType: "article", TargetRoles: []string{"admin", "manager"}, Content: "Роль лидера в трансформации: от спонсора до агента изменений.", DurationMin: 25, Category: "Лидерство"},
	{ID: "lm8", Title: "Метрики эффективности изменений", ContentType: "guide", TargetRoles: []string{"admin", "manager"}, Content: "KPI для оценки эффективности программ трансформации: adoption rate, time-to-value, ROI.", DurationMin: 35, Category: "Аналитика"},
	{ID: "lm9", Title: "Производственная система: основы TPS", ContentType: "video", TargetRoles: []string{"manager", "employee"}, Content: "Введение в Toyota Production System: история, принципы, инструменты.", DurationMin: 75, Category: "Lean"},
	{ID: "lm10", Title: "Коммуникация изменений: шаблоны и скрипты", ContentType: "guide", TargetRoles: []string{"manager", "employee"}, Content: "Готовые шаблоны писем, презентаций и скриптов для коммуникации изменений.", DurationMin: 20, Category: "Коммуникация"},
}

// Materials returns the learning material library.
func Materials() []Material {
	out := make([]Material, len(materials))
	copy(out, materials)
	return out
}

// MaterialByID looks up a learning material.
func MaterialByID(id string) (Material, bool) {
	for _, m := range materials {
		if m.ID == id {
			return m, true
		}
	}
	return Material{}, false
}

// MaterialsForRole filters the library by a target role.
func MaterialsForRole(role string) []Material {
	var out []Material
	for _, m := range materials {
		for _, r := range m.TargetRoles {
			if r == role {
				out = append(out, m)
				break
			}
		}
	}
	return out
}
