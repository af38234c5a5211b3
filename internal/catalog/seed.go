package catalog

import "changeflow/api/internal/store"

// Seed returns the demo dataset written on first start when the store
// is empty.
func Seed() store.Document {
	return store.Document{
		Tenants: []store.Tenant{
			{ID: "t1", Name: "ООО «Прогресс»", INN: "7712345678", Industry: "Производство"},
		},
		Users: []store.User{
			{ID: "u1", TenantID: "t1", Email: "admin@progress.ru", FullName: "Иванов Алексей", Role: store.RoleAdmin, Department: "Управление"},
			{ID: "u2", TenantID: "t1", Email: "manager@progress.ru", FullName: "Петрова Мария", Role: store.RoleManager, Department: "Производство"},
			{ID: "u3", TenantID: "t1", Email: "employee@progress.ru", FullName: "Сидоров Дмитрий", Role: store.RoleEmployee, Department: "Логистика"},
			{ID: "u4", TenantID: "t1", Email: "employee2@progress.ru", FullName: "Козлова Анна", Role: store.RoleEmployee, Department: "HR"},
			{ID: "u5", TenantID: "t1", Email: "manager2@progress.ru", FullName: "Волков Сергей", Role: store.RoleManager, Department: "IT"},
		},
		Projects: []store.Project{
			{ID: "p1", TenantID: "t1", TemplateID: "tmpl1", Name: "Оптимизация склада", StartDate: "2025-09-01", OwnerID: "u2", Status: store.ProjectStatusInProgress, ProgressPercent: 45, Description: "Внедрение lean-принципов на складе готовой продукции"},
			{ID: "p2", TenantID: "t1", TemplateID: "tmpl2", Name: "Внедрение CRM", StartDate: "2025-10-15", OwnerID: "u5", Status: store.ProjectStatusPlanning, ProgressPercent: 10, Description: "Цифровизация процессов продаж и работы с клиентами"},
			{ID: "p3", TenantID: "t1", TemplateID: "tmpl3", Name: "Культура безопасности", StartDate: "2025-07-01", OwnerID: "u2", Status: store.ProjectStatusInProgress, ProgressPercent: 65, Description: "Развитие культуры безопасности на производстве"},
			{ID: "p4", TenantID: "t1", TemplateID: "tmpl4", Name: "ПСС Цех №3", StartDate: "2025-06-01", OwnerID: "u2", Status: store.ProjectStatusCompleted, ProgressPercent: 100, Description: "Создание производственной системы в цехе №3"},
		},
		ProjectSteps: []store.ProjectStep{
			{ID: "ps1", ProjectID: "p1", StepNumber: 1, Name: "Диагностика текущего состояния", Status: store.StepStatusCompleted, StartDate: "2025-09-01", EndDate: "2025-09-21"},
			{ID: "ps2", ProjectID: "p1", StepNumber: 2, Name: "Определение потерь", Status: store.StepStatusCompleted, StartDate: "2025-09-22", EndDate: "2025-10-05"},
			{ID: "ps3", ProjectID: "p1", StepNumber: 3, Name: "Разработка целевого состояния", Status: store.StepStatusInProgress, StartDate: "2025-10-06"},
			{ID: "ps4", ProjectID: "p1", StepNumber: 4, Name: "Пилотное внедрение", Status: store.StepStatusPending},
			{ID: "ps5", ProjectID: "p1", StepNumber: 5, Name: "Масштабирование", Status: store.StepStatusPending},
		},
		Feedback: []store.Feedback{
			{ID: "f1", TenantID: "t1", ProjectID: "p1", UserID: "u3", FeedbackType: "suggestion", Message: "Предлагаю добавить визуальные индикаторы на складе для ускорения поиска товаров", Status: store.FeedbackStatusReviewed, Sentiment: store.SentimentPositive, AiTags: []string{"визуальное управление", "5S", "склад"}, AnalysisStatus: store.AnalysisCompleted, CreatedAt: "2025-11-15T10:30:00Z"},
			{ID: "f2", TenantID: "t1", ProjectID: "p1", UserID: "u4", FeedbackType: "concern", Message: "Сотрудники склада обеспокоены возможным сокращением штата после оптимизации", Status: store.FeedbackStatusInProgress, Sentiment: store.SentimentNegative, AiTags: []string{"сопротивление", "коммуникация", "персонал"}, AnalysisStatus: store.AnalysisCompleted, CreatedAt: "2025-11-16T14:20:00Z"},
			{ID: "f3", TenantID: "t1", ProjectID: "p3", UserID: "u3", FeedbackType: "praise", Message: "Новые инструктажи по безопасности стали намного понятнее и интереснее", Status: store.FeedbackStatusResolved, Sentiment: store.SentimentPositive, AiTags: []string{"обучение", "безопасность", "обратная связь"}, AnalysisStatus: store.AnalysisCompleted, CreatedAt: "2025-11-17T09:15:00Z"},
			{ID: "f4", TenantID: "t1", ProjectID: "p2", UserID: "u5", FeedbackType: "question", Message: "Когда начнётся обучение работе в новой CRM-системе?", Status: store.FeedbackStatusNew, Sentiment: store.SentimentNeutral, AiTags: []string{"обучение", "CRM", "планирование"}, AnalysisStatus: store.AnalysisCompleted, CreatedAt: "2025-11-18T11:00:00Z"},
			{ID: "f5", TenantID: "t1", ProjectID: "p1", UserID: "u4", FeedbackType: "suggestion", Message: "Можно использовать цветовую маркировку зон хранения по типу товаров", Status: store.FeedbackStatusNew, Sentiment: store.SentimentPositive, AiTags: []string{"визуальное управление", "маркировка", "организация"}, AnalysisStatus: store.AnalysisCompleted, CreatedAt: "2025-11-19T16:45:00Z"},
		},
		LearningProgress: []store.LearningProgress{
			{ID: "ulp1", UserID: "u1", MaterialID: "lm1", CompletedAt: "2025-10-01T12:00:00Z", ProgressPercent: 100},
			{ID: "ulp2", UserID: "u1", MaterialID: "lm2", CompletedAt: "2025-10-05T15:00:00Z", ProgressPercent: 100},
			{ID: "ulp3", UserID: "u2", MaterialID: "lm1", ProgressPercent: 60},
			{ID: "ulp4", UserID: "u2", MaterialID: "lm4", CompletedAt: "2025-10-10T09:00:00Z", ProgressPercent: 100},
			{ID: "ulp5", UserID: "u3", MaterialID: "lm1", ProgressPercent: 30},
		},
		LessonProgress:  []store.LessonProgress{},
		AiConversations: []store.AiMessage{},
	}
}
