// Package assistant serves scripted advisor replies for the chat
// screen. There is no model behind it: every reply is picked from a
// fixed pool of change-management guidance.
package assistant

import "math/rand"

var defaultResponses = []string{
	"Для успешного внедрения изменений рекомендую начать с формирования коалиции лидеров. Это ключевой шаг по модели Коттера.",
	"Сопротивление — естественная часть процесса изменений. Важно работать с причинами, а не с симптомами.",
	"Рекомендую провести картирование потока создания ценности (VSM) перед началом оптимизации.",
	"При цифровой трансформации критично сначала оптимизировать процессы, а затем автоматизировать их.",
	"Для оценки культурных изменений используйте модель Камерона-Куинна (OCAI). Это поможет определить текущий и целевой профиль.",
	"Ключ к успеху — регулярная коммуникация. Создайте ритуал еженедельных обновлений о ходе программы изменений.",
}

type Scripted struct {
	responses []string
	pick      func(n int) int
}

func NewScripted() *Scripted {
	return &Scripted{responses: defaultResponses, pick: rand.Intn}
}

// NewScriptedWithPick injects the selection function, used by tests to
// make replies deterministic.
func NewScriptedWithPick(responses []string, pick func(n int) int) *Scripted {
	if len(responses) == 0 {
		responses = defaultResponses
	}
	return &Scripted{responses: responses, pick: pick}
}

// Reply returns the advisor's answer to a user message. The message
// content does not influence the choice.
func (s *Scripted) Reply(_ string) string {
	return s.responses[s.pick(len(s.responses))]
}

// Responses exposes the reply pool.
func (s *Scripted) Responses() []string {
	out := make([]string, len(s.responses))
	copy(out, s.responses)
	return out
}
