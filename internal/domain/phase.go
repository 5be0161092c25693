package domain

// Phase состояние мастера создания политики.
type Phase string

const (
	PhaseDraft      Phase = "DRAFT"      // Форма, политики еще нет в коллекции
	PhaseSubmitting Phase = "SUBMITTING" // Ждем ответа шлюза на создание
	PhaseCreated    Phase = "CREATED"    // Политика сохранена, показываем заготовки условий и профилей
	PhaseDeleting   Phase = "DELETING"   // Ждем ответа шлюза на удаление
	PhaseDeleted    Phase = "DELETED"    // Терминальное, уходим на список
)

// transitions таблица допустимых переходов конечного автомата.
var transitions = map[Phase][]Phase{
	PhaseDraft:      {PhaseSubmitting},
	PhaseSubmitting: {PhaseCreated, PhaseDraft},
	PhaseCreated:    {PhaseDeleting, PhaseCreated},
	PhaseDeleting:   {PhaseDeleted, PhaseCreated},
}

// CanTransitionTo проверяет правила конечного автомата.
func (p Phase) CanTransitionTo(next Phase) error {
	if p.Pending() {
		if next == PhaseSubmitting || next == PhaseDeleting {
			return ErrBusy
		}
	}
	for _, allowed := range transitions[p] {
		if allowed == next {
			return nil
		}
	}
	return ErrInvalidTransition
}

// Pending фаза с незавершенным вызовом шлюза.
func (p Phase) Pending() bool {
	return p == PhaseSubmitting || p == PhaseDeleting
}

func (p Phase) Terminal() bool {
	return p == PhaseDeleted
}
