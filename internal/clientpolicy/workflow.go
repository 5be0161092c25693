package clientpolicy

import (
	"context"
	"sync"
	"time"

	"github.com/xela07ax/clientpolicy-console/internal/domain"
	"go.uber.org/zap"
)

// Deps внешние коллабораторы мастера. Пустые Alerter/Navigator/Auditor заменяются заглушками.
type Deps struct {
	Gateway   Gateway
	Alerter   Alerter
	Navigator Navigator
	Auditor   Auditor
	Metrics   *Metrics
	Logger    *zap.Logger
}

// State снимок мастера для рендерера. Current только для чтения.
type State struct {
	Realm          string               `json:"realm"`
	Phase          domain.Phase         `json:"phase"`
	Current        *domain.ClientPolicy `json:"current,omitempty"`
	Fields         Fields               `json:"fields"`
	Errors         map[string]string    `json:"errors,omitempty"`
	ConfirmPending bool                 `json:"confirmPending"`
}

// Workflow конечный автомат Draft -> Submitting -> Created -> Deleting -> Deleted.
// Один экземпляр на смонтированное представление; общего изменяемого состояния между экземплярами нет.
//
// Фаза и кэш меняются только после ответа шлюза. Пока вызов в полете,
// любые действия отклоняются с domain.ErrBusy.
type Workflow struct {
	mu             sync.Mutex
	realm          string
	phase          domain.Phase
	current        *domain.ClientPolicy
	confirmPending bool
	alive          bool

	cache   *Cache
	draft   *DraftController
	gw      Gateway
	alerts  Alerter
	nav     Navigator
	auditor Auditor
	metrics *Metrics
	logger  *zap.Logger
}

func NewWorkflow(realm string, deps Deps) *Workflow {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if deps.Alerter == nil {
		deps.Alerter = nopAlerter{}
	}
	if deps.Navigator == nil {
		deps.Navigator = nopNavigator{}
	}
	if deps.Auditor == nil {
		deps.Auditor = nopAuditor{}
	}
	if deps.Metrics == nil {
		deps.Metrics = NewMetrics(nil)
	}
	logger := deps.Logger.Named("client-policy-workflow").With(zap.String("realm", realm))

	return &Workflow{
		realm:   realm,
		phase:   domain.PhaseDraft,
		alive:   true,
		cache:   NewCache(realm, deps.Gateway, logger),
		draft:   NewDraftController(),
		gw:      deps.Gateway,
		alerts:  deps.Alerter,
		nav:     deps.Navigator,
		auditor: deps.Auditor,
		metrics: deps.Metrics,
		logger:  logger,
	}
}

// Mount сбрасывает форму и один раз загружает коллекцию. Повтора при ошибке нет.
func (w *Workflow) Mount(ctx context.Context) error {
	w.mu.Lock()
	if !w.alive {
		w.mu.Unlock()
		return domain.ErrUnmounted
	}
	w.draft.Initialize()
	w.mu.Unlock()

	start := time.Now()
	err := w.cache.Load(ctx)
	w.observe("list", start, err)
	if err != nil {
		w.logger.Error("failed to load client policies", zap.Error(err))
		w.alerts.AddError(MsgLoadError, err)
		return err
	}
	return nil
}

// Cache кэш коллекции сессии.
func (w *Workflow) Cache() *Cache { return w.cache }

// State снимок для рендерера.
func (w *Workflow) State() State {
	w.mu.Lock()
	defer w.mu.Unlock()

	s := State{
		Realm:          w.realm,
		Phase:          w.phase,
		Fields:         w.draft.Fields(),
		Errors:         w.draft.Errors(),
		ConfirmPending: w.confirmPending,
	}
	if w.current != nil {
		cp := w.current.Clone()
		s.Current = &cp
	}
	return s
}

// SetFields привязка формы. В Created поля редактируются, но сохранить их нельзя, только "reload".
func (w *Workflow) SetFields(f Fields) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.guard(domain.PhaseDraft, domain.PhaseCreated); err != nil {
		return err
	}
	w.draft.Set(f)
	return nil
}

// Submit Draft --submit--> Submitting --> Created | Draft.
func (w *Workflow) Submit(ctx context.Context, f Fields) error {
	w.mu.Lock()
	if !w.alive {
		w.mu.Unlock()
		return domain.ErrUnmounted
	}
	if err := w.phase.CanTransitionTo(domain.PhaseSubmitting); err != nil {
		w.mu.Unlock()
		return err
	}

	candidate, err := w.draft.Submit(f)
	if err != nil {
		w.mu.Unlock()
		return err
	}

	base := w.cache.Current()
	if base.ContainsName(candidate.Name) {
		w.mu.Unlock()
		perr := &domain.PersistError{Realm: w.realm, Op: "create", Cause: domain.ErrDuplicateName}
		w.logger.Warn("client policy name collision", zap.String("policy", candidate.Name))
		w.alerts.AddError(MsgDuplicateName, perr)
		w.auditor.Record(Outcome{Realm: w.realm, Action: "create", Policy: candidate.Name, Err: perr})
		return perr
	}

	next := base.Append(candidate)
	w.setPhase(domain.PhaseSubmitting)
	w.mu.Unlock()

	start := time.Now()
	err = w.gw.UpdatePolicies(ctx, w.realm, next)
	w.observe("update", start, err)

	w.mu.Lock()
	if !w.alive {
		w.mu.Unlock()
		w.logger.Debug("create completed after unmount", zap.String("policy", candidate.Name), zap.Error(err))
		return domain.ErrUnmounted
	}

	if err != nil {
		w.setPhase(domain.PhaseDraft)
		w.mu.Unlock()

		perr := &domain.PersistError{Realm: w.realm, Op: "create", Cause: err}
		w.logger.Error("failed to create client policy", zap.String("policy", candidate.Name), zap.Error(err))
		w.alerts.AddError(MsgCreateError, perr)
		w.auditor.Record(Outcome{Realm: w.realm, Action: "create", Policy: candidate.Name, Err: perr})
		return perr
	}

	w.cache.commit(next)
	created := candidate.Clone()
	w.current = &created
	w.draft.Reset(created)
	w.setPhase(domain.PhaseCreated)
	w.mu.Unlock()

	w.logger.Info("client policy created", zap.String("policy", created.Name), zap.Int("total", len(next)))
	w.alerts.AddAlert(MsgCreateSuccess, SeveritySuccess)
	w.auditor.Record(Outcome{Realm: w.realm, Action: "create", Policy: created.Name})
	return nil
}

// Cancel в Draft уводит на список без изменений; в Created перезагружает форму из созданной политики.
func (w *Workflow) Cancel() error {
	w.mu.Lock()
	if err := w.guard(domain.PhaseDraft, domain.PhaseCreated); err != nil {
		w.mu.Unlock()
		return err
	}

	if w.phase == domain.PhaseCreated {
		w.draft.Reset(*w.current)
		w.mu.Unlock()
		return nil
	}
	w.mu.Unlock()

	w.nav.Navigate(ClientPoliciesPath(w.realm))
	return nil
}

// RequestDelete открывает диалог подтверждения. До подтверждения ничего не мутирует.
func (w *Workflow) RequestDelete() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.guard(domain.PhaseCreated); err != nil {
		return err
	}
	w.confirmPending = true
	return nil
}

// ConfirmDelete ответ на диалог. Отказ: чистый no-op; согласие: Created -> Deleting -> Deleted | Created.
func (w *Workflow) ConfirmDelete(ctx context.Context, accepted bool) error {
	w.mu.Lock()
	if err := w.guard(domain.PhaseCreated); err != nil {
		w.mu.Unlock()
		return err
	}
	if !w.confirmPending {
		w.mu.Unlock()
		return domain.ErrInvalidTransition
	}
	w.confirmPending = false

	if !accepted {
		w.mu.Unlock()
		return nil
	}
	if w.current == nil {
		w.mu.Unlock()
		return domain.ErrNoCurrentPolicy
	}

	name := w.current.Name
	next := w.cache.Current().WithoutName(name)
	w.setPhase(domain.PhaseDeleting)
	w.mu.Unlock()

	start := time.Now()
	err := w.gw.UpdatePolicies(ctx, w.realm, next)
	w.observe("update", start, err)

	w.mu.Lock()
	if !w.alive {
		w.mu.Unlock()
		w.logger.Debug("delete completed after unmount", zap.String("policy", name), zap.Error(err))
		return domain.ErrUnmounted
	}

	if err != nil {
		w.setPhase(domain.PhaseCreated)
		w.mu.Unlock()

		perr := &domain.PersistError{Realm: w.realm, Op: "delete", Cause: err}
		w.logger.Error("failed to delete client policy", zap.String("policy", name), zap.Error(err))
		w.alerts.AddError(MsgDeleteError, perr)
		w.auditor.Record(Outcome{Realm: w.realm, Action: "delete", Policy: name, Err: perr})
		return perr
	}

	w.cache.commit(next)
	w.setPhase(domain.PhaseDeleted)
	w.mu.Unlock()

	w.logger.Info("client policy deleted", zap.String("policy", name), zap.Int("total", len(next)))
	w.alerts.AddAlert(MsgDeleteSuccess, SeveritySuccess)
	w.auditor.Record(Outcome{Realm: w.realm, Action: "delete", Policy: name})
	w.nav.Navigate(ClientPoliciesPath(w.realm))
	return nil
}

// Unmount снимает флаг живости. Завершения вызовов в полете станут no-op.
func (w *Workflow) Unmount() {
	w.mu.Lock()
	w.alive = false
	w.mu.Unlock()
}

func (w *Workflow) Alive() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.alive
}

// guard проверяет живость и допустимость фазы. Вызывать под w.mu.
func (w *Workflow) guard(allowed ...domain.Phase) error {
	if !w.alive {
		return domain.ErrUnmounted
	}
	if w.phase.Pending() {
		return domain.ErrBusy
	}
	for _, p := range allowed {
		if w.phase == p {
			return nil
		}
	}
	return domain.ErrInvalidTransition
}

// setPhase вызывать под w.mu. Переход в ту же фазу не считается.
func (w *Workflow) setPhase(next domain.Phase) {
	if next == w.phase {
		return
	}
	w.metrics.Transitions.WithLabelValues(string(w.phase), string(next)).Inc()
	w.phase = next
}

func (w *Workflow) observe(op string, start time.Time, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	w.metrics.GatewayDuration.WithLabelValues(op, status).Observe(time.Since(start).Seconds())
}
