package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/xela07ax/clientpolicy-console/internal/audit"
	"github.com/xela07ax/clientpolicy-console/internal/clientpolicy"
	"github.com/xela07ax/clientpolicy-console/internal/notify"
	"go.uber.org/zap"
)

// ErrSessionNotFound сессии нет, она истекла или принадлежит другому пользователю.
var ErrSessionNotFound = errors.New("session not found")

// redirect запоминает последнюю навигацию мастера до следующего ответа API.
type redirect struct {
	mu   sync.Mutex
	path string
}

func (r *redirect) Navigate(path string) {
	r.mu.Lock()
	r.path = path
	r.mu.Unlock()
}

func (r *redirect) take() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	p := r.path
	r.path = ""
	return p
}

// Session одно смонтированное представление "создать клиентскую политику".
type Session struct {
	ID        string
	Realm     string
	Owner     string
	CreatedAt time.Time

	Workflow *clientpolicy.Workflow

	alerts   *notify.Recorder
	nav      *redirect
	mu       sync.Mutex
	lastSeen time.Time
}

// Snapshot представление сессии вместе с накопленными уведомлениями и редиректом.
type Snapshot struct {
	ID       string             `json:"id"`
	View     clientpolicy.View  `json:"view"`
	Alerts   []notify.Alert     `json:"alerts"`
	Redirect string             `json:"redirect,omitempty"`
	State    clientpolicy.State `json:"-"`
}

// Snapshot забирает уведомления и редирект: каждый отдается клиенту один раз.
func (s *Session) Snapshot() Snapshot {
	state := s.Workflow.State()
	alerts := s.alerts.Drain()
	if alerts == nil {
		alerts = []notify.Alert{}
	}
	return Snapshot{
		ID:       s.ID,
		View:     clientpolicy.Render(state),
		Alerts:   alerts,
		Redirect: s.nav.take(),
		State:    state,
	}
}

func (s *Session) touch(now time.Time) {
	s.mu.Lock()
	s.lastSeen = now
	s.mu.Unlock()
}

func (s *Session) idleSince() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeen
}

// SessionOptions зависимости менеджера сессий.
type SessionOptions struct {
	Gateway   clientpolicy.Gateway
	Auditor   clientpolicy.Auditor
	Broadcast *notify.Broadcaster // nil: без широковещания уведомлений
	Metrics   *clientpolicy.Metrics
	TTL       time.Duration
	Logger    *zap.Logger
}

// SessionManager держит мастера по сессиям. Экземпляры Workflow друг о друге не знают.
type SessionManager struct {
	mu       sync.Mutex
	sessions map[string]*Session

	opts   SessionOptions
	logger *zap.Logger
	now    func() time.Time
}

func NewSessionManager(opts SessionOptions) *SessionManager {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Metrics == nil {
		opts.Metrics = clientpolicy.NewMetrics(nil)
	}
	if opts.TTL <= 0 {
		opts.TTL = 30 * time.Minute
	}
	return &SessionManager{
		sessions: make(map[string]*Session),
		opts:     opts,
		logger:   opts.Logger.Named("sessions"),
		now:      time.Now,
	}
}

// Open монтирует новый мастер. Ошибка загрузки коллекции не мешает сессии: она уже в уведомлениях.
func (m *SessionManager) Open(ctx context.Context, realm, owner string) (*Session, error) {
	s := &Session{
		ID:        uuid.NewString(),
		Realm:     realm,
		Owner:     owner,
		CreatedAt: m.now(),
		alerts:    notify.NewRecorder(0),
		nav:       &redirect{},
		lastSeen:  m.now(),
	}

	alerter := notify.Fanout{s.alerts, notify.NewLogger(m.logger)}
	if m.opts.Broadcast != nil {
		alerter = append(alerter, m.opts.Broadcast.For(realm))
	}

	var auditor clientpolicy.Auditor
	if m.opts.Auditor != nil {
		auditor = audit.WithActor(m.opts.Auditor, owner)
	}

	s.Workflow = clientpolicy.NewWorkflow(realm, clientpolicy.Deps{
		Gateway:   m.opts.Gateway,
		Alerter:   alerter,
		Navigator: s.nav,
		Auditor:   auditor,
		Metrics:   m.opts.Metrics,
		Logger:    m.logger,
	})

	if err := s.Workflow.Mount(ctx); err != nil {
		m.logger.Warn("session mounted without policies", zap.String("session", s.ID), zap.String("realm", realm), zap.Error(err))
	}

	m.mu.Lock()
	m.sessions[s.ID] = s
	m.mu.Unlock()
	m.opts.Metrics.ActiveSessions.Inc()

	m.logger.Info("session opened", zap.String("session", s.ID), zap.String("realm", realm), zap.String("owner", owner))
	return s, nil
}

// Get сессия владельца в указанном реалме.
func (m *SessionManager) Get(id, realm, owner string) (*Session, error) {
	m.mu.Lock()
	s, ok := m.sessions[id]
	m.mu.Unlock()
	if !ok || s.Realm != realm || s.Owner != owner {
		return nil, ErrSessionNotFound
	}
	s.touch(m.now())
	return s, nil
}

// Close размонтирует мастер. Завершения вызовов в полете станут no-op.
func (m *SessionManager) Close(id, realm, owner string) error {
	s, err := m.Get(id, realm, owner)
	if err != nil {
		return err
	}
	m.remove(s)
	m.logger.Info("session closed", zap.String("session", id))
	return nil
}

// Len число открытых сессий.
func (m *SessionManager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// Sweep закрывает сессии, простаивающие дольше TTL. Возвращает число закрытых.
func (m *SessionManager) Sweep() int {
	deadline := m.now().Add(-m.opts.TTL)

	m.mu.Lock()
	var stale []*Session
	for _, s := range m.sessions {
		if s.idleSince().Before(deadline) {
			stale = append(stale, s)
		}
	}
	m.mu.Unlock()

	for _, s := range stale {
		m.remove(s)
	}
	if len(stale) > 0 {
		m.logger.Info("idle sessions evicted", zap.Int("count", len(stale)))
	}
	return len(stale)
}

// Run периодически чистит простаивающие сессии до отмены ctx.
func (m *SessionManager) Run(ctx context.Context) {
	ticker := time.NewTicker(m.opts.TTL / 2)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.Sweep()
		}
	}
}

// CloseAll размонтирует все сессии (остановка процесса).
func (m *SessionManager) CloseAll() {
	m.mu.Lock()
	all := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		all = append(all, s)
	}
	m.mu.Unlock()

	for _, s := range all {
		m.remove(s)
	}
}

func (m *SessionManager) remove(s *Session) {
	m.mu.Lock()
	_, ok := m.sessions[s.ID]
	delete(m.sessions, s.ID)
	m.mu.Unlock()
	if !ok {
		return
	}
	s.Workflow.Unmount()
	m.opts.Metrics.ActiveSessions.Dec()
}
