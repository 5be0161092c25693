// Package notify реализации поверхности уведомлений мастера клиентских политик.
package notify

import (
	"context"
	"encoding/json"
	"sync"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/xela07ax/clientpolicy-console/internal/clientpolicy"
	"github.com/xela07ax/clientpolicy-console/internal/infra"
	"go.uber.org/zap"
)

// Alert уведомление для фронтенда. Message: ключ перевода.
type Alert struct {
	Message  string                `json:"message"`
	Severity clientpolicy.Severity `json:"severity"`
	Detail   string                `json:"detail,omitempty"`
	Realm    string                `json:"realm,omitempty"`
	At       time.Time             `json:"at"`
}

// Recorder копит уведомления сессии, пока их не заберет очередной ответ API.
type Recorder struct {
	mu     sync.Mutex
	alerts []Alert
	limit  int
}

// NewRecorder limit ограничивает очередь; самые старые вытесняются.
func NewRecorder(limit int) *Recorder {
	if limit <= 0 {
		limit = 50
	}
	return &Recorder{limit: limit}
}

func (r *Recorder) AddAlert(message string, severity clientpolicy.Severity) {
	r.push(Alert{Message: message, Severity: severity, At: time.Now()})
}

func (r *Recorder) AddError(messageKey string, err error) {
	a := Alert{Message: messageKey, Severity: clientpolicy.SeverityDanger, At: time.Now()}
	if err != nil {
		a.Detail = err.Error()
	}
	r.push(a)
}

// Drain отдает накопленное и очищает очередь.
func (r *Recorder) Drain() []Alert {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := r.alerts
	r.alerts = nil
	return out
}

func (r *Recorder) push(a Alert) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.alerts = append(r.alerts, a)
	if over := len(r.alerts) - r.limit; over > 0 {
		r.alerts = append([]Alert(nil), r.alerts[over:]...)
	}
}

// Logger пишет уведомления в zap.
type Logger struct {
	logger *zap.Logger
}

func NewLogger(logger *zap.Logger) *Logger {
	return &Logger{logger: logger.Named("alerts")}
}

func (l *Logger) AddAlert(message string, severity clientpolicy.Severity) {
	l.logger.Info("alert", zap.String("message", message), zap.String("severity", string(severity)))
}

func (l *Logger) AddError(messageKey string, err error) {
	l.logger.Warn("alert", zap.String("message", messageKey), zap.Error(err))
}

// Publisher подмножество redis.Client.
type Publisher interface {
	Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd
}

// Broadcaster исходящая лента уведомлений консоли в Redis (infra.RedisChanAlerts).
// Сама консоль канал не читает: его потребители внешние (чат-оповещения, SIEM).
//
// Публикация асинхронная: AddAlert/AddError только ставят уведомление в очередь,
// поэтому недоступный Redis не тормозит мастер. При переполнении уведомление сбрасывается.
type Broadcaster struct {
	pub       Publisher
	ch        chan Alert
	timeout   time.Duration
	logger    *zap.Logger
	wg        sync.WaitGroup
	isClosed  int32
	closeOnce sync.Once
}

func NewBroadcaster(pub Publisher, buffer int, logger *zap.Logger) *Broadcaster {
	if buffer <= 0 {
		buffer = 256
	}
	return &Broadcaster{
		pub:     pub,
		ch:      make(chan Alert, buffer),
		timeout: time.Second,
		logger:  logger.Named("alerts-broadcast"),
	}
}

func (b *Broadcaster) Start() {
	b.wg.Add(1)
	go b.worker()
}

// Stop закрывает очередь и ждет, пока воркер допубликует остаток.
func (b *Broadcaster) Stop() {
	b.closeOnce.Do(func() {
		atomic.StoreInt32(&b.isClosed, 1)
		close(b.ch)
		b.wg.Wait()
	})
}

// For Alerter, помечающий уведомления реалмом.
func (b *Broadcaster) For(realm string) clientpolicy.Alerter {
	return realmAlerter{b: b, realm: realm}
}

func (b *Broadcaster) enqueue(a Alert) {
	if atomic.LoadInt32(&b.isClosed) == 1 {
		return
	}
	defer func() {
		// Гонка с Stop: запись в закрытый канал
		if r := recover(); r != nil {
			b.logger.Debug("alert dropped: broadcaster closed")
		}
	}()

	select {
	case b.ch <- a:
	default:
		b.logger.Warn("alert broadcast queue overflow", zap.String("realm", a.Realm), zap.String("message", a.Message))
	}
}

func (b *Broadcaster) worker() {
	defer b.wg.Done()
	for a := range b.ch {
		b.publish(a)
	}
}

func (b *Broadcaster) publish(a Alert) {
	payload, err := json.Marshal(a)
	if err != nil {
		b.logger.Error("failed to encode alert", zap.Error(err))
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), b.timeout)
	defer cancel()
	if err := b.pub.Publish(ctx, infra.RedisChanAlerts, payload).Err(); err != nil {
		b.logger.Warn("alert broadcast failed", zap.String("channel", infra.RedisChanAlerts), zap.Error(err))
	}
}

type realmAlerter struct {
	b     *Broadcaster
	realm string
}

func (r realmAlerter) AddAlert(message string, severity clientpolicy.Severity) {
	r.b.enqueue(Alert{Message: message, Severity: severity, Realm: r.realm, At: time.Now()})
}

func (r realmAlerter) AddError(messageKey string, err error) {
	a := Alert{Message: messageKey, Severity: clientpolicy.SeverityDanger, Realm: r.realm, At: time.Now()}
	if err != nil {
		a.Detail = err.Error()
	}
	r.b.enqueue(a)
}

// Fanout раздает уведомление всем получателям по порядку.
type Fanout []clientpolicy.Alerter

func (f Fanout) AddAlert(message string, severity clientpolicy.Severity) {
	for _, a := range f {
		a.AddAlert(message, severity)
	}
}

func (f Fanout) AddError(messageKey string, err error) {
	for _, a := range f {
		a.AddError(messageKey, err)
	}
}
