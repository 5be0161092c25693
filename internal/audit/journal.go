package audit

/*
Файл journal.go: асинхронный журнал итогов мастера клиентских политик.

- Non-blocking: Record не ждет базу, событие уходит в буферизованный канал.
- Batching: воркер копит события и пишет пачкой по таймеру или по размеру пачки.
- Drain: Stop закрывает канал и ждет финальный flush, события не теряются.
*/

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/xela07ax/clientpolicy-console/internal/clientpolicy"
	"go.uber.org/zap"
)

// Storage куда физически пишутся события
type Storage interface {
	WriteBatch(ctx context.Context, events []Event) error
}

// Options размеры буфера и пачки.
type Options struct {
	BufferSize    int
	BatchSize     int
	FlushInterval time.Duration
}

type Journal struct {
	ch        chan Event
	repo      Storage
	logger    *zap.Logger
	wg        sync.WaitGroup
	batchSize int
	interval  time.Duration
	isClosed  int32 // 0 - открыт, 1 - закрыт
	closeOnce sync.Once
}

func NewJournal(repo Storage, opts Options, logger *zap.Logger) *Journal {
	if opts.BufferSize <= 0 {
		opts.BufferSize = 1000
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = 100
	}
	if opts.FlushInterval <= 0 {
		opts.FlushInterval = 500 * time.Millisecond
	}
	return &Journal{
		ch:        make(chan Event, opts.BufferSize),
		repo:      repo,
		logger:    logger.With(zap.String("mod", "audit-journal")),
		batchSize: opts.BatchSize,
		interval:  opts.FlushInterval,
	}
}

func (j *Journal) Start() {
	j.wg.Add(1)
	go j.worker()
}

// Stop запирает вход и ждет, пока воркер все допишет.
func (j *Journal) Stop() {
	j.closeOnce.Do(func() {
		atomic.StoreInt32(&j.isClosed, 1)
		j.logger.Info("stopping audit journal: closing channel and flushing buffer...")
		close(j.ch)
		j.wg.Wait()
		j.logger.Info("audit journal stopped gracefully")
	})
}

// Log ставит событие в очередь. При переполнении событие сбрасывается в лог (load shedding).
func (j *Journal) Log(e Event) {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now()
	}

	if atomic.LoadInt32(&j.isClosed) == 1 {
		j.logger.Warn("audit event dropped: journal is stopping", zap.String("id", e.ID.String()))
		return
	}

	defer func() {
		// Гонка Log со Stop: запись в закрытый канал
		if r := recover(); r != nil {
			j.logger.Warn("audit event dropped: journal closed", zap.String("id", e.ID.String()))
		}
	}()

	select {
	case j.ch <- e:
	default:
		j.logger.Error("audit_buffer_overflow",
			zap.String("realm", e.Realm),
			zap.String("action", e.Action),
			zap.String("policy", e.Policy),
			zap.String("status", e.Status),
		)
	}
}

// Record реализует clientpolicy.Auditor.
func (j *Journal) Record(o clientpolicy.Outcome) {
	j.Log(FromOutcome(o))
}

// FromOutcome превращает итог мастера в событие журнала.
func FromOutcome(o clientpolicy.Outcome) Event {
	e := Event{
		Realm:  o.Realm,
		Action: o.Action,
		Policy: o.Policy,
		Actor:  o.Actor,
		Status: StatusSuccess,
	}
	if o.Err != nil {
		e.Status = StatusFailed
		e.Error = o.Err.Error()
	}
	return e
}

func (j *Journal) worker() {
	defer j.wg.Done()

	batch := make([]Event, 0, j.batchSize)
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	flush := func() {
		if len(batch) == 0 {
			return
		}
		// Background: основной контекст может быть уже закрыт
		if err := j.repo.WriteBatch(context.Background(), batch); err != nil {
			j.logger.Error("audit flush failed", zap.Int("events", len(batch)), zap.Error(err))
		}
		batch = make([]Event, 0, j.batchSize)
	}

	for {
		select {
		case e, ok := <-j.ch:
			if !ok {
				flush()
				j.logger.Info("audit worker finished")
				return
			}
			batch = append(batch, e)
			if len(batch) >= j.batchSize {
				flush()
			}
		case <-ticker.C:
			flush()
		}
	}
}

// WithActor проставляет автора во все итоги, проходящие через Auditor.
func WithActor(next clientpolicy.Auditor, actor string) clientpolicy.Auditor {
	return actorAuditor{next: next, actor: actor}
}

type actorAuditor struct {
	next  clientpolicy.Auditor
	actor string
}

func (a actorAuditor) Record(o clientpolicy.Outcome) {
	if o.Actor == "" {
		o.Actor = a.actor
	}
	a.next.Record(o)
}
