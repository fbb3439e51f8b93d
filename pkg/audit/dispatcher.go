package audit

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/tendant/simple-idm-engine/pkg/domain"
)

// Config controls dispatcher buffering behavior.
type Config struct {
	BufferSize  int
	DropIfFull  bool
	SaveTimeout time.Duration
}

// Dispatcher asynchronously forwards audit events to a sink. Sink errors
// are logged and never returned to the caller.
type Dispatcher struct {
	cfg       Config
	sink      Sink
	logger    *slog.Logger
	ch        chan *domain.AuditEvent
	done      chan struct{}
	wg        sync.WaitGroup
	dropped   atomic.Uint64
	failed    atomic.Uint64
	closed    atomic.Bool
	closeOnce sync.Once
}

// NewDispatcher starts a dispatcher writing to sink.
func NewDispatcher(cfg Config, sink Sink, logger *slog.Logger) *Dispatcher {
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = 1
	}
	if cfg.SaveTimeout <= 0 {
		cfg.SaveTimeout = 5 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}

	d := &Dispatcher{
		cfg:    cfg,
		sink:   sink,
		logger: logger,
		ch:     make(chan *domain.AuditEvent, cfg.BufferSize),
		done:   make(chan struct{}),
	}

	d.wg.Add(1)
	go d.run()

	return d
}

func (d *Dispatcher) run() {
	defer d.wg.Done()

	for {
		select {
		case event := <-d.ch:
			d.deliver(event)
		case <-d.done:
			for {
				select {
				case event := <-d.ch:
					d.deliver(event)
				default:
					return
				}
			}
		}
	}
}

func (d *Dispatcher) deliver(event *domain.AuditEvent) {
	ctx, cancel := context.WithTimeout(context.Background(), d.cfg.SaveTimeout)
	defer cancel()

	if err := d.sink.Save(ctx, event); err != nil {
		d.failed.Add(1)
		d.logger.Error("failed to save audit event", "error", err, "action", event.Action, "audit_id", event.ID)
	}
}

// Save enqueues event. It implements Sink so a Dispatcher can stand in for
// the underlying sink; it never returns an error.
func (d *Dispatcher) Save(ctx context.Context, event *domain.AuditEvent) error {
	if d.closed.Load() {
		return nil
	}

	if d.cfg.DropIfFull {
		select {
		case d.ch <- event:
		case <-d.done:
		default:
			d.dropped.Add(1)
			d.logger.Warn("audit buffer full, event dropped", "action", event.Action)
		}
		return nil
	}

	select {
	case d.ch <- event:
	case <-ctx.Done():
		d.dropped.Add(1)
	case <-d.done:
	}
	return nil
}

// Close drains buffered events and stops the dispatcher. It is idempotent.
func (d *Dispatcher) Close() {
	d.closeOnce.Do(func() {
		d.closed.Store(true)
		close(d.done)
		d.wg.Wait()
	})
}

// Dropped returns the number of events discarded because the buffer was full.
func (d *Dispatcher) Dropped() uint64 {
	return d.dropped.Load()
}

// Failed returns the number of events the sink rejected.
func (d *Dispatcher) Failed() uint64 {
	return d.failed.Load()
}
