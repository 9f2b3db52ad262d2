package audit

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/pkg/logger"
)

// Config parámetros del notificador.
type Config struct {
	Enabled bool
	Workers int
	Buffer  int
	Timeout time.Duration // por llamada a Sink.Record
}

// Notifier encola eventos y los entrega con un pool de workers.
// Notify nunca bloquea: si la cola está llena el evento se descarta con un warning.
type Notifier struct {
	sink    Sink
	cfg     Config
	log     *logger.Logger
	queue   chan entity.AuditEvent
	wg      sync.WaitGroup
	mu      sync.RWMutex
	closed  bool
	started bool
}

// NewNotifier construye el notificador. Llamar Start antes de usarlo y Close al apagar.
func NewNotifier(sink Sink, cfg Config, log *logger.Logger) *Notifier {
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.Buffer <= 0 {
		cfg.Buffer = 1
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}
	return &Notifier{
		sink:  sink,
		cfg:   cfg,
		log:   log.Named("audit-notifier"),
		queue: make(chan entity.AuditEvent, cfg.Buffer),
	}
}

// Start lanza los workers. Es seguro llamarlo más de una vez.
func (n *Notifier) Start() {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.started || n.closed || !n.cfg.Enabled {
		return
	}
	n.started = true
	for i := 0; i < n.cfg.Workers; i++ {
		n.wg.Add(1)
		go n.worker()
	}
}

// Notify agenda el evento para entrega asíncrona.
func (n *Notifier) Notify(event entity.AuditEvent) {
	if !n.cfg.Enabled {
		return
	}
	n.mu.RLock()
	defer n.mu.RUnlock()
	if n.closed {
		n.log.Warn().Str("action", event.Action).Str("object_id", event.ObjectID).Msg("notificador cerrado, evento descartado")
		return
	}
	select {
	case n.queue <- event:
	default:
		n.log.Warn().Str("action", event.Action).Str("object_id", event.ObjectID).Msg("cola de auditoría llena, evento descartado")
	}
}

// Close deja de aceptar eventos y espera a que los workers vacíen la cola o venza ctx.
func (n *Notifier) Close(ctx context.Context) error {
	n.mu.Lock()
	if n.closed {
		n.mu.Unlock()
		return nil
	}
	n.closed = true
	close(n.queue)
	n.mu.Unlock()

	done := make(chan struct{})
	go func() {
		n.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("cerrar notificador de auditoría: %w", ctx.Err())
	}
}

func (n *Notifier) worker() {
	defer n.wg.Done()
	for event := range n.queue {
		n.deliver(event)
	}
}

// deliver aísla cada entrega: timeout propio y recuperación de panics del sink.
func (n *Notifier) deliver(event entity.AuditEvent) {
	ctx, cancel := context.WithTimeout(context.Background(), n.cfg.Timeout)
	defer cancel()
	defer func() {
		if r := recover(); r != nil {
			n.log.Error().Interface("panic", r).Str("audit_id", event.ID).Msg("panic en sink de auditoría")
		}
	}()
	if err := n.sink.Record(ctx, event); err != nil {
		n.log.Error().Err(err).
			Str("audit_id", event.ID).
			Str("action", event.Action).
			Str("object_id", event.ObjectID).
			Msg("fallo al registrar auditoría")
	}
}
