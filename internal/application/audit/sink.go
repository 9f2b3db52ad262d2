// Package audit entrega eventos de auditoría a un sink externo después del commit del ledger.
// La entrega es best-effort: un fallo del sink se registra en el log y nunca llega al llamador.
package audit

import (
	"context"
	"errors"

	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/pkg/logger"
)

// Sink destino de los eventos (tabla audit_logs, stream de Redis, log...).
type Sink interface {
	Record(ctx context.Context, event entity.AuditEvent) error
}

// SinkFunc adapta una función como Sink.
type SinkFunc func(ctx context.Context, event entity.AuditEvent) error

// Record implementa Sink.
func (f SinkFunc) Record(ctx context.Context, event entity.AuditEvent) error {
	return f(ctx, event)
}

// MultiSink reenvía cada evento a todos los sinks y junta los errores.
type MultiSink []Sink

// Record implementa Sink.
func (m MultiSink) Record(ctx context.Context, event entity.AuditEvent) error {
	var errs []error
	for _, s := range m {
		if err := s.Record(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// LogSink escribe los eventos en el log estructurado (AUDIT_SINK=log).
func LogSink(log *logger.Logger) Sink {
	l := log.Named("audit")
	return SinkFunc(func(_ context.Context, e entity.AuditEvent) error {
		ev := l.Info().
			Str("audit_id", e.ID).
			Str("action", e.Action).
			Str("object_type", e.ObjectType).
			Str("object_id", e.ObjectID).
			Interface("before", e.Before).
			Interface("after", e.After).
			Interface("context", e.Context)
		if e.ActorID != nil {
			ev = ev.Str("actor_id", *e.ActorID)
		}
		ev.Msg("evento de auditoría")
		return nil
	})
}
