package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/redis/go-redis/v9"
)

const auditStreamMaxLen = 100_000

// AuditStream sink de auditoría que publica cada evento con XADD en un stream.
type AuditStream struct {
	client *redis.Client
	stream string
}

// NewAuditStream construye el sink.
func NewAuditStream(client *redis.Client, stream string) *AuditStream {
	return &AuditStream{client: client, stream: stream}
}

// Record publica el evento. El stream se recorta de forma aproximada a auditStreamMaxLen entradas.
func (a *AuditStream) Record(ctx context.Context, e entity.AuditEvent) error {
	payload, err := json.Marshal(map[string]any{
		"before":  e.Before,
		"after":   e.After,
		"context": e.Context,
	})
	if err != nil {
		return fmt.Errorf("marshal audit event: %w", err)
	}
	actor := ""
	if e.ActorID != nil {
		actor = *e.ActorID
	}
	err = a.client.XAdd(ctx, &redis.XAddArgs{
		Stream: a.stream,
		MaxLen: auditStreamMaxLen,
		Approx: true,
		Values: map[string]any{
			"id":          e.ID,
			"actor_id":    actor,
			"action":      e.Action,
			"object_type": e.ObjectType,
			"object_id":   e.ObjectID,
			"payload":     string(payload),
			"created_at":  e.CreatedAt.UTC().Format(time.RFC3339Nano),
		},
	}).Err()
	if err != nil {
		return fmt.Errorf("redis xadd audit: %w", err)
	}
	return nil
}
