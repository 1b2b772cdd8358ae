package ports

import (
	"context"

	"github.com/tiendadigital/marketplace-api/internal/core/domain"
)

// AuditSink accepts authentication events. Implementations must not block
// the caller for long and must never fail the operation being audited.
type AuditSink interface {
	Record(event domain.AuthEvent)
}

// AuditRepository is the durable store behind the audit dispatcher.
type AuditRepository interface {
	InsertEvent(ctx context.Context, event *domain.AuthEvent) error
}

// NopAuditSink discards every event.
type NopAuditSink struct{}

func (NopAuditSink) Record(domain.AuthEvent) {}
