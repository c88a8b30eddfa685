package out

import (
	"context"

	"github.com/google/uuid"

	"applyops_server/core/domain"
)

// EmailLogRepository defines the outbound port for the ingestion ledger.
type EmailLogRepository interface {
	// GetByGmailID returns the log row for a message, or persistence.ErrNotFound.
	GetByGmailID(ctx context.Context, userID uuid.UUID, gmailID string) (*domain.EmailLog, error)

	// Create inserts a new log row.
	Create(ctx context.Context, log *domain.EmailLog) error

	// MarkProcessed sets processed=true and stores the classifier output.
	MarkProcessed(ctx context.Context, userID uuid.UUID, gmailID string, parsedData []byte) error

	// ListByUser returns recent log rows, newest first.
	ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]*domain.EmailLog, error)
}
