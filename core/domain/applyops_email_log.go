package domain

import (
	"time"

	"github.com/google/uuid"
)

// EmailLog is the dedup and audit ledger for ingested mailbox messages.
// Exactly one row exists per external message id; processed=true is a
// terminal marker and the idempotence anchor of the ingestion pipeline.
type EmailLog struct {
	ID         int64     `db:"id" json:"id"`
	UserID     uuid.UUID `db:"user_id" json:"user_id"`
	GmailID    string    `db:"gmail_id" json:"gmail_id"`
	Subject    string    `db:"subject" json:"subject"`
	Sender     string    `db:"sender" json:"sender"`
	ReceivedAt time.Time `db:"received_at" json:"received_at"`
	Processed  bool      `db:"processed" json:"processed"`
	ParsedData []byte    `db:"parsed_data" json:"parsed_data,omitempty"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time `db:"updated_at" json:"updated_at"`
}
