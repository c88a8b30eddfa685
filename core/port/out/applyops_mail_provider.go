// Package out defines outbound ports (driven ports) for the application.
package out

import (
	"context"
	"time"

	"golang.org/x/oauth2"
)

// MailQuery constrains a candidate-message listing.
type MailQuery struct {
	Query      string
	MaxResults int64
}

// MailMessage is a fully fetched mailbox message ready for classification.
type MailMessage struct {
	ID         string
	ThreadID   string
	Subject    string
	From       string
	Snippet    string
	Body       string
	ReceivedAt time.Time
}

// MailProvider defines the outbound port for the user's mailbox.
type MailProvider interface {
	// ListMessageIDs returns the ids of messages matching the query,
	// newest first, up to MaxResults.
	ListMessageIDs(ctx context.Context, token *oauth2.Token, q *MailQuery) ([]string, error)

	// GetMessage fetches one message with headers and decoded body.
	GetMessage(ctx context.Context, token *oauth2.Token, id string) (*MailMessage, error)
}
