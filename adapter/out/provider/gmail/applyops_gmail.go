// Package gmail provides the Gmail API mailbox adapter.
package gmail

import (
	"context"
	"encoding/base64"
	"fmt"
	"time"

	"golang.org/x/oauth2"
	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"

	"applyops_server/core/port/out"
	"applyops_server/pkg/apperr"
)

// Adapter implements out.MailProvider for Gmail. It is stateless: the
// caller supplies the user's token per call and a service is built on
// top of the token-refreshing HTTP client.
type Adapter struct {
	config *oauth2.Config
}

var _ out.MailProvider = (*Adapter)(nil)

func NewAdapter(config *oauth2.Config) *Adapter {
	return &Adapter{config: config}
}

func (a *Adapter) service(ctx context.Context, token *oauth2.Token) (*gmail.Service, error) {
	client := a.config.Client(ctx, token)
	svc, err := gmail.NewService(ctx, option.WithHTTPClient(client))
	if err != nil {
		return nil, fmt.Errorf("create gmail service: %w", err)
	}
	return svc, nil
}

func (a *Adapter) ListMessageIDs(ctx context.Context, token *oauth2.Token, q *out.MailQuery) ([]string, error) {
	svc, err := a.service(ctx, token)
	if err != nil {
		return nil, err
	}

	req := svc.Users.Messages.List("me")
	if q.Query != "" {
		req = req.Q(q.Query)
	}
	if q.MaxResults > 0 {
		req = req.MaxResults(q.MaxResults)
	}

	resp, err := req.Context(ctx).Do()
	if err != nil {
		return nil, apperr.ExternalError("gmail", fmt.Errorf("list messages: %w", err))
	}

	ids := make([]string, 0, len(resp.Messages))
	for _, m := range resp.Messages {
		ids = append(ids, m.Id)
	}
	return ids, nil
}

func (a *Adapter) GetMessage(ctx context.Context, token *oauth2.Token, id string) (*out.MailMessage, error) {
	svc, err := a.service(ctx, token)
	if err != nil {
		return nil, err
	}

	msg, err := svc.Users.Messages.Get("me", id).Format("full").Context(ctx).Do()
	if err != nil {
		return nil, apperr.ExternalError("gmail", fmt.Errorf("get message: %w", err))
	}
	return parseMessage(msg), nil
}

func parseMessage(msg *gmail.Message) *out.MailMessage {
	m := &out.MailMessage{
		ID:         msg.Id,
		ThreadID:   msg.ThreadId,
		Snippet:    msg.Snippet,
		ReceivedAt: time.Unix(msg.InternalDate/1000, 0),
	}

	if msg.Payload != nil {
		for _, header := range msg.Payload.Headers {
			switch header.Name {
			case "From":
				m.From = header.Value
			case "Subject":
				m.Subject = header.Value
			}
		}

		html, text := parseBody(msg.Payload)
		// Plain text is what the classifier wants; HTML is the fallback.
		if text != "" {
			m.Body = text
		} else {
			m.Body = html
		}
	}
	if m.Body == "" {
		m.Body = m.Snippet
	}
	return m
}

func parseBody(payload *gmail.MessagePart) (html, text string) {
	if payload == nil {
		return "", ""
	}

	if payload.MimeType == "text/html" && payload.Body != nil {
		html = decodeBody(payload.Body.Data)
	}
	if payload.MimeType == "text/plain" && payload.Body != nil {
		text = decodeBody(payload.Body.Data)
	}

	for _, part := range payload.Parts {
		h, t := parseBody(part)
		if html == "" && h != "" {
			html = h
		}
		if text == "" && t != "" {
			text = t
		}
	}
	return html, text
}

// decodeBody handles both padded and unpadded base64url, which Gmail
// mixes depending on the part.
func decodeBody(data string) string {
	if data == "" {
		return ""
	}
	if decoded, err := base64.URLEncoding.DecodeString(data); err == nil {
		return string(decoded)
	}
	if decoded, err := base64.RawURLEncoding.DecodeString(data); err == nil {
		return string(decoded)
	}
	return ""
}
