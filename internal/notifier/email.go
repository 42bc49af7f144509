package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

type Kind string

const (
	EventReminder   Kind = "event_reminder"
	PaymentReminder Kind = "payment_reminder"
)

func (k Kind) Valid() bool {
	return k == EventReminder || k == PaymentReminder
}

var ErrNotConfigured = errors.New("email service not configured")

// ProviderError carries the provider's non-2xx response untouched.
type ProviderError struct {
	StatusCode int
	Body       json.RawMessage
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("email provider returned %d: %s", e.StatusCode, string(e.Body))
}

// Reminder holds the registration fields a reminder email shows.
type Reminder struct {
	To            string
	FullName      string
	InviteCode    string
	TicketType    string
	PairingChoice string
	EventDate     string
	// CustomContent replaces the generated body when set.
	CustomContent string
}

type SendResult struct {
	ID   string          `json:"id"`
	Data json.RawMessage `json:"data,omitempty"`
}

type Dispatcher interface {
	Send(ctx context.Context, kind Kind, r Reminder) (*SendResult, error)
	Subject(kind Kind) string
	Configured() bool
}

type EmailConfig struct {
	APIKey     string
	BaseURL    string
	From       string
	EventTitle string
	HTTPClient *http.Client
}

var _ Dispatcher = (*Email)(nil)

// Email sends reminders through a Resend compatible HTTP API.
type Email struct {
	apiKey  string
	baseURL string
	from    string
	title   string
	client  *http.Client
}

func NewEmail(cfg EmailConfig) *Email {
	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	return &Email{
		apiKey:  cfg.APIKey,
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		from:    cfg.From,
		title:   cfg.EventTitle,
		client:  client,
	}
}

func (e *Email) Configured() bool { return e.apiKey != "" }

func (e *Email) Sender(kind Kind) string {
	if kind == PaymentReminder {
		return "Payment Reminder <" + e.from + ">"
	}
	return "Event Reminder <" + e.from + ">"
}

func (e *Email) Subject(kind Kind) string {
	if kind == PaymentReminder {
		return "⚠️ Payment Reminder: " + e.title
	}
	return "Reminder: " + e.title
}

type sendRequest struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html"`
}

func (e *Email) Send(ctx context.Context, kind Kind, r Reminder) (*SendResult, error) {
	if !e.Configured() {
		return nil, ErrNotConfigured
	}
	if !kind.Valid() {
		return nil, fmt.Errorf("unknown reminder kind %q", kind)
	}

	html, err := Render(kind, e.title, r)
	if err != nil {
		return nil, err
	}

	payload, err := json.Marshal(sendRequest{
		From:    e.Sender(kind),
		To:      []string{r.To},
		Subject: e.Subject(kind),
		HTML:    html,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal email: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.baseURL+"/emails", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build email request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+e.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send email: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("read email response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &ProviderError{StatusCode: resp.StatusCode, Body: rawJSON(body)}
	}

	res := &SendResult{Data: rawJSON(body)}
	var parsed struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(body, &parsed); err == nil {
		res.ID = parsed.ID
	}
	return res, nil
}

// rawJSON keeps valid JSON as is and quotes anything else.
func rawJSON(b []byte) json.RawMessage {
	if json.Valid(b) {
		return json.RawMessage(b)
	}
	quoted, _ := json.Marshal(string(b))
	return json.RawMessage(quoted)
}
