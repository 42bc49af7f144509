package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gdg-garage/event-tickets/internal/notifier"
	"github.com/rs/zerolog"
)

// ReminderHandler serves the field-driven send endpoints used by the
// admin page. Responses keep the {message, data} / {error, details}
// shape the page expects instead of huma's problem documents.
type ReminderHandler struct {
	email notifier.Dispatcher
	log   zerolog.Logger
}

func NewReminderHandler(email notifier.Dispatcher, log zerolog.Logger) *ReminderHandler {
	return &ReminderHandler{email: email, log: log}
}

type ReminderRequest struct {
	Body struct {
		To            string `json:"to" required:"false"`
		FullName      string `json:"fullName" required:"false"`
		InviteCode    string `json:"inviteCode" required:"false"`
		TicketType    string `json:"ticketType,omitempty" required:"false"`
		PairingChoice string `json:"pairingChoice" required:"false"`
		EventDate     string `json:"eventDate" required:"false"`
		CustomContent string `json:"customContent,omitempty" required:"false"`
	} `required:"false"`
}

type ReminderBody struct {
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
	Details any    `json:"details,omitempty"`
}

type ReminderResponse struct {
	Status int
	Body   ReminderBody
}

func (h *ReminderHandler) HandleEventReminder(ctx context.Context, input *ReminderRequest) (*ReminderResponse, error) {
	return h.send(ctx, notifier.EventReminder, input), nil
}

func (h *ReminderHandler) HandlePaymentReminder(ctx context.Context, input *ReminderRequest) (*ReminderResponse, error) {
	return h.send(ctx, notifier.PaymentReminder, input), nil
}

func (h *ReminderHandler) send(ctx context.Context, kind notifier.Kind, input *ReminderRequest) *ReminderResponse {
	if !h.email.Configured() {
		return reply(http.StatusInternalServerError, ReminderBody{Error: "Email service not configured"})
	}

	b := input.Body
	if b.To == "" || b.FullName == "" || b.InviteCode == "" {
		return reply(http.StatusBadRequest, ReminderBody{Error: "Missing required fields"})
	}

	sent, err := h.email.Send(ctx, kind, notifier.Reminder{
		To:            b.To,
		FullName:      b.FullName,
		InviteCode:    b.InviteCode,
		TicketType:    b.TicketType,
		PairingChoice: b.PairingChoice,
		EventDate:     b.EventDate,
		CustomContent: b.CustomContent,
	})

	failed := "Failed to send email reminder"
	succeeded := "Email reminder sent successfully"
	if kind == notifier.PaymentReminder {
		failed = "Failed to send payment reminder"
		succeeded = "Payment reminder sent successfully"
	}

	var perr *notifier.ProviderError
	switch {
	case errors.As(err, &perr):
		h.log.Error().Int("status", perr.StatusCode).RawJSON("provider", perr.Body).Str("kind", string(kind)).Msg("email provider rejected reminder")
		return reply(http.StatusInternalServerError, ReminderBody{Error: failed, Details: json.RawMessage(perr.Body)})
	case err != nil:
		h.log.Error().Err(err).Str("kind", string(kind)).Msg("failed to send reminder")
		return reply(http.StatusInternalServerError, ReminderBody{Error: "Internal server error", Details: err.Error()})
	}

	var data any = sent
	if len(sent.Data) > 0 {
		data = sent.Data
	}
	return reply(http.StatusOK, ReminderBody{Message: succeeded, Data: data})
}

func reply(status int, body ReminderBody) *ReminderResponse {
	return &ReminderResponse{Status: status, Body: body}
}
