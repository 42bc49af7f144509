package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/gdg-garage/event-tickets/internal/admin"
	"github.com/gdg-garage/event-tickets/internal/models"
	"github.com/gdg-garage/event-tickets/internal/notifier"
	"github.com/rs/zerolog"
)

type AdminHandler struct {
	svc *admin.Service
	log zerolog.Logger
}

func NewAdminHandler(svc *admin.Service, log zerolog.Logger) *AdminHandler {
	return &AdminHandler{svc: svc, log: log}
}

type ListRegistrationsRequest struct {
	Q string `query:"q" doc:"Matches full name, email, invite code or phone"`
}

type ListRegistrationsResponse struct {
	Body struct {
		Registrations []models.Registration `json:"registrations"`
		Statistics    admin.Statistics      `json:"statistics"`
		Results       int                   `json:"results" doc:"Number of registrations matching q"`
	}
}

// HandleList returns the roster filtered by q. Statistics always cover
// the full roster.
func (h *AdminHandler) HandleList(ctx context.Context, input *ListRegistrationsRequest) (*ListRegistrationsResponse, error) {
	roster, err := h.svc.ListAll(ctx)
	if err != nil {
		h.log.Error().Err(err).Msg("failed to list registrations")
		return nil, huma.Error500InternalServerError("Failed to load registrations")
	}

	matched := admin.Search(roster.Registrations, input.Q)

	res := &ListRegistrationsResponse{}
	res.Body.Registrations = matched
	res.Body.Statistics = roster.Statistics
	res.Body.Results = len(matched)
	return res, nil
}

type RegistrationIDRequest struct {
	ID string `path:"id"`
}

type DeleteRegistrationResponse struct {
	Body struct {
		Statistics admin.Statistics `json:"statistics"`
	}
}

func (h *AdminHandler) HandleDelete(ctx context.Context, input *RegistrationIDRequest) (*DeleteRegistrationResponse, error) {
	roster, err := h.svc.Delete(ctx, input.ID)
	if err != nil {
		return nil, h.adminError(err, input.ID)
	}

	res := &DeleteRegistrationResponse{}
	res.Body.Statistics = roster.Statistics
	return res, nil
}

type PreviewRequest struct {
	ID   string `path:"id"`
	Kind string `query:"kind" enum:"event_reminder,payment_reminder" default:"event_reminder"`
}

type PreviewResponse struct {
	Body admin.Preview
}

func (h *AdminHandler) HandlePreview(ctx context.Context, input *PreviewRequest) (*PreviewResponse, error) {
	p, err := h.svc.Preview(ctx, input.ID, notifier.Kind(input.Kind))
	if err != nil {
		return nil, h.adminError(err, input.ID)
	}
	return &PreviewResponse{Body: p}, nil
}

type NotifyRequest struct {
	ID   string `path:"id"`
	Body struct {
		Kind       string `json:"kind" enum:"event_reminder,payment_reminder"`
		CustomBody string `json:"customBody,omitempty" required:"false" doc:"Markdown replacing the generated email body"`
	}
}

type NotifyResponse struct {
	Body struct {
		Message   string `json:"message"`
		MessageID string `json:"message_id,omitempty"`
	}
}

func (h *AdminHandler) HandleNotify(ctx context.Context, input *NotifyRequest) (*NotifyResponse, error) {
	kind := notifier.Kind(input.Body.Kind)
	sent, err := h.svc.SendNotification(ctx, input.ID, kind, input.Body.CustomBody)
	if err != nil {
		return nil, h.adminError(err, input.ID)
	}

	res := &NotifyResponse{}
	res.Body.MessageID = sent.ID
	if kind == notifier.PaymentReminder {
		res.Body.Message = "Payment reminder sent successfully"
	} else {
		res.Body.Message = "Email reminder sent successfully"
	}
	return res, nil
}

type SendingResponse struct {
	Body struct {
		Sending []notifier.Kind `json:"sending" doc:"Reminder kinds currently being sent"`
	}
}

func (h *AdminHandler) HandleSending(_ context.Context, input *RegistrationIDRequest) (*SendingResponse, error) {
	res := &SendingResponse{}
	res.Body.Sending = h.svc.Sending(input.ID)
	if res.Body.Sending == nil {
		res.Body.Sending = []notifier.Kind{}
	}
	return res, nil
}

func (h *AdminHandler) adminError(err error, id string) error {
	var perr *notifier.ProviderError
	switch {
	case errors.Is(err, admin.ErrNotFound):
		return huma.Error404NotFound("Registration not found")
	case errors.Is(err, admin.ErrSendInProgress):
		return huma.Error409Conflict("A reminder of this kind is already being sent")
	case errors.Is(err, admin.ErrAlreadyPaid):
		return huma.Error409Conflict("Registration is already paid")
	case errors.Is(err, admin.ErrUnknownKind):
		return huma.Error400BadRequest("Unknown reminder kind")
	case errors.Is(err, notifier.ErrNotConfigured):
		return huma.Error500InternalServerError("Email service not configured")
	case errors.As(err, &perr):
		return huma.NewError(http.StatusBadGateway, "Failed to send email", &huma.ErrorDetail{
			Message: "email provider returned " + http.StatusText(perr.StatusCode),
			Value:   json.RawMessage(perr.Body),
		})
	default:
		h.log.Error().Err(err).Str("registration_id", id).Msg("admin operation failed")
		return huma.Error500InternalServerError("Something went wrong. Please try again.")
	}
}
