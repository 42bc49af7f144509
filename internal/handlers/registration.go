package handlers

import (
	"context"
	"errors"
	"fmt"

	"github.com/danielgtaylor/huma/v2"
	"github.com/gdg-garage/event-tickets/internal/inventory"
	"github.com/gdg-garage/event-tickets/internal/models"
	"github.com/gdg-garage/event-tickets/internal/registration"
	"github.com/gdg-garage/event-tickets/internal/validation"
	"github.com/rs/zerolog"
)

type RegistrationHandler struct {
	svc    *registration.Service
	reader *inventory.Reader
	log    zerolog.Logger
}

func NewRegistrationHandler(svc *registration.Service, reader *inventory.Reader, log zerolog.Logger) *RegistrationHandler {
	return &RegistrationHandler{svc: svc, reader: reader, log: log}
}

type TicketsBody struct {
	inventory.TicketCounts
	SoldOut        bool `json:"sold_out" doc:"No seats left in any category"`
	VIPSoldOut     bool `json:"vip_sold_out"`
	RegularSoldOut bool `json:"regular_sold_out"`
}

type TicketsResponse struct {
	Body TicketsBody
}

// HandleTickets reports remaining capacity, clamped at zero for display.
func (h *RegistrationHandler) HandleTickets(ctx context.Context, _ *struct{}) (*TicketsResponse, error) {
	counts, err := h.reader.Counts(ctx)
	if err != nil {
		h.log.Error().Err(err).Msg("failed to count tickets")
		return nil, huma.Error500InternalServerError("Failed to load ticket availability")
	}

	res := &TicketsResponse{}
	res.Body.TicketCounts = counts.Clamped()
	res.Body.VIPSoldOut = counts.SoldOut(models.TicketVIP)
	res.Body.RegularSoldOut = counts.SoldOut(models.TicketRegular)
	res.Body.SoldOut = res.Body.VIPSoldOut && res.Body.RegularSoldOut
	return res, nil
}

// RegistrationRequest leaves every field optional in the schema so the
// validation package reports missing values with its own messages.
type RegistrationRequest struct {
	Body struct {
		FullName      string `json:"fullName" required:"false" doc:"Attendee full name"`
		Email         string `json:"email" required:"false"`
		Phone         string `json:"phone" required:"false"`
		TicketType    string `json:"ticketType,omitempty" required:"false" doc:"vip or regular, defaults to regular"`
		PairingChoice string `json:"pairingChoice" required:"false" doc:"wine or juice"`
		HasAllergies  string `json:"hasAllergies" required:"false" doc:"yes or no"`
		Allergies     string `json:"allergies,omitempty" required:"false"`
		AgreedToTerms bool   `json:"agreedToTerms" required:"false"`
	} `required:"false"`
}

type RegistrationResponse struct {
	Body struct {
		InviteCode string `json:"inviteCode"`
		Message    string `json:"message"`
	}
}

func (h *RegistrationHandler) HandleRegister(ctx context.Context, input *RegistrationRequest) (*RegistrationResponse, error) {
	b := input.Body
	result, err := h.svc.Submit(ctx, validation.RegistrationInput{
		FullName:      b.FullName,
		Email:         b.Email,
		Phone:         b.Phone,
		TicketType:    b.TicketType,
		PairingChoice: b.PairingChoice,
		HasAllergies:  b.HasAllergies,
		Allergies:     b.Allergies,
		AgreedToTerms: b.AgreedToTerms,
	})
	if err != nil {
		return nil, registrationError(err, b.TicketType)
	}

	res := &RegistrationResponse{}
	res.Body.InviteCode = result.InviteCode
	res.Body.Message = "Registration successful! Your invite code is " + result.InviteCode
	return res, nil
}

func registrationError(err error, ticketType string) error {
	var fieldErrs validation.FieldErrors
	switch {
	case errors.As(err, &fieldErrs):
		details := make([]error, 0, len(fieldErrs))
		for _, fe := range fieldErrs {
			details = append(details, &huma.ErrorDetail{
				Message:  fe.Message,
				Location: "body." + fe.Field,
			})
		}
		return huma.Error422UnprocessableEntity("Please correct the highlighted fields", details...)
	case errors.Is(err, registration.ErrSoldOut):
		if ticketType == "" {
			ticketType = string(models.TicketRegular)
		}
		return huma.Error409Conflict(fmt.Sprintf("Sorry, %s tickets are sold out", ticketType))
	default:
		return huma.Error500InternalServerError("Registration failed. Please try again.")
	}
}
