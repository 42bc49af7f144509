package registration

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/gdg-garage/event-tickets/internal/events"
	"github.com/gdg-garage/event-tickets/internal/inventory"
	"github.com/gdg-garage/event-tickets/internal/invitecode"
	"github.com/gdg-garage/event-tickets/internal/models"
	"github.com/gdg-garage/event-tickets/internal/notifier"
	"github.com/gdg-garage/event-tickets/internal/validation"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

const maxInviteCodeAttempts = 3

var (
	ErrSoldOut             = errors.New("ticket category sold out")
	ErrInviteCodeExhausted = errors.New("could not generate a unique invite code")
)

// PersistenceError wraps a failed datastore call.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string { return e.Op + ": " + e.Err.Error() }
func (e *PersistenceError) Unwrap() error { return e.Err }

type Result struct {
	InviteCode   string
	Registration models.Registration
}

type Service struct {
	db       *gorm.DB
	caps     inventory.Caps
	log      zerolog.Logger
	events   events.Publisher
	staff    notifier.StaffNotifier
	now      func() time.Time
	newCode  func(time.Time) (string, error)
	submitMu sync.Mutex
}

type Option func(*Service)

func WithPublisher(p events.Publisher) Option { return func(s *Service) { s.events = p } }

func WithStaffNotifier(n notifier.StaffNotifier) Option { return func(s *Service) { s.staff = n } }

func WithClock(now func() time.Time) Option { return func(s *Service) { s.now = now } }

func WithCodeGenerator(gen func(time.Time) (string, error)) Option {
	return func(s *Service) { s.newCode = gen }
}

func NewService(db *gorm.DB, caps inventory.Caps, log zerolog.Logger, opts ...Option) *Service {
	s := &Service{
		db:      db,
		caps:    caps,
		log:     log,
		events:  events.Nop{},
		now:     time.Now,
		newCode: invitecode.Generate,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Submit validates the input, checks capacity, and stores one
// registration. Submissions are serialized inside this process so one
// instance never oversells; separate instances sharing a database can
// still race between the count and the insert.
func (s *Service) Submit(ctx context.Context, in validation.RegistrationInput) (*Result, error) {
	sub, err := validation.Validate(ctx, in)
	if err != nil {
		return nil, err
	}

	s.submitMu.Lock()
	defer s.submitMu.Unlock()

	now := s.now()
	reg := models.Registration{
		ID:               uuid.NewString(),
		FullName:         sub.FullName,
		Email:            sub.Email,
		Phone:            sub.Phone,
		TicketType:       sub.TicketType,
		PairingChoice:    sub.PairingChoice,
		HasAllergies:     sub.HasAllergies,
		Allergies:        NormalizeAllergies(sub.HasAllergies, sub.Allergies),
		RegistrationDate: now,
		PaymentStatus:    models.PaymentPending,
		AgreedToTerms:    true,
	}

	var counts inventory.TicketCounts
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		sold, err := inventory.SoldIn(tx)
		if err != nil {
			return &PersistenceError{Op: "count registrations", Err: err}
		}
		counts = inventory.Compute(s.caps, sold)
		if counts.SoldOut(reg.TicketType) {
			return ErrSoldOut
		}

		code, err := s.uniqueCode(tx, now)
		if err != nil {
			return err
		}
		reg.InviteCode = code

		if err := tx.Create(&reg).Error; err != nil {
			return &PersistenceError{Op: "insert registration", Err: err}
		}
		return nil
	})
	if err != nil {
		var perr *PersistenceError
		switch {
		case errors.Is(err, ErrSoldOut):
			s.log.Info().Str("ticket_type", string(reg.TicketType)).Msg("registration rejected, sold out")
		case errors.As(err, &perr):
			s.log.Error().Err(err).Str("email", reg.Email).Msg("failed to persist registration")
		default:
			s.log.Error().Err(err).Msg("registration failed")
		}
		return nil, err
	}

	s.log.Info().
		Str("registration_id", reg.ID).
		Str("invite_code", reg.InviteCode).
		Str("ticket_type", string(reg.TicketType)).
		Msg("registration created")

	counts = inventory.Compute(s.caps, incremented(counts, s.caps, reg.TicketType))
	s.announce(ctx, reg, counts)

	return &Result{InviteCode: reg.InviteCode, Registration: reg}, nil
}

// uniqueCode generates codes until one is not yet stored.
func (s *Service) uniqueCode(tx *gorm.DB, now time.Time) (string, error) {
	for attempt := 1; attempt <= maxInviteCodeAttempts; attempt++ {
		code, err := s.newCode(now)
		if err != nil {
			return "", fmt.Errorf("generate invite code: %w", err)
		}

		var n int64
		if err := tx.Model(&models.Registration{}).Where("invite_code = ?", code).Count(&n).Error; err != nil {
			return "", &PersistenceError{Op: "check invite code", Err: err}
		}
		if n == 0 {
			return code, nil
		}
		s.log.Warn().Str("invite_code", code).Int("attempt", attempt).Msg("invite code collision, regenerating")
	}
	return "", ErrInviteCodeExhausted
}

// announce runs the side channels. Their failures never fail the
// submission.
func (s *Service) announce(ctx context.Context, reg models.Registration, counts inventory.TicketCounts) {
	if err := s.events.PublishRegistrationCreated(ctx, reg); err != nil {
		s.log.Warn().Err(err).Str("registration_id", reg.ID).Msg("failed to publish registration event")
	}
	if s.staff != nil {
		if err := s.staff.NotifyRegistration(reg, counts); err != nil {
			s.log.Warn().Err(err).Str("registration_id", reg.ID).Msg("failed to notify staff")
		}
	}
}

// NormalizeAllergies stores the sentinel unless the attendee declared
// allergies with some text.
func NormalizeAllergies(flag models.AllergyFlag, text string) string {
	if flag != models.AllergiesYes {
		return models.NoAllergies
	}
	if t := strings.TrimSpace(text); t != "" {
		return t
	}
	return models.NoAllergies
}

func incremented(counts inventory.TicketCounts, caps inventory.Caps, t models.TicketType) map[models.TicketType]int {
	sold := map[models.TicketType]int{
		models.TicketVIP:     caps.VIP - counts.VIPAvailable,
		models.TicketRegular: caps.Regular - counts.RegularAvailable,
	}
	sold[t]++
	return sold
}
