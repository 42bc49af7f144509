// Package admin backs the organiser view: the ordered roster with its
// statistics, search, deletion and reminder emails per registration.
package admin

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/gdg-garage/event-tickets/internal/inventory"
	"github.com/gdg-garage/event-tickets/internal/models"
	"github.com/gdg-garage/event-tickets/internal/notifier"
	"github.com/patrickmn/go-cache"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

const sendMarkerTTL = 2 * time.Minute

var (
	ErrNotFound       = errors.New("registration not found")
	ErrSendInProgress = errors.New("a reminder of this kind is already being sent")
	ErrAlreadyPaid    = errors.New("registration is already paid")
	ErrUnknownKind    = errors.New("unknown reminder kind")
)

// Roster is an ordered set of registrations with its statistics.
type Roster struct {
	Registrations []models.Registration `json:"registrations"`
	Statistics    Statistics            `json:"statistics"`
}

type Preview struct {
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

type Service struct {
	db         *gorm.DB
	caps       inventory.Caps
	email      notifier.Dispatcher
	eventTitle string
	eventDate  string
	log        zerolog.Logger

	inflight *cache.Cache

	mu       sync.Mutex
	snapshot []models.Registration
	loaded   bool
}

type Options struct {
	EventTitle string
	EventDate  string
}

func NewService(db *gorm.DB, caps inventory.Caps, email notifier.Dispatcher, opts Options, log zerolog.Logger) *Service {
	return &Service{
		db:         db,
		caps:       caps,
		email:      email,
		eventTitle: opts.EventTitle,
		eventDate:  opts.EventDate,
		log:        log,
		inflight:   cache.New(sendMarkerTTL, 2*sendMarkerTTL),
	}
}

// ListAll fetches every registration, newest first, and replaces the
// snapshot.
func (s *Service) ListAll(ctx context.Context) (Roster, error) {
	var regs []models.Registration
	if err := s.db.WithContext(ctx).Order("registration_date DESC").Find(&regs).Error; err != nil {
		return Roster{}, fmt.Errorf("list registrations: %w", err)
	}

	s.mu.Lock()
	s.snapshot = regs
	s.loaded = true
	s.mu.Unlock()

	return s.roster(regs), nil
}

// Delete removes one registration. The roster returned is the previous
// snapshot without id; nothing is re-fetched unless no snapshot exists.
func (s *Service) Delete(ctx context.Context, id string) (Roster, error) {
	res := s.db.WithContext(ctx).Delete(&models.Registration{}, "id = ?", id)
	if res.Error != nil {
		return Roster{}, fmt.Errorf("delete registration: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return Roster{}, ErrNotFound
	}
	s.log.Info().Str("registration_id", id).Msg("registration deleted")

	s.mu.Lock()
	if !s.loaded {
		s.mu.Unlock()
		return s.ListAll(ctx)
	}
	s.snapshot = slices.DeleteFunc(slices.Clone(s.snapshot), func(r models.Registration) bool {
		return r.ID == id
	})
	regs := s.snapshot
	s.mu.Unlock()

	return s.roster(regs), nil
}

func (s *Service) Find(ctx context.Context, id string) (models.Registration, error) {
	var reg models.Registration
	err := s.db.WithContext(ctx).First(&reg, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.Registration{}, ErrNotFound
	}
	if err != nil {
		return models.Registration{}, fmt.Errorf("find registration: %w", err)
	}
	return reg, nil
}

// SendNotification emails one reminder of kind to the registration's
// address. A second send of the same kind for the same registration is
// rejected while the first is in flight.
func (s *Service) SendNotification(ctx context.Context, id string, kind notifier.Kind, customBody string) (*notifier.SendResult, error) {
	if !kind.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}

	key := markerKey(id, kind)
	if err := s.inflight.Add(key, struct{}{}, cache.DefaultExpiration); err != nil {
		return nil, ErrSendInProgress
	}
	defer s.inflight.Delete(key)

	reg, err := s.Find(ctx, id)
	if err != nil {
		return nil, err
	}
	if kind == notifier.PaymentReminder && reg.PaymentStatus == models.PaymentPaid {
		return nil, ErrAlreadyPaid
	}

	res, err := s.email.Send(ctx, kind, s.reminderFor(reg, customBody))
	if err != nil {
		s.log.Error().Err(err).Str("registration_id", id).Str("kind", string(kind)).Msg("failed to send reminder")
		return nil, err
	}

	s.log.Info().Str("registration_id", id).Str("kind", string(kind)).Str("message_id", res.ID).Msg("reminder sent")
	return res, nil
}

// Sending lists the reminder kinds currently in flight for id.
func (s *Service) Sending(id string) []notifier.Kind {
	var kinds []notifier.Kind
	for _, k := range []notifier.Kind{notifier.EventReminder, notifier.PaymentReminder} {
		if _, ok := s.inflight.Get(markerKey(id, k)); ok {
			kinds = append(kinds, k)
		}
	}
	return kinds
}

func (s *Service) Preview(ctx context.Context, id string, kind notifier.Kind) (Preview, error) {
	if !kind.Valid() {
		return Preview{}, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
	reg, err := s.Find(ctx, id)
	if err != nil {
		return Preview{}, err
	}
	return Preview{
		Subject: s.email.Subject(kind),
		Body:    notifier.PreviewText(kind, s.eventTitle, s.reminderFor(reg, "")),
	}, nil
}

func (s *Service) roster(regs []models.Registration) Roster {
	return Roster{Registrations: regs, Statistics: ComputeStatistics(s.caps, regs)}
}

func (s *Service) reminderFor(reg models.Registration, customBody string) notifier.Reminder {
	return notifier.Reminder{
		To:            reg.Email,
		FullName:      reg.FullName,
		InviteCode:    reg.InviteCode,
		TicketType:    string(reg.TicketType),
		PairingChoice: string(reg.PairingChoice),
		EventDate:     s.eventDate,
		CustomContent: customBody,
	}
}

func markerKey(id string, kind notifier.Kind) string {
	return id + ":" + string(kind)
}
