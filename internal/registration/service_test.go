package registration

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gdg-garage/event-tickets/internal/inventory"
	"github.com/gdg-garage/event-tickets/internal/models"
	"github.com/gdg-garage/event-tickets/internal/validation"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"pgregory.net/rapid"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Discard})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(&models.Registration{}))
	return db
}

func countRows(t *testing.T, db *gorm.DB) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Model(&models.Registration{}).Count(&n).Error)
	return n
}

func seed(t *testing.T, db *gorm.DB, ticket models.TicketType, n int) {
	t.Helper()
	for i := range n {
		require.NoError(t, db.Create(&models.Registration{
			ID:            fmt.Sprintf("seed-%s-%d", ticket, i),
			FullName:      "Seed Guest",
			Email:         fmt.Sprintf("seed%d@x.com", i),
			Phone:         "08012345678",
			TicketType:    ticket,
			PairingChoice: models.PairingWine,
			HasAllergies:  models.AllergiesNo,
			Allergies:     models.NoAllergies,
			InviteCode:    fmt.Sprintf("SEED%s%d", ticket, i),
			PaymentStatus: models.PaymentPending,
			AgreedToTerms: true,
		}).Error)
	}
}

func adaInput() validation.RegistrationInput {
	return validation.RegistrationInput{
		FullName:      "Ada Lovelace",
		Email:         "ada@x.com",
		Phone:         "08012345678",
		TicketType:    "vip",
		PairingChoice: "wine",
		HasAllergies:  "no",
		AgreedToTerms: true,
	}
}

type recordingPublisher struct {
	mu   sync.Mutex
	regs []models.Registration
	err  error
}

func (p *recordingPublisher) PublishRegistrationCreated(_ context.Context, r models.Registration) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.regs = append(p.regs, r)
	return p.err
}

func (p *recordingPublisher) Close() {}

type recordingStaff struct {
	counts []inventory.TicketCounts
	err    error
}

func (s *recordingStaff) NotifyRegistration(_ models.Registration, counts inventory.TicketCounts) error {
	s.counts = append(s.counts, counts)
	return s.err
}

func TestSubmit_StoresRegistration(t *testing.T) {
	db := newTestDB(t)
	pub := &recordingPublisher{}
	staff := &recordingStaff{}
	fixed := time.Date(2025, 8, 1, 12, 0, 0, 0, time.UTC)

	svc := NewService(db, inventory.DefaultCaps(), zerolog.Nop(),
		WithPublisher(pub),
		WithStaffNotifier(staff),
		WithClock(func() time.Time { return fixed }),
	)

	res, err := svc.Submit(context.Background(), adaInput())
	require.NoError(t, err)
	require.Regexp(t, `^CE[0-9]{13}[0-9A-Z]{5}$`, res.InviteCode)
	require.True(t, strings.HasPrefix(res.InviteCode, fmt.Sprintf("CE%d", fixed.UnixMilli())))

	var stored models.Registration
	require.NoError(t, db.First(&stored, "invite_code = ?", res.InviteCode).Error)
	require.Equal(t, "Ada Lovelace", stored.FullName)
	require.Equal(t, models.TicketVIP, stored.TicketType)
	require.Equal(t, models.PaymentPending, stored.PaymentStatus)
	require.Equal(t, models.NoAllergies, stored.Allergies)
	require.True(t, stored.AgreedToTerms)
	require.Len(t, stored.ID, 36)

	require.Len(t, pub.regs, 1)
	require.Equal(t, res.InviteCode, pub.regs[0].InviteCode)
	require.Len(t, staff.counts, 1)
	require.Equal(t, 5, staff.counts[0].VIPAvailable, "staff sees counts after the insert")
}

func TestSubmit_DefaultsToRegular(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db, inventory.DefaultCaps(), zerolog.Nop())

	in := adaInput()
	in.TicketType = ""
	res, err := svc.Submit(context.Background(), in)
	require.NoError(t, err)
	require.Equal(t, models.TicketRegular, res.Registration.TicketType)
}

func TestSubmit_ValidationFailureWritesNothing(t *testing.T) {
	db := newTestDB(t)
	pub := &recordingPublisher{}
	svc := NewService(db, inventory.DefaultCaps(), zerolog.Nop(), WithPublisher(pub))

	in := adaInput()
	in.HasAllergies = "yes"
	in.Allergies = "   "

	_, err := svc.Submit(context.Background(), in)
	var ferrs validation.FieldErrors
	require.True(t, errors.As(err, &ferrs))
	msg, ok := ferrs.Get("allergies")
	require.True(t, ok)
	require.Equal(t, "Please specify your allergies or dietary restrictions", msg)

	require.Zero(t, countRows(t, db))
	require.Empty(t, pub.regs)
}

func TestSubmit_SoldOut(t *testing.T) {
	db := newTestDB(t)
	seed(t, db, models.TicketVIP, 6)
	pub := &recordingPublisher{}
	svc := NewService(db, inventory.DefaultCaps(), zerolog.Nop(), WithPublisher(pub))

	_, err := svc.Submit(context.Background(), adaInput())
	require.ErrorIs(t, err, ErrSoldOut)
	require.EqualValues(t, 6, countRows(t, db))
	require.Empty(t, pub.regs)

	in := adaInput()
	in.TicketType = "regular"
	_, err = svc.Submit(context.Background(), in)
	require.NoError(t, err, "other category still has seats")
}

func TestSubmit_OverbookedCategoryStaysClosed(t *testing.T) {
	db := newTestDB(t)
	seed(t, db, models.TicketVIP, 8)
	svc := NewService(db, inventory.DefaultCaps(), zerolog.Nop())

	_, err := svc.Submit(context.Background(), adaInput())
	require.ErrorIs(t, err, ErrSoldOut)
}

func TestSubmit_ConcurrentNeverOversells(t *testing.T) {
	db := newTestDB(t)
	caps := inventory.Caps{VIP: 2, Regular: 3}
	svc := NewService(db, caps, zerolog.Nop())

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		ok      int
		soldOut int
	)
	for i := range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			in := adaInput()
			in.Email = fmt.Sprintf("guest%d@x.com", i)
			_, err := svc.Submit(context.Background(), in)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				ok++
			case errors.Is(err, ErrSoldOut):
				soldOut++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	require.Equal(t, 2, ok)
	require.Equal(t, 8, soldOut)
	require.EqualValues(t, 2, countRows(t, db))
}

func TestSubmit_InviteCodeCollision(t *testing.T) {
	db := newTestDB(t)
	seed(t, db, models.TicketRegular, 1)
	taken := "SEEDregular0"

	t.Run("regenerates", func(t *testing.T) {
		calls := 0
		svc := NewService(db, inventory.DefaultCaps(), zerolog.Nop(),
			WithCodeGenerator(func(time.Time) (string, error) {
				calls++
				if calls == 1 {
					return taken, nil
				}
				return "CEFRESH", nil
			}),
		)
		res, err := svc.Submit(context.Background(), adaInput())
		require.NoError(t, err)
		require.Equal(t, "CEFRESH", res.InviteCode)
		require.Equal(t, 2, calls)
	})

	t.Run("gives up", func(t *testing.T) {
		calls := 0
		svc := NewService(db, inventory.DefaultCaps(), zerolog.Nop(),
			WithCodeGenerator(func(time.Time) (string, error) {
				calls++
				return taken, nil
			}),
		)
		before := countRows(t, db)
		_, err := svc.Submit(context.Background(), adaInput())
		require.ErrorIs(t, err, ErrInviteCodeExhausted)
		require.Equal(t, maxInviteCodeAttempts, calls)
		require.Equal(t, before, countRows(t, db))
	})
}

func TestSubmit_SideChannelFailuresAreIgnored(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db, inventory.DefaultCaps(), zerolog.Nop(),
		WithPublisher(&recordingPublisher{err: errors.New("broker down")}),
		WithStaffNotifier(&recordingStaff{err: errors.New("discord down")}),
	)

	_, err := svc.Submit(context.Background(), adaInput())
	require.NoError(t, err)
	require.EqualValues(t, 1, countRows(t, db))
}

func TestSubmit_DistinctInviteCodes(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db, inventory.Caps{VIP: 0, Regular: 150}, zerolog.Nop())

	seen := make(map[string]bool)
	for i := range 120 {
		in := adaInput()
		in.TicketType = "regular"
		in.Email = fmt.Sprintf("guest%d@x.com", i)
		res, err := svc.Submit(context.Background(), in)
		require.NoError(t, err)
		require.False(t, seen[res.InviteCode], "duplicate code %s", res.InviteCode)
		seen[res.InviteCode] = true
	}
}

func TestSubmit_PersistenceError(t *testing.T) {
	db := newTestDB(t)
	require.NoError(t, db.Migrator().DropTable(&models.Registration{}))
	svc := NewService(db, inventory.DefaultCaps(), zerolog.Nop())

	_, err := svc.Submit(context.Background(), adaInput())
	var perr *PersistenceError
	require.True(t, errors.As(err, &perr))
}

func TestNormalizeAllergies(t *testing.T) {
	require.Equal(t, "peanuts", NormalizeAllergies(models.AllergiesYes, "  peanuts "))
	require.Equal(t, models.NoAllergies, NormalizeAllergies(models.AllergiesNo, "peanuts"))

	rapid.Check(t, func(t *rapid.T) {
		blank := rapid.StringMatching(`[ \t\n]*`).Draw(t, "blank")
		flag := rapid.SampledFrom([]models.AllergyFlag{models.AllergiesYes, models.AllergiesNo}).Draw(t, "flag")
		if got := NormalizeAllergies(flag, blank); got != models.NoAllergies {
			t.Fatalf("blank allergies stored as %q", got)
		}
	})
}
