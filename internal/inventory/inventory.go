package inventory

import (
	"context"
	"fmt"

	"github.com/gdg-garage/event-tickets/internal/models"
	"gorm.io/gorm"
)

const (
	DefaultVIPCapacity     = 6
	DefaultRegularCapacity = 24
)

type Caps struct {
	VIP     int
	Regular int
}

func DefaultCaps() Caps {
	return Caps{VIP: DefaultVIPCapacity, Regular: DefaultRegularCapacity}
}

func (c Caps) For(t models.TicketType) int {
	switch t {
	case models.TicketVIP:
		return c.VIP
	case models.TicketRegular:
		return c.Regular
	}
	return 0
}

func (c Caps) Total() int { return c.VIP + c.Regular }

// TicketCounts is the read-time projection of remaining capacity.
// Available values are plain arithmetic and go negative when a category
// is overbooked; use Clamped for display.
type TicketCounts struct {
	Available        int `json:"available"`
	Total            int `json:"total"`
	VIPAvailable     int `json:"vip_available"`
	RegularAvailable int `json:"regular_available"`
	VIPTotal         int `json:"vip_total"`
	RegularTotal     int `json:"regular_total"`
}

// Compute derives counts from caps and the number sold per category.
func Compute(caps Caps, sold map[models.TicketType]int) TicketCounts {
	vip := caps.VIP - sold[models.TicketVIP]
	regular := caps.Regular - sold[models.TicketRegular]
	return TicketCounts{
		Available:        vip + regular,
		Total:            caps.Total(),
		VIPAvailable:     vip,
		RegularAvailable: regular,
		VIPTotal:         caps.VIP,
		RegularTotal:     caps.Regular,
	}
}

// CountsFrom computes the projection from an in-memory record set.
func CountsFrom(caps Caps, regs []models.Registration) TicketCounts {
	return Compute(caps, Sold(regs))
}

func Sold(regs []models.Registration) map[models.TicketType]int {
	sold := make(map[models.TicketType]int, len(models.TicketTypes))
	for _, r := range regs {
		sold[r.TicketType]++
	}
	return sold
}

func (tc TicketCounts) AvailableFor(t models.TicketType) int {
	switch t {
	case models.TicketVIP:
		return tc.VIPAvailable
	case models.TicketRegular:
		return tc.RegularAvailable
	}
	return 0
}

func (tc TicketCounts) SoldOut(t models.TicketType) bool {
	return tc.AvailableFor(t) <= 0
}

func (tc TicketCounts) Clamped() TicketCounts {
	out := tc
	out.VIPAvailable = max(tc.VIPAvailable, 0)
	out.RegularAvailable = max(tc.RegularAvailable, 0)
	out.Available = out.VIPAvailable + out.RegularAvailable
	return out
}

type categoryCount struct {
	TicketType models.TicketType
	Count      int
}

// Reader recounts live registrations on every call.
type Reader struct {
	db   *gorm.DB
	caps Caps
}

func NewReader(db *gorm.DB, caps Caps) *Reader {
	return &Reader{db: db, caps: caps}
}

func (r *Reader) Caps() Caps { return r.caps }

func (r *Reader) Counts(ctx context.Context) (TicketCounts, error) {
	sold, err := SoldIn(r.db.WithContext(ctx))
	if err != nil {
		return TicketCounts{}, err
	}
	return Compute(r.caps, sold), nil
}

// SoldIn counts registrations per category using db, which may be a
// transaction handle.
func SoldIn(db *gorm.DB) (map[models.TicketType]int, error) {
	var rows []categoryCount
	err := db.Model(&models.Registration{}).
		Select("ticket_type, COUNT(*) AS count").
		Group("ticket_type").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("count registrations: %w", err)
	}

	sold := make(map[models.TicketType]int, len(rows))
	for _, row := range rows {
		sold[row.TicketType] = row.Count
	}
	return sold, nil
}
