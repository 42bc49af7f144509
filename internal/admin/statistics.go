package admin

import (
	"strings"

	"github.com/gdg-garage/event-tickets/internal/inventory"
	"github.com/gdg-garage/event-tickets/internal/models"
)

type Statistics struct {
	TotalRegistrations      int `json:"total_registrations"`
	VIPTicketsSold          int `json:"vip_tickets_sold"`
	RegularTicketsSold      int `json:"regular_tickets_sold"`
	VIPTicketsAvailable     int `json:"vip_tickets_available"`
	RegularTicketsAvailable int `json:"regular_tickets_available"`
	WinePairingCount        int `json:"wine_pairing_count"`
	JuicePairingCount       int `json:"juice_pairing_count"`
	AllergiesCount          int `json:"allergies_count"`
}

// ComputeStatistics derives the admin tallies from the full record set.
// Availability is not clamped so overbooking stays visible.
func ComputeStatistics(caps inventory.Caps, regs []models.Registration) Statistics {
	sold := inventory.Sold(regs)
	counts := inventory.Compute(caps, sold)

	stats := Statistics{
		TotalRegistrations:      len(regs),
		VIPTicketsSold:          sold[models.TicketVIP],
		RegularTicketsSold:      sold[models.TicketRegular],
		VIPTicketsAvailable:     counts.VIPAvailable,
		RegularTicketsAvailable: counts.RegularAvailable,
	}
	for _, r := range regs {
		switch r.PairingChoice {
		case models.PairingWine:
			stats.WinePairingCount++
		case models.PairingJuice:
			stats.JuicePairingCount++
		}
		if r.DeclaredAllergies() {
			stats.AllergiesCount++
		}
	}
	return stats
}

// Search keeps the records matching term in any of full name, email or
// invite code (case-insensitive) or phone (as typed). An empty term
// returns regs unchanged.
func Search(regs []models.Registration, term string) []models.Registration {
	if term == "" {
		return regs
	}
	folded := strings.ToLower(term)

	out := make([]models.Registration, 0, len(regs))
	for _, r := range regs {
		if Matches(r, term, folded) {
			out = append(out, r)
		}
	}
	return out
}

func Matches(r models.Registration, term, folded string) bool {
	return strings.Contains(strings.ToLower(r.FullName), folded) ||
		strings.Contains(strings.ToLower(r.Email), folded) ||
		strings.Contains(strings.ToLower(r.InviteCode), folded) ||
		strings.Contains(r.Phone, term)
}
