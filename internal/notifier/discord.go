package notifier

import (
	"fmt"

	"github.com/bwmarrin/discordgo"
	"github.com/gdg-garage/event-tickets/internal/inventory"
	"github.com/gdg-garage/event-tickets/internal/models"
)

// StaffNotifier tells the organisers about new registrations.
type StaffNotifier interface {
	NotifyRegistration(registration models.Registration, counts inventory.TicketCounts) error
}

// ChannelSender is the part of a discordgo session the notifier uses.
type ChannelSender interface {
	ChannelMessageSend(channelID string, content string, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

var _ StaffNotifier = (*DiscordNotifier)(nil)

type DiscordNotifier struct {
	session   ChannelSender
	channelID string
}

func NewDiscordNotifier(session ChannelSender, channelID string) *DiscordNotifier {
	return &DiscordNotifier{
		session:   session,
		channelID: channelID,
	}
}

// NewDiscordSession opens a bot session for token.
func NewDiscordSession(token string) (*discordgo.Session, error) {
	if token == "" {
		return nil, fmt.Errorf("discord bot token is empty")
	}
	return discordgo.New("Bot " + token)
}

func (n *DiscordNotifier) NotifyRegistration(registration models.Registration, counts inventory.TicketCounts) error {
	if n.session == nil {
		return fmt.Errorf("discord session is nil")
	}
	if n.channelID == "" {
		return fmt.Errorf("discord channel ID is empty")
	}

	_, err := n.session.ChannelMessageSend(n.channelID, FormatRegistration(registration, counts))
	if err != nil {
		return fmt.Errorf("send discord message: %w", err)
	}

	return nil
}

func FormatRegistration(r models.Registration, counts inventory.TicketCounts) string {
	allergies := "none"
	if r.DeclaredAllergies() {
		allergies = r.Allergies
	}

	shown := counts.Clamped()
	return fmt.Sprintf("🎟️ **New Registration**\n**Name:** %s\n**Ticket:** %s\n**Pairing:** %s\n**Allergies:** %s\n**Invite Code:** `%s`\n**Remaining:** VIP %d/%d, Regular %d/%d",
		r.FullName,
		r.TicketType,
		r.PairingChoice.Label(),
		allergies,
		r.InviteCode,
		shown.VIPAvailable, shown.VIPTotal,
		shown.RegularAvailable, shown.RegularTotal,
	)
}
