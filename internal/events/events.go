package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/gdg-garage/event-tickets/internal/models"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"
)

const RoutingRegistrationCreated = "registration.created"

// RegistrationCreated is published once per successful submission.
type RegistrationCreated struct {
	RegistrationID   string    `json:"registration_id"`
	InviteCode       string    `json:"invite_code"`
	TicketType       string    `json:"ticket_type"`
	PairingChoice    string    `json:"pairing_choice"`
	Email            string    `json:"email"`
	RegistrationDate time.Time `json:"registration_date"`
}

func NewRegistrationCreated(r models.Registration) RegistrationCreated {
	return RegistrationCreated{
		RegistrationID:   r.ID,
		InviteCode:       r.InviteCode,
		TicketType:       string(r.TicketType),
		PairingChoice:    string(r.PairingChoice),
		Email:            r.Email,
		RegistrationDate: r.RegistrationDate,
	}
}

type Publisher interface {
	PublishRegistrationCreated(ctx context.Context, r models.Registration) error
	Close()
}

// Nop is used when no broker is configured.
type Nop struct{}

func (Nop) PublishRegistrationCreated(context.Context, models.Registration) error { return nil }
func (Nop) Close()                                                               {}

type Rabbit struct {
	conn     *amqp.Connection
	channel  *amqp.Channel
	exchange string
	log      zerolog.Logger
}

func NewRabbit(url, exchange string, log zerolog.Logger) (*Rabbit, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial rabbitmq: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open rabbitmq channel: %w", err)
	}

	if err := ch.ExchangeDeclare(
		exchange,
		"topic",
		true,
		false,
		false,
		false,
		nil,
	); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("declare exchange %s: %w", exchange, err)
	}

	log.Info().Str("exchange", exchange).Msg("rabbitmq publisher initialized")

	return &Rabbit{conn: conn, channel: ch, exchange: exchange, log: log}, nil
}

func (r *Rabbit) PublishRegistrationCreated(ctx context.Context, reg models.Registration) error {
	body, err := json.Marshal(NewRegistrationCreated(reg))
	if err != nil {
		return fmt.Errorf("marshal registration event: %w", err)
	}

	err = r.channel.PublishWithContext(ctx,
		r.exchange,
		RoutingRegistrationCreated,
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			MessageId:    reg.ID,
			Timestamp:    time.Now(),
			Body:         body,
		},
	)
	if err != nil {
		return fmt.Errorf("publish %s: %w", RoutingRegistrationCreated, err)
	}

	r.log.Debug().Str("registration_id", reg.ID).Msg("registration event published")
	return nil
}

func (r *Rabbit) Close() {
	if r.channel != nil {
		_ = r.channel.Close()
	}
	if r.conn != nil {
		_ = r.conn.Close()
	}
}
