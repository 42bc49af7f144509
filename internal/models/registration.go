package models

import (
	"strings"
	"time"
)

type TicketType string

const (
	TicketVIP     TicketType = "vip"
	TicketRegular TicketType = "regular"
)

// TicketTypes lists the tracked ticket categories in display order.
var TicketTypes = []TicketType{TicketVIP, TicketRegular}

type PairingChoice string

const (
	PairingWine  PairingChoice = "wine"
	PairingJuice PairingChoice = "juice"
)

func (p PairingChoice) Label() string {
	if p == PairingWine {
		return "Wine Pairing"
	}
	return "Juice Pairing"
}

type AllergyFlag string

const (
	AllergiesYes AllergyFlag = "yes"
	AllergiesNo  AllergyFlag = "no"
)

type PaymentStatus string

const (
	PaymentPending PaymentStatus = "pending"
	PaymentPaid    PaymentStatus = "paid"
)

// NoAllergies is stored in place of the allergies text when the attendee
// declared none.
const NoAllergies = "none"

type Registration struct {
	ID               string        `gorm:"primaryKey;size:36" json:"id"`
	FullName         string        `gorm:"not null" json:"full_name"`
	Email            string        `gorm:"not null" json:"email"`
	Phone            string        `gorm:"not null" json:"phone"`
	TicketType       TicketType    `gorm:"index;not null" json:"ticket_type"`
	PairingChoice    PairingChoice `gorm:"not null" json:"pairing_choice"`
	HasAllergies     AllergyFlag   `gorm:"not null" json:"has_allergies"`
	Allergies        string        `json:"allergies"`
	InviteCode       string        `gorm:"uniqueIndex;not null" json:"invite_code"`
	RegistrationDate time.Time     `gorm:"index;not null" json:"registration_date"`
	PaymentStatus    PaymentStatus `gorm:"not null;default:pending" json:"payment_status"`
	AgreedToTerms    bool          `json:"agreed_to_terms"`
}

func (Registration) TableName() string { return "registrations" }

// DeclaredAllergies reports whether the record carries a real allergy
// declaration rather than the sentinel.
func (r Registration) DeclaredAllergies() bool {
	a := strings.TrimSpace(r.Allergies)
	return a != "" && a != NoAllergies
}
