package main

import (
	"bytes"
	"testing"
	"time"

	"github.com/gdg-garage/event-tickets/internal/admin"
	"github.com/gdg-garage/event-tickets/internal/inventory"
	"github.com/gdg-garage/event-tickets/internal/models"
	"github.com/stretchr/testify/require"
)

func TestAllowedOrigins(t *testing.T) {
	require.Nil(t, allowedOrigins(""))
	require.Nil(t, allowedOrigins("not a url"))
	require.Equal(t, []string{"http://127.0.0.1:4000"}, allowedOrigins("http://127.0.0.1:4000/admin"))
	require.Equal(t, []string{"https://tickets.example.com"}, allowedOrigins("https://tickets.example.com"))
}

func TestPrintCounts(t *testing.T) {
	var buf bytes.Buffer
	printCounts(&buf, inventory.Compute(inventory.DefaultCaps(), map[models.TicketType]int{models.TicketVIP: 2}))
	out := buf.String()
	require.Contains(t, out, "CATEGORY")
	require.Regexp(t, `vip\s+4\s+6`, out)
	require.Regexp(t, `regular\s+24\s+24`, out)
	require.Regexp(t, `all\s+28\s+30`, out)
}

func TestPrintRoster(t *testing.T) {
	regs := []models.Registration{{
		InviteCode:       "CE1ABCDE",
		FullName:         "Ada Lovelace",
		Email:            "ada@x.com",
		TicketType:       models.TicketVIP,
		RegistrationDate: time.Date(2025, 8, 1, 9, 30, 0, 0, time.UTC),
	}}
	var buf bytes.Buffer
	printRoster(&buf, regs, admin.ComputeStatistics(inventory.DefaultCaps(), regs))
	require.Contains(t, buf.String(), "CE1ABCDE")
	require.Contains(t, buf.String(), "2025-08-01 09:30")
	require.Contains(t, buf.String(), "1 shown, 1 total")
}
