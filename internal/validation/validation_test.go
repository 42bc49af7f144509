package validation

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/gdg-garage/event-tickets/internal/models"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func validInput() RegistrationInput {
	return RegistrationInput{
		FullName:      "Ada Lovelace",
		Email:         "ada@x.com",
		Phone:         "08012345678",
		PairingChoice: "wine",
		HasAllergies:  "no",
		AgreedToTerms: true,
	}
}

func fieldErrors(t *testing.T, err error) FieldErrors {
	t.Helper()
	var fe FieldErrors
	require.True(t, errors.As(err, &fe), "expected FieldErrors, got %v", err)
	return fe
}

func TestValidate_Valid(t *testing.T) {
	sub, err := Validate(context.Background(), validInput())
	require.NoError(t, err)
	require.Equal(t, models.TicketRegular, sub.TicketType, "ticket type defaults to regular")
	require.Equal(t, models.PairingWine, sub.PairingChoice)
	require.Equal(t, models.AllergiesNo, sub.HasAllergies)
}

func TestValidate_SingleRuleFailures(t *testing.T) {
	cases := []struct {
		name    string
		mutate  func(*RegistrationInput)
		field   string
		message string
	}{
		{"short name", func(in *RegistrationInput) { in.FullName = "A" }, "fullName", "Full name must be at least 2 characters"},
		{"long name", func(in *RegistrationInput) { in.FullName = strings.Repeat("a", 101) }, "fullName", "Full name must be less than 100 characters"},
		{"bad email", func(in *RegistrationInput) { in.Email = "not-an-email" }, "email", "Please enter a valid email address"},
		{"missing email", func(in *RegistrationInput) { in.Email = "" }, "email", "Please enter a valid email address"},
		{"short phone", func(in *RegistrationInput) { in.Phone = "123456789" }, "phone", "Phone number must be at least 10 digits"},
		{"long phone", func(in *RegistrationInput) { in.Phone = "1234567890123456" }, "phone", "Phone number must be less than 15 digits"},
		{"missing pairing", func(in *RegistrationInput) { in.PairingChoice = "" }, "pairingChoice", "Please select a pairing choice"},
		{"unknown pairing", func(in *RegistrationInput) { in.PairingChoice = "beer" }, "pairingChoice", "Please select a pairing choice"},
		{"missing allergy flag", func(in *RegistrationInput) { in.HasAllergies = "" }, "hasAllergies", "Please specify if you have allergies"},
		{"unknown ticket", func(in *RegistrationInput) { in.TicketType = "gold" }, "ticketType", "Please select a valid ticket type"},
		{"terms not agreed", func(in *RegistrationInput) { in.AgreedToTerms = false }, "agreedToTerms", "You must agree to the terms and conditions"},
		{"allergies blank", func(in *RegistrationInput) { in.HasAllergies = "yes"; in.Allergies = "   " }, "allergies", "Please specify your allergies or dietary restrictions"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			in := validInput()
			tc.mutate(&in)

			_, err := Validate(context.Background(), in)
			fe := fieldErrors(t, err)
			require.Len(t, fe, 1, "only the broken field is reported: %v", fe)

			msg, ok := fe.Get(tc.field)
			require.True(t, ok)
			require.Equal(t, tc.message, msg)
		})
	}
}

func TestValidate_PhoneLengthOnly(t *testing.T) {
	in := validInput()
	in.Phone = "+234 (801) 234"
	_, err := Validate(context.Background(), in)
	require.NoError(t, err, "formatted phone numbers of valid length are accepted")
}

func TestValidate_CrossFieldAfterFieldRules(t *testing.T) {
	in := validInput()
	in.FullName = ""
	in.HasAllergies = "yes"
	in.Allergies = ""

	_, err := Validate(context.Background(), in)
	fe := fieldErrors(t, err)
	require.Len(t, fe, 2)
	require.Equal(t, "fullName", fe[0].Field)
	require.Equal(t, "allergies", fe[1].Field)
}

func TestValidate_AllergiesIgnoredWhenNo(t *testing.T) {
	in := validInput()
	in.Allergies = ""
	_, err := Validate(context.Background(), in)
	require.NoError(t, err)
}

func TestValidate_BlankAllergiesAlwaysRejected(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		in := validInput()
		in.HasAllergies = "yes"
		in.Allergies = rapid.StringMatching(`[ \t\n]{0,8}`).Draw(rt, "allergies")

		_, err := Validate(context.Background(), in)
		var fe FieldErrors
		if !errors.As(err, &fe) {
			rt.Fatalf("expected field errors for %q, got %v", in.Allergies, err)
		}
		if _, ok := fe.Get("allergies"); !ok {
			rt.Fatalf("expected allergies error, got %v", fe)
		}
	})
}
