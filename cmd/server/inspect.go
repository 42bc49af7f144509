package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/gdg-garage/event-tickets/internal/admin"
	"github.com/gdg-garage/event-tickets/internal/database"
	"github.com/gdg-garage/event-tickets/internal/inventory"
	"github.com/gdg-garage/event-tickets/internal/models"
	"github.com/spf13/cobra"
)

var ticketsCmd = &cobra.Command{
	Use:   "tickets",
	Short: "Print remaining capacity per category",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := database.Connect(cfg)
		if err != nil {
			return err
		}
		counts, err := inventory.NewReader(db, caps()).Counts(cmd.Context())
		if err != nil {
			return err
		}
		printCounts(cmd.OutOrStdout(), counts)
		return nil
	},
}

var registrationsCmd = &cobra.Command{
	Use:   "registrations",
	Short: "List registrations, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := database.Connect(cfg)
		if err != nil {
			return err
		}
		roster, err := newAdminService(db).ListAll(cmd.Context())
		if err != nil {
			return err
		}
		term, _ := cmd.Flags().GetString("search")
		printRoster(cmd.OutOrStdout(), admin.Search(roster.Registrations, term), roster.Statistics)
		return nil
	},
}

func init() {
	registrationsCmd.Flags().StringP("search", "s", "", "filter by name, email, invite code or phone")
}

func printCounts(w io.Writer, c inventory.TicketCounts) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "CATEGORY\tAVAILABLE\tTOTAL")
	fmt.Fprintf(tw, "vip\t%d\t%d\n", c.VIPAvailable, c.VIPTotal)
	fmt.Fprintf(tw, "regular\t%d\t%d\n", c.RegularAvailable, c.RegularTotal)
	fmt.Fprintf(tw, "all\t%d\t%d\n", c.Available, c.Total)
	tw.Flush()
}

func printRoster(w io.Writer, regs []models.Registration, stats admin.Statistics) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "INVITE CODE\tNAME\tEMAIL\tPHONE\tTICKET\tPAIRING\tALLERGIES\tPAYMENT\tREGISTERED")
	for _, r := range regs {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			r.InviteCode, r.FullName, r.Email, r.Phone, r.TicketType, r.PairingChoice,
			r.Allergies, r.PaymentStatus, r.RegistrationDate.Format("2006-01-02 15:04"))
	}
	tw.Flush()
	fmt.Fprintf(w, "\n%d shown, %d total (vip %d sold, regular %d sold, %d with allergies)\n",
		len(regs), stats.TotalRegistrations, stats.VIPTicketsSold, stats.RegularTicketsSold, stats.AllergiesCount)
}
