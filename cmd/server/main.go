package main

import (
	"fmt"
	"os"

	"github.com/gdg-garage/event-tickets/internal/config"
	"github.com/gdg-garage/event-tickets/internal/logging"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var (
	cfg *config.Config
	log zerolog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "server",
	Short: "Event ticketing API",
	Long:  `Registration intake with per-category capacity, invite codes and the organiser admin API.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg = config.LoadConfig()
		log = logging.New(os.Stdout, cfg.LogLevel, cfg.LogFormat)
		return cfg.Validate()
	},
	RunE:          runServe,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func main() {
	rootCmd.AddCommand(serveCmd, ticketsCmd, registrationsCmd)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
