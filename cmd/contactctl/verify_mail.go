package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/portfolio/backend/internal/config"
	"github.com/portfolio/backend/internal/logging"
	"github.com/portfolio/backend/internal/mailer"
	"github.com/portfolio/backend/internal/model"
)

func newVerifyMailCmd() *cobra.Command {
	var sendTo string
	cmd := &cobra.Command{
		Use:   "verify-mail",
		Short: "Connect and authenticate to the configured SMTP server",
		Long: `Loads configuration the same way the server does, dials the SMTP
server and authenticates. With --send-to a sample auto-reply is delivered
to that address.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			logging.Setup(cfg.LogLevel, "text")

			m := mailer.New(cfg.MailerConfig())

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "SMTP server: %s:%d\n", cfg.Mail.Host, cfg.Mail.Port)
			fmt.Fprintf(out, "Admin email: %s\n", cfg.Mail.AdminEmail)

			ctx, cancel := context.WithTimeout(cmd.Context(), cfg.Mail.Timeout+5*time.Second)
			defer cancel()

			if err := m.Verify(ctx); err != nil {
				return fmt.Errorf("verify failed: %w", err)
			}
			fmt.Fprintln(out, "SMTP connection verified")

			if sendTo == "" {
				return nil
			}
			sample := model.Submission{
				Name:    "Test User",
				Email:   sendTo,
				Subject: "Test Email",
				Message: "This is a test message from contactctl.",
			}
			if err := m.SendAutoReply(ctx, sample); err != nil {
				return err
			}
			fmt.Fprintf(out, "Sample auto-reply sent to %s\n", sendTo)
			return nil
		},
	}
	cmd.Flags().StringVar(&sendTo, "send-to", "", "also send a sample auto-reply to this address")
	return cmd
}
