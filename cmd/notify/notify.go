// Package notify implements the "notify" command, which submits one signup
// to the configured endpoint the way the landing page form does.
package notify

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/tphakala/comingsoon/internal/conf"
	"github.com/tphakala/comingsoon/internal/logger"
	"github.com/tphakala/comingsoon/internal/notifyme"
	"github.com/tphakala/comingsoon/internal/signup"
	"github.com/tphakala/comingsoon/internal/toast"
)

// Command returns a cobra command that submits a signup from the terminal.
func Command(settings *conf.Settings) *cobra.Command {
	var (
		email   string
		token   string
		timeout time.Duration
	)

	cmd := &cobra.Command{
		Use:   "notify",
		Short: "Submit a test signup to the notification endpoint",
		Long: `Submit one signup through the same form logic the landing page uses.

Examples:
  # Check the endpoint with a provider test token
  comingsoon notify --email=jane@example.com --token=XXXX.DUMMY.TOKEN.XXXX`,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := notifyme.NewFromSettings(&settings.Signup,
				notifyme.WithLogger(logger.Global().Module("notifyme")))
			if err != nil {
				return err
			}
			defer client.Close()

			ctx := cmd.Context()
			if timeout > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, timeout)
				defer cancel()
			}

			tray := toast.NewTray(time.Minute)
			form := signup.NewForm(client, tray, signup.WithLogger(logger.Global().Module("signup")))
			form.SetEmail(email)
			form.SetCaptchaToken(token)

			outcome := form.Submit(ctx)
			printToasts(cmd.OutOrStdout(), tray.Drain())

			if outcome != signup.OutcomeAccepted {
				return fmt.Errorf("signup not accepted: %s", outcome)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "Email address to register")
	cmd.Flags().StringVar(&token, "token", "", "CAPTCHA response token")
	cmd.Flags().DurationVar(&timeout, "timeout", 0, "Overall deadline (default: signup.timeout)")

	return cmd
}

func printToasts(w io.Writer, toasts []*toast.Toast) {
	for _, t := range toasts {
		fmt.Fprintf(w, "[%s] %s\n", t.Type, t.Message)
	}
}
