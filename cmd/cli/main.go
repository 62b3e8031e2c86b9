package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/iho/smsledger/internal/domain"
	"github.com/iho/smsledger/internal/infrastructure/auth"
	"github.com/iho/smsledger/internal/infrastructure/postgres"
)

type options struct {
	baseURL string
	token   string
	timeout time.Duration
}

func main() {
	if err := newRootCmd(os.Stdout).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd(out io.Writer) *cobra.Command {
	opts := &options{}

	rootCmd := &cobra.Command{
		Use:           "smsledger-cli",
		Short:         "SMS ledger CLI tool",
		Long:          `A command line interface for operating the SMS ledger API.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.SetOut(out)

	rootCmd.PersistentFlags().StringVar(&opts.baseURL, "url", "http://localhost:8080", "Base URL of the ledger API")
	rootCmd.PersistentFlags().StringVar(&opts.token, "token", os.Getenv("SMSLEDGER_TOKEN"), "Bearer token")
	rootCmd.PersistentFlags().DurationVar(&opts.timeout, "timeout", 10*time.Second, "Request timeout")

	rootCmd.AddCommand(
		newLedgerCmd(opts),
		newSweepCmd(opts),
		newReserveCmd(opts),
		newResolveCmd(opts),
		newFreezeCmd(opts),
		newTokenCmd(),
		newMigrateCmd(),
	)

	return rootCmd
}

func (o *options) client() *apiClient {
	return newAPIClient(o.baseURL, o.token, o.timeout)
}

func newLedgerCmd(opts *options) *cobra.Command {
	ledgerCmd := &cobra.Command{
		Use:   "ledger",
		Short: "Ledger operations",
	}

	ledgerCmd.AddCommand(&cobra.Command{
		Use:   "consistency",
		Short: "Check ledger consistency",
		RunE: func(cmd *cobra.Command, args []string) error {
			body, err := opts.client().do(cmd.Context(), http.MethodGet, "/api/v1/ledger/consistency", nil)

			var apiErr *apiError
			if err != nil && !(errors.As(err, &apiErr) && apiErr.Status == http.StatusConflict) {
				return err
			}

			var report struct {
				Consistent     bool  `json:"consistent"`
				TotalAccounts  int   `json:"total_accounts"`
				PendingFreezes int64 `json:"pending_freezes"`
				Discrepancies  []struct {
					AccountID string `json:"account_id"`
					Reason    string `json:"reason"`
				} `json:"discrepancies"`
			}
			if err := json.Unmarshal(body, &report); err != nil {
				return fmt.Errorf("failed to parse response: %w", err)
			}

			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "Accounts: %d\nPending freezes: %d\n", report.TotalAccounts, report.PendingFreezes)
			if !report.Consistent {
				for _, d := range report.Discrepancies {
					fmt.Fprintf(w, "  %s: %s\n", d.AccountID, d.Reason)
				}
				return errors.New("consistency check FAILED")
			}

			fmt.Fprintln(w, "Consistency check PASSED")
			return nil
		},
	})

	return ledgerCmd
}

func newSweepCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "sweep",
		Short: "Refund expired pending freezes now",
		RunE: func(cmd *cobra.Command, args []string) error {
			body, err := opts.client().do(cmd.Context(), http.MethodPost, "/api/v1/sweep", nil)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), body)
		},
	}
}

func newReserveCmd(opts *options) *cobra.Command {
	var (
		kind string
		ttl  time.Duration
	)

	cmd := &cobra.Command{
		Use:   "reserve ACCOUNT_ID AMOUNT PURPOSE_REF",
		Short: "Freeze funds on an account",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := map[string]any{
				"account_id":  args[0],
				"amount":      args[1],
				"purpose_ref": args[2],
			}
			if kind != "" {
				req["kind"] = kind
			}
			if ttl > 0 {
				req["ttl_seconds"] = int64(ttl / time.Second)
			}

			body, err := opts.client().do(cmd.Context(), http.MethodPost, "/api/v1/reserve", req)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), body)
		},
	}

	cmd.Flags().StringVar(&kind, "kind", "", "Operation kind (activation or rental)")
	cmd.Flags().DurationVar(&ttl, "ttl", 0, "Time until the freeze expires")
	return cmd
}

func newResolveCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:       "resolve FREEZE_ID commit|refund",
		Short:     "Commit or refund a freeze",
		Args:      cobra.ExactArgs(2),
		ValidArgs: []string{string(domain.OutcomeCommit), string(domain.OutcomeRefund)},
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := domain.ParseOutcome(args[1]); err != nil {
				return err
			}

			body, err := opts.client().do(cmd.Context(), http.MethodPost, "/api/v1/resolve", map[string]string{
				"freeze_id": args[0],
				"outcome":   args[1],
			})
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), body)
		},
	}
}

func newFreezeCmd(opts *options) *cobra.Command {
	freezeCmd := &cobra.Command{
		Use:   "freeze",
		Short: "Freeze inspection",
	}

	freezeCmd.AddCommand(&cobra.Command{
		Use:   "get FREEZE_ID",
		Short: "Show a freeze",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			body, err := opts.client().do(cmd.Context(), http.MethodGet, "/api/v1/freezes/"+args[0], nil)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), body)
		},
	})

	return freezeCmd
}

func newTokenCmd() *cobra.Command {
	var (
		secret   string
		role     string
		lifetime time.Duration
	)

	cmd := &cobra.Command{
		Use:   "token SUBJECT",
		Short: "Issue a bearer token for an operator or service",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if secret == "" {
				return errors.New("--secret or JWT_SECRET is required")
			}

			token, err := auth.NewJWTManager(secret, lifetime).Generate(domain.Actor{
				Subject: args[0],
				Role:    domain.Role(role),
			})
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}

	cmd.Flags().StringVar(&secret, "secret", os.Getenv("JWT_SECRET"), "HMAC secret shared with the server")
	cmd.Flags().StringVar(&role, "role", string(domain.RoleOperator), "Role: admin, operator, service or viewer")
	cmd.Flags().DurationVar(&lifetime, "ttl", 24*time.Hour, "Token lifetime")
	return cmd
}

func newMigrateCmd() *cobra.Command {
	var (
		databaseURL string
		path        string
	)

	migrateCmd := &cobra.Command{
		Use:   "migrate",
		Short: "Database migrations",
	}
	migrateCmd.PersistentFlags().StringVar(&databaseURL, "database-url", os.Getenv("DATABASE_URL"), "PostgreSQL connection URL")
	migrateCmd.PersistentFlags().StringVar(&path, "path", "migrations", "Migrations directory")

	migrator := func() (*postgres.Migrator, error) {
		if databaseURL == "" {
			return nil, errors.New("--database-url or DATABASE_URL is required")
		}
		logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, NoColor: true}).With().Timestamp().Logger()
		return postgres.NewMigrator(databaseURL, path, logger), nil
	}

	migrateCmd.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "Apply all pending migrations",
			RunE: func(cmd *cobra.Command, args []string) error {
				m, err := migrator()
				if err != nil {
					return err
				}
				return m.Up()
			},
		},
		&cobra.Command{
			Use:   "down [STEPS]",
			Short: "Roll back migrations, one step by default",
			Args:  cobra.MaximumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				steps := 1
				if len(args) == 1 {
					n, err := strconv.Atoi(args[0])
					if err != nil || n <= 0 {
						return fmt.Errorf("invalid step count %q", args[0])
					}
					steps = n
				}

				m, err := migrator()
				if err != nil {
					return err
				}
				return m.Down(steps)
			},
		},
	)

	return migrateCmd
}

func printJSON(w io.Writer, body []byte) error {
	var buf bytes.Buffer
	if err := json.Indent(&buf, body, "", "  "); err != nil {
		_, err = w.Write(body)
		return err
	}
	buf.WriteByte('\n')
	_, err := buf.WriteTo(w)
	return err
}
