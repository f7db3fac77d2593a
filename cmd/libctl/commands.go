package main

import (
	"fmt"
	"os"
	"strings"

	"libraryhub/internal/adapters/persistence/models"
	"libraryhub/internal/adapters/persistence/repositories"
	"libraryhub/internal/config"
	"libraryhub/internal/core/services"
	"libraryhub/internal/pkg/logger"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/term"
	"gorm.io/gorm"
)

// env is what every subcommand needs, opened once by the root command
type env struct {
	cfg *config.Config
	log zerolog.Logger
	db  *gorm.DB
}

func newRootCmd() *cobra.Command {
	e := &env{}

	root := &cobra.Command{
		Use:           "libctl",
		Short:         "LibraryHub maintenance commands",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			e.cfg = cfg
			e.log = logger.NewWithWriter(cfg.AppMode, cmd.ErrOrStderr())

			e.db, err = config.ConnectDatabase(cfg, e.log)
			return err
		},
		PersistentPostRunE: func(*cobra.Command, []string) error {
			return config.CloseDatabase()
		},
	}

	root.AddCommand(
		newMigrateCmd(e),
		newSeedCmd(e),
		newSweepCmd(e),
		newCleanupOTPCmd(e),
		newCreateAdminCmd(e),
	)
	return root
}

func newMigrateCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update database tables",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := models.AutoMigrate(e.db); err != nil {
				return fmt.Errorf("migrate: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "migration completed")
			return nil
		},
	}
}

func newSeedCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Seed the bootstrap admin and sample catalog",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := models.AutoMigrate(e.db); err != nil {
				return fmt.Errorf("migrate: %w", err)
			}
			if err := config.NewSeeder(e.db, e.log).Run(e.cfg.Seed); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "seed completed")
			return nil
		},
	}
}

func newSweepCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "sweep",
		Short: "Mark borrowings past their due date as overdue or lost",
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc := services.NewBorrowingService(
				repositories.NewBorrowingRepository(e.db),
				repositories.NewBookRepository(e.db),
				repositories.NewAccountRepository(e.db),
				repositories.NewTransactor(e.db),
				e.cfg.Borrowing,
				e.log,
			)
			n, err := svc.SweepOverdue(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d borrowing(s) updated\n", n)
			return nil
		},
	}
}

func newCleanupOTPCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "cleanup-otp",
		Short: "Delete expired one-time codes",
		RunE: func(cmd *cobra.Command, _ []string) error {
			notifier := services.NewNotificationService(services.NewLogSender(e.log), e.cfg.Mail, e.log)
			otp := services.NewOTPService(repositories.NewOTPRepository(e.db), notifier, e.cfg.OTP, e.log)
			n, err := otp.CleanupExpired(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d code(s) deleted\n", n)
			return nil
		},
	}
}

func newCreateAdminCmd(e *env) *cobra.Command {
	var email, pw string

	cmd := &cobra.Command{
		Use:   "create-admin",
		Short: "Create an active admin, or promote an existing account",
		RunE: func(cmd *cobra.Command, _ []string) error {
			email = services.NormalizeEmail(email)
			if email == "" {
				return fmt.Errorf("--email is required")
			}
			if pw == "" {
				var err error
				if pw, err = readPassword(cmd, "Password: "); err != nil {
					return err
				}
			}

			created, err := config.NewSeeder(e.db, e.log).EnsureAdmin(email, pw)
			if err != nil {
				return err
			}
			if created {
				fmt.Fprintf(cmd.OutOrStdout(), "admin %s created\n", email)
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "%s is an active admin\n", email)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "admin email")
	cmd.Flags().StringVar(&pw, "password", "", "admin password (prompted when empty)")
	return cmd
}

// readPassword prompts without echo when stdin is a terminal
func readPassword(cmd *cobra.Command, prompt string) (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return "", fmt.Errorf("--password is required when stdin is not a terminal")
	}

	fmt.Fprint(cmd.ErrOrStderr(), prompt)
	b, err := term.ReadPassword(fd)
	fmt.Fprintln(cmd.ErrOrStderr())
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	return strings.TrimSpace(string(b)), nil
}
