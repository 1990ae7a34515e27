package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"presupuesto/internal/backend"
	"presupuesto/internal/cli"
	"presupuesto/internal/config"
	"presupuesto/internal/ledger"
	"presupuesto/internal/log"
)

var version = "dev"

func main() {
	cli.LoadEnvFile()

	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "presupuesto",
		Short: "Personal budget ledger",
		Long: `presupuesto records income, expenses, savings and investments per user,
summarizes them and exports date-filtered tables as CSV, XLSX or PDF.

Storage is selected with DATA_BACKEND (file, sqlite, sheets, memory) or the
--backend flag.`,
		SilenceUsage:      true,
		PersistentPreRunE: setupLogging,
	}

	root.PersistentFlags().String("backend", "", "storage backend (file, sqlite, sheets, memory); overrides DATA_BACKEND")
	root.PersistentFlags().String("data-dir", "", "document directory for the file backend; overrides DATA_DIR")
	root.PersistentFlags().StringP("user", "u", os.Getenv("PRESUPUESTO_USER"), "ledger owner")
	root.PersistentFlags().String("log-level", "", "log level (debug, info, warn, error); overrides LOG_LEVEL")

	root.AddCommand(serveCmd())
	root.AddCommand(addCmd())
	root.AddCommand(listCmd())
	root.AddCommand(summaryCmd())
	root.AddCommand(editCmd())
	root.AddCommand(deleteCmd())
	root.AddCommand(exportCmd())
	root.AddCommand(categoriesCmd())
	root.AddCommand(versionCmd())
	return root
}

// setupLogging sends logs to stderr so tables written to stdout stay clean.
// The logger travels in the command context.
func setupLogging(cmd *cobra.Command, _ []string) error {
	level, _ := cmd.Flags().GetString("log-level")
	if level == "" {
		level = os.Getenv("LOG_LEVEL")
	}
	lvl, err := log.ParseLevel(level)
	if err != nil {
		return err
	}
	logger := log.New(log.Config{
		Level:     lvl,
		Format:    os.Getenv("LOG_FORMAT"),
		Component: log.ComponentCLI,
		Output:    cmd.ErrOrStderr(),
	})
	log.SetDefault(logger)
	cmd.SetContext(log.WithContext(cmd.Context(), logger))
	return nil
}

// session is an opened backend for one command invocation.
type session struct {
	cfg    *config.Config
	logger *log.Logger
	store  *ledger.Store
	close  backend.CleanupFunc
}

// loadConfig reads the environment and applies flag overrides.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.Load()
	if v, _ := cmd.Flags().GetString("backend"); v != "" {
		cfg.DataBackend = v
	}
	if v, _ := cmd.Flags().GetString("data-dir"); v != "" {
		cfg.DataDir = v
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func openSession(cmd *cobra.Command) (*session, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	logger := log.FromContext(cmd.Context())

	bcfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return nil, err
	}
	res, err := cli.InitBackend(cmd.Context(), logger, bcfg)
	if err != nil {
		return nil, err
	}
	return &session{
		cfg:    cfg,
		logger: logger,
		store:  ledger.New(res.Adapter),
		close:  res.Cleanup,
	}, nil
}

func (s *session) Close() {
	if err := s.close(); err != nil {
		s.logger.Warn("Failed to close backend", log.FieldError, err)
	}
}

// userFlag returns the validated --user value.
func userFlag(cmd *cobra.Command) (string, error) {
	user, _ := cmd.Flags().GetString("user")
	user = strings.TrimSpace(user)
	if user == "" {
		return "", fmt.Errorf("--user is required (or set PRESUPUESTO_USER)")
	}
	return user, nil
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), "presupuesto", version)
		},
	}
}
