package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jeancds29/gutenberg-back/internal/config"
	"github.com/jeancds29/gutenberg-back/internal/storage/postgres"
)

// doctorEnv lists the variables worth reporting, in display order.
var doctorEnv = []struct {
	name   string
	secret bool
}{
	{name: "DATABASE_URL", secret: true},
	{name: "USE_DATABASE_SSL"},
	{name: "PGSQL_SSL_MODE"},
	{name: "GROQ_API_KEY", secret: true},
	{name: "GUTENBERG_DATABASE_DRIVER"},
	{name: "PORT"},
}

func newDoctorCmd(cfgFile *string) *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check environment, configuration and database connectivity",
		Args:  cobra.NoArgs,
		// Replaces the root hook so a broken config is reported, not fatal.
		PersistentPreRunE: func(*cobra.Command, []string) error {
			config.LoadDotEnv()
			return nil
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runDoctor(cmd.Context(), cmd.OutOrStdout(), *cfgFile)
		},
	}
}

func runDoctor(ctx context.Context, out io.Writer, cfgFile string) error {
	fmt.Fprintln(out, "environment:")
	for _, e := range doctorEnv {
		val, ok := os.LookupEnv(e.name)
		switch {
		case !ok || val == "":
			fmt.Fprintf(out, "  %-26s not set\n", e.name)
		case e.name == "DATABASE_URL":
			fmt.Fprintf(out, "  %-26s %s\n", e.name, postgres.MaskURL(val))
		case e.secret:
			fmt.Fprintf(out, "  %-26s %s\n", e.name, maskSecret(val))
		default:
			fmt.Fprintf(out, "  %-26s %s\n", e.name, val)
		}
	}

	cfg, err := config.Load(cfgFile)
	if err != nil {
		fmt.Fprintf(out, "config: FAIL %v\n", err)
		return fmt.Errorf("config invalid: %w", err)
	}
	fmt.Fprintf(out, "config: ok (driver=%s, addr=%s, model=%s)\n", cfg.Database.Driver, cfg.Server.Addr(), cfg.LLM.Model)
	if cfg.LLM.APIKey == "" {
		fmt.Fprintln(out, "llm: WARN no API key; serve will refuse to start")
	} else {
		fmt.Fprintln(out, "llm: ok")
	}

	if cfg.Database.Driver != config.DriverPostgres {
		fmt.Fprintln(out, "database: skipped (memory driver)")
		return nil
	}

	pingCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()
	store, err := postgres.Open(pingCtx, postgresConfig(cfg.Database), zap.NewNop())
	if err != nil {
		fmt.Fprintf(out, "database: FAIL %v\n", err)
		if hint := postgres.Hint(err); hint != "" {
			fmt.Fprintf(out, "  hint: %s\n", hint)
		}
		return fmt.Errorf("database unreachable: %w", err)
	}
	defer store.Close()
	fmt.Fprintln(out, "database: ok")
	return nil
}

// maskSecret keeps the first four characters.
func maskSecret(s string) string {
	if len(s) <= 4 {
		return "****"
	}
	return s[:4] + "****"
}
