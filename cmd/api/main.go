package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/automaxprocs/maxprocs"
	"go.uber.org/zap"

	"github.com/bizmatters/fil-vote/internal/config"
	"github.com/bizmatters/fil-vote/internal/logging"

	_ "github.com/bizmatters/fil-vote/docs" // swagger docs
)

// @title FIL-VOTE API
// @version 1.0
// @description Session-scoped governance dashboard with AI-assisted proposal analysis.
// @description
// @description Every request runs inside a session identified by a signed token. Proposals, votes,
// @description the simulated wallet and AI analyses live in memory and are lost on restart.

// @contact.name API Support
// @contact.email support@bizmatters.dev

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8080
// @BasePath /api

// @securityDefinitions.apikey SessionAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and the session token from the X-Session-Token header.

const programName = "filvote"

var (
	globalFlags = struct {
		debug bool
	}{}
	configFile string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   programName,
		Short: "FIL-VOTE governance dashboard",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.FromContext(cmd.Context())
			if cfg == nil {
				return fmt.Errorf("no config found in context")
			}
			logger, err := logging.New(globalFlags.debug)
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			if _, err := maxprocs.Set(maxprocs.Logger(logger.Sugar().Infof)); err != nil {
				logger.Warn("failed to set GOMAXPROCS", zap.Error(err))
			}
			return serve(cmd.Context(), cfg, logger)
		},
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().
		BoolVarP(&globalFlags.debug, "debug", "D", false, "enable debug logging")
	rootCmd.PersistentFlags().
		StringVar(&configFile, "config", "", "path to config file")

	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		// .env is optional
		if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to load .env: %w", err)
		}

		cfg, err := config.Load(configFile)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		cmd.SetContext(config.WithContext(cmd.Context(), cfg))
		return nil
	}

	if err := rootCmd.Execute(); err != nil {
		// cobra has already printed the error
		os.Exit(1)
	}
}
