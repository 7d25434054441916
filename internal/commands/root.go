package commands

import (
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/cleared-dev/fatura/internal/buildinfo"
	"github.com/cleared-dev/fatura/internal/config"
	"github.com/cleared-dev/fatura/internal/logger"
)

// globalFlags are shared by every subcommand.
type globalFlags struct {
	configPath string
	verbose    bool
	json       bool
}

// NewRootCommand creates the root CLI command with all subcommands registered.
func NewRootCommand() *cobra.Command {
	var g globalFlags

	rootCmd := &cobra.Command{
		Use:     "fatura",
		Short:   "Scan Itaú credit-card statements into a posting ledger",
		Version: buildinfo.String(),
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			log := logger.New(logger.Options{Verbose: g.verbose, JSON: g.json})
			cmd.SetContext(logger.WithContext(cmd.Context(), log))
		},
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&g.configPath, "config", config.FileName, "configuration file")
	pf.BoolVarP(&g.verbose, "verbose", "v", false, "debug logging and unmatched-line side files")
	pf.BoolVar(&g.json, "json", false, "log as JSON")

	rootCmd.AddCommand(newScanCommand(&g))
	rootCmd.AddCommand(newCheckCommand(&g))
	rootCmd.AddCommand(newInitCommand())

	return rootCmd
}

// loadConfig reads the configured file, falling back to defaults when absent.
func (g *globalFlags) loadConfig(log zerolog.Logger) (*config.Config, error) {
	cfg, err := config.LoadOrDefault(g.configPath)
	if err != nil {
		return nil, err
	}
	log.Debug().Str("config", g.configPath).Str("recipient_code", cfg.Payment.RecipientCode).Msg("configuration loaded")
	return cfg, nil
}
