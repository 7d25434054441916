package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/fatura/internal/config"
	"github.com/cleared-dev/fatura/internal/gitops"
	"github.com/cleared-dev/fatura/internal/reconcile"
)

// ReferenceFileName is the reference-metrics template written by init.
const ReferenceFileName = "reference.yaml"

func newInitCommand() *cobra.Command {
	var recipientCode string
	var force bool
	var useGit bool

	cmd := &cobra.Command{
		Use:   "init [directory]",
		Short: "Write a default fatura.yaml and a reference-metrics template",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) > 0 {
				dir = args[0]
			}

			absDir, err := filepath.Abs(dir)
			if err != nil {
				return fmt.Errorf("resolving path: %w", err)
			}

			if err := runInit(absDir, recipientCode, force, useGit); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Initialized fatura at %s\n", absDir)
			return nil
		},
	}

	cmd.Flags().StringVar(&recipientCode, "recipient-code", "", "payment recipient code (default 7117)")
	cmd.Flags().BoolVar(&force, "force", false, "overwrite existing files")
	cmd.Flags().BoolVar(&useGit, "git", false, "initialize a git repository and commit scan outputs to it")

	return cmd
}

func runInit(dir, recipientCode string, force, useGit bool) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating directory %s: %w", dir, err)
	}

	cfgPath := filepath.Join(dir, config.FileName)
	refPath := filepath.Join(dir, ReferenceFileName)
	if !force {
		for _, p := range []string{cfgPath, refPath} {
			if _, err := os.Stat(p); err == nil {
				return fmt.Errorf("%s already exists (use --force to overwrite)", p)
			}
		}
	}

	// Write fatura.yaml.
	cfg := config.Default()
	if recipientCode != "" {
		cfg.Payment.RecipientCode = recipientCode
	}
	cfg.Git.Commit = useGit
	if err := cfg.Validate(); err != nil {
		return err
	}
	if err := config.Save(cfgPath, cfg); err != nil {
		return err
	}

	// Write the reference template.
	tmpl, err := reconcile.Template(cfg.Payment.RecipientCode)
	if err != nil {
		return fmt.Errorf("building reference template: %w", err)
	}
	if err := os.WriteFile(refPath, tmpl, 0o644); err != nil {
		return fmt.Errorf("writing reference template: %w", err)
	}

	// Write processed/ for --archive.
	if err := os.MkdirAll(filepath.Join(dir, "processed"), 0o755); err != nil {
		return fmt.Errorf("creating directory processed: %w", err)
	}

	if !useGit {
		return nil
	}
	if !gitops.IsRepo(dir) {
		if err := gitops.Init(dir); err != nil {
			return err
		}
	}
	author := gitops.Author{Name: cfg.Git.AuthorName, Email: cfg.Git.AuthorEmail}
	if _, err := gitops.Commit(dir, "init: fatura configuration", author, cfgPath, refPath); err != nil {
		return fmt.Errorf("initial commit: %w", err)
	}
	return nil
}
