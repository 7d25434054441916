package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/fatura/internal/events"
	"github.com/cleared-dev/fatura/internal/journal"
	"github.com/cleared-dev/fatura/internal/logger"
	"github.com/cleared-dev/fatura/internal/reconcile"
)

func newCheckCommand(g *globalFlags) *cobra.Command {
	var reference string
	var strict bool

	cmd := &cobra.Command{
		Use:   "check <postings.csv>",
		Short: "Validate a written posting file and reconcile it against reference figures",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			log := logger.FromContext(cmd.Context())
			cfg, err := g.loadConfig(log)
			if err != nil {
				return err
			}

			postings, err := journal.NewService("").Load(args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			violations := journal.ValidatePostings(postings)
			for _, v := range violations {
				fmt.Fprintln(out, v.Error())
			}
			fmt.Fprintf(out, "%d postings, %d violations\n", len(postings), len(violations))

			mismatches := 0
			if reference != "" {
				ref, err := reconcile.LoadReference(reference)
				if err != nil {
					return err
				}
				computed := reconcile.Compute(postings, cfg.Payment.RecipientCode)
				verdicts := reconcile.Compare(ref, computed, cfg.Reconcile.Tolerance, events.NewZerologSink(log))
				for _, v := range verdicts {
					mark := "ok"
					if !v.Match {
						mark = "MISMATCH"
					}
					fmt.Fprintf(out, "%-8s %s: reference %s, computed %s\n", mark, v.Name, v.Reference, v.Computed)
				}
				matched, total := reconcile.Tally(verdicts)
				mismatches = total - matched
				fmt.Fprintf(out, "%d/%d metrics match\n", matched, total)
			}

			if len(violations) > 0 {
				return fmt.Errorf("%d invariant violations in %s", len(violations), args[0])
			}
			if strict && mismatches > 0 {
				return fmt.Errorf("%d metrics differ from %s", mismatches, reference)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&reference, "reference", "", "reference metrics YAML")
	cmd.Flags().BoolVar(&strict, "strict", false, "fail when any reference metric differs")

	return cmd
}
