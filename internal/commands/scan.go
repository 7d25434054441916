package commands

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/cleared-dev/fatura/internal/buildinfo"
	"github.com/cleared-dev/fatura/internal/classify"
	"github.com/cleared-dev/fatura/internal/config"
	"github.com/cleared-dev/fatura/internal/dedup"
	"github.com/cleared-dev/fatura/internal/events"
	"github.com/cleared-dev/fatura/internal/export"
	"github.com/cleared-dev/fatura/internal/gitops"
	"github.com/cleared-dev/fatura/internal/importer"
	"github.com/cleared-dev/fatura/internal/journal"
	"github.com/cleared-dev/fatura/internal/logger"
	"github.com/cleared-dev/fatura/internal/misslog"
	"github.com/cleared-dev/fatura/internal/model"
	"github.com/cleared-dev/fatura/internal/reconcile"
	"github.com/cleared-dev/fatura/internal/scanner"
)

type scanFlags struct {
	reference string
	outDir    string
	xlsx      bool
	archive   bool
	commit    bool
}

func newScanCommand(g *globalFlags) *cobra.Command {
	var f scanFlags

	cmd := &cobra.Command{
		Use:   "scan <statement.txt|dir>...",
		Short: "Extract postings from statement text files",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			log := logger.FromContext(cmd.Context())
			cfg, err := g.loadConfig(log)
			if err != nil {
				return err
			}
			if f.outDir != "" {
				cfg.Output.Dir = f.outDir
			}
			if f.xlsx {
				cfg.Output.XLSX = true
			}
			if f.commit {
				cfg.Git.Commit = true
			}

			paths, err := importer.Expand(args)
			if err != nil {
				return err
			}
			if len(paths) == 0 {
				return fmt.Errorf("no statement files in %v", args)
			}

			var ref reconcile.Metrics
			if f.reference != "" {
				ref, err = reconcile.LoadReference(f.reference)
				if err != nil {
					return err
				}
			}

			r := &scanRun{
				cfg:     cfg,
				log:     log,
				verbose: g.verbose,
				ref:     ref,
				archive: f.archive,
				out:     journal.NewService(cfg.Output.Dir),
			}
			for _, p := range paths {
				if err := r.file(cmd, p); err != nil {
					return err
				}
			}
			r.finish(cmd)
			return nil
		},
	}

	cmd.Flags().StringVar(&f.reference, "reference", "", "reference metrics YAML to reconcile against")
	cmd.Flags().StringVar(&f.outDir, "out", "", "output directory (default: next to each statement)")
	cmd.Flags().BoolVar(&f.xlsx, "xlsx", false, "also write an XLSX workbook")
	cmd.Flags().BoolVar(&f.archive, "archive", false, "move scanned statements into processed/")
	cmd.Flags().BoolVar(&f.commit, "commit", false, "commit the written files when the output directory is in a git repository")

	return cmd
}

// scanRun carries state across the files of one invocation.
type scanRun struct {
	cfg     *config.Config
	log     zerolog.Logger
	verbose bool
	ref     reconcile.Metrics
	archive bool
	out     *journal.Service

	files    int
	stats    scanner.Stats
	summary  reconcile.Summary
	mismatch int
}

func (r *scanRun) file(cmd *cobra.Command, path string) error {
	st, err := importer.Load(path, time.Now())
	if err != nil {
		return err
	}

	log := r.log.With().
		Str("run", uuid.NewString()).
		Str("file", filepath.Base(path)).
		Logger()
	log.Info().
		Str("sha1", st.Fingerprint).
		Str("period", st.Period.String()).
		Int("lines", len(st.Lines)).
		Msg("scanning statement")

	rec := &events.Recorder{}
	sink := events.Tee(events.NewZerologSink(log), rec)

	opts := r.cfg.ScannerOptions()
	opts.CollectMisses = r.verbose
	sc := scanner.New(opts, classify.New(r.cfg.ClassifierOptions(), sink), sink)
	res := sc.Scan(st.Lines, st.Period)

	dups := dedup.Check(res.Postings, sink)

	outs := r.out.OutputsFor(path)
	violations, err := r.out.Save(outs.Postings, res.Postings)
	if err != nil {
		return err
	}
	for _, v := range violations {
		log.Warn().Int("invariant", v.Invariant).Str("hash", v.Hash).Msg(v.Description)
	}

	written := []string{outs.Postings}
	if r.verbose {
		if err := misslog.Save(outs.Misses, res.Misses); err != nil {
			return err
		}
		if len(res.Misses) > 0 {
			written = append(written, outs.Misses)
		}
	}

	verdicts := r.reconcile(log, res.Postings, sink)

	sum := reconcile.Summarize(res.Postings)
	if r.cfg.Output.XLSX {
		err := export.WriteWorkbook(outs.Workbook, export.Report{
			Postings: res.Postings,
			Verdicts: verdicts,
			Stats:    res.Stats,
			Summary:  sum,

			Generator: buildinfo.Generator(),
		})
		if err != nil {
			return err
		}
		log.Debug().Str("path", outs.Workbook).Msg("workbook written")
		written = append(written, outs.Workbook)
	}

	if r.cfg.Git.Commit {
		msg := fmt.Sprintf("scan: %s (%d postings)", filepath.Base(path), res.Stats.Postings)
		if err := r.commit(log, msg, written); err != nil {
			return err
		}
	}

	logStats(log, res.Stats, sum).
		Int("duplicates", len(dups.Duplicates)).
		Int("anomalies", rec.AtLeast(events.SeverityWarn)).
		Str("output", outs.Postings).
		Msg("statement scanned")

	fmt.Fprintf(cmd.OutOrStdout(), "%s: %d postings, accuracy %.1f%% -> %s\n",
		filepath.Base(path), res.Stats.Postings, res.Stats.Accuracy()*100, outs.Postings)

	if r.archive {
		moved, err := importer.MarkProcessed(path)
		if err != nil {
			return err
		}
		log.Info().Str("to", moved).Msg("statement archived")
	}

	r.files++
	r.stats.Add(res.Stats)
	r.summary.Add(sum)
	return nil
}

// reconcile compares postings against the reference, if any.
func (r *scanRun) reconcile(log zerolog.Logger, postings []model.Posting, sink events.Sink) []reconcile.Verdict {
	if len(r.ref) == 0 {
		return nil
	}
	computed := reconcile.Compute(postings, r.cfg.Payment.RecipientCode)
	verdicts := reconcile.Compare(r.ref, computed, r.cfg.Reconcile.Tolerance, sink)
	matched, total := reconcile.Tally(verdicts)
	r.mismatch += total - matched
	log.Info().Int("matched", matched).Int("total", total).Msg("reconciliation")
	return verdicts
}

// commit records written files in the git repository holding them.
func (r *scanRun) commit(log zerolog.Logger, msg string, written []string) error {
	abs := make([]string, len(written))
	for i, p := range written {
		a, err := filepath.Abs(p)
		if err != nil {
			return fmt.Errorf("resolving path: %w", err)
		}
		abs[i] = a
	}
	dir := filepath.Dir(abs[0])
	if !gitops.IsRepo(dir) {
		log.Warn().Str("dir", dir).Msg("output directory is not a git repository, not committing")
		return nil
	}
	author := gitops.Author{Name: r.cfg.Git.AuthorName, Email: r.cfg.Git.AuthorEmail}
	hash, err := gitops.Commit(dir, msg, author, abs...)
	if err != nil {
		return err
	}
	if hash == "" {
		log.Debug().Msg("outputs unchanged, nothing to commit")
		return nil
	}
	log.Info().Str("commit", hash).Msg("outputs committed")
	return nil
}

func (r *scanRun) finish(cmd *cobra.Command) {
	if r.files < 2 {
		return
	}
	logStats(r.log, r.stats, r.summary).
		Int("files", r.files).
		Int("mismatches", r.mismatch).
		Msg("all statements scanned")
	fmt.Fprintf(cmd.OutOrStdout(), "total: %d files, %d postings, net %s\n",
		r.files, r.stats.Postings, r.summary.Net.StringFixed(2))
}

func logStats(log zerolog.Logger, st scanner.Stats, sum reconcile.Summary) *zerolog.Event {
	return log.Info().
		Int("postings", st.Postings).
		Int("fx", st.FX).
		Int("payments", st.Payments).
		Int("domestic", st.Domestic).
		Int("iof", st.IOF).
		Int("charges", st.Charges).
		Int("misses", st.Misses).
		Int("headers", st.Headers).
		Str("accuracy", decimal.NewFromFloat(st.Accuracy()*100).StringFixed(1)+"%").
		Str("debits", sum.Debits.StringFixed(2)).
		Str("credits", sum.Credits.StringFixed(2)).
		Str("net", sum.Net.StringFixed(2))
}
