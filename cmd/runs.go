package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/leadgen-cli/internal/export"
	"github.com/sells-group/leadgen-cli/internal/model"
	"github.com/sells-group/leadgen-cli/internal/store"
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "Inspect pipeline run history",
	Long:  "Commands for listing, viewing, summarizing and exporting pipeline runs.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := rootCmd.PersistentPreRunE(cmd, args); err != nil {
			return err
		}
		return cfg.Validate("migrate")
	},
}

// -- runs list --

var runsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List pipeline runs, newest first",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		status, _ := cmd.Flags().GetString("status")
		limit, _ := cmd.Flags().GetInt("limit")
		offset, _ := cmd.Flags().GetInt("offset")

		runs, err := store.ListQueries(ctx, st, store.ListOptions{Limit: limit, Offset: offset})
		if err != nil {
			return eris.Wrap(err, "runs list")
		}
		runs = filterByStatus(runs, model.QueryStatus(status))

		if len(runs) == 0 {
			fmt.Fprintln(os.Stderr, "No runs found.")
			return nil
		}

		formatRunsList(cmd.OutOrStdout(), runs)
		return nil
	},
}

// -- runs show --

var runsShowCmd = &cobra.Command{
	Use:   "show <query-id>",
	Short: "Show full details of a run",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		q, err := store.GetQuery(ctx, st, args[0])
		if err != nil {
			return eris.Wrap(err, "runs show")
		}
		if q == nil {
			return eris.Errorf("runs show: run %s not found", args[0])
		}

		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(q)
	},
}

// -- runs stats --

var runsStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show aggregate run statistics",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		since, _ := cmd.Flags().GetDuration("since")
		runs, err := store.ListQueries(ctx, st, store.ListOptions{Limit: 10000})
		if err != nil {
			return eris.Wrap(err, "runs stats")
		}
		if since > 0 {
			runs = startedAfter(runs, time.Now().Add(-since))
		}

		formatRunStats(cmd.OutOrStdout(), computeRunStats(runs))
		return nil
	},
}

// -- runs export --

var runsExportCmd = &cobra.Command{
	Use:   "export <query-id>",
	Short: "Write the final records of a run to an xlsx workbook",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		records, err := loadFinalRecords(ctx, st, args[0])
		if err != nil {
			return eris.Wrap(err, "runs export")
		}
		if len(records) == 0 {
			return eris.Errorf("runs export: no final records for run %s", args[0])
		}

		out, _ := cmd.Flags().GetString("xlsx")
		if out == "" {
			out = fmt.Sprintf("leads-%s.xlsx", truncateID(args[0]))
		}
		if err := export.WriteXLSX(out, records); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d records to %s\n", len(records), out)
		return nil
	},
}

func init() {
	runsListCmd.Flags().String("status", "", "filter by run status (Inprogress, Completed, Failed, Canceled)")
	runsListCmd.Flags().Int("limit", 50, "max number of runs to display")
	runsListCmd.Flags().Int("offset", 0, "number of runs to skip")

	runsStatsCmd.Flags().Duration("since", 7*24*time.Hour, "time window for stats (e.g. 24h, 168h)")

	runsExportCmd.Flags().String("xlsx", "", "output path (default leads-<id>.xlsx)")

	runsCmd.AddCommand(runsListCmd)
	runsCmd.AddCommand(runsShowCmd)
	runsCmd.AddCommand(runsStatsCmd)
	runsCmd.AddCommand(runsExportCmd)
	rootCmd.AddCommand(runsCmd)
}

// loadFinalRecords reads the FinalData rows written by one run.
func loadFinalRecords(ctx context.Context, st store.Store, queryID string) ([]model.FinalRecord, error) {
	docs, err := st.FindBy(ctx, store.FinalData, "query_id", []string{queryID}, time.Time{})
	if err != nil {
		return nil, err
	}
	out := make([]model.FinalRecord, 0, len(docs))
	for _, d := range docs {
		var rec model.FinalRecord
		if err := d.Decode(&rec); err != nil {
			return nil, eris.Wrap(err, "decode final record")
		}
		rec.Answers = model.QuestionnaireFromNested(rec.Questions).Ordered()
		out = append(out, rec)
	}
	return out, nil
}

func filterByStatus(runs []model.Query, status model.QueryStatus) []model.Query {
	if status == "" {
		return runs
	}
	out := runs[:0:0]
	for _, r := range runs {
		if r.Status == status {
			out = append(out, r)
		}
	}
	return out
}

func startedAfter(runs []model.Query, t time.Time) []model.Query {
	out := runs[:0:0]
	for _, r := range runs {
		if !r.StartedAt.Before(t) {
			out = append(out, r)
		}
	}
	return out
}

// runStats holds aggregate statistics computed from a set of runs.
type runStats struct {
	Total        int
	Completed    int
	Failed       int
	Canceled     int
	InProgress   int
	FinalRecords int
	Pushed       int
	CostUSD      float64
	AvgDurSecs   float64
}

// computeRunStats computes aggregate statistics from a list of runs.
func computeRunStats(runs []model.Query) runStats {
	var s runStats
	s.Total = len(runs)

	var totalDur time.Duration
	var durCount int

	for _, r := range runs {
		s.FinalRecords += r.Counts.FinalRecords
		s.Pushed += r.Counts.Pushed
		s.CostUSD += r.Usage.CostUSD

		switch r.Status {
		case model.QueryCompleted:
			s.Completed++
			totalDur += r.CompletedAt.Sub(r.StartedAt)
			durCount++
		case model.QueryFailed:
			s.Failed++
		case model.QueryCanceled:
			s.Canceled++
		default:
			s.InProgress++
		}
	}

	if durCount > 0 {
		s.AvgDurSecs = totalDur.Seconds() / float64(durCount)
	}
	return s
}

// formatRunsList writes a tabular list of runs to out.
func formatRunsList(out io.Writer, runs []model.Query) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tKEYWORDS\tSTATUS\tRECORDS\tPUSHED\tSTARTED\tDURATION")
	_, _ = fmt.Fprintln(w, "--\t--------\t------\t-------\t------\t-------\t--------")

	for _, r := range runs {
		dur := ""
		if !r.CompletedAt.IsZero() {
			dur = r.CompletedAt.Sub(r.StartedAt).Round(time.Second).String()
		}

		keywords := strings.Join(r.Filters.Keywords, ", ")
		if len(keywords) > 30 {
			keywords = keywords[:27] + "..."
		}

		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%s\t%s\n",
			truncateID(r.QueryID),
			keywords,
			r.Status,
			r.Counts.FinalRecords,
			r.Counts.Pushed,
			r.StartedAt.Format("2006-01-02 15:04"),
			dur,
		)
	}
	_ = w.Flush()
}

// formatRunStats writes aggregate stats to out.
func formatRunStats(out io.Writer, s runStats) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintf(w, "Total runs:\t%d\n", s.Total)
	_, _ = fmt.Fprintf(w, "Completed:\t%d\n", s.Completed)
	_, _ = fmt.Fprintf(w, "Failed:\t%d\n", s.Failed)
	_, _ = fmt.Fprintf(w, "Canceled:\t%d\n", s.Canceled)
	_, _ = fmt.Fprintf(w, "In progress:\t%d\n", s.InProgress)
	_, _ = fmt.Fprintf(w, "Final records:\t%d\n", s.FinalRecords)
	_, _ = fmt.Fprintf(w, "Pushed:\t%d\n", s.Pushed)
	_, _ = fmt.Fprintf(w, "LLM cost:\t$%.2f\n", s.CostUSD)
	if s.AvgDurSecs > 0 {
		_, _ = fmt.Fprintf(w, "Avg duration:\t%.1fs\n", s.AvgDurSecs)
	}
	_ = w.Flush()
}

// truncateID returns the first 8 characters of a UUID for compact display.
func truncateID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
