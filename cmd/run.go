package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/leadgen-cli/internal/export"
	"github.com/sells-group/leadgen-cli/internal/model"
	"github.com/sells-group/leadgen-cli/internal/pipeline"
)

var (
	runKeywords     []string
	runLocationID   string
	runDatePosted   string
	runJobType      string
	runOnsiteRemote string
	runFunctionID   string
	runIndustryID   string
	runSort         string
	runXLSX         string
	runDryRun       bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the lead generation pipeline for a set of job filters",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		f := filtersFromFlags()
		f.Normalize()
		if err := f.Validate(); err != nil {
			return err
		}

		env, err := initPipeline(ctx, envOptions{
			mode:   "run",
			dryRun: runDryRun,
			extra:  []pipeline.Option{pipeline.WithProgress(printProgress(cmd.ErrOrStderr()))},
		})
		if err != nil {
			return err
		}
		defer env.Close()

		result, err := env.Pipeline.Run(ctx, f)
		if err != nil {
			return eris.Wrap(err, "pipeline run")
		}

		zap.L().Info("lead generation complete",
			zap.String("query_id", result.QueryID),
			zap.Int("final_records", len(result.Records)),
			zap.Int("pushed", result.Counts.Pushed),
			zap.Float64("cost_usd", result.Usage.CostUSD),
		)

		if runXLSX != "" {
			if err := export.WriteXLSX(runXLSX, result.Records); err != nil {
				return err
			}
			zap.L().Info("workbook written", zap.String("path", runXLSX))
		}

		return writeSummary(cmd.OutOrStdout(), result)
	},
}

func filtersFromFlags() model.Filters {
	return model.Filters{
		Keywords:     runKeywords,
		LocationID:   runLocationID,
		DatePosted:   model.DatePosted(runDatePosted),
		JobType:      model.JobType(runJobType),
		OnsiteRemote: model.OnsiteRemote(runOnsiteRemote),
		FunctionID:   runFunctionID,
		IndustryID:   runIndustryID,
		Sort:         model.SortOrder(runSort),
	}
}

func printProgress(w io.Writer) pipeline.ProgressFunc {
	return func(msg string) {
		_, _ = fmt.Fprintln(w, msg)
	}
}

// runSummary is printed to stdout when a run completes.
type runSummary struct {
	QueryID string           `json:"query_id"`
	Counts  model.RunCounts  `json:"counts"`
	Usage   model.TokenUsage `json:"usage"`
}

func writeSummary(w io.Writer, result *pipeline.Result) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(runSummary{
		QueryID: result.QueryID,
		Counts:  result.Counts,
		Usage:   result.Usage,
	})
}

func init() {
	runCmd.Flags().StringSliceVar(&runKeywords, "keywords", nil, "job search keywords, comma separated (required)")
	runCmd.Flags().StringVar(&runLocationID, "location", "", "LinkedIn geo id")
	runCmd.Flags().StringVar(&runDatePosted, "date-posted", string(model.DatePostedPastMonth), "anyTime, pastMonth, pastWeek or past24Hours")
	runCmd.Flags().StringVar(&runJobType, "job-type", "", "fullTime, partTime, contract or internship")
	runCmd.Flags().StringVar(&runOnsiteRemote, "onsite-remote", "", "onSite, remote or hybrid")
	runCmd.Flags().StringVar(&runFunctionID, "function", "", "LinkedIn job function id")
	runCmd.Flags().StringVar(&runIndustryID, "industry", "", "LinkedIn industry id")
	runCmd.Flags().StringVar(&runSort, "sort", string(model.SortMostRelevant), "mostRelevant or mostRecent")
	runCmd.Flags().StringVar(&runXLSX, "xlsx", "", "write final records to this workbook path")
	runCmd.Flags().BoolVar(&runDryRun, "dry-run", false, "skip the outreach list push")
	_ = runCmd.MarkFlagRequired("keywords")
	rootCmd.AddCommand(runCmd)
}
