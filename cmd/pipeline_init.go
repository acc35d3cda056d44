package main

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/leadgen-cli/internal/metrics"
	"github.com/sells-group/leadgen-cli/internal/pipeline"
	"github.com/sells-group/leadgen-cli/internal/store"
	anthropicpkg "github.com/sells-group/leadgen-cli/pkg/anthropic"
	"github.com/sells-group/leadgen-cli/pkg/notion"
	"github.com/sells-group/leadgen-cli/pkg/rapidapi"
	"github.com/sells-group/leadgen-cli/pkg/snov"
)

// pipelineEnv holds the store and the pipeline built for the run and serve
// commands.
type pipelineEnv struct {
	Store    store.Store
	Pipeline *pipeline.Pipeline
	Sinks    []pipeline.Sink
}

// Close releases resources held by the pipeline environment.
func (pe *pipelineEnv) Close() {
	if pe.Store != nil {
		_ = pe.Store.Close()
	}
}

// envOptions adjusts how initPipeline wires the pipeline.
type envOptions struct {
	mode    string
	dryRun  bool
	metrics *metrics.Metrics
	extra   []pipeline.Option
}

// initPipeline validates the config for opts.mode, opens the store, builds
// every API client and the export sinks. Callers should defer env.Close().
func initPipeline(ctx context.Context, opts envOptions) (*pipelineEnv, error) {
	if err := cfg.Validate(opts.mode); err != nil {
		return nil, err
	}

	st, err := openStore(ctx)
	if err != nil {
		return nil, err
	}

	source := rapidapi.NewClient(cfg.RapidAPI.Key,
		rapidapi.WithBaseURL(cfg.RapidAPI.BaseURL),
		rapidapi.WithHost(cfg.RapidAPI.Host),
		rapidapi.WithRateLimit(cfg.RapidAPI.RequestsPerSecond),
	)
	finder := snov.NewClient(cfg.Snov.ClientID, cfg.Snov.ClientSecret,
		snov.WithBaseURL(cfg.Snov.BaseURL),
		snov.WithRateLimit(cfg.Snov.RequestsPerSecond),
	)
	// Retries go through the pipeline's own policy.
	ai := anthropicpkg.NewClient(cfg.Anthropic.Key,
		anthropicpkg.WithBaseURL(cfg.Anthropic.BaseURL),
		anthropicpkg.WithMaxRetries(0),
	)

	sinks, err := buildSinks(finder, opts.dryRun)
	if err != nil {
		_ = st.Close()
		return nil, err
	}

	pipeOpts := []pipeline.Option{
		pipeline.WithSinks(sinks...),
		pipeline.WithMetrics(opts.metrics),
	}
	pipeOpts = append(pipeOpts, opts.extra...)

	p, err := pipeline.New(cfg, st, source, finder, ai, pipeOpts...)
	if err != nil {
		_ = st.Close()
		return nil, err
	}

	names := make([]string, 0, len(sinks))
	for _, s := range sinks {
		names = append(names, s.Name())
	}
	zap.L().Info("pipeline initialized",
		zap.String("store", cfg.Store.Driver),
		zap.Strings("sinks", names),
		zap.Bool("dry_run", opts.dryRun),
	)

	return &pipelineEnv{Store: st, Pipeline: p, Sinks: sinks}, nil
}

// buildSinks returns the enabled export destinations. The outreach list is
// left out on dry runs and when no list id is configured.
func buildSinks(finder snov.Client, dryRun bool) ([]pipeline.Sink, error) {
	var sinks []pipeline.Sink

	switch {
	case dryRun:
		zap.L().Info("dry run, outreach push disabled")
	case cfg.Snov.ListID == "":
		zap.L().Warn("LEADGEN_SNOV_LIST_ID not set, outreach push disabled")
	default:
		sinks = append(sinks, pipeline.NewOutreachSink(finder, cfg.Snov.ListID))
	}

	if cfg.Notion.Enabled {
		sinks = append(sinks, pipeline.NewNotionSink(notion.NewClient(cfg.Notion.Token), cfg.Notion.FinalDB))
	}

	if cfg.Salesforce.Enabled {
		sf, err := initSalesforce()
		if err != nil {
			return nil, eris.Wrap(err, "init salesforce sink")
		}
		sinks = append(sinks, pipeline.NewSalesforceSink(sf))
	}

	return sinks, nil
}
