// Package pipeline runs the lead generation stages: job discovery, company
// resolution, people discovery, profile and post enrichment, email
// enrichment, sequence generation, merge and export.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/leadgen-cli/internal/config"
	"github.com/sells-group/leadgen-cli/internal/cost"
	"github.com/sells-group/leadgen-cli/internal/metrics"
	"github.com/sells-group/leadgen-cli/internal/model"
	"github.com/sells-group/leadgen-cli/internal/prompts"
	"github.com/sells-group/leadgen-cli/internal/resilience"
	"github.com/sells-group/leadgen-cli/internal/store"
	"github.com/sells-group/leadgen-cli/pkg/anthropic"
	"github.com/sells-group/leadgen-cli/pkg/rapidapi"
	"github.com/sells-group/leadgen-cli/pkg/snov"
)

// Stage-terminal conditions. Callers match them with errors.Is.
var (
	ErrNoJobs         = eris.New("pipeline: no new jobs found for the given filters")
	ErrNoICPCompanies = eris.New("pipeline: no ICP-fit companies found")
	ErrNoContacts     = eris.New("pipeline: no contacts with a resolvable profile URL")
	ErrCanceled       = eris.New("pipeline: run canceled")
)

// Stage names used for logging, metrics and progress.
const (
	StageJobs          = "jobs"
	StageCompanies     = "companies"
	StagePeople        = "people"
	StageProfiles      = "profiles"
	StagePosts         = "posts"
	StageEmails        = "emails"
	StageQuestionnaire = "questionnaire"
	StageSequence      = "sequence"
	StageMerge         = "merge"
	StageExport        = "export"
)

// ProgressFunc receives human readable status lines while a run executes.
type ProgressFunc func(msg string)

// Pipeline orchestrates one lead generation run at a time.
type Pipeline struct {
	cfg     *config.Config
	store   store.Store
	source  rapidapi.Client
	finder  snov.Client
	ai      anthropic.Client
	prompts *prompts.Set
	sinks   []Sink
	metrics *metrics.Metrics
	calc    *cost.Calculator

	retry    resilience.Policy
	sleep    func(ctx context.Context, d time.Duration) error
	now      func() time.Time
	progress ProgressFunc
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithSinks adds export destinations beyond the FinalData collection.
func WithSinks(sinks ...Sink) Option {
	return func(p *Pipeline) { p.sinks = append(p.sinks, sinks...) }
}

// WithMetrics records stage metrics on m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(p *Pipeline) { p.metrics = m }
}

// WithProgress sets the progress callback.
func WithProgress(fn ProgressFunc) Option {
	return func(p *Pipeline) { p.progress = fn }
}

// WithPrompts overrides the embedded prompt set.
func WithPrompts(s *prompts.Set) Option {
	return func(p *Pipeline) { p.prompts = s }
}

// WithSleep replaces the throttling and retry sleep.
func WithSleep(fn func(ctx context.Context, d time.Duration) error) Option {
	return func(p *Pipeline) { p.sleep = fn }
}

// WithClock replaces the time source used for freshness windows.
func WithClock(now func() time.Time) Option {
	return func(p *Pipeline) { p.now = now }
}

// New creates a Pipeline with all dependencies.
func New(
	cfg *config.Config,
	st store.Store,
	source rapidapi.Client,
	finder snov.Client,
	ai anthropic.Client,
	opts ...Option,
) (*Pipeline, error) {
	p := &Pipeline{
		cfg:    cfg,
		store:  st,
		source: source,
		finder: finder,
		ai:     ai,
		calc:   cost.NewCalculator(cost.RateFromConfig(cfg.Anthropic)),
		retry:  resilience.FromConfig(cfg.Pipeline.Retry),
		sleep:  resilience.SleepContext,
		now:    time.Now,
	}
	for _, o := range opts {
		o(p)
	}
	if p.prompts == nil {
		set, err := prompts.Load(cfg.Prompts.Path)
		if err != nil {
			return nil, eris.Wrap(err, "pipeline: load prompts")
		}
		p.prompts = set
	}
	p.retry.Sleep = p.sleep
	return p, nil
}

// Result is the output of a completed run.
type Result struct {
	QueryID string
	Records []model.FinalRecord
	Counts  model.RunCounts
	Usage   model.TokenUsage
}

// NewQuery builds an in-progress run record for f.
func NewQuery(f model.Filters) *model.Query {
	return &model.Query{
		QueryID:   uuid.NewString(),
		Filters:   f,
		Status:    model.QueryInProgress,
		StartedAt: time.Now().UTC(),
	}
}

// Run validates f, records a new Query and executes every stage.
func (p *Pipeline) Run(ctx context.Context, f model.Filters) (*Result, error) {
	f.Normalize()
	if err := f.Validate(); err != nil {
		return nil, err
	}
	return p.Execute(ctx, NewQuery(f))
}

// Execute runs every stage for q and keeps its status current in the
// store. On failure the returned Result still carries the query id and the
// counts reached.
func (p *Pipeline) Execute(ctx context.Context, q *model.Query) (*Result, error) {
	log := zap.L().With(zap.String("query_id", q.QueryID))
	log.Info("pipeline: starting run", zap.Strings("keywords", q.Filters.Keywords))

	q.Filters.Normalize()
	q.Status = model.QueryInProgress
	p.saveQuery(ctx, q)
	p.metrics.RunStarted()

	r := &run{
		p:      p,
		q:      q,
		log:    log,
		ledger: cost.NewLedger(p.calc),
	}
	records, err := r.execute(ctx)
	if err != nil && ctx.Err() != nil && !errors.Is(err, ErrCanceled) {
		err = eris.Wrap(ErrCanceled, err.Error())
	}

	q.Usage = r.ledger.Total()
	q.CompletedAt = time.Now().UTC()
	switch {
	case err == nil:
		q.Status = model.QueryCompleted
		q.Progress = "Pipeline completed"
	case errors.Is(err, ErrCanceled):
		q.Status = model.QueryCanceled
		q.Error = err.Error()
		records = nil
	default:
		q.Status = model.QueryFailed
		q.Error = err.Error()
		records = nil
	}
	p.saveQuery(context.WithoutCancel(ctx), q)
	p.metrics.RunFinished(string(q.Status))

	log.Info("pipeline: run finished",
		zap.String("status", string(q.Status)),
		zap.Int("final_records", q.Counts.FinalRecords),
		zap.Float64("cost_usd", q.Usage.CostUSD),
		zap.Duration("elapsed", q.CompletedAt.Sub(q.StartedAt)),
	)

	return &Result{
		QueryID: q.QueryID,
		Records: records,
		Counts:  q.Counts,
		Usage:   q.Usage,
	}, err
}

func (p *Pipeline) saveQuery(ctx context.Context, q *model.Query) {
	if err := store.SaveQuery(ctx, p.store, q); err != nil {
		zap.L().Warn("pipeline: failed to save query", zap.String("query_id", q.QueryID), zap.Error(err))
	}
}

// run holds the state of one execution.
type run struct {
	p      *Pipeline
	q      *model.Query
	log    *zap.Logger
	ledger *cost.Ledger
}

func (r *run) execute(ctx context.Context) ([]model.FinalRecord, error) {
	if err := r.checkpoint(ctx); err != nil {
		return nil, err
	}

	found, err := r.discover(ctx)
	if err != nil {
		return nil, err
	}

	var prospects []model.Prospect
	if err := r.trackPhase(ctx, StagePeople, func() error {
		var perr error
		prospects, perr = r.discoverPeople(ctx, found)
		return perr
	}); err != nil {
		return nil, err
	}

	var contacts []model.Contact
	if err := r.trackPhase(ctx, StageProfiles, func() error {
		var perr error
		contacts, perr = r.enrichProfiles(ctx, prospects)
		return perr
	}); err != nil {
		return nil, err
	}

	var posts []model.Post
	if err := r.trackPhase(ctx, StagePosts, func() error {
		var perr error
		posts, perr = r.fetchPosts(ctx, contacts)
		return perr
	}); err != nil {
		return nil, err
	}

	accts := groupAccounts(found, contacts, posts)

	if err := r.checkpoint(ctx); err != nil {
		return nil, err
	}
	var lookups map[string]model.EmailLookup
	if err := r.trackPhase(ctx, StageEmails, func() error {
		lookups = r.enrichEmails(ctx, contacts, accts)
		return nil
	}); err != nil {
		return nil, err
	}

	if err := r.checkpoint(ctx); err != nil {
		return nil, err
	}
	var answers map[string]model.Questionnaire
	if err := r.trackPhase(ctx, StageQuestionnaire, func() error {
		answers = r.questionnaires(ctx, accts)
		return nil
	}); err != nil {
		return nil, err
	}

	var sequences map[string]model.EmailData
	if err := r.trackPhase(ctx, StageSequence, func() error {
		sequences = r.generateSequences(ctx, contacts, accts)
		return nil
	}); err != nil {
		return nil, err
	}

	var records []model.FinalRecord
	if err := r.trackPhase(ctx, StageMerge, func() error {
		records = r.finalize(contacts, lookups, sequences, answers, accts)
		return nil
	}); err != nil {
		return nil, err
	}

	if err := r.checkpoint(ctx); err != nil {
		return nil, err
	}
	if err := r.trackPhase(ctx, StageExport, func() error {
		return r.export(ctx, records)
	}); err != nil {
		return nil, err
	}
	return records, nil
}

// checkpoint reports ErrCanceled when ctx is done. It is consulted only at
// stage boundaries.
func (r *run) checkpoint(ctx context.Context) error {
	if ctx.Err() != nil {
		return eris.Wrap(ErrCanceled, ctx.Err().Error())
	}
	return nil
}

// trackPhase times fn, records the stage duration and logs the outcome.
func (r *run) trackPhase(ctx context.Context, name string, fn func() error) error {
	start := time.Now()
	err := fn()
	elapsed := time.Since(start)
	r.p.metrics.ObserveStage(name, elapsed)

	if err != nil {
		r.log.Error("pipeline: phase failed",
			zap.String("phase", name),
			zap.Int64("duration_ms", elapsed.Milliseconds()),
			zap.Error(err),
		)
		return err
	}
	r.log.Info("pipeline: phase complete",
		zap.String("phase", name),
		zap.Int64("duration_ms", elapsed.Milliseconds()),
	)
	r.p.saveQuery(ctx, r.q)
	return nil
}

// report sends a progress line to the callback and stores it on the query.
func (r *run) report(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	r.q.Progress = msg
	if r.p.progress != nil {
		r.p.progress(msg)
	}
}

// upsert writes docs and logs any discrepancy between attempted and written
// documents. A failed write is logged, not returned.
func (r *run) upsert(ctx context.Context, c store.Collection, docs []model.Document) store.UpsertResult {
	if len(docs) == 0 {
		return store.UpsertResult{}
	}
	res, err := r.p.store.UpsertDocuments(ctx, c, docs)
	if err != nil {
		r.log.Warn("pipeline: bulk upsert failed",
			zap.String("collection", string(c)),
			zap.Int("attempted", len(docs)),
			zap.Error(err),
		)
		return res
	}
	if res.Skipped > 0 || res.Upserted()+res.Duplicates != res.Attempted {
		r.log.Warn("pipeline: partial upsert",
			zap.String("collection", string(c)),
			zap.Int("attempted", res.Attempted),
			zap.Int("upserted", res.Upserted()),
			zap.Int("skipped", res.Skipped),
			zap.Int("duplicates", res.Duplicates),
		)
	} else {
		r.log.Debug("pipeline: upserted",
			zap.String("collection", string(c)),
			zap.Int("inserted", res.Inserted),
			zap.Int("updated", res.Updated),
		)
	}
	return res
}

// call runs fn under the rate-limit retry policy and records the outcome.
func call[T any](ctx context.Context, r *run, service, op string, fn func(ctx context.Context) (T, error)) (T, error) {
	cfg := resilience.RateLimitOnly(r.p.retry)
	cfg.OnRetry = resilience.RetryLogger(service, op)
	v, err := resilience.DoVal(ctx, cfg, fn)
	r.p.metrics.Call(service, err)
	return v, err
}

// throttle sleeps d between consecutive network calls in a loop.
func (r *run) throttle(ctx context.Context, d time.Duration) {
	if d > 0 {
		_ = r.p.sleep(ctx, d)
	}
}
