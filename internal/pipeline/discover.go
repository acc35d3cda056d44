package pipeline

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/sells-group/leadgen-cli/internal/metrics"
	"github.com/sells-group/leadgen-cli/internal/model"
	"github.com/sells-group/leadgen-cli/internal/store"
	"github.com/sells-group/leadgen-cli/pkg/rapidapi"
)

// discovery accumulates jobs and companies across search rounds. Both are
// kept in first-seen order.
type discovery struct {
	jobs      []model.Job
	companies []model.Company
	icp       []model.Company

	seenJobs      map[string]bool
	seenCompanies map[string]bool
}

func newDiscovery() *discovery {
	return &discovery{
		seenJobs:      make(map[string]bool),
		seenCompanies: make(map[string]bool),
	}
}

func (d *discovery) addJobs(jobs []model.Job) {
	for _, j := range jobs {
		if d.seenJobs[j.JobID] {
			continue
		}
		d.seenJobs[j.JobID] = true
		d.jobs = append(d.jobs, j)
	}
}

func (d *discovery) addCompanies(all []model.Company, maxEmployees int) {
	for _, c := range all {
		if d.seenCompanies[c.LinkedinURL] {
			continue
		}
		d.seenCompanies[c.LinkedinURL] = true
		d.companies = append(d.companies, c)
		if c.Staff.IsICPFit(maxEmployees) {
			d.icp = append(d.icp, c)
		}
	}
}

// icpJobs returns the jobs posted by ICP-fit companies.
func (d *discovery) icpJobs() []model.Job {
	fit := make(map[string]bool, len(d.icp))
	for _, c := range d.icp {
		fit[c.LinkedinURL] = true
	}
	var out []model.Job
	for _, j := range d.jobs {
		if fit[j.LinkedinURL] {
			out = append(out, j)
		}
	}
	return out
}

// jobsFor returns the jobs posted by the company at linkedinURL.
func (d *discovery) jobsFor(linkedinURL string) []model.Job {
	var out []model.Job
	for _, j := range d.jobs {
		if j.LinkedinURL == linkedinURL {
			out = append(out, j)
		}
	}
	return out
}

// discover repeats job search and company resolution until enough distinct
// ICP companies are found or the attempt limit is reached.
func (r *run) discover(ctx context.Context) (*discovery, error) {
	cfg := r.p.cfg.Pipeline
	d := newDiscovery()

	for attempt := 1; attempt <= cfg.MaxAttempts; attempt++ {
		if err := r.checkpoint(ctx); err != nil {
			return nil, err
		}

		var jobs []model.Job
		if err := r.trackPhase(ctx, StageJobs, func() error {
			var err error
			jobs, err = r.fetchJobs(ctx)
			return err
		}); err != nil {
			return nil, err
		}
		if attempt == 1 && len(jobs) == 0 {
			return nil, ErrNoJobs
		}
		d.addJobs(jobs)

		var companies []model.Company
		if err := r.trackPhase(ctx, StageCompanies, func() error {
			var err error
			companies, err = r.resolveCompanies(ctx, jobs)
			return err
		}); err != nil {
			return nil, err
		}
		d.addCompanies(companies, cfg.ICPMaxEmployees)

		r.q.Counts.Jobs = len(d.jobs)
		r.q.Counts.Companies = len(d.companies)
		r.q.Counts.ICPCompanies = len(d.icp)

		r.log.Info("pipeline: discovery round complete",
			zap.Int("attempt", attempt),
			zap.Int("jobs", len(d.jobs)),
			zap.Int("companies", len(d.companies)),
			zap.Int("icp_companies", len(d.icp)),
		)

		if len(d.icp) >= cfg.MinCompanies {
			r.report("Found %d unique companies after %d attempts", len(d.icp), attempt)
			break
		}
		r.report("Only %d unique companies found after %d attempts", len(d.icp), attempt)
	}

	if len(d.icp) == 0 {
		return nil, ErrNoICPCompanies
	}
	return d, nil
}

// jobCleanDrop are raw job fields not kept in the Jobs collection.
var jobCleanDrop = []string{"referenceId", "posterId", "company_logo", "postedTimestamp"}

// fetchJobs searches each keyword, drops postings already in RawJobs and
// stores the rest. Returns the new postings that carry a usable company URL.
func (r *run) fetchJobs(ctx context.Context) ([]model.Job, error) {
	f := r.q.Filters

	seen := make(map[string]bool)
	var raw []model.Document
	for _, kw := range f.Keywords {
		params := rapidapi.JobSearchParams{
			Keywords:     kw,
			LocationID:   f.LocationID,
			DatePosted:   string(f.DatePosted),
			JobType:      string(f.JobType),
			FunctionID:   f.FunctionID,
			IndustryID:   f.IndustryID,
			OnsiteRemote: string(f.OnsiteRemote),
			Sort:         string(f.Sort),
		}
		items, err := call(ctx, r, "rapidapi", "search_jobs", func(ctx context.Context) ([]map[string]any, error) {
			return r.p.source.SearchJobs(ctx, params)
		})
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			r.log.Warn("pipeline: job search failed", zap.String("keyword", kw), zap.Error(err))
			r.p.metrics.Item(StageJobs, metrics.OutcomeFailed)
			continue
		}

		for _, item := range items {
			doc := model.Document(item).Flatten("_")
			doc.Rename("id", "job_id")
			id := doc.String("job_id")
			if id == "" || doc.String("company_url") == "" {
				r.p.metrics.Item(StageJobs, metrics.OutcomeSkipped)
				continue
			}
			if seen[id] {
				continue
			}
			seen[id] = true
			raw = append(raw, doc)
		}
	}
	if len(raw) == 0 {
		return nil, nil
	}

	keys := make([]string, len(raw))
	for i, doc := range raw {
		keys[i] = doc.String("job_id")
	}
	existing, err := r.p.store.ExistingKeys(ctx, store.RawJobs, keys)
	if err != nil {
		r.log.Warn("pipeline: read stored job ids", zap.Int("jobs", len(keys)), zap.Error(err))
	}

	var fresh []model.Document
	for _, doc := range raw {
		if !existing[doc.String("job_id")] {
			fresh = append(fresh, doc)
		}
	}
	r.log.Info("pipeline: job search results",
		zap.Int("returned", len(raw)),
		zap.Int("already_stored", len(raw)-len(fresh)),
	)
	r.upsert(ctx, store.RawJobs, fresh)

	jobs := make([]model.Job, 0, len(fresh))
	clean := make([]model.Document, 0, len(fresh))
	for _, doc := range fresh {
		j, ok := model.JobFromDocument(doc)
		if !ok {
			r.log.Debug("pipeline: job without company username", zap.String("job_id", doc.String("job_id")))
			r.p.metrics.Item(StageJobs, metrics.OutcomeSkipped)
			continue
		}
		jobs = append(jobs, j)
		clean = append(clean, cleanJobDocument(doc, j))
		r.p.metrics.Item(StageJobs, metrics.OutcomeOK)
	}
	r.upsert(ctx, store.Jobs, clean)
	return jobs, nil
}

// resolveCompanies returns the company profile behind each job, reusing
// RawCompany documents where present and fetching the rest. Companies that
// cannot be resolved are dropped.
func (r *run) resolveCompanies(ctx context.Context, jobs []model.Job) ([]model.Company, error) {
	var urls []string
	usernames := make(map[string]string)
	for _, j := range jobs {
		if _, ok := usernames[j.LinkedinURL]; ok {
			continue
		}
		usernames[j.LinkedinURL] = j.CompanyUsername
		urls = append(urls, j.LinkedinURL)
	}
	if len(urls) == 0 {
		return nil, nil
	}

	present, err := r.p.store.FindBy(ctx, store.RawCompany, "linkedinUrl", urls, time.Time{})
	if err != nil {
		r.log.Warn("pipeline: read cached companies", zap.Int("companies", len(urls)), zap.Error(err))
	}
	byURL := make(map[string]model.Document, len(urls))
	for _, doc := range present {
		byURL[doc.String("linkedinUrl")] = doc.Without(store.IngestedField)
	}

	fetched := 0
	for _, u := range urls {
		if _, ok := byURL[u]; ok {
			continue
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		username := usernames[u]
		payload, err := call(ctx, r, "rapidapi", "get_company", func(ctx context.Context) (map[string]any, error) {
			return r.p.source.GetCompanyByUsername(ctx, username)
		})
		if err != nil {
			r.log.Warn("pipeline: company lookup failed", zap.String("company", username), zap.Error(err))
			r.p.metrics.Item(StageCompanies, metrics.OutcomeFailed)
			continue
		}
		doc := model.Document(payload)
		doc.Rename("id", "companyId")
		if doc.String("companyId") == "" {
			r.log.Warn("pipeline: company payload without id", zap.String("company", username))
			r.p.metrics.Item(StageCompanies, metrics.OutcomeSkipped)
			continue
		}
		doc["linkedinUrl"] = u
		byURL[u] = doc
		fetched++
	}

	maxEmployees := r.p.cfg.Pipeline.ICPMaxEmployees
	var (
		out     []model.Company
		rawDocs []model.Document
		icpDocs []model.Document
	)
	for _, u := range urls {
		doc, ok := byURL[u]
		if !ok {
			continue
		}
		rawDocs = append(rawDocs, doc)
		c := model.CompanyFromDocument(doc)
		out = append(out, c)
		if c.Staff.IsICPFit(maxEmployees) {
			icpDocs = append(icpDocs, model.CleanCompanyDocument(doc))
			r.p.metrics.Item(StageCompanies, metrics.OutcomeOK)
		} else {
			r.p.metrics.Item(StageCompanies, metrics.OutcomeSkipped)
		}
	}

	r.upsert(ctx, store.RawCompany, rawDocs)
	r.upsert(ctx, store.Company, icpDocs)

	r.log.Info("pipeline: companies resolved",
		zap.Int("requested", len(urls)),
		zap.Int("reused", len(present)),
		zap.Int("fetched", fetched),
		zap.Int("icp", len(icpDocs)),
	)
	return out, nil
}
