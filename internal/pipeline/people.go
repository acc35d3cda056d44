package pipeline

import (
	"context"

	"go.uber.org/zap"

	"github.com/sells-group/leadgen-cli/internal/metrics"
	"github.com/sells-group/leadgen-cli/internal/model"
)

// roleKeywordGroups are searched in order for companies whose postings list
// no hiring team. Search stops at the first group that reaches the target.
var roleKeywordGroups = []string{
	"HR, Human Resource, Talent Acquisition, IT Recruiter",
	"CTO, COO, CXO, Chief Technology Officer",
	"Founder, CEO, Director",
}

// discoverPeople collects prospects for ICP companies: the hiring team of
// each posting first, then role-based people search for companies without
// one. Duplicates by profile URL keep the first occurrence.
func (r *run) discoverPeople(ctx context.Context, d *discovery) ([]model.Prospect, error) {
	cfg := r.p.cfg.Pipeline

	var out []model.Prospect
	covered := make(map[string]bool)
	for _, j := range d.icpJobs() {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		items, err := call(ctx, r, "rapidapi", "get_hiring_team", func(ctx context.Context) ([]map[string]any, error) {
			return r.p.source.GetHiringTeam(ctx, j.JobID, j.JobURL)
		})
		if err != nil {
			r.log.Warn("pipeline: hiring team lookup failed", zap.String("job_id", j.JobID), zap.Error(err))
			r.p.metrics.Item(StagePeople, metrics.OutcomeFailed)
			continue
		}
		found := prospectsFromItems(items, j, model.SourceHiringTeam)
		if len(found) > 0 {
			covered[j.LinkedinURL] = true
		}
		out = append(out, found...)
	}

	for _, c := range d.icp {
		if covered[c.LinkedinURL] {
			continue
		}
		jobs := d.jobsFor(c.LinkedinURL)
		if len(jobs) == 0 {
			continue
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		out = append(out, r.searchPeople(ctx, model.Job{CompanyName: jobs[0].CompanyName}, cfg.PeopleTargetMin, cfg.PeopleTargetMax)...)
	}

	out = dedupProspects(out)
	for range out {
		r.p.metrics.Item(StagePeople, metrics.OutcomeOK)
	}
	r.q.Counts.Prospects = len(out)
	r.report("Found %d prospects across %d companies", len(out), len(d.icp))

	if len(out) == 0 {
		return nil, ErrNoContacts
	}
	return out, nil
}

// searchPeople runs the role keyword groups for one company until at least
// target distinct prospects are found, returning no more than limit.
func (r *run) searchPeople(ctx context.Context, j model.Job, target, limit int) []model.Prospect {
	var found []model.Prospect
	for _, kw := range roleKeywordGroups {
		items, err := call(ctx, r, "rapidapi", "search_people", func(ctx context.Context) ([]map[string]any, error) {
			return r.p.source.SearchPeople(ctx, kw, j.CompanyName)
		})
		if err != nil {
			r.log.Warn("pipeline: people search failed",
				zap.String("company", j.CompanyName),
				zap.String("keywords", kw),
				zap.Error(err),
			)
			r.p.metrics.Item(StagePeople, metrics.OutcomeFailed)
			continue
		}
		found = dedupProspects(append(found, prospectsFromItems(items, j, model.SourcePeopleSearch)...))
		if len(found) >= target {
			break
		}
	}
	if limit > 0 && len(found) > limit {
		found = found[:limit]
	}
	return found
}
