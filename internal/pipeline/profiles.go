package pipeline

import (
	"context"
	"fmt"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/leadgen-cli/internal/metrics"
	"github.com/sells-group/leadgen-cli/internal/model"
	"github.com/sells-group/leadgen-cli/internal/store"
)

// enrichProfiles resolves the full profile of each prospect and keeps those
// whose latest experience is at the company they were discovered under.
// Stored RawPeople documents are reused without a network call.
func (r *run) enrichProfiles(ctx context.Context, prospects []model.Prospect) ([]model.Contact, error) {
	var (
		contacts   []model.Contact
		rawDocs    []model.Document
		peopleDocs []model.Document
		cached     int
	)
	for _, p := range prospects {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		profile, fetched, err := r.profile(ctx, p.ProfileURL)
		if fetched {
			r.throttle(ctx, r.p.cfg.Pipeline.ProfileDelay)
		} else if err == nil {
			cached++
		}
		if err != nil {
			r.log.Warn("pipeline: profile lookup failed", zap.String("profile_url", p.ProfileURL), zap.Error(err))
			r.p.metrics.Item(StageProfiles, metrics.OutcomeFailed)
			continue
		}

		profile["profileURL"] = p.ProfileURL
		profile["company_name"] = p.CompanyName
		rawDocs = append(rawDocs, profile)

		c := model.ContactFromProfile(profile, p)
		if !c.WorksAt() {
			r.log.Debug("pipeline: contact no longer at company",
				zap.String("profile_url", p.ProfileURL),
				zap.String("company", p.CompanyName),
				zap.String("current_company", c.CompanyName),
			)
			r.p.metrics.Item(StageProfiles, metrics.OutcomeSkipped)
			continue
		}
		doc, err := model.ToDocument(c)
		if err != nil {
			r.log.Warn("pipeline: encode contact", zap.String("profile_url", p.ProfileURL), zap.Error(err))
			continue
		}
		contacts = append(contacts, c)
		peopleDocs = append(peopleDocs, doc)
		r.p.metrics.Item(StageProfiles, metrics.OutcomeOK)
	}

	r.upsert(ctx, store.RawPeople, rawDocs)
	r.upsert(ctx, store.People, peopleDocs)

	r.q.Counts.Contacts = len(contacts)
	r.report("Enriched %d of %d prospects (%d from cache)", len(contacts), len(prospects), cached)

	if len(contacts) == 0 {
		return nil, ErrNoContacts
	}
	return contacts, nil
}

// profile returns the raw profile for url. fetched reports whether a network
// call was made.
func (r *run) profile(ctx context.Context, url string) (model.Document, bool, error) {
	doc, err := r.p.store.GetDocument(ctx, store.RawPeople, url)
	if err != nil {
		r.log.Warn("pipeline: read cached profile", zap.String("profile_url", url), zap.Error(err))
	}
	if doc != nil {
		return doc.Without(store.IngestedField), false, nil
	}

	payload, err := call(ctx, r, "rapidapi", "get_profile", func(ctx context.Context) (map[string]any, error) {
		return r.p.source.GetProfile(ctx, url)
	})
	if err != nil {
		return nil, true, err
	}
	if len(payload) == 0 {
		return nil, true, eris.New(fmt.Sprintf("pipeline: empty profile for %s", url))
	}
	return model.Document(payload), true, nil
}
