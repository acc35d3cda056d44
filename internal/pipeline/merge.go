package pipeline

import (
	"github.com/sells-group/leadgen-cli/internal/model"
)

// finalize joins every per-contact result into one record per profile URL,
// keeping the first occurrence. Email lookups, sequences and questionnaire
// answers are left joins. A contact left without an email gets the fallback
// address when it has a first name.
func (r *run) finalize(
	contacts []model.Contact,
	lookups map[string]model.EmailLookup,
	sequences map[string]model.EmailData,
	answers map[string]model.Questionnaire,
	accts []*account,
) []model.FinalRecord {
	fallbackDomain := r.p.cfg.Pipeline.FallbackEmailDomain
	now := r.p.now().UTC()

	seen := make(map[string]bool, len(contacts))
	out := make([]model.FinalRecord, 0, len(contacts))
	for _, c := range contacts {
		if seen[c.ProfileURL] {
			continue
		}
		seen[c.ProfileURL] = true

		l := lookups[c.ProfileURL]
		rec := model.FinalRecord{
			ProfileURL:  c.ProfileURL,
			Username:    c.Username,
			FirstName:   c.FirstName,
			LastName:    c.LastName,
			FullName:    c.FullName(),
			Headline:    c.Headline,
			Title:       c.Title,
			Company:     c.Company,
			CompanyID:   c.CompanyID,
			Industry:    c.CompanyIndustry,
			CompanySite: l.CurrentJobSite,
			FullAddress: c.FullAddress,
			Email:       l.Email,
			EmailSource: l.Source,
			EmailData:   sequences[c.ProfileURL],
			QueryID:     r.q.QueryID,
			CreatedAt:   now,
		}

		var q model.Questionnaire
		if a := accountFor(accts, c.Company); a != nil {
			if rec.CompanyID == "" {
				rec.CompanyID = a.company.CompanyID
			}
			if rec.Industry == "" {
				rec.Industry = a.company.Industry
			}
			if rec.CompanySite == "" {
				rec.CompanySite = a.company.Website
			}
			if j, ok := a.jobFor(c); ok {
				rec.JobID = j.JobID
				rec.JobTitle = j.Title
				rec.JobURL = j.JobURL
			}
			q = answers[a.key()]
		}
		rec.Answers = q.Ordered()
		rec.Questions = q.Nested()

		if !rec.HasEmail() && c.FirstName != "" && fallbackDomain != "" {
			rec.Email = model.FallbackEmail(c.FirstName, fallbackDomain)
			rec.EmailSource = model.EmailSourceFallback
		}
		out = append(out, rec)
	}

	r.q.Counts.FinalRecords = len(out)
	return out
}
