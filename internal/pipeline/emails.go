package pipeline

import (
	"context"
	"net/url"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/net/publicsuffix"

	"github.com/sells-group/leadgen-cli/internal/metrics"
	"github.com/sells-group/leadgen-cli/internal/model"
	"github.com/sells-group/leadgen-cli/pkg/snov"
)

// enrichEmails resolves an email for each contact in two phases. Phase A
// looks the profile URL up directly. Phase B submits a name and domain
// search for every contact phase A left without an email, waits once for
// the batch, then polls each task. Lookup failures leave the contact
// without an email.
func (r *run) enrichEmails(ctx context.Context, contacts []model.Contact, accts []*account) map[string]model.EmailLookup {
	out := make(map[string]model.EmailLookup, len(contacts))
	var order []string

	for _, c := range contacts {
		if _, ok := out[c.ProfileURL]; ok {
			continue
		}
		if ctx.Err() != nil {
			return out
		}
		l := r.lookupByURL(ctx, c)
		if l.Domain == "" {
			if a := accountFor(accts, c.Company); a != nil {
				l.Domain = registeredDomain(a.company.Website)
			}
		}
		out[c.ProfileURL] = l
		order = append(order, c.ProfileURL)
	}

	phaseA := 0
	for _, l := range out {
		if l.HasEmail() {
			phaseA++
		}
	}

	tasks := make(map[string]string)
	for _, profileURL := range order {
		l := out[profileURL]
		if l.HasEmail() || l.FirstName == "" || l.LastName == "" || l.Domain == "" {
			continue
		}
		if ctx.Err() != nil {
			return out
		}
		row := snov.NameDomainRow{FirstName: l.FirstName, LastName: l.LastName, Domain: l.Domain}
		hash, err := call(ctx, r, "snov", "start_name_domain", func(ctx context.Context) (string, error) {
			return r.p.finder.StartNameDomainSearch(ctx, row)
		})
		if err != nil || hash == "" {
			r.log.Warn("pipeline: name search submit failed", zap.String("profile_url", profileURL), zap.Error(err))
			r.p.metrics.Item(StageEmails, metrics.OutcomeFailed)
			continue
		}
		tasks[profileURL] = hash
	}

	if len(tasks) > 0 {
		cfg := r.p.cfg.Snov
		if cfg.PhaseBDelay > 0 {
			if err := r.p.sleep(ctx, cfg.PhaseBDelay); err != nil {
				return out
			}
		}
		for _, profileURL := range order {
			hash, ok := tasks[profileURL]
			if !ok {
				continue
			}
			res, err := snov.PollNameDomain(ctx, r.p.finder, hash,
				snov.WithInitialDelay(0),
				snov.WithPollInterval(cfg.PollInterval),
				snov.WithPollTimeout(cfg.PollTimeout),
			)
			r.p.metrics.Call("snov", err)
			if err != nil {
				r.log.Warn("pipeline: name search poll failed", zap.String("profile_url", profileURL), zap.Error(err))
				r.p.metrics.Item(StageEmails, metrics.OutcomeFailed)
				continue
			}
			found, ok := res.First()
			if !ok {
				continue
			}
			l := out[profileURL]
			l.Email = strings.TrimSpace(found.Email)
			l.Emails = []string{l.Email}
			l.SMTPStatus = found.SMTPStatus
			l.Source = model.EmailSourceNameDomain
			out[profileURL] = l
		}
	}

	resolved := 0
	for _, l := range out {
		if l.HasEmail() {
			resolved++
			r.p.metrics.Item(StageEmails, metrics.OutcomeOK)
		}
	}
	r.q.Counts.EmailsResolved = resolved
	r.report("Resolved %d of %d emails (%d by profile URL, %d by name and domain)",
		resolved, len(out), phaseA, resolved-phaseA)
	return out
}

// lookupByURL runs the profile URL email search for one contact. Names fall
// back to the contact's profile when the finder returns none.
func (r *run) lookupByURL(ctx context.Context, c model.Contact) model.EmailLookup {
	l := model.EmailLookup{
		ProfileURL: c.ProfileURL,
		Name:       c.FullName(),
		FirstName:  c.FirstName,
		LastName:   c.LastName,
	}

	_, err := call(ctx, r, "snov", "add_url_for_search", func(ctx context.Context) (struct{}, error) {
		return struct{}{}, r.p.finder.AddURLForSearch(ctx, c.ProfileURL)
	})
	if err != nil {
		r.log.Warn("pipeline: url search submit failed", zap.String("profile_url", c.ProfileURL), zap.Error(err))
		r.p.metrics.Item(StageEmails, metrics.OutcomeFailed)
		return l
	}

	resp, err := call(ctx, r, "snov", "get_emails_from_url", func(ctx context.Context) (*snov.URLSearchResponse, error) {
		return r.p.finder.GetEmailsFromURL(ctx, c.ProfileURL)
	})
	if err != nil {
		r.log.Warn("pipeline: url search failed", zap.String("profile_url", c.ProfileURL), zap.Error(err))
		r.p.metrics.Item(StageEmails, metrics.OutcomeFailed)
		return l
	}
	if resp == nil || resp.Data == nil {
		return l
	}

	person := resp.Data
	if person.Name != "" {
		l.Name = person.Name
	}
	if l.FirstName == "" {
		l.FirstName = person.FirstName
	}
	if l.LastName == "" {
		l.LastName = person.LastName
	}
	l.Emails = person.EmailAddresses()
	if email, ok := model.CollapseEmail(l.Emails); ok {
		l.Email = email
		l.Source = model.EmailSourceURL
	}
	job := person.CurrentJobAt()
	l.CurrentJobCompany = job.CompanyName
	l.CurrentJobPosition = job.Position
	l.CurrentJobSite = job.Site
	social := person.FirstSocial()
	l.SocialLink = social.Link
	l.SocialSource = social.Source
	l.Domain = registeredDomain(job.Site)
	return l
}

// registeredDomain reduces a site URL or bare host to its registrable
// domain, e.g. "https://www.shop.example.co.uk/about" to "example.co.uk".
func registeredDomain(site string) string {
	site = strings.TrimSpace(site)
	if site == "" {
		return ""
	}
	if !strings.Contains(site, "://") {
		site = "http://" + site
	}
	u, err := url.Parse(site)
	if err != nil {
		return ""
	}
	host := strings.ToLower(strings.TrimSuffix(u.Hostname(), "."))
	if host == "" {
		return ""
	}
	domain, err := publicsuffix.EffectiveTLDPlusOne(host)
	if err != nil {
		return ""
	}
	return domain
}
