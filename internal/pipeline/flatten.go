package pipeline

import (
	"strings"
	"time"

	"github.com/sells-group/leadgen-cli/internal/model"
)

// cleanJobDocument returns the Jobs-collection shape of a flattened raw job.
func cleanJobDocument(raw model.Document, j model.Job) model.Document {
	d := raw.Without(jobCleanDrop...)
	d.Rename("url", "job_url")
	d["company_username"] = j.CompanyUsername
	d["linkedinUrl"] = j.LinkedinURL
	return d
}

// normalizeProfileURL trims whitespace, query strings and trailing slashes
// so the same profile reached from different endpoints keys identically.
func normalizeProfileURL(u string) string {
	u = strings.TrimSpace(u)
	if i := strings.IndexAny(u, "?#"); i >= 0 {
		u = u[:i]
	}
	return strings.TrimRight(u, "/")
}

// prospectsFromItems converts hiring-team or people-search items into
// prospects tagged with the job they were found under. Items without a
// profile URL are dropped.
func prospectsFromItems(items []map[string]any, j model.Job, src model.ProspectSource) []model.Prospect {
	out := make([]model.Prospect, 0, len(items))
	for _, item := range items {
		d := model.Document(item)
		u := d.String("profileURL")
		if u == "" {
			u = d.String("url")
		}
		u = normalizeProfileURL(u)
		if u == "" {
			continue
		}
		name := d.String("fullName")
		if name == "" {
			name = d.String("name")
		}
		out = append(out, model.Prospect{
			ProfileURL:  u,
			FullName:    name,
			Headline:    d.String("headline"),
			Username:    d.String("username"),
			CompanyName: j.CompanyName,
			JobID:       j.JobID,
			JobURL:      j.JobURL,
			Source:      src,
		})
	}
	return out
}

// dedupProspects keeps the first prospect per profile URL.
func dedupProspects(in []model.Prospect) []model.Prospect {
	seen := make(map[string]bool, len(in))
	out := make([]model.Prospect, 0, len(in))
	for _, p := range in {
		if seen[p.ProfileURL] {
			continue
		}
		seen[p.ProfileURL] = true
		out = append(out, p)
	}
	return out
}

// recentPosts returns the original (non-repost) posts published at or after
// since. Posts without a parseable date are kept.
func recentPosts(posts []model.Post, since time.Time) []model.Post {
	var out []model.Post
	for _, p := range posts {
		if p.Repost {
			continue
		}
		if !p.PostedAt.IsZero() && p.PostedAt.Before(since) {
			continue
		}
		out = append(out, p)
	}
	return out
}

// account groups an ICP company with the jobs, contacts and posts found for
// it. name is the company name as it appeared on the job postings.
type account struct {
	company  model.Company
	name     string
	jobs     []model.Job
	contacts []model.Contact
	posts    []model.Post
}

// key identifies the account in per-company result maps.
func (a *account) key() string {
	return a.company.LinkedinURL
}

// postsBy returns the account's posts owned by username.
func (a *account) postsBy(username string) []model.Post {
	var out []model.Post
	for _, p := range a.posts {
		if p.Username == username {
			out = append(out, p)
		}
	}
	return out
}

// jobFor picks the job a contact is associated with: the posting it was
// found under, else the company's first-seen posting.
func (a *account) jobFor(c model.Contact) (model.Job, bool) {
	if c.JobID != "" {
		for _, j := range a.jobs {
			if j.JobID == c.JobID {
				return j, true
			}
		}
	}
	if len(a.jobs) > 0 {
		return a.jobs[0], true
	}
	return model.Job{}, false
}

// groupAccounts builds one account per ICP company that has contacts.
func groupAccounts(d *discovery, contacts []model.Contact, posts []model.Post) []*account {
	byUser := make(map[string][]model.Post)
	for _, p := range posts {
		byUser[p.Username] = append(byUser[p.Username], p)
	}

	var out []*account
	for _, c := range d.icp {
		jobs := d.jobsFor(c.LinkedinURL)
		if len(jobs) == 0 {
			continue
		}
		a := &account{company: c, name: jobs[0].CompanyName, jobs: jobs}
		for _, ct := range contacts {
			if !model.SameCompanyName(ct.Company, a.name) {
				continue
			}
			a.contacts = append(a.contacts, ct)
			a.posts = append(a.posts, byUser[ct.Username]...)
		}
		if len(a.contacts) > 0 {
			out = append(out, a)
		}
	}
	return out
}

// accountFor returns the account whose job company name matches company.
func accountFor(accts []*account, company string) *account {
	for _, a := range accts {
		if model.SameCompanyName(a.name, company) {
			return a
		}
	}
	return nil
}
