package pipeline

import (
	"context"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/sells-group/leadgen-cli/internal/metrics"
	"github.com/sells-group/leadgen-cli/internal/model"
	"github.com/sells-group/leadgen-cli/internal/prompts"
	"github.com/sells-group/leadgen-cli/pkg/anthropic"
)

var (
	emailsBlockRe = regexp.MustCompile(`(?s)<emails>(.*?)</emails>`)
	emailItemRe   = regexp.MustCompile(`(?s)<email>(.*?)</email>`)
	sequenceTagRe = regexp.MustCompile(`(?s)<sequence>(.*?)</sequence>`)
	subjectTagRe  = regexp.MustCompile(`(?s)<subject>(.*?)</subject>`)
	bodyTagRe     = regexp.MustCompile(`(?s)<body>(.*?)</body>`)
)

// ParseSequence extracts the email items of a tagged sequence response. A
// missing sub-tag yields an empty field. Bodies are stripped of sign-offs
// and collapsed to one line.
func ParseSequence(text string) []model.EmailSequenceItem {
	if m := emailsBlockRe.FindStringSubmatch(text); m != nil {
		text = m[1]
	}
	blocks := emailItemRe.FindAllStringSubmatch(text, -1)
	items := make([]model.EmailSequenceItem, 0, len(blocks))
	for _, b := range blocks {
		items = append(items, model.EmailSequenceItem{
			Sequence: tagValue(sequenceTagRe, b[1]),
			Subject:  tagValue(subjectTagRe, b[1]),
			Body:     model.RemoveLineBreaks(model.StripClosing(tagValue(bodyTagRe, b[1]))),
		})
	}
	return items
}

func tagValue(re *regexp.Regexp, block string) string {
	m := re.FindStringSubmatch(block)
	if m == nil {
		return ""
	}
	return strings.TrimSpace(m[1])
}

// generateSequences writes a five email cadence for every contact, one
// contact at a time. Contacts whose response yields no items get no entry.
func (r *run) generateSequences(ctx context.Context, contacts []model.Contact, accts []*account) map[string]model.EmailData {
	since := r.p.now().Add(-r.p.cfg.Pipeline.QuestionnaireWindow)
	out := make(map[string]model.EmailData, len(contacts))

	for _, c := range contacts {
		if ctx.Err() != nil {
			break
		}
		data := prompts.SequenceData{
			FirstName:   c.FirstName,
			LastName:    c.LastName,
			Headline:    c.Headline,
			Title:       c.Title,
			Company:     c.Company,
			Industry:    c.CompanyIndustry,
			Summary:     c.Summary,
			Description: c.Description,
			Skills:      c.Skills,
			Positions:   c.Positions,
		}
		if a := accountFor(accts, c.Company); a != nil {
			data.Jobs = a.jobs
			data.Posts = recentPosts(a.postsBy(c.Username), since)
			if data.Industry == "" {
				data.Industry = a.company.Industry
			}
		}

		rendered, err := r.p.prompts.RenderSequence(data)
		if err != nil {
			r.log.Warn("pipeline: render sequence prompt", zap.String("profile_url", c.ProfileURL), zap.Error(err))
			r.p.metrics.Item(StageSequence, metrics.OutcomeFailed)
			continue
		}
		text, err := r.complete(ctx, StageSequence, rendered, false)
		if err != nil {
			r.log.Warn("pipeline: sequence generation failed", zap.String("profile_url", c.ProfileURL), zap.Error(err))
			r.p.metrics.Item(StageSequence, metrics.OutcomeFailed)
			continue
		}
		items := ParseSequence(text)
		if len(items) == 0 {
			r.log.Warn("pipeline: sequence response had no emails", zap.String("profile_url", c.ProfileURL))
			r.p.metrics.Item(StageSequence, metrics.OutcomeSkipped)
			continue
		}

		out[c.ProfileURL] = model.FlattenSequence(items)
		r.p.metrics.Item(StageSequence, metrics.OutcomeOK)
	}

	r.q.Counts.Sequences = len(out)
	r.report("Generated %d of %d email sequences", len(out), len(contacts))
	return out
}

// complete sends a rendered prompt and returns the prefill joined with the
// reply text. cache marks the system prompt as a cache breakpoint.
func (r *run) complete(ctx context.Context, phase string, p prompts.Rendered, cache bool) (string, error) {
	cfg := r.p.cfg.Anthropic
	temp := cfg.Temperature
	req := anthropic.MessageRequest{
		Model:       cfg.Model,
		MaxTokens:   cfg.MaxTokens,
		Temperature: &temp,
		Messages:    []anthropic.Message{{Role: "user", Content: p.User}},
	}
	switch {
	case p.System == "":
	case cache:
		req.System = anthropic.CachedSystem(p.System, "")
	default:
		req.System = []anthropic.SystemBlock{{Text: p.System}}
	}
	if p.Prefill != "" {
		req.Messages = append(req.Messages, anthropic.Message{Role: "assistant", Content: p.Prefill})
	}

	resp, err := call(ctx, r, "anthropic", phase, func(ctx context.Context) (*anthropic.MessageResponse, error) {
		return r.p.ai.CreateMessage(ctx, req)
	})
	if err != nil {
		return "", err
	}
	u := r.ledger.Record(phase, resp.Usage)
	r.p.metrics.LLMUsage(u.InputTokens, u.OutputTokens, u.CostUSD)
	return p.Prefill + resp.Text(), nil
}
