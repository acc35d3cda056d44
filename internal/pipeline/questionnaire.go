package pipeline

import (
	"context"

	"go.uber.org/zap"

	"github.com/sells-group/leadgen-cli/internal/metrics"
	"github.com/sells-group/leadgen-cli/internal/model"
	"github.com/sells-group/leadgen-cli/internal/prompts"
)

// questionnaires answers the qualification questions once per account. The
// system prompt is shared by every account and is sent as a cache
// breakpoint. Results are keyed by account key.
func (r *run) questionnaires(ctx context.Context, accts []*account) map[string]model.Questionnaire {
	out := make(map[string]model.Questionnaire, len(accts))
	if r.p.cfg.Pipeline.SkipQuestionnaire {
		r.log.Info("pipeline: questionnaire skipped by configuration")
		return out
	}

	since := r.p.now().Add(-r.p.cfg.Pipeline.QuestionnaireWindow)
	for _, a := range accts {
		if ctx.Err() != nil {
			break
		}
		rendered, err := r.p.prompts.RenderQuestionnaire(prompts.QuestionnaireData{
			ICPMaxEmployees: r.p.cfg.Pipeline.ICPMaxEmployees,
			Company:         a.company,
			Jobs:            a.jobs,
			Contacts:        a.contacts,
			Posts:           recentPosts(a.posts, since),
		})
		if err != nil {
			r.log.Warn("pipeline: render questionnaire prompt", zap.String("company", a.name), zap.Error(err))
			r.p.metrics.Item(StageQuestionnaire, metrics.OutcomeFailed)
			continue
		}

		text, err := r.complete(ctx, StageQuestionnaire, rendered, true)
		if err != nil {
			r.log.Warn("pipeline: questionnaire generation failed", zap.String("company", a.name), zap.Error(err))
			r.p.metrics.Item(StageQuestionnaire, metrics.OutcomeFailed)
			continue
		}
		answers, err := model.ParseAnswers(text)
		if err != nil {
			r.log.Warn("pipeline: questionnaire response unparseable", zap.String("company", a.name), zap.Error(err))
			r.p.metrics.Item(StageQuestionnaire, metrics.OutcomeSkipped)
			continue
		}
		out[a.key()] = model.Questionnaire{Company: a.name, Answers: answers}
		r.p.metrics.Item(StageQuestionnaire, metrics.OutcomeOK)
	}

	r.report("Answered questionnaires for %d of %d companies", len(out), len(accts))
	return out
}
