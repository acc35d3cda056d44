package pipeline

import (
	"context"

	"go.uber.org/zap"

	"github.com/sells-group/leadgen-cli/internal/metrics"
	"github.com/sells-group/leadgen-cli/internal/model"
	"github.com/sells-group/leadgen-cli/internal/store"
)

// fetchPosts collects recent posts for every contact. Posts stored within
// the freshness window are reused; otherwise the contact's posts are fetched
// and tagged with the owning username.
func (r *run) fetchPosts(ctx context.Context, contacts []model.Contact) ([]model.Post, error) {
	cfg := r.p.cfg.Pipeline
	since := r.p.now().Add(-cfg.PostFreshness)

	var usernames []string
	seenUser := make(map[string]bool)
	for _, c := range contacts {
		if c.Username == "" || seenUser[c.Username] {
			continue
		}
		seenUser[c.Username] = true
		usernames = append(usernames, c.Username)
	}

	var (
		posts     []model.Post
		fetched   []model.Document
		cleanDocs []model.Document
		reused    int
	)
	seenPost := make(map[string]bool)
	for _, u := range usernames {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		docs, err := r.p.store.FindBy(ctx, store.RawPosts, "username", []string{u}, since)
		if err != nil {
			r.log.Warn("pipeline: read cached posts", zap.String("username", u), zap.Error(err))
		}
		if len(docs) > 0 {
			reused++
		} else {
			items, err := call(ctx, r, "rapidapi", "get_profile_posts", func(ctx context.Context) ([]map[string]any, error) {
				return r.p.source.GetProfilePosts(ctx, u)
			})
			r.throttle(ctx, cfg.PostDelay)
			if err != nil {
				r.log.Warn("pipeline: post lookup failed", zap.String("username", u), zap.Error(err))
				r.p.metrics.Item(StagePosts, metrics.OutcomeFailed)
				continue
			}
			for _, item := range items {
				d := model.Document(item)
				d["username"] = u
				docs = append(docs, d)
				fetched = append(fetched, d)
			}
		}

		for _, d := range docs {
			p, ok := model.PostFromDocument(d)
			if !ok || seenPost[p.PostURL] {
				continue
			}
			seenPost[p.PostURL] = true
			p.Username = u
			doc, err := model.ToDocument(p)
			if err != nil {
				continue
			}
			posts = append(posts, p)
			cleanDocs = append(cleanDocs, doc)
		}
		r.p.metrics.Item(StagePosts, metrics.OutcomeOK)
	}

	r.upsert(ctx, store.RawPosts, fetched)
	r.upsert(ctx, store.Posts, cleanDocs)

	r.q.Counts.Posts = len(posts)
	r.log.Info("pipeline: posts collected",
		zap.Int("contacts", len(usernames)),
		zap.Int("reused", reused),
		zap.Int("posts", len(posts)),
	)
	return posts, nil
}
