package store

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/sells-group/leadgen-cli/internal/model"
)

// SaveQuery upserts a run record into the Query collection.
func SaveQuery(ctx context.Context, s Store, q *model.Query) error {
	d, err := model.ToDocument(q)
	if err != nil {
		return eris.Wrap(err, "store: encode query")
	}
	res, err := s.UpsertDocuments(ctx, Query, []model.Document{d})
	if err != nil {
		return eris.Wrapf(err, "store: save query %s", q.QueryID)
	}
	if res.Upserted() != 1 {
		return eris.Errorf("store: save query %s: nothing written", q.QueryID)
	}
	return nil
}

// GetQuery loads a run record. It returns nil when the run does not exist.
func GetQuery(ctx context.Context, s Store, id string) (*model.Query, error) {
	d, err := s.GetDocument(ctx, Query, id)
	if err != nil || d == nil {
		return nil, err
	}
	var q model.Query
	if err := d.Decode(&q); err != nil {
		return nil, eris.Wrapf(err, "store: decode query %s", id)
	}
	return &q, nil
}

// ListQueries returns run records, most recently written first.
func ListQueries(ctx context.Context, s Store, opts ListOptions) ([]model.Query, error) {
	docs, err := s.ListDocuments(ctx, Query, opts)
	if err != nil {
		return nil, err
	}
	out := make([]model.Query, 0, len(docs))
	for _, d := range docs {
		var q model.Query
		if err := d.Decode(&q); err != nil {
			return nil, eris.Wrap(err, "store: decode query")
		}
		out = append(out, q)
	}
	return out, nil
}
