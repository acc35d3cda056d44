package pipeline

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/leadgen-cli/internal/model"
	"github.com/sells-group/leadgen-cli/internal/store"
)

// export upserts the final records to FinalData, then hands them to each
// sink in turn. A failed write is logged and the sinks still run. Sink
// failures are logged and counted, never returned.
func (r *run) export(ctx context.Context, records []model.FinalRecord) error {
	docs := make([]model.Document, 0, len(records))
	for _, rec := range records {
		doc, err := model.ToDocument(rec)
		if err != nil {
			return eris.Wrapf(err, "pipeline: encode final record %s", rec.ProfileURL)
		}
		docs = append(docs, doc)
	}
	res := r.upsert(ctx, store.FinalData, docs)
	r.log.Info("pipeline: final records stored",
		zap.Int("attempted", len(docs)),
		zap.Int("upserted", res.Upserted()),
	)

	for _, s := range r.p.sinks {
		res, err := s.Push(ctx, records)
		if err != nil {
			r.log.Error("pipeline: sink failed", zap.String("sink", s.Name()), zap.Error(err))
		}
		r.log.Info("pipeline: sink complete",
			zap.String("sink", s.Name()),
			zap.Int("pushed", res.Pushed),
			zap.Int("failed", res.Failed),
			zap.Int("skipped", res.Skipped),
		)
		r.q.Counts.Pushed += res.Pushed
		r.q.Counts.PushFailed += res.Failed
	}

	r.report("Exported %d records (%d pushed, %d failed)", len(records), r.q.Counts.Pushed, r.q.Counts.PushFailed)
	return nil
}
