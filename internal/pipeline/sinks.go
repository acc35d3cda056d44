package pipeline

import (
	"context"
	"fmt"
	"strconv"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/leadgen-cli/internal/model"
	"github.com/sells-group/leadgen-cli/internal/resilience"
	"github.com/sells-group/leadgen-cli/pkg/notion"
	"github.com/sells-group/leadgen-cli/pkg/salesforce"
	"github.com/sells-group/leadgen-cli/pkg/snov"
)

// SinkResult tallies one sink's push. Skipped counts records the sink does
// not accept, such as records without an email.
type SinkResult struct {
	Pushed  int `json:"pushed"`
	Failed  int `json:"failed"`
	Skipped int `json:"skipped"`
}

// Sink receives the final records of a run. A failure on one record must
// not stop the rest; the returned error is reserved for failures that
// prevented the push as a whole.
type Sink interface {
	Name() string
	Push(ctx context.Context, records []model.FinalRecord) (SinkResult, error)
}

// OutreachSink adds records with an email to a Snov.io prospect list.
type OutreachSink struct {
	client snov.Client
	listID string
	retry  resilience.Policy
}

// NewOutreachSink creates a sink that pushes to the Snov.io list listID.
func NewOutreachSink(client snov.Client, listID string) *OutreachSink {
	retry := resilience.RateLimitOnly(resilience.DefaultPolicy())
	retry.OnRetry = resilience.RetryLogger("snov", "add_prospect_to_list")
	return &OutreachSink{client: client, listID: listID, retry: retry}
}

// Name implements Sink.
func (s *OutreachSink) Name() string { return "snov" }

// Push implements Sink.
func (s *OutreachSink) Push(ctx context.Context, records []model.FinalRecord) (SinkResult, error) {
	var res SinkResult
	for _, rec := range records {
		if !rec.HasEmail() {
			res.Skipped++
			continue
		}
		if ctx.Err() != nil {
			return res, ctx.Err()
		}
		p := ProspectFromRecord(rec, s.listID)
		resp, err := resilience.DoVal(ctx, s.retry, func(ctx context.Context) (*snov.AddProspectResponse, error) {
			return s.client.AddProspectToList(ctx, p)
		})
		if err == nil && resp != nil && !resp.Success {
			err = eris.New(fmt.Sprintf("snov: prospect rejected: %s", resp.Message))
		}
		if err != nil {
			zap.L().Warn("pipeline: push prospect failed",
				zap.String("profile_url", rec.ProfileURL),
				zap.String("email", rec.Email),
				zap.Error(err),
			)
			res.Failed++
			continue
		}
		res.Pushed++
	}
	return res, nil
}

// ProspectFromRecord flattens a record into a list prospect: contact fields,
// Subject1..5 and Email1..5 custom fields, plus one custom field per
// question label holding the answer or N/A.
func ProspectFromRecord(rec model.FinalRecord, listID string) snov.ProspectRecord {
	fields := make(map[string]string, 2*model.SequenceLength+len(model.Questions))
	for i := 0; i < model.SequenceLength; i++ {
		n := strconv.Itoa(i + 1)
		fields["Subject"+n] = rec.EmailData.Subjects[i]
		fields["Email"+n] = rec.EmailData.Bodies[i]
	}
	for i, q := range model.Questions {
		answer := model.MissingAnswer
		if i < len(rec.Answers) && rec.Answers[i] != "" {
			answer = rec.Answers[i]
		}
		fields[q.Label] = answer
	}
	return snov.ProspectRecord{
		Email:        rec.Email,
		FullName:     rec.FullName,
		FirstName:    rec.FirstName,
		LastName:     rec.LastName,
		LinkedInURL:  rec.ProfileURL,
		Position:     rec.Title,
		CompanyName:  rec.Company,
		CompanySite:  rec.CompanySite,
		ListID:       listID,
		CustomFields: fields,
	}
}

// NotionSink mirrors records into a Notion database keyed by profile URL.
type NotionSink struct {
	client notion.Client
	dbID   string
}

// NewNotionSink creates a sink writing to database dbID.
func NewNotionSink(client notion.Client, dbID string) *NotionSink {
	return &NotionSink{client: client, dbID: dbID}
}

// Name implements Sink.
func (s *NotionSink) Name() string { return "notion" }

// Push implements Sink.
func (s *NotionSink) Push(ctx context.Context, records []model.FinalRecord) (SinkResult, error) {
	var res SinkResult
	for _, rec := range records {
		if ctx.Err() != nil {
			return res, ctx.Err()
		}
		if _, err := notion.UpsertRow(ctx, s.client, s.dbID, notionRow(rec)); err != nil {
			zap.L().Warn("pipeline: notion mirror failed", zap.String("profile_url", rec.ProfileURL), zap.Error(err))
			res.Failed++
			continue
		}
		res.Pushed++
	}
	return res, nil
}

func notionRow(rec model.FinalRecord) notion.Row {
	fields := map[string]string{
		"Company":      rec.Company,
		"Title":        rec.Title,
		"Email":        rec.Email,
		"Email Source": string(rec.EmailSource),
		"Job Title":    rec.JobTitle,
		"Query ID":     rec.QueryID,
	}
	for i := 0; i < model.SequenceLength; i++ {
		fields[model.SubjectKey(i+1)] = rec.EmailData.Subjects[i]
		fields[model.BodyKey(i+1)] = rec.EmailData.Bodies[i]
	}
	return notion.Row{
		KeyProperty:   "Profile URL",
		Key:           rec.ProfileURL,
		TitleProperty: "Name",
		Title:         rec.FullName,
		URLs: map[string]string{
			"LinkedIn":     rec.ProfileURL,
			"Job URL":      rec.JobURL,
			"Company Site": rec.CompanySite,
		},
		Fields: fields,
	}
}

// SalesforceSink upserts records with an email as Leads, matched by email.
type SalesforceSink struct {
	client salesforce.Client
}

// NewSalesforceSink creates a Lead sink.
func NewSalesforceSink(client salesforce.Client) *SalesforceSink {
	return &SalesforceSink{client: client}
}

// Name implements Sink.
func (s *SalesforceSink) Name() string { return "salesforce" }

// Push implements Sink.
func (s *SalesforceSink) Push(ctx context.Context, records []model.FinalRecord) (SinkResult, error) {
	var res SinkResult
	leads := make([]map[string]any, 0, len(records))
	for _, rec := range records {
		if !rec.HasEmail() || rec.EmailSource == model.EmailSourceFallback {
			res.Skipped++
			continue
		}
		leads = append(leads, leadFields(rec))
	}
	if len(leads) == 0 {
		return res, nil
	}

	out, err := salesforce.UpsertLeads(ctx, s.client, leads)
	res.Pushed = out.Created + out.Updated
	res.Failed = len(out.Failed)
	for _, msg := range out.Failed {
		zap.L().Warn("pipeline: lead rejected", zap.String("reason", msg))
	}
	if err != nil {
		res.Failed = len(leads) - res.Pushed
		return res, eris.Wrap(err, "pipeline: salesforce upsert")
	}
	return res, nil
}

func leadFields(rec model.FinalRecord) map[string]any {
	company := rec.Company
	if company == "" {
		company = "Unknown"
	}
	return map[string]any{
		"FirstName":   rec.FirstName,
		"LastName":    rec.LastName,
		"Email":       rec.Email,
		"Company":     company,
		"Title":       rec.Title,
		"Website":     rec.CompanySite,
		"Industry":    rec.Industry,
		"LeadSource":  "LinkedIn Jobs",
		"Description": rec.Headline,
	}
}
