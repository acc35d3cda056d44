package salesforce

import (
	"context"
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
)

const (
	leadObject = "Lead"
	// maxBatchSize is the Collections API limit per request.
	maxBatchSize = 200
)

// validateLead checks the fields Salesforce requires on every Lead.
func validateLead(fields map[string]any) error {
	if s, _ := fields["LastName"].(string); s == "" {
		return eris.New("sf: lead LastName is required")
	}
	if s, _ := fields["Company"].(string); s == "" {
		return eris.New("sf: lead Company is required")
	}
	return nil
}

// LeadUpsertResult tallies the outcome of UpsertLeads. Failed holds one
// message per rejected lead.
type LeadUpsertResult struct {
	Created int
	Updated int
	Failed  []string
}

// UpsertLeads matches leads to existing records by Email, updates the
// matches and inserts the rest. Both paths are sent through the Collections
// API in batches of 200. Leads missing Email or a required field are
// reported in Failed without being sent.
func UpsertLeads(ctx context.Context, c Client, leads []map[string]any) (LeadUpsertResult, error) {
	var res LeadUpsertResult
	if len(leads) == 0 {
		return res, nil
	}

	valid := make([]map[string]any, 0, len(leads))
	emails := make([]string, 0, len(leads))
	for _, l := range leads {
		email, _ := l["Email"].(string)
		if email == "" {
			res.Failed = append(res.Failed, "lead without Email")
			continue
		}
		if err := validateLead(l); err != nil {
			res.Failed = append(res.Failed, fmt.Sprintf("%s: %v", email, err))
			continue
		}
		valid = append(valid, l)
		emails = append(emails, email)
	}

	existing, err := FindLeadIDsByEmail(ctx, c, emails)
	if err != nil {
		return res, eris.Wrap(err, "sf: upsert leads")
	}

	var inserts []map[string]any
	var updates []CollectionRecord
	for _, l := range valid {
		email := l["Email"].(string)
		if id, ok := existing[strings.ToLower(email)]; ok {
			updates = append(updates, CollectionRecord{ID: id, Fields: l})
		} else {
			inserts = append(inserts, l)
		}
	}

	for start := 0; start < len(inserts); start += maxBatchSize {
		end := min(start+maxBatchSize, len(inserts))
		results, err := c.InsertCollection(ctx, leadObject, inserts[start:end])
		if err != nil {
			return res, eris.Wrap(err, fmt.Sprintf("sf: insert leads batch %d-%d", start, end))
		}
		for i, r := range results {
			if r.Success {
				res.Created++
				continue
			}
			res.Failed = append(res.Failed, fmt.Sprintf("%v: %s", inserts[start+i]["Email"], strings.Join(r.Errors, "; ")))
		}
	}

	for start := 0; start < len(updates); start += maxBatchSize {
		end := min(start+maxBatchSize, len(updates))
		results, err := c.UpdateCollection(ctx, leadObject, updates[start:end])
		if err != nil {
			return res, eris.Wrap(err, fmt.Sprintf("sf: update leads batch %d-%d", start, end))
		}
		for i, r := range results {
			if r.Success {
				res.Updated++
				continue
			}
			res.Failed = append(res.Failed, fmt.Sprintf("%v: %s", updates[start+i].Fields["Email"], strings.Join(r.Errors, "; ")))
		}
	}

	return res, nil
}
