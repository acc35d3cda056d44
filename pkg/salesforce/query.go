package salesforce

import (
	"context"
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
)

// Lead represents a Salesforce Lead record.
type Lead struct {
	ID          string `json:"Id" salesforce:"Id"`
	Email       string `json:"Email" salesforce:"Email"`
	FirstName   string `json:"FirstName" salesforce:"FirstName"`
	LastName    string `json:"LastName" salesforce:"LastName"`
	Company     string `json:"Company" salesforce:"Company"`
	Title       string `json:"Title" salesforce:"Title"`
	Website     string `json:"Website" salesforce:"Website"`
	Industry    string `json:"Industry" salesforce:"Industry"`
	LeadSource  string `json:"LeadSource" salesforce:"LeadSource"`
	Description string `json:"Description" salesforce:"Description"`
}

// leadFields are the SOQL fields selected for Lead queries.
var leadFields = []string{
	"Id", "Email", "FirstName", "LastName", "Company", "Title",
	"Website", "Industry", "LeadSource", "Description",
}

// FindLeadIDsByEmail returns the Lead IDs for the given emails, keyed by
// lowercased email. Emails are queried in batches of maxBatchSize.
func FindLeadIDsByEmail(ctx context.Context, c Client, emails []string) (map[string]string, error) {
	out := make(map[string]string, len(emails))
	for start := 0; start < len(emails); start += maxBatchSize {
		end := min(start+maxBatchSize, len(emails))

		quoted := make([]string, 0, end-start)
		for _, e := range emails[start:end] {
			quoted = append(quoted, "'"+escapeSoql(e)+"'")
		}
		soql := fmt.Sprintf(
			"SELECT %s FROM Lead WHERE Email IN (%s)",
			strings.Join(leadFields, ", "),
			strings.Join(quoted, ", "),
		)

		var leads []Lead
		if err := c.Query(ctx, soql, &leads); err != nil {
			return nil, eris.Wrap(err, fmt.Sprintf("sf: find leads by email batch %d-%d", start, end))
		}
		for _, l := range leads {
			key := strings.ToLower(l.Email)
			if _, seen := out[key]; !seen {
				out[key] = l.ID
			}
		}
	}
	return out, nil
}

// escapeSoql escapes backslashes and single quotes in SOQL string literals.
func escapeSoql(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	return strings.ReplaceAll(s, "'", `\'`)
}
