// Package store persists pipeline documents in keyed collections. Every
// collection declares one unique key field; writes are upserts on that key.
package store

import (
	"context"
	"regexp"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/leadgen-cli/internal/model"
)

// Collection names a logical document collection.
type Collection string

const (
	RawJobs    Collection = "RawJobs"
	Jobs       Collection = "Jobs"
	RawCompany Collection = "RawCompany"
	Company    Collection = "Company"
	RawPeople  Collection = "RawPeople"
	People     Collection = "People"
	RawPosts   Collection = "RawPosts"
	Posts      Collection = "Posts"
	FinalData  Collection = "FinalData"
	Query      Collection = "Query"
)

// IngestedField is added to every stored document at write time.
const IngestedField = "message_date"

var collectionKeys = map[Collection]string{
	RawJobs:    "job_id",
	Jobs:       "job_id",
	RawCompany: "companyId",
	Company:    "companyId",
	RawPeople:  "profileURL",
	People:     "profileURL",
	RawPosts:   "postUrl",
	Posts:      "postUrl",
	FinalData:  "profileURL",
	Query:      "query_id",
}

// indexedFields are document fields with an expression index, used by FindBy
// lookups in the pipeline.
var indexedFields = []struct {
	Collection Collection
	Field      string
}{
	{RawCompany, "linkedinUrl"},
	{RawPosts, "username"},
	{FinalData, "company"},
}

// Collections returns every known collection.
func Collections() []Collection {
	return []Collection{RawJobs, Jobs, RawCompany, Company, RawPeople, People, RawPosts, Posts, FinalData, Query}
}

// Key returns the unique key field of c.
func (c Collection) Key() string {
	return collectionKeys[c]
}

// Valid reports whether c is a known collection.
func (c Collection) Valid() bool {
	_, ok := collectionKeys[c]
	return ok
}

// UpsertResult reports the outcome of a bulk upsert. Skipped counts documents
// without a key value; Duplicates counts documents collapsed because an
// earlier document in the same batch had the same key.
type UpsertResult struct {
	Attempted  int `json:"attempted"`
	Inserted   int `json:"inserted"`
	Updated    int `json:"updated"`
	Skipped    int `json:"skipped"`
	Duplicates int `json:"duplicates"`
}

// Upserted returns the number of documents written.
func (r UpsertResult) Upserted() int {
	return r.Inserted + r.Updated
}

// Add accumulates another result.
func (r *UpsertResult) Add(o UpsertResult) {
	r.Attempted += o.Attempted
	r.Inserted += o.Inserted
	r.Updated += o.Updated
	r.Skipped += o.Skipped
	r.Duplicates += o.Duplicates
}

// ListOptions pages through a collection, newest first.
type ListOptions struct {
	Limit  int
	Offset int
}

// Store defines the persistence interface for the lead pipeline.
type Store interface {
	// UpsertDocuments writes docs keyed by the collection's key field and
	// stamps each with the ingestion time.
	UpsertDocuments(ctx context.Context, c Collection, docs []model.Document) (UpsertResult, error)
	// GetDocument returns the document stored under key, or nil when absent.
	GetDocument(ctx context.Context, c Collection, key string) (model.Document, error)
	// ExistingKeys returns the subset of keys already stored in c.
	ExistingKeys(ctx context.Context, c Collection, keys []string) (map[string]bool, error)
	// FindBy returns documents whose field equals one of values and that were
	// ingested at or after since. A zero since matches everything.
	FindBy(ctx context.Context, c Collection, field string, values []string, since time.Time) ([]model.Document, error)
	ListDocuments(ctx context.Context, c Collection, opts ListOptions) ([]model.Document, error)
	Count(ctx context.Context, c Collection) (int, error)

	Ping(ctx context.Context) error
	Migrate(ctx context.Context) error
	Close() error
}

var fieldNameRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

func checkCollection(c Collection) error {
	if !c.Valid() {
		return eris.Errorf("store: unknown collection %q", c)
	}
	return nil
}

func checkField(field string) error {
	if !fieldNameRe.MatchString(field) {
		return eris.Errorf("store: invalid field name %q", field)
	}
	return nil
}

// keyedDoc is a document ready for writing.
type keyedDoc struct {
	key  string
	body model.Document
}

// prepareBatch stamps docs with now, drops documents without a key and
// collapses in-batch duplicates (the last write for a key wins, at the
// position of its first occurrence).
func prepareBatch(c Collection, docs []model.Document, now time.Time) ([]keyedDoc, UpsertResult) {
	res := UpsertResult{Attempted: len(docs)}
	keyField := c.Key()
	index := make(map[string]int, len(docs))
	out := make([]keyedDoc, 0, len(docs))
	stamp := FormatTime(now)
	for _, d := range docs {
		key := d.String(keyField)
		if key == "" {
			res.Skipped++
			continue
		}
		body := d.Clone()
		body[IngestedField] = stamp
		if i, ok := index[key]; ok {
			out[i].body = body
			res.Duplicates++
			continue
		}
		index[key] = len(out)
		out = append(out, keyedDoc{key: key, body: body})
	}
	return out, res
}

// TimeLayout is the fixed-width UTC layout of the ingestion timestamp, so
// that lexical order matches time order.
const TimeLayout = "2006-01-02T15:04:05.000000Z"

// FormatTime renders t in TimeLayout.
func FormatTime(t time.Time) string {
	return t.UTC().Format(TimeLayout)
}

// IngestedAt parses the ingestion timestamp of a stored document.
func IngestedAt(d model.Document) (time.Time, bool) {
	t, err := time.Parse(TimeLayout, d.String(IngestedField))
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}
