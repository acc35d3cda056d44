package model

import (
	"strings"
	"time"
)

// PostAuthor is the compact author reference kept on a post.
type PostAuthor struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Headline  string `json:"headline"`
	Username  string `json:"username"`
	URL       string `json:"url"`
}

// ResharedPost summarizes the post a repost points at.
type ResharedPost struct {
	Text      string `json:"text"`
	PostURL   string `json:"postUrl"`
	Author    string `json:"author"`
	AuthorURL string `json:"author_url"`
	URL       string `json:"url"`
}

// Post is a cleaned LinkedIn post owned by a contact.
type Post struct {
	PostURL      string         `json:"postUrl"`
	Username     string         `json:"username"`
	Text         string         `json:"text"`
	PostedDate   string         `json:"postedDate,omitempty"`
	PostedAt     time.Time      `json:"posted_at,omitzero"`
	Repost       bool           `json:"repost"`
	Author       []PostAuthor   `json:"author"`
	ResharedPost []ResharedPost `json:"resharedPost"`
}

var postedDateLayouts = []string{
	"2006-01-02 15:04:05.999999999 -0700 MST",
	"2006-01-02 15:04:05 -0700 MST",
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ParsePostedDate parses the upstream postedDate string, e.g.
// "2025-05-20 14:12:33.123 +0000 UTC". ok is false when no layout matches.
func ParsePostedDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range postedDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

// PostAuthors compacts an author payload; a single object is treated as a
// one-element list and anything else yields an empty slice.
func PostAuthors(v any) []PostAuthor {
	docs := AsDocuments(v)
	out := make([]PostAuthor, 0, len(docs))
	for _, a := range docs {
		out = append(out, PostAuthor{
			FirstName: a.String("firstName"),
			LastName:  a.String("lastName"),
			Headline:  a.String("headline"),
			Username:  a.String("username"),
			URL:       a.String("url"),
		})
	}
	return out
}

// ResharedPosts compacts a resharedPost payload the same way as PostAuthors.
func ResharedPosts(v any) []ResharedPost {
	docs := AsDocuments(v)
	out := make([]ResharedPost, 0, len(docs))
	for _, r := range docs {
		author := r.String("author")
		if a := r.Map("author"); a != nil {
			author = strings.TrimSpace(a.String("firstName") + " " + a.String("lastName"))
		}
		out = append(out, ResharedPost{
			Text:      r.String("text"),
			PostURL:   r.String("postUrl"),
			Author:    author,
			AuthorURL: r.String("url"),
			URL:       r.String("url"),
		})
	}
	return out
}

// PostFromDocument cleans a raw post. The owning username is taken from the
// document's username tag. ok is false when the post has no URL.
func PostFromDocument(d Document) (Post, bool) {
	p := Post{
		PostURL:      d.String("postUrl"),
		Username:     d.String("username"),
		Text:         d.String("text"),
		PostedDate:   d.String("postedDate"),
		Repost:       d.Bool("reposted"),
		Author:       PostAuthors(d["author"]),
		ResharedPost: ResharedPosts(d["resharedPost"]),
	}
	if p.Username == "" {
		p.Username = d.String("Username")
	}
	if t, ok := ParsePostedDate(p.PostedDate); ok {
		p.PostedAt = t
	} else if ms := d.Int("postedDateTimestamp"); ms > 0 {
		p.PostedAt = time.UnixMilli(ms).UTC()
	}
	return p, p.PostURL != ""
}
