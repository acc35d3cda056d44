package notion

import (
	"context"
	"fmt"

	"github.com/jomei/notionapi"
	"github.com/rotisserie/eris"
)

// maxTextLen is Notion's limit for one rich text object.
const maxTextLen = 2000

// Row is one record mirrored into a database. KeyProperty holds Key as rich
// text and identifies the page on later runs. Title fills the title
// property named TitleProperty.
type Row struct {
	KeyProperty   string
	Key           string
	TitleProperty string
	Title         string
	URLs          map[string]string
	Fields        map[string]string
}

// UpsertRow creates the page for row, or updates it in place when a page
// with the same key already exists. Returns true when a page was created.
func UpsertRow(ctx context.Context, c Client, dbID string, row Row) (bool, error) {
	if row.KeyProperty == "" || row.Key == "" {
		return false, eris.New("notion: row has no key")
	}

	pageID, err := findPage(ctx, c, dbID, row.KeyProperty, row.Key)
	if err != nil {
		return false, err
	}

	props := buildRowProperties(row)
	if pageID != "" {
		if _, err := c.UpdatePage(ctx, pageID, &notionapi.PageUpdateRequest{Properties: props}); err != nil {
			return false, eris.Wrap(err, fmt.Sprintf("notion: update row %s", row.Key))
		}
		return false, nil
	}

	req := &notionapi.PageCreateRequest{
		Parent: notionapi.Parent{
			Type:       notionapi.ParentTypeDatabaseID,
			DatabaseID: notionapi.DatabaseID(dbID),
		},
		Properties: props,
	}
	if _, err := c.CreatePage(ctx, req); err != nil {
		return false, eris.Wrap(err, fmt.Sprintf("notion: create row %s", row.Key))
	}
	return true, nil
}

// findPage returns the id of the first page whose rich text property equals
// key, or "" when there is none.
func findPage(ctx context.Context, c Client, dbID, property, key string) (string, error) {
	resp, err := c.QueryDatabase(ctx, dbID, &notionapi.DatabaseQueryRequest{
		Filter: notionapi.PropertyFilter{
			Property: property,
			RichText: &notionapi.TextFilterCondition{Equals: key},
		},
		PageSize: 1,
	})
	if err != nil {
		return "", eris.Wrapf(err, "notion: find %s = %q", property, key)
	}
	if len(resp.Results) == 0 {
		return "", nil
	}
	return string(resp.Results[0].ID), nil
}

func buildRowProperties(row Row) notionapi.Properties {
	props := make(notionapi.Properties, len(row.Fields)+len(row.URLs)+2)

	titleProp := row.TitleProperty
	if titleProp == "" {
		titleProp = "Name"
	}
	props[titleProp] = notionapi.TitleProperty{
		Type:  notionapi.PropertyTypeTitle,
		Title: richText(row.Title),
	}
	props[row.KeyProperty] = notionapi.RichTextProperty{
		Type:     notionapi.PropertyTypeRichText,
		RichText: richText(row.Key),
	}

	for k, v := range row.URLs {
		if v == "" {
			continue
		}
		props[k] = notionapi.URLProperty{
			Type: notionapi.PropertyTypeURL,
			URL:  v,
		}
	}

	for k, v := range row.Fields {
		props[k] = notionapi.RichTextProperty{
			Type:     notionapi.PropertyTypeRichText,
			RichText: richText(v),
		}
	}
	return props
}

// richText splits s into text objects no longer than maxTextLen runes.
func richText(s string) []notionapi.RichText {
	runes := []rune(s)
	if len(runes) == 0 {
		return []notionapi.RichText{}
	}
	out := make([]notionapi.RichText, 0, len(runes)/maxTextLen+1)
	for start := 0; start < len(runes); start += maxTextLen {
		end := min(start+maxTextLen, len(runes))
		out = append(out, notionapi.RichText{
			Type: notionapi.ObjectTypeText,
			Text: &notionapi.Text{Content: string(runes[start:end])},
		})
	}
	return out
}
