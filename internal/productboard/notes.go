package productboard

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
)

// NoteCreate carries the writable fields for note creation.
type NoteCreate struct {
	Title      string
	Content    string
	DisplayURL string
	Tags       []string
	// UserEmail attributes the note to a customer contact
	UserEmail string
}

// NoteFilter narrows a note list.
type NoteFilter struct {
	// Term is a server-side search term (notes are the one collection the
	// API can search natively)
	Term       string
	FeatureID  string
	CompanyID  string
	OwnerEmail string
	AnyTag     string
	Limit      int
}

func (f NoteFilter) query() url.Values {
	q := url.Values{}
	if f.Term != "" {
		q.Set("term", f.Term)
	}
	if f.FeatureID != "" {
		q.Set("featureId", f.FeatureID)
	}
	if f.CompanyID != "" {
		q.Set("companyId", f.CompanyID)
	}
	if f.OwnerEmail != "" {
		q.Set("ownerEmail", f.OwnerEmail)
	}
	if f.AnyTag != "" {
		q.Set("anyTag", f.AnyTag)
	}
	return q
}

func (f NoteFilter) cacheParams() map[string]any {
	params := map[string]any{}
	if f.Term != "" {
		params["term"] = f.Term
	}
	if f.FeatureID != "" {
		params["featureId"] = f.FeatureID
	}
	if f.CompanyID != "" {
		params["companyId"] = f.CompanyID
	}
	if f.OwnerEmail != "" {
		params["ownerEmail"] = f.OwnerEmail
	}
	if f.AnyTag != "" {
		params["anyTag"] = f.AnyTag
	}
	if f.Limit > 0 {
		params["limit"] = strconv.Itoa(f.Limit)
	}
	return params
}

// CreateNote creates a feedback note and invalidates cached note reads.
func (c *Client) CreateNote(ctx context.Context, input NoteCreate) (Note, error) {
	body := map[string]any{
		"title": input.Title,
	}
	if input.Content != "" {
		body["content"] = input.Content
	}
	if input.DisplayURL != "" {
		body["displayUrl"] = input.DisplayURL
	}
	if len(input.Tags) > 0 {
		body["tags"] = input.Tags
	}
	if input.UserEmail != "" {
		body["user"] = map[string]any{"email": input.UserEmail}
	}

	raw, err := c.Request(ctx, http.MethodPost, "/notes", nil, body)
	if err != nil {
		return Note{}, err
	}

	c.invalidateNoteReads()
	return decodeData[Note](raw)
}

// ListNotes returns notes matching the filter, paginated to completion (or
// to filter.Limit). Cached per filter.
func (c *Client) ListNotes(ctx context.Context, filter NoteFilter) ([]Note, error) {
	key := GenerateKey("note_list", filter.cacheParams())
	value, err := c.cache.Wrap(key, func() (any, error) {
		items, err := c.Paginate(ctx, "/notes", filter.query(), filter.Limit)
		if err != nil {
			return nil, err
		}
		return decodeItems[Note](items)
	})
	if err != nil {
		return nil, err
	}
	return value.([]Note), nil
}

// AttachNoteToFeature links a note to a feature so the feedback shows up
// on the feature's insights, then invalidates cached note reads.
func (c *Client) AttachNoteToFeature(ctx context.Context, noteID, featureID string) error {
	body := map[string]any{
		"type": "feature",
		"id":   featureID,
	}
	path := "/notes/" + url.PathEscape(noteID) + "/links"
	if _, err := c.Request(ctx, http.MethodPost, path, nil, body); err != nil {
		return err
	}

	c.invalidateNoteReads()
	return nil
}

func (c *Client) invalidateNoteReads() {
	c.cache.InvalidatePrefix("note_list:")
	c.cache.InvalidatePrefix("search:")
}
