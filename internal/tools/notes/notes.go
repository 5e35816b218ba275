package notes

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/sammcj/mcp-productboard/internal/productboard"
	"github.com/sammcj/mcp-productboard/internal/registry"
	"github.com/sammcj/mcp-productboard/internal/tools"
	"github.com/sammcj/mcp-productboard/internal/utils/htmlclean"
	"github.com/sirupsen/logrus"
)

// sanitiser cleans note HTML before content goes back to the agent
var sanitiser = htmlclean.New()

// CreateTool records a piece of customer feedback as a note.
type CreateTool struct{}

func init() {
	registry.Register(&CreateTool{})
	registry.Register(&ListTool{})
	registry.Register(&AttachTool{})
}

// Definition returns the tool's definition for MCP registration
func (t *CreateTool) Definition() mcp.Tool {
	return mcp.NewTool(
		"pb_note_create",
		mcp.WithDescription("Create a feedback note in Productboard. Optionally link it to a feature in the same call so the feedback shows up on the feature's insights."),
		mcp.WithString("title",
			mcp.Required(),
			mcp.Description("Note title"),
		),
		mcp.WithString("content",
			mcp.Description("Note body (plain text or HTML)"),
		),
		mcp.WithString("display_url",
			mcp.Description("Source URL the feedback came from"),
		),
		mcp.WithArray("tags",
			mcp.Description("Tags to apply to the note"),
			mcp.WithStringItems(),
		),
		mcp.WithString("user_email",
			mcp.Description("Email of the customer the feedback is attributed to"),
		),
		mcp.WithString("feature_id",
			mcp.Description("Feature id to link the note to after creation"),
		),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithIdempotentHintAnnotation(false),
		mcp.WithOpenWorldHintAnnotation(true),
	)
}

// Execute creates the note and optionally attaches it to a feature
func (t *CreateTool) Execute(ctx context.Context, logger *logrus.Logger, client *productboard.Client, args map[string]any) (*mcp.CallToolResult, error) {
	title, err := tools.RequiredStringArg(args, "title")
	if err != nil {
		return nil, err
	}

	input := productboard.NoteCreate{
		Title:      title,
		Content:    tools.StringArg(args, "content"),
		DisplayURL: tools.StringArg(args, "display_url"),
		Tags:       tools.StringSliceArg(args, "tags"),
		UserEmail:  tools.StringArg(args, "user_email"),
	}

	logger.WithField("title", title).Debug("Creating note")
	note, err := client.CreateNote(ctx, input)
	if err != nil {
		return nil, err
	}

	result := map[string]any{"note": note}
	if featureID := tools.StringArg(args, "feature_id"); featureID != "" {
		if err := client.AttachNoteToFeature(ctx, note.ID, featureID); err != nil {
			// The note exists; report the failed link rather than discard it
			logger.WithError(err).WithField("feature_id", featureID).Warn("Note created but feature link failed")
			result["link_error"] = err.Error()
		} else {
			result["linked_feature_id"] = featureID
		}
	}

	return tools.NewJSONResult(result)
}

// ListTool lists notes with optional filters.
type ListTool struct{}

// Definition returns the tool's definition for MCP registration
func (t *ListTool) Definition() mcp.Tool {
	return mcp.NewTool(
		"pb_note_list",
		mcp.WithDescription("List feedback notes. Supports the API's native note search term plus feature, company, owner and tag filters. Note content is returned as sanitised plain text."),
		mcp.WithString("term",
			mcp.Description("Server-side search term over note content"),
		),
		mcp.WithString("feature_id",
			mcp.Description("Only notes linked to this feature"),
		),
		mcp.WithString("company_id",
			mcp.Description("Only notes from this company"),
		),
		mcp.WithString("owner_email",
			mcp.Description("Only notes owned by this email"),
		),
		mcp.WithString("tag",
			mcp.Description("Only notes carrying this tag"),
		),
		mcp.WithNumber("limit",
			mcp.Description("Maximum number of notes to return (default: all)"),
		),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithIdempotentHintAnnotation(true),
		mcp.WithOpenWorldHintAnnotation(true),
	)
}

// Execute lists notes matching the filters
func (t *ListTool) Execute(ctx context.Context, logger *logrus.Logger, client *productboard.Client, args map[string]any) (*mcp.CallToolResult, error) {
	filter := productboard.NoteFilter{
		Term:       tools.StringArg(args, "term"),
		FeatureID:  tools.StringArg(args, "feature_id"),
		CompanyID:  tools.StringArg(args, "company_id"),
		OwnerEmail: tools.StringArg(args, "owner_email"),
		AnyTag:     tools.StringArg(args, "tag"),
		Limit:      tools.IntArg(args, "limit", 0),
	}

	notes, err := client.ListNotes(ctx, filter)
	if err != nil {
		return nil, err
	}

	// Note bodies arrive as HTML; reduce them to bounded plain text
	cleaned := make([]productboard.Note, len(notes))
	for i, note := range notes {
		note.Content = htmlclean.Truncate(sanitiser.Clean(note.Content), htmlclean.DefaultMaxLength)
		cleaned[i] = note
	}

	return tools.NewJSONResult(map[string]any{
		"count": len(cleaned),
		"notes": cleaned,
	})
}

// AttachTool links an existing note to a feature.
type AttachTool struct{}

// Definition returns the tool's definition for MCP registration
func (t *AttachTool) Definition() mcp.Tool {
	return mcp.NewTool(
		"pb_note_attach",
		mcp.WithDescription("Link an existing feedback note to a feature so the note counts towards the feature's insights."),
		mcp.WithString("note_id",
			mcp.Required(),
			mcp.Description("Note id"),
		),
		mcp.WithString("feature_id",
			mcp.Required(),
			mcp.Description("Feature id to link the note to"),
		),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithIdempotentHintAnnotation(true),
		mcp.WithOpenWorldHintAnnotation(true),
	)
}

// Execute links the note to the feature
func (t *AttachTool) Execute(ctx context.Context, logger *logrus.Logger, client *productboard.Client, args map[string]any) (*mcp.CallToolResult, error) {
	noteID, err := tools.RequiredStringArg(args, "note_id")
	if err != nil {
		return nil, err
	}
	featureID, err := tools.RequiredStringArg(args, "feature_id")
	if err != nil {
		return nil, err
	}

	if err := client.AttachNoteToFeature(ctx, noteID, featureID); err != nil {
		return nil, err
	}

	return tools.NewJSONResult(map[string]any{
		"attached":   true,
		"note_id":    noteID,
		"feature_id": featureID,
	})
}
