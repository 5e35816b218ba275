// Package htmlclean reduces HTML payloads (note content, feature
// descriptions) to agent-friendly plain text.
package htmlclean

import (
	"strings"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
)

// DefaultMaxLength is the truncation bound applied to sanitised content
// returned through the tool layer.
const DefaultMaxLength = 2000

// Sanitiser converts HTML fragments to plain text.
type Sanitiser struct {
	converter *converter.Converter
}

// New creates a sanitiser. Script, style and other non-content elements
// are dropped by the base plugin.
func New() *Sanitiser {
	conv := converter.NewConverter(
		converter.WithPlugins(
			base.NewBasePlugin(),
			commonmark.NewCommonmarkPlugin(),
		),
	)

	for _, tag := range []string{"nav", "header", "footer", "form", "button", "svg", "video", "audio"} {
		conv.Register.TagType(tag, converter.TagTypeRemove, converter.PriorityStandard)
	}

	return &Sanitiser{converter: conv}
}

// Clean converts HTML to plain text and collapses excess whitespace. Input
// that is not HTML passes through with only whitespace normalisation.
func (s *Sanitiser) Clean(html string) string {
	if html == "" {
		return ""
	}

	text, err := s.converter.ConvertString(html)
	if err != nil {
		// Conversion failure should never lose the content
		text = html
	}

	lines := strings.Split(text, "\n")
	cleaned := make([]string, 0, len(lines))
	for _, line := range lines {
		trimmed := strings.Join(strings.Fields(line), " ")
		if trimmed == "" {
			continue
		}
		cleaned = append(cleaned, trimmed)
	}
	return strings.Join(cleaned, "\n")
}

// Truncate shortens s to at most max runes, appending an ellipsis marker
// when content was dropped. Rune-safe so multibyte text never splits.
func Truncate(s string, max int) string {
	if max <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max]) + "…"
}
