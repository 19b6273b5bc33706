package pipeline

import (
	"regexp"
	"strings"
)

// Highlight placeholders use Unicode Private Use Area characters. They pass
// through goldmark unchanged and become <mark> tags after conversion.
const (
	MarkStartPlaceholder = "\uE000"
	MarkEndPlaceholder   = "\uE001"
)

const byteOrderMark = "\uFEFF"

var (
	crlfOrCR           = regexp.MustCompile(`\r\n?`)
	multipleBlankLines = regexp.MustCompile(`\n{3,}`)
	highlightPattern   = regexp.MustCompile(`==(.*?)==`)
)

// Preprocess normalizes Markdown before conversion: BOM removal, LF line
// endings, ==highlight== placeholders, and at most one blank line in a row.
func Preprocess(content string) string {
	content = strings.TrimPrefix(content, byteOrderMark)
	content = crlfOrCR.ReplaceAllString(content, "\n")
	content = highlightPattern.ReplaceAllString(content, MarkStartPlaceholder+"$1"+MarkEndPlaceholder)
	return multipleBlankLines.ReplaceAllString(content, "\n\n")
}

// ConvertMarkPlaceholders turns highlight placeholders into <mark> tags.
func ConvertMarkPlaceholders(content string) string {
	return strings.ReplaceAll(
		strings.ReplaceAll(content, MarkStartPlaceholder, "<mark>"),
		MarkEndPlaceholder, "</mark>",
	)
}
