package drive

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf16"

	docs "google.golang.org/api/docs/v1"
)

var headingRe = regexp.MustCompile(`^(#{1,3})\s+(.+)$`)

// utf16Len returns the length of s in UTF-16 code units, which is the
// unit the Docs API uses for body indexes.
func utf16Len(s string) int64 {
	return int64(len(utf16.Encode([]rune(s))))
}

// buildDocRequests converts lightweight markdown into Docs batch-update
// requests. Lines starting with one to three '#' become named heading
// styles; everything else is inserted as normal text.
func buildDocRequests(content string) []*docs.Request {
	var reqs []*docs.Request

	index := int64(1)
	for _, line := range strings.Split(content, "\n") {
		text := line
		style := ""
		if m := headingRe.FindStringSubmatch(line); m != nil {
			style = fmt.Sprintf("HEADING_%d", len(m[1]))
			text = m[2]
		}
		text += "\n"

		n := utf16Len(text)
		reqs = append(reqs, &docs.Request{
			InsertText: &docs.InsertTextRequest{
				Location: &docs.Location{Index: index},
				Text:     text,
			},
		})
		if style != "" {
			reqs = append(reqs, &docs.Request{
				UpdateParagraphStyle: &docs.UpdateParagraphStyleRequest{
					Range: &docs.Range{
						StartIndex: index,
						EndIndex:   index + n,
					},
					ParagraphStyle: &docs.ParagraphStyle{
						NamedStyleType: style,
					},
					Fields: "namedStyleType",
				},
			})
		}
		index += n
	}

	return reqs
}
