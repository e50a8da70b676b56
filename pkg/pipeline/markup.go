package pipeline

import "strings"

const (
	spanOpen  = `<span class="flagged">`
	spanClose = `</span>`
)

// FlagMarkup rewrites matched marker pairs into flagged spans, preserving
// all surrounding text exactly. A stray unpaired marker is left untouched
// rather than treated as an error; model output is not trusted to balance
// its markers.
func FlagMarkup(s string) string {
	var b strings.Builder
	for {
		i := strings.Index(s, flagMarker)
		if i < 0 {
			b.WriteString(s)
			return b.String()
		}
		j := strings.Index(s[i+len(flagMarker):], flagMarker)
		if j < 0 {
			// Unmatched opener; keep the rest verbatim.
			b.WriteString(s)
			return b.String()
		}
		b.WriteString(s[:i])
		b.WriteString(spanOpen)
		b.WriteString(s[i+len(flagMarker) : i+len(flagMarker)+j])
		b.WriteString(spanClose)
		s = s[i+len(flagMarker)+j+len(flagMarker):]
	}
}
