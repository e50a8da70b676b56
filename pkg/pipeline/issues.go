package pipeline

import (
	"encoding/json"

	"github.com/kaptinlin/jsonrepair"

	"github.com/carelog/scribe/pkg/session"
)

// ParseIssues parses a model response as a JSON array of issues. Responses
// with repairable damage (markdown fences, trailing commas) are run through
// jsonrepair before giving up. The second return is false when the text is
// not an issue array at all; the raw text is then preserved by the caller
// via fallbackIssue.
func ParseIssues(raw string) ([]session.Issue, bool) {
	var issues []session.Issue
	err := json.Unmarshal([]byte(raw), &issues)
	if err == nil {
		return issues, true
	}
	if _, ok := err.(*json.SyntaxError); ok {
		fixed, rerr := jsonrepair.JSONRepair(raw)
		if rerr == nil && json.Unmarshal([]byte(fixed), &issues) == nil {
			return issues, true
		}
	}
	return nil, false
}

// fallbackIssue wraps an unparsable issue-list response in a single
// synthetic issue so the raw text survives for operator diagnosis.
func fallbackIssue(raw string) session.Issue {
	return session.Issue{
		Issue:       "Issue parsing annotations.",
		Description: "Raw GPT results: " + raw,
	}
}
