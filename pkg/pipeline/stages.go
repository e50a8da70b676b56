package pipeline

import (
	"context"
	"fmt"
	"strings"

	"github.com/carelog/scribe/pkg/textgen"
)

// AnalysisResult is the transient output of one Analyze invocation.
// IssueListRaw is the issue-detection call's response verbatim; it is kept
// even when it is not valid JSON so the fallback path can preserve it.
type AnalysisResult struct {
	IssuesFound         bool
	IssueListRaw        string
	AnnotatedTranscript string
}

// SegmentStage relabels an undifferentiated transcript with speaker tags.
type SegmentStage interface {
	Segment(ctx context.Context, rawTranscript string) (string, error)
}

// SummaryStage produces a short clinical summary of a labeled transcript.
type SummaryStage interface {
	Summarize(ctx context.Context, transcript string) (string, error)
}

// AnalysisStage compares notes against a labeled transcript.
type AnalysisStage interface {
	Analyze(ctx context.Context, transcript, notes string) (*AnalysisResult, error)
}

// SegmentFunc adapts a function to SegmentStage.
type SegmentFunc func(ctx context.Context, rawTranscript string) (string, error)

func (f SegmentFunc) Segment(ctx context.Context, rawTranscript string) (string, error) {
	return f(ctx, rawTranscript)
}

// SummaryFunc adapts a function to SummaryStage.
type SummaryFunc func(ctx context.Context, transcript string) (string, error)

func (f SummaryFunc) Summarize(ctx context.Context, transcript string) (string, error) {
	return f(ctx, transcript)
}

// AnalyzeFunc adapts a function to AnalysisStage.
type AnalyzeFunc func(ctx context.Context, transcript, notes string) (*AnalysisResult, error)

func (f AnalyzeFunc) Analyze(ctx context.Context, transcript, notes string) (*AnalysisResult, error) {
	return f(ctx, transcript, notes)
}

// Segmenter implements SegmentStage with a single completion call.
type Segmenter struct {
	Completer textgen.Completer
	Model     string
}

// Segment relabels the transcript, preserving wording. Doubled line breaks
// are collapsed first; the service is sensitive to turn boundaries.
func (s *Segmenter) Segment(ctx context.Context, rawTranscript string) (string, error) {
	normalized := rawTranscript
	for strings.Contains(normalized, "\n\n") {
		normalized = strings.ReplaceAll(normalized, "\n\n", "\n")
	}

	req := textgen.Request{Model: s.Model}.
		System(segmentPrompt).
		User("Transcript:\n\n" + normalized)
	labeled, err := s.Completer.Complete(ctx, req)
	if err != nil {
		return "", fmt.Errorf("pipeline: segment: %w", err)
	}
	return labeled, nil
}

// Summarizer implements SummaryStage with a single completion call.
type Summarizer struct {
	Completer textgen.Completer
	Model     string
}

func (s *Summarizer) Summarize(ctx context.Context, transcript string) (string, error) {
	req := textgen.Request{Model: s.Model}.
		System(summaryPrompt).
		User("Transcript:\n\n" + transcript)
	summary, err := s.Completer.Complete(ctx, req)
	if err != nil {
		return "", fmt.Errorf("pipeline: summarize: %w", err)
	}
	return summary, nil
}

// Analyzer implements AnalysisStage as a chain of two dependent completion
// calls: issue detection, then transcript annotation with the detection
// response replayed as conversation context.
type Analyzer struct {
	Completer textgen.Completer
	Model     string
}

func (a *Analyzer) Analyze(ctx context.Context, transcript, notes string) (*AnalysisResult, error) {
	temp := 0.0
	userTurn := "Doctor's Notes:\n\n" + notes + "\n\nTranscript:\n\n" + transcript

	detectReq := textgen.Request{Model: a.Model, Temperature: &temp}.
		System(issuePrompt).
		User(userTurn)
	raw, err := a.Completer.Complete(ctx, detectReq)
	if err != nil {
		return nil, fmt.Errorf("pipeline: analyze issues: %w", err)
	}

	// An unparsable response still counts as "issues found": the caller's
	// fallback path turns it into a synthetic issue without losing the raw
	// text.
	issues, ok := ParseIssues(raw)
	issuesFound := !ok || len(issues) > 0

	annotateReq := textgen.Request{Model: a.Model, Temperature: &temp}.
		System(issuePrompt).
		User(userTurn).
		Assistant(raw).
		User(annotatePrompt)
	annotated, err := a.Completer.Complete(ctx, annotateReq)
	if err != nil {
		return nil, fmt.Errorf("pipeline: annotate transcript: %w", err)
	}

	return &AnalysisResult{
		IssuesFound:         issuesFound,
		IssueListRaw:        raw,
		AnnotatedTranscript: annotated,
	}, nil
}
