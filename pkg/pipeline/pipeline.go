// Package pipeline turns a recorded clinical conversation plus a clinician's
// written notes into an enriched session record: a transcript, a
// speaker-labeled transcript, a short summary, and a list of discrepancies
// between what was said and what was documented.
//
// The orchestrator is invoked detached; nothing propagates back to the
// caller. Every stage failure is absorbed here and recorded as a
// human-readable sentinel string on the owning session field, with the
// underlying error logged at the point of occurrence.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/carelog/scribe/pkg/session"
	"github.com/carelog/scribe/pkg/textgen"
	"github.com/carelog/scribe/pkg/transcribe"
)

// Sentinel strings written in place of data when a stage fails or yields no
// result. These are part of the persisted record contract; do not reword.
const (
	SentinelTranscriptionFailed = "Transcription failed. Check logs for details."
	SentinelNoTranscription     = "No transcription found."
	SentinelSegmentationFailed  = "Segmentation failed. Check logs for details."
	SentinelGenerationFailed    = "GPT Interaction Failed. Check logs."
)

// DefaultCallTimeout bounds each external-service call. The documented
// contract has no timeout; this is a defensive bound only.
const DefaultCallTimeout = 5 * time.Minute

// Runner drives one session through transcription, segmentation, and the
// concurrent summary/analysis pair, persisting incremental state after each
// stage. All collaborators are injected capabilities so tests can substitute
// doubles.
type Runner struct {
	Store       session.Store
	Transcriber transcribe.Transcriber
	Segmenter   SegmentStage
	Summarizer  SummaryStage
	Analyzer    AnalysisStage

	// CallTimeout bounds each stage's external call. Defaults to
	// DefaultCallTimeout.
	CallTimeout time.Duration

	Logger *slog.Logger
}

// NewRunner wires the three completion stages to a single completer and
// model name, the way the service runs in production. Tests construct Runner
// directly with stage doubles instead.
func NewRunner(store session.Store, tr transcribe.Transcriber, completer textgen.Completer, model string) *Runner {
	return &Runner{
		Store:       store,
		Transcriber: tr,
		Segmenter:   &Segmenter{Completer: completer, Model: model},
		Summarizer:  &Summarizer{Completer: completer, Model: model},
		Analyzer:    &Analyzer{Completer: completer, Model: model},
	}
}

// Run executes the pipeline for one session. It never returns a value; all
// observable effects are session store writes.
//
// Precondition (unenforced): at most one run per session id at a time. The
// caller owns this; two concurrent runs for the same id would interleave
// writes unpredictably.
func (r *Runner) Run(ctx context.Context, sessionID, audioRef, notes string) {
	log := r.logger().With("session", sessionID)

	transcript, ok := r.runTranscription(ctx, log, sessionID, audioRef)
	if !ok {
		return
	}

	labeled, ok := r.runSegmentation(ctx, log, sessionID, transcript)
	if !ok {
		return
	}

	r.runSummaryAndAnalysis(ctx, log, sessionID, labeled.text, notes)
}

type workingTranscript struct {
	text string

	// prelabeled is set when the transcription engine already diarized;
	// segmentation is skipped.
	prelabeled bool
}

// runTranscription performs step one. The returned transcript carries the
// speaker-labeled text when the engine diarized, or the raw text otherwise.
// ok is false when the run must terminate.
func (r *Runner) runTranscription(ctx context.Context, log *slog.Logger, sessionID, audioRef string) (workingTranscript, bool) {
	cctx, cancel := r.callContext(ctx)
	result, err := r.Transcriber.Transcribe(cctx, audioRef)
	cancel()
	if err != nil {
		log.Error("transcription failed", "error", err)
		r.persist(ctx, log, sessionID, session.Transcript(SentinelTranscriptionFailed))
		return workingTranscript{}, false
	}

	wt := workingTranscript{text: result.Text}
	if len(result.Utterances) > 0 {
		wt.text = formatUtterances(result.Utterances)
		wt.prelabeled = true
	}

	if strings.TrimSpace(wt.text) == "" {
		log.Warn("transcription returned no text")
		r.persist(ctx, log, sessionID, session.Transcript(SentinelNoTranscription))
		return workingTranscript{}, false
	}

	r.persist(ctx, log, sessionID, session.Transcript(wt.text))
	return wt, true
}

// runSegmentation performs step two. Pre-labeled transcripts pass through
// without an external call. The labeled text is persisted as an interim
// annotated transcript; step three usually overwrites it.
func (r *Runner) runSegmentation(ctx context.Context, log *slog.Logger, sessionID string, wt workingTranscript) (workingTranscript, bool) {
	if wt.prelabeled {
		return wt, true
	}

	cctx, cancel := r.callContext(ctx)
	labeled, err := r.Segmenter.Segment(cctx, wt.text)
	cancel()
	if err != nil {
		log.Error("segmentation failed", "error", err)
		r.persist(ctx, log, sessionID, session.AnnotatedTranscript(SentinelSegmentationFailed))
		return workingTranscript{}, false
	}

	r.persist(ctx, log, sessionID, session.AnnotatedTranscript(labeled))
	return workingTranscript{text: labeled, prelabeled: true}, true
}

// runSummaryAndAnalysis fans out the summary and analysis branches, joins,
// and merges the results. A failure in one branch is the outcome for that
// branch only; a failure before fan-out is unattributable and takes the
// joint path.
func (r *Runner) runSummaryAndAnalysis(ctx context.Context, log *slog.Logger, sessionID, transcript, notes string) {
	if r.Summarizer == nil || r.Analyzer == nil {
		log.Error("generation stages not configured")
		r.persist(ctx, log, sessionID, session.Fields{
			Summary:             strptr(SentinelGenerationFailed),
			AnnotatedTranscript: strptr(SentinelGenerationFailed),
		})
		return
	}

	var (
		wg sync.WaitGroup

		summary    string
		summaryErr error

		analysis    *AnalysisResult
		analysisErr error
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		cctx, cancel := r.callContext(ctx)
		defer cancel()
		summary, summaryErr = r.Summarizer.Summarize(cctx, transcript)
	}()
	go func() {
		defer wg.Done()
		cctx, cancel := r.callContext(ctx)
		defer cancel()
		analysis, analysisErr = r.Analyzer.Analyze(cctx, transcript, notes)
	}()
	wg.Wait()

	if summaryErr != nil {
		log.Error("summary failed", "error", summaryErr)
		r.persist(ctx, log, sessionID, session.Summary(SentinelGenerationFailed))
	} else {
		r.persist(ctx, log, sessionID, session.Summary(summary))
	}

	if analysisErr != nil {
		log.Error("analysis failed", "error", analysisErr)
		r.persist(ctx, log, sessionID, session.AnnotatedTranscript(SentinelGenerationFailed))
		return
	}

	r.mergeAnalysis(ctx, log, sessionID, analysis)
}

// mergeAnalysis persists the analysis branch outcome: parsed issues with a
// markup-transformed transcript, a synthetic fallback issue when the issue
// list is unparsable, or the annotated transcript verbatim when no issues
// were found.
func (r *Runner) mergeAnalysis(ctx context.Context, log *slog.Logger, sessionID string, analysis *AnalysisResult) {
	if !analysis.IssuesFound {
		log.Info("no issues found during analysis")
		r.persist(ctx, log, sessionID, session.AnnotatedTranscript(analysis.AnnotatedTranscript))
		return
	}

	flags, ok := ParseIssues(analysis.IssueListRaw)
	if !ok {
		log.Error("issue list unparsable", "raw", analysis.IssueListRaw)
		flags = []session.Issue{fallbackIssue(analysis.IssueListRaw)}
	}
	log.Info("issues found during analysis", "count", len(flags))
	r.persist(ctx, log, sessionID, session.Fields{
		Flags:               flags,
		AnnotatedTranscript: strptr(FlagMarkup(analysis.AnnotatedTranscript)),
	})
}

// formatUtterances synthesizes a labeled transcript from diarized
// utterances: one "Speaker <label>: <text>" line pair per utterance, in
// original order, each followed by a blank line.
func formatUtterances(utterances []transcribe.Utterance) string {
	var b strings.Builder
	for _, u := range utterances {
		fmt.Fprintf(&b, "Speaker %s: %s\n\n", u.Speaker, u.Text)
	}
	return b.String()
}

// persist applies a partial update. Store failures are logged only; by the
// time the pipeline runs, there is no caller to report them to.
func (r *Runner) persist(ctx context.Context, log *slog.Logger, sessionID string, f session.Fields) {
	if err := r.Store.UpdateFields(ctx, sessionID, f); err != nil {
		log.Error("session update failed", "error", err)
	}
}

func (r *Runner) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	timeout := r.CallTimeout
	if timeout <= 0 {
		timeout = DefaultCallTimeout
	}
	return context.WithTimeout(ctx, timeout)
}

func (r *Runner) logger() *slog.Logger {
	if r.Logger != nil {
		return r.Logger
	}
	return slog.Default()
}

func strptr(s string) *string { return &s }
