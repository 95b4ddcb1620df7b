package core

import (
	"context"
)

// Scorer is a backend able to score URLs and emails. It may fail; callers
// that need the never-failing contract go through analysis.Client.
type Scorer interface {
	// ScoreURL asks the backend for a verdict on a URL
	ScoreURL(ctx context.Context, url string) (AnalysisResult, error)

	// ScoreEmail asks the backend for a verdict on an email
	ScoreEmail(ctx context.Context, email EmailRecord) (AnalysisResult, error)
}

// Analyzer is the orchestrator's view of the analysis client. The returned
// result is always usable; err only reports that the backend call failed.
type Analyzer interface {
	AnalyzeURL(ctx context.Context, url string) (AnalysisResult, error)
	AnalyzeEmail(ctx context.Context, sender, subject, body string) (AnalysisResult, error)
}

// Extraction is the orchestrator's view of the cross-context channels
type Extraction interface {
	// ActiveTabURL asks the background relay for the active tab URL
	ActiveTabURL(ctx context.Context) (string, error)

	// OpenEmail asks the active tab's content extractor for the open email
	OpenEmail(ctx context.Context) (EmailRecord, error)

	// PageSignals asks the active tab's content extractor for page signals
	PageSignals(ctx context.Context) (PageSignals, error)
}
