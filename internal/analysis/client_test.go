package analysis

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/mikey/phishlens/internal/core"
)

type stubScorer struct {
	result core.AnalysisResult
	err    error
	panic  bool

	urls   []string
	emails []core.EmailRecord
}

func (s *stubScorer) ScoreURL(ctx context.Context, url string) (core.AnalysisResult, error) {
	s.urls = append(s.urls, url)
	if s.panic {
		panic("nil map")
	}
	return s.result, s.err
}

func (s *stubScorer) ScoreEmail(ctx context.Context, email core.EmailRecord) (core.AnalysisResult, error) {
	s.emails = append(s.emails, email)
	if s.panic {
		panic("nil map")
	}
	return s.result, s.err
}

func TestAnalyzeURLSuccess(t *testing.T) {
	scorer := &stubScorer{result: core.AnalysisResult{
		RiskScore: 0.92,
		Status:    core.StatusHighRisk,
		Reasons:   []string{"suspicious domain"},
	}}
	c := NewClient(scorer, core.StatusSafe, nil)

	result, err := c.AnalyzeURL(context.Background(), "https://login.paypal-secure.verify.com")
	if err != nil {
		t.Fatalf("AnalyzeURL: %v", err)
	}
	if result.Status != core.StatusHighRisk || result.Percent() != 92 {
		t.Fatalf("unexpected result %+v", result)
	}
	if !reflect.DeepEqual(result.Reasons, []string{"suspicious domain"}) {
		t.Fatalf("unexpected reasons %v", result.Reasons)
	}
	if len(scorer.urls) != 1 {
		t.Fatalf("expected one scorer call, got %d", len(scorer.urls))
	}
}

func TestFailureFallsBackToSafe(t *testing.T) {
	obsCore, logs := observer.New(zapcore.WarnLevel)
	boom := errors.New("connection refused")
	c := NewClient(&stubScorer{err: boom}, core.StatusSafe, zap.New(obsCore))

	result, err := c.AnalyzeURL(context.Background(), "https://example.com")
	if !errors.Is(err, boom) {
		t.Fatalf("expected backend error to be reported, got %v", err)
	}
	want := core.AnalysisResult{RiskScore: 0, Status: core.StatusSafe, Reasons: []string{}}
	if !reflect.DeepEqual(result, want) {
		t.Fatalf("expected %+v, got %+v", want, result)
	}
	if logs.Len() != 1 {
		t.Fatalf("expected one warning, got %d", logs.Len())
	}

	result, _ = c.AnalyzeEmail(context.Background(), "a", "b", "c")
	if !reflect.DeepEqual(result, want) {
		t.Fatalf("expected %+v for email, got %+v", want, result)
	}
}

func TestFailureFallsBackToUnavailable(t *testing.T) {
	c := NewClient(&stubScorer{err: errors.New("timeout")}, core.StatusUnavailable, nil)

	result, err := c.AnalyzeEmail(context.Background(), "sender", "", "")
	if err == nil {
		t.Fatal("expected error")
	}
	if result.Status != core.StatusUnavailable || result.RiskScore != 0 || result.Reasons == nil {
		t.Fatalf("unexpected fallback %+v", result)
	}
}

func TestScorerPanicIsContained(t *testing.T) {
	c := NewClient(&stubScorer{panic: true}, core.StatusSafe, nil)

	result, err := c.AnalyzeURL(context.Background(), "https://example.com")
	if err == nil {
		t.Fatal("expected error from panicking scorer")
	}
	if result.Status != core.StatusSafe {
		t.Fatalf("unexpected fallback %+v", result)
	}
}

func TestEmptyInputSkipsScorer(t *testing.T) {
	scorer := &stubScorer{}
	c := NewClient(scorer, core.StatusSafe, nil)

	if _, err := c.AnalyzeURL(context.Background(), "  "); !errors.Is(err, ErrEmptyInput) {
		t.Fatalf("expected ErrEmptyInput, got %v", err)
	}
	if _, err := c.AnalyzeEmail(context.Background(), "", "", ""); !errors.Is(err, ErrEmptyInput) {
		t.Fatalf("expected ErrEmptyInput, got %v", err)
	}
	if len(scorer.urls)+len(scorer.emails) != 0 {
		t.Fatal("scorer must not be called for empty input")
	}
}

func TestResultNormalisation(t *testing.T) {
	scorer := &stubScorer{result: core.AnalysisResult{RiskScore: 0.2}}
	c := NewClient(scorer, core.StatusSafe, nil)

	result, err := c.AnalyzeEmail(context.Background(), "only sender", "", "")
	if err != nil {
		t.Fatalf("AnalyzeEmail: %v", err)
	}
	if result.Status != core.StatusSafe || result.Reasons == nil {
		t.Fatalf("expected zero fields to be defaulted, got %+v", result)
	}
	if got := scorer.emails[0]; got.Sender != "only sender" || got.Subject != "" || got.Body != "" {
		t.Fatalf("unexpected email sent to scorer %+v", got)
	}
}

func TestFallbackIsACopy(t *testing.T) {
	c := NewClient(&stubScorer{err: errors.New("x")}, core.StatusSafe, nil)

	first, _ := c.AnalyzeURL(context.Background(), "https://a.example")
	first.Reasons = append(first.Reasons, "mutated")

	second, _ := c.AnalyzeURL(context.Background(), "https://b.example")
	if len(second.Reasons) != 0 || len(c.Fallback().Reasons) != 0 {
		t.Fatal("fallback verdict must not be shared between callers")
	}
}

type closingScorer struct {
	stubScorer
	closed bool
}

func (s *closingScorer) Close() error {
	s.closed = true
	return nil
}

func TestCloseReleasesScorer(t *testing.T) {
	s := &closingScorer{}
	if err := NewClient(s, core.StatusSafe, nil).Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if !s.closed {
		t.Fatal("expected the scorer to be closed")
	}

	if err := NewClient(&stubScorer{}, core.StatusSafe, nil).Close(); err != nil {
		t.Fatalf("Close without closer: %v", err)
	}
}
