package core

import (
	"errors"
	"reflect"
	"testing"
)

func TestDecodeAnalysisResult(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		want    AnalysisResult
	}{
		{
			name:    "complete payload",
			payload: `{"riskScore":0.92,"status":"high_risk","reasons":["suspicious domain"]}`,
			want:    AnalysisResult{RiskScore: 0.92, Status: StatusHighRisk, Reasons: []string{"suspicious domain"}},
		},
		{
			name:    "missing reasons keeps other fields",
			payload: `{"riskScore":0.4,"status":"low_risk"}`,
			want:    AnalysisResult{RiskScore: 0.4, Status: StatusLowRisk, Reasons: []string{}},
		},
		{
			name:    "string score falls back to zero",
			payload: `{"riskScore":"high","status":"high_risk","reasons":[]}`,
			want:    AnalysisResult{RiskScore: 0, Status: StatusHighRisk, Reasons: []string{}},
		},
		{
			name:    "empty status falls back to safe",
			payload: `{"riskScore":0.1,"status":"","reasons":["a"]}`,
			want:    AnalysisResult{RiskScore: 0.1, Status: StatusSafe, Reasons: []string{"a"}},
		},
		{
			name:    "unrecognised status kept verbatim",
			payload: `{"riskScore":0.5,"status":"medium"}`,
			want:    AnalysisResult{RiskScore: 0.5, Status: Status("medium"), Reasons: []string{}},
		},
		{
			name:    "reasons object ignored",
			payload: `{"riskScore":0.3,"status":"safe","reasons":{"a":1}}`,
			want:    AnalysisResult{RiskScore: 0.3, Status: StatusSafe, Reasons: []string{}},
		},
		{
			name:    "non string reasons dropped",
			payload: `{"reasons":["one",2,null,"three"]}`,
			want:    AnalysisResult{RiskScore: 0, Status: StatusSafe, Reasons: []string{"one", "three"}},
		},
		{
			name:    "null reasons dropped",
			payload: `{"status":"low_risk","reasons":[null,null]}`,
			want:    AnalysisResult{RiskScore: 0, Status: StatusLowRisk, Reasons: []string{}},
		},
		{
			name:    "score above one is clamped",
			payload: `{"riskScore":7,"status":"high_risk"}`,
			want:    AnalysisResult{RiskScore: 1, Status: StatusHighRisk, Reasons: []string{}},
		},
		{
			name:    "negative score is clamped",
			payload: `{"riskScore":-0.2}`,
			want:    AnalysisResult{RiskScore: 0, Status: StatusSafe, Reasons: []string{}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecodeAnalysisResult([]byte(tt.payload))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("got %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestDecodeAnalysisResultRejectsNonObjects(t *testing.T) {
	for _, payload := range []string{``, `null`, `[1,2]`, `"safe"`, `{broken`} {
		got, err := DecodeAnalysisResult([]byte(payload))
		if !errors.Is(err, ErrMalformedResult) {
			t.Fatalf("payload %q: expected ErrMalformedResult, got %v", payload, err)
		}
		if !reflect.DeepEqual(got, SafeResult()) {
			t.Fatalf("payload %q: expected safe default, got %+v", payload, got)
		}
	}
}

func TestPercent(t *testing.T) {
	tests := []struct {
		score float64
		want  int
	}{
		{0, 0},
		{0.92, 92},
		{0.125, 13},
		{0.994, 99},
		{1, 100},
		{3, 100},
	}
	for _, tt := range tests {
		if got := (AnalysisResult{RiskScore: tt.score}).Percent(); got != tt.want {
			t.Errorf("Percent(%v) = %d, want %d", tt.score, got, tt.want)
		}
	}
}

func TestEmailRecordHelpers(t *testing.T) {
	if (EmailRecord{Provider: ProviderGmail}).HasContent() {
		t.Fatal("provider alone must not count as content")
	}
	if !(EmailRecord{Body: "x"}).HasContent() {
		t.Fatal("body should count as content")
	}

	trimmed := EmailRecord{Sender: "  a@b.com ", Subject: "\t", Body: "\n hi \n"}.Trimmed()
	if trimmed.Sender != "a@b.com" || trimmed.Subject != "" || trimmed.Body != "hi" {
		t.Fatalf("unexpected trimmed record: %+v", trimmed)
	}
}

func TestParseReportKind(t *testing.T) {
	if k, ok := ParseReportKind(" False_Positive "); !ok || k != ReportFalsePositive {
		t.Fatalf("expected false_positive, got %q %v", k, ok)
	}
	if _, ok := ParseReportKind("spam"); ok {
		t.Fatal("spam is not a report kind")
	}
}
