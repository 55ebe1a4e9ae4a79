package ai

import (
	"strings"
	"testing"

	"github.com/classlens/ai-assist/internal/models"
)

func TestExtractJSONObject(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
		ok    bool
	}{
		{
			name:  "bare object",
			input: `{"a":1}`,
			want:  `{"a":1}`,
			ok:    true,
		},
		{
			name:  "object wrapped in prose",
			input: "Here is the analysis:\n{\"a\":1}\nHope this helps!",
			want:  `{"a":1}`,
			ok:    true,
		},
		{
			name:  "picks the largest of several objects",
			input: `{"a":1} and also {"a":1,"b":{"c":2}}`,
			want:  `{"a":1,"b":{"c":2}}`,
			ok:    true,
		},
		{
			name:  "braces inside strings are ignored",
			input: `{"text":"not a close } brace","n":1}`,
			want:  `{"text":"not a close } brace","n":1}`,
			ok:    true,
		},
		{
			name:  "escaped quotes inside strings",
			input: `{"text":"she said \"}\" loudly"}`,
			want:  `{"text":"she said \"}\" loudly"}`,
			ok:    true,
		},
		{
			name:  "no object",
			input: "sorry, I cannot do that",
			ok:    false,
		},
		{
			name:  "unbalanced object",
			input: `{"a":1`,
			ok:    false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ExtractJSONObject(tt.input)
			if ok != tt.ok {
				t.Fatalf("ok = %v, want %v", ok, tt.ok)
			}
			if ok && got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestParseAnalysisResponse(t *testing.T) {
	valid := `{"misconceptions":[{"topic":"Fractions","description":"d","severity":"high"}],"overallInsights":["i"]}`

	t.Run("direct JSON", func(t *testing.T) {
		result, ok := parseAnalysisResponse(valid)
		if !ok {
			t.Fatal("valid response rejected")
		}
		if result.Misconceptions[0].Topic != "Fractions" {
			t.Errorf("topic = %q", result.Misconceptions[0].Topic)
		}
	})

	t.Run("JSON wrapped in prose", func(t *testing.T) {
		if _, ok := parseAnalysisResponse("Sure! " + valid + " Done."); !ok {
			t.Fatal("wrapped response rejected")
		}
	})

	t.Run("empty object is not a result", func(t *testing.T) {
		if _, ok := parseAnalysisResponse(`{}`); ok {
			t.Fatal("empty object accepted")
		}
	})

	t.Run("prose only", func(t *testing.T) {
		if _, ok := parseAnalysisResponse("no JSON here"); ok {
			t.Fatal("prose accepted")
		}
	})
}

func TestFallbackResult(t *testing.T) {
	result := FallbackResult([]string{"Dana", "Sam"})

	if !result.Fallback {
		t.Error("Fallback flag not set")
	}
	if len(result.Misconceptions) != 1 {
		t.Fatalf("misconceptions = %d, want 1", len(result.Misconceptions))
	}
	m := result.Misconceptions[0]
	if m.Topic != "General Understanding" {
		t.Errorf("topic = %q", m.Topic)
	}
	if m.Severity != models.SeverityMedium {
		t.Errorf("severity = %q", m.Severity)
	}
	if len(m.AffectedStudents) != 2 || m.AffectedStudents[0] != "Dana" {
		t.Errorf("affected students = %v", m.AffectedStudents)
	}
	if len(result.OverallInsights) == 0 {
		t.Error("no insights in fallback")
	}
}

func TestBuildAnalysisPrompt(t *testing.T) {
	req := AnalysisRequest{
		MaterialTitle:   "Fractions",
		MaterialContent: "A fraction represents part of a whole.",
		Questions: []QuestionInfo{
			{ID: "q1", Text: "What is 1/2 + 1/4?", Type: "multiple-choice", Options: []string{"3/4", "2/6"}, Points: 2},
			{ID: "q2", Text: "Explain equivalence", Type: "essay", Points: 5},
		},
		Submissions: []StudentAnswers{
			{StudentName: "Dana", Answers: []models.SubmissionAnswer{{QuestionID: "q1", Answer: "2/6"}}},
			{StudentName: "Sam"},
		},
	}

	prompt := BuildAnalysisPrompt(req)

	for _, want := range []string{
		"## Study Material",
		"Title: Fractions",
		"Q1 (multiple-choice, 2 points): What is 1/2 + 1/4?",
		"Options: 3/4 | 2/6",
		"Q2 (essay, 5 points)",
		"Student: Dana",
		"Q1: 2/6",
		"(no answers recorded)",
		`"misconceptions"`,
		`"overallInsights"`,
	} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
}

func TestBuildAnalysisPromptFallsBackToDescription(t *testing.T) {
	prompt := BuildAnalysisPrompt(AnalysisRequest{
		MaterialTitle:       "Empty",
		MaterialDescription: "a short summary",
	})
	if !strings.Contains(prompt, "Content: a short summary") {
		t.Error("description not used when content is empty")
	}

	prompt = BuildAnalysisPrompt(AnalysisRequest{MaterialTitle: "Empty"})
	if !strings.Contains(prompt, "Content not extracted yet") {
		t.Error("placeholder missing for materials without content")
	}
}
