package survey

import (
	"strings"
	"testing"

	"github.com/goccy/go-json"
	"github.com/pkg/errors"

	"github.com/mbolis/opinio/model"
)

func validationSurvey() model.Survey {
	return model.Survey{
		ID:    "s1",
		Title: "Mixed",
		Questions: []model.Question{
			{ID: "name", Text: "Name?", Type: model.ShortText, Required: true},
			{ID: "color", Text: "Color?", Type: model.SingleChoice, Options: []string{"Red", "Blue"}, Required: true},
			{ID: "pets", Text: "Pets?", Type: model.MultiChoice, Options: []string{"Cat", "Dog", "Fish"}, Required: false},
		},
	}
}

func submission(pairs map[string]string) Submission {
	sub := Submission{}
	for k, v := range pairs {
		sub[k] = json.RawMessage(v)
	}
	return sub
}

func TestValidateAnswers(t *testing.T) {
	tests := []struct {
		name         string
		submitted    Submission
		wantMissing  []string
		wantProblem  string
		checkAnswers func(t *testing.T, answers map[string]model.AnswerValue)
	}{
		{
			name: "all answered",
			submitted: submission(map[string]string{
				"name": `"Ann"`, "color": `"Red"`, "pets": `["Cat","Fish"]`,
			}),
			checkAnswers: func(t *testing.T, answers map[string]model.AnswerValue) {
				if len(answers) != 3 {
					t.Fatalf("expected 3 answers, got %d", len(answers))
				}
				if answers["pets"].String() != "Cat; Fish" {
					t.Errorf("unexpected pets answer %q", answers["pets"])
				}
				if answers["color"].Kind() != model.AnswerChoice {
					t.Errorf("color should be a single choice, got %s", answers["color"].Kind())
				}
			},
		},
		{
			name:      "optional question may be skipped",
			submitted: submission(map[string]string{"name": `"Ann"`, "color": `"Blue"`}),
			checkAnswers: func(t *testing.T, answers map[string]model.AnswerValue) {
				if _, ok := answers["pets"]; ok {
					t.Error("skipped optional answer should not be stored")
				}
			},
		},
		{
			name:        "missing required answers are all named",
			submitted:   submission(map[string]string{"pets": `["Dog"]`}),
			wantMissing: []string{"Name?", "Color?"},
		},
		{
			name:        "blank text counts as missing",
			submitted:   submission(map[string]string{"name": `"  "`, "color": `"Red"`}),
			wantMissing: []string{"Name?"},
		},
		{
			name:        "empty choice counts as missing",
			submitted:   submission(map[string]string{"name": `"Ann"`, "color": `""`}),
			wantMissing: []string{"Color?"},
		},
		{
			name:        "label outside options",
			submitted:   submission(map[string]string{"name": `"Ann"`, "color": `"Green"`}),
			wantProblem: `"Green" is not an option`,
		},
		{
			name:        "multi choice label outside options",
			submitted:   submission(map[string]string{"name": `"Ann"`, "color": `"Red"`, "pets": `["Cat","Snake"]`}),
			wantProblem: `"Snake" is not an option`,
		},
		{
			name:        "wrong shape for multi choice",
			submitted:   submission(map[string]string{"name": `"Ann"`, "color": `"Red"`, "pets": `"Cat"`}),
			wantProblem: "expected a list of options",
		},
		{
			name: "unknown question ids are ignored",
			submitted: submission(map[string]string{
				"name": `"Ann"`, "color": `"Red"`, "ghost": `"boo"`,
			}),
			checkAnswers: func(t *testing.T, answers map[string]model.AnswerValue) {
				if _, ok := answers["ghost"]; ok {
					t.Error("unknown id should be dropped")
				}
			},
		},
		{
			name: "repeated label counts once",
			submitted: submission(map[string]string{
				"name": `"Ann"`, "color": `"Red"`, "pets": `["Dog","Dog"]`,
			}),
			checkAnswers: func(t *testing.T, answers map[string]model.AnswerValue) {
				if got := answers["pets"].Labels(); len(got) != 1 {
					t.Errorf("expected one label, got %v", got)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			answers, err := ValidateAnswers(validationSurvey(), tt.submitted)
			if tt.wantMissing == nil && tt.wantProblem == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				if tt.checkAnswers != nil {
					tt.checkAnswers(t, answers)
				}
				return
			}

			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("expected *ValidationError, got %v", err)
			}
			if answers != nil {
				t.Error("no answers should be returned on failure")
			}
			if tt.wantMissing != nil && strings.Join(verr.Missing, "|") != strings.Join(tt.wantMissing, "|") {
				t.Errorf("missing = %v, want %v", verr.Missing, tt.wantMissing)
			}
			if tt.wantProblem != "" && !strings.Contains(err.Error(), tt.wantProblem) {
				t.Errorf("expected problem %q in %q", tt.wantProblem, err)
			}
		})
	}
}

func TestValidateAnswersEmptySurvey(t *testing.T) {
	answers, err := ValidateAnswers(model.Survey{Title: "empty"}, submission(map[string]string{"x": `"y"`}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(answers) != 0 {
		t.Errorf("expected no answers, got %v", answers)
	}
}
