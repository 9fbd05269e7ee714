package model

import (
	"fmt"
	"strings"

	"github.com/hashicorp/go-multierror"
)

// SchemaError lists every problem found in a survey or question shape.
type SchemaError struct {
	Err *multierror.Error
}

func (e *SchemaError) Error() string {
	return "invalid survey: " + strings.Join(e.Problems(), "; ")
}

func (e *SchemaError) Unwrap() error {
	return e.Err
}

func (e *SchemaError) Problems() []string {
	if e.Err == nil {
		return nil
	}
	problems := make([]string, len(e.Err.Errors))
	for i, err := range e.Err.Errors {
		problems[i] = err.Error()
	}
	return problems
}

func schemaError(merr *multierror.Error) error {
	if merr.ErrorOrNil() == nil {
		return nil
	}
	return &SchemaError{Err: merr}
}

func ValidateQuestion(q Question) error {
	return schemaError(questionProblems(nil, q, ""))
}

// ValidateSurvey checks the title, then every question in order. A survey
// without questions is valid.
func ValidateSurvey(s Survey) error {
	var merr *multierror.Error
	if strings.TrimSpace(s.Title) == "" {
		merr = multierror.Append(merr, fmt.Errorf("title is required"))
	}
	for i, q := range s.Questions {
		merr = questionProblems(merr, q, fmt.Sprintf("question %d: ", i+1))
	}
	return schemaError(merr)
}

func questionProblems(merr *multierror.Error, q Question, prefix string) *multierror.Error {
	if strings.TrimSpace(q.Text) == "" {
		merr = multierror.Append(merr, fmt.Errorf("%stext is required", prefix))
	}
	if !q.Type.Valid() {
		return multierror.Append(merr, fmt.Errorf("%sunknown type %q", prefix, q.Type))
	}
	if !q.Type.HasOptions() {
		return merr
	}

	if len(q.Options) == 0 {
		merr = multierror.Append(merr, fmt.Errorf("%s%s needs at least one option", prefix, q.Type))
	}
	seen := make(map[string]bool, len(q.Options))
	for _, opt := range q.Options {
		if opt == "" {
			merr = multierror.Append(merr, fmt.Errorf("%soptions cannot be blank", prefix))
			continue
		}
		if seen[opt] {
			merr = multierror.Append(merr, fmt.Errorf("%sduplicate option %q", prefix, opt))
		}
		seen[opt] = true
	}
	return merr
}

// BuildQuestions turns caller input into questions. An input id is kept when
// it is listed in known (an existing question of the survey being replaced)
// and not already taken; every other question gets a fresh id. Options are
// trimmed and blank entries dropped; short text questions carry none.
func BuildQuestions(inputs []QuestionInput, known map[string]bool, newID func() string) []Question {
	questions := make([]Question, 0, len(inputs))
	taken := make(map[string]bool, len(inputs))
	for _, in := range inputs {
		id := in.ID
		if id == "" || !known[id] || taken[id] {
			id = newID()
		}
		taken[id] = true

		q := Question{
			ID:       id,
			Text:     strings.TrimSpace(in.Text),
			Type:     in.Type,
			Options:  []string{},
			Required: in.Required == nil || *in.Required,
		}
		if q.Type.HasOptions() {
			for _, opt := range in.Options {
				if opt = strings.TrimSpace(opt); opt != "" {
					q.Options = append(q.Options, opt)
				}
			}
		}
		questions = append(questions, q)
	}
	return questions
}
