package survey

import (
	"fmt"

	"github.com/goccy/go-json"

	"github.com/mbolis/opinio/model"
)

// Submission maps question ids to their raw JSON answers, as received.
type Submission map[string]json.RawMessage

// ValidateAnswers checks a submission against the questions of s and returns
// the typed answers ready to be stored.
//
// Every required question must have a non-empty answer; a choice answer may
// only select declared options; an answer of the wrong JSON shape for its
// question is rejected. Ids that match no question are ignored, and empty
// optional answers are dropped. Nothing is accepted unless everything is.
func ValidateAnswers(s model.Survey, submitted Submission) (map[string]model.AnswerValue, error) {
	answers := make(map[string]model.AnswerValue, len(s.Questions))
	verr := &ValidationError{}

	for _, q := range s.Questions {
		raw, ok := submitted[q.ID]
		var a model.AnswerValue
		if ok {
			var err error
			a, err = model.DecodeAnswer(q.Type, raw)
			if err != nil {
				verr.Problems = append(verr.Problems, fmt.Sprintf("%q: %v", q.Text, err))
				continue
			}
		}

		if a.IsEmpty() {
			if q.Required {
				verr.Missing = append(verr.Missing, q.Text)
			}
			continue
		}

		if q.Type.HasOptions() {
			a, ok = checkOptions(q, a, verr)
			if !ok {
				continue
			}
		}
		answers[q.ID] = a
	}

	if !verr.empty() {
		return nil, verr
	}
	return answers, nil
}

// checkOptions rejects labels outside q.Options. A label selected twice in a
// multi choice answer counts once.
func checkOptions(q model.Question, a model.AnswerValue, verr *ValidationError) (model.AnswerValue, bool) {
	declared := make(map[string]bool, len(q.Options))
	for _, opt := range q.Options {
		declared[opt] = true
	}

	labels := a.Labels()
	seen := make(map[string]bool, len(labels))
	picked := labels[:0]
	valid := true
	for _, label := range labels {
		if !declared[label] {
			verr.Problems = append(verr.Problems, fmt.Sprintf("%q: %q is not an option", q.Text, label))
			valid = false
			continue
		}
		if !seen[label] {
			seen[label] = true
			picked = append(picked, label)
		}
	}
	if !valid {
		return model.AnswerValue{}, false
	}

	if a.Kind() == model.AnswerChoices {
		return model.ChoicesAnswer(picked...), true
	}
	return a, true
}
