package survey

import (
	"strings"

	"github.com/mbolis/opinio/model"
)

// Summary is the folded result of one question over a set of responses.
// Text questions list their answers; choice questions count them. Tally has
// a key for every declared option, voted or not; labels found in the data
// that the question does not declare are counted apart in Unlisted, as are
// the surplus labels of a multi-label answer to a single_choice question.
type Summary struct {
	QuestionID string             `json:"questionId"`
	Text       string             `json:"text"`
	Type       model.QuestionType `json:"type"`
	Answered   int                `json:"answered"`
	Texts      []string           `json:"texts,omitempty"`
	Tally      map[string]int     `json:"tally,omitempty"`
	Unlisted   map[string]int     `json:"unlisted,omitempty"`
}

// Aggregate folds responses into one Summary per question of s. Answers to
// questions s no longer has are skipped. The responses are not modified.
func Aggregate(s model.Survey, responses []model.Response) map[string]Summary {
	summaries := make(map[string]Summary, len(s.Questions))
	for _, q := range s.Questions {
		if q.Type.HasOptions() {
			summaries[q.ID] = tally(q, responses)
		} else {
			summaries[q.ID] = listTexts(q, responses)
		}
	}
	return summaries
}

func listTexts(q model.Question, responses []model.Response) Summary {
	sum := Summary{QuestionID: q.ID, Text: q.Text, Type: q.Type, Texts: []string{}}
	for _, r := range responses {
		a, ok := r.Answers[q.ID]
		if !ok {
			continue
		}
		text := a.String()
		if strings.TrimSpace(text) == "" {
			continue
		}
		sum.Texts = append(sum.Texts, text)
		sum.Answered++
	}
	return sum
}

func tally(q model.Question, responses []model.Response) Summary {
	sum := Summary{
		QuestionID: q.ID,
		Text:       q.Text,
		Type:       q.Type,
		Tally:      make(map[string]int, len(q.Options)),
	}
	for _, opt := range q.Options {
		sum.Tally[opt] = 0
	}

	for _, r := range responses {
		a, ok := r.Answers[q.ID]
		if !ok {
			continue
		}
		labels := a.Labels()
		// answered as free text before the question became a choice
		if a.Kind() == model.AnswerText && strings.TrimSpace(a.Text()) != "" {
			labels = []string{a.Text()}
		}
		if len(labels) == 0 {
			continue
		}
		sum.Answered++
		for i, label := range labels {
			// a single choice keeps its first label; the rest date from an
			// earlier multi_choice definition
			if _, declared := sum.Tally[label]; declared && (i == 0 || q.Type != model.SingleChoice) {
				sum.Tally[label]++
				continue
			}
			if sum.Unlisted == nil {
				sum.Unlisted = map[string]int{}
			}
			sum.Unlisted[label]++
		}
	}
	return sum
}

// Total is the number of counted selections, declared or not.
func (s Summary) Total() int {
	n := 0
	for _, c := range s.Tally {
		n += c
	}
	for _, c := range s.Unlisted {
		n += c
	}
	return n
}
