package model

import (
	"strings"

	"github.com/goccy/go-json"
	"github.com/pkg/errors"
)

type AnswerKind string

const (
	AnswerText    AnswerKind = "text"
	AnswerChoice  AnswerKind = "choice"
	AnswerChoices AnswerKind = "choices"
)

// KindFor is the answer kind a question of type t accepts.
func KindFor(t QuestionType) AnswerKind {
	switch t {
	case SingleChoice:
		return AnswerChoice
	case MultiChoice:
		return AnswerChoices
	default:
		return AnswerText
	}
}

// AnswerValue is one answer: a free text, a single selected label, or a set
// of selected labels. The zero value is an empty text answer.
type AnswerValue struct {
	kind   AnswerKind
	text   string
	labels []string
}

func TextAnswer(text string) AnswerValue {
	return AnswerValue{kind: AnswerText, text: text}
}

func ChoiceAnswer(label string) AnswerValue {
	return AnswerValue{kind: AnswerChoice, text: label}
}

func ChoicesAnswer(labels ...string) AnswerValue {
	return AnswerValue{kind: AnswerChoices, labels: append([]string(nil), labels...)}
}

func (a AnswerValue) Kind() AnswerKind {
	if a.kind == "" {
		return AnswerText
	}
	return a.kind
}

// Text is the raw text of a text or single choice answer.
func (a AnswerValue) Text() string {
	return a.text
}

// Labels returns the selected labels. A single choice yields one label, a
// text answer none.
func (a AnswerValue) Labels() []string {
	switch a.Kind() {
	case AnswerChoices:
		return append([]string(nil), a.labels...)
	case AnswerChoice:
		if a.text == "" {
			return nil
		}
		return []string{a.text}
	}
	return nil
}

func (a AnswerValue) IsEmpty() bool {
	if a.Kind() == AnswerChoices {
		return len(a.labels) == 0
	}
	return strings.TrimSpace(a.text) == ""
}

// String renders the answer as a single cell: selected labels are joined
// with "; ".
func (a AnswerValue) String() string {
	if a.Kind() == AnswerChoices {
		return strings.Join(a.labels, "; ")
	}
	return a.text
}

func (a AnswerValue) MarshalJSON() ([]byte, error) {
	if a.Kind() == AnswerChoices {
		labels := a.labels
		if labels == nil {
			labels = []string{}
		}
		return json.Marshal(labels)
	}
	return json.Marshal(a.text)
}

// UnmarshalJSON accepts a string or an array of strings. A string decodes as
// a text answer; use DecodeAnswer when the question type is known.
func (a *AnswerValue) UnmarshalJSON(data []byte) error {
	var text string
	if err := json.Unmarshal(data, &text); err == nil {
		*a = TextAnswer(text)
		return nil
	}
	var labels []string
	if err := json.Unmarshal(data, &labels); err != nil {
		return errors.New("answer must be a string or an array of strings")
	}
	*a = ChoicesAnswer(labels...)
	return nil
}

// DecodeAnswer reads a raw JSON answer for a question of type t. Text and
// single choice answers must be JSON strings, multi choice answers arrays of
// strings; null decodes as an empty answer of the expected kind.
func DecodeAnswer(t QuestionType, raw []byte) (AnswerValue, error) {
	kind := KindFor(t)
	if string(raw) == "null" {
		return AnswerValue{kind: kind}, nil
	}

	switch kind {
	case AnswerChoices:
		var labels []string
		if err := json.Unmarshal(raw, &labels); err != nil {
			return AnswerValue{}, errors.Errorf("expected a list of options for %s", t)
		}
		return ChoicesAnswer(labels...), nil
	default:
		var text string
		if err := json.Unmarshal(raw, &text); err != nil {
			return AnswerValue{}, errors.Errorf("expected a single value for %s", t)
		}
		return AnswerValue{kind: kind, text: text}, nil
	}
}

// RestoreAnswer rebuilds a persisted answer from its kind and JSON value.
func RestoreAnswer(kind AnswerKind, raw []byte) (AnswerValue, error) {
	switch kind {
	case AnswerChoices:
		return DecodeAnswer(MultiChoice, raw)
	case AnswerChoice:
		return DecodeAnswer(SingleChoice, raw)
	case AnswerText:
		return DecodeAnswer(ShortText, raw)
	}
	return AnswerValue{}, errors.Errorf("unknown answer kind %q", kind)
}
