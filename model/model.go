package model

import "time"

type QuestionType string

const (
	ShortText    QuestionType = "short_text"
	SingleChoice QuestionType = "single_choice"
	MultiChoice  QuestionType = "multi_choice"
)

// HasOptions reports whether answers to this type are picked from a list.
func (t QuestionType) HasOptions() bool {
	return t == SingleChoice || t == MultiChoice
}

func (t QuestionType) Valid() bool {
	switch t {
	case ShortText, SingleChoice, MultiChoice:
		return true
	}
	return false
}

type Survey struct {
	ID          string     `json:"id"`
	OwnerID     string     `json:"ownerId"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Questions   []Question `json:"questions"`
	ExpiresAt   *time.Time `json:"expiresAt,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
}

type Question struct {
	ID       string       `json:"id"`
	Text     string       `json:"text"`
	Type     QuestionType `json:"type"`
	Options  []string     `json:"options"`
	Required bool         `json:"required"`
}

type Response struct {
	ID          string                 `json:"id"`
	SurveyID    string                 `json:"surveyId"`
	Answers     map[string]AnswerValue `json:"answers"`
	SubmittedAt time.Time              `json:"submittedAt"`
}

// SurveyInput carries the caller-supplied fields of a create or full update.
// Required is a pointer so that an omitted flag can default to true.
type SurveyInput struct {
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Questions   []QuestionInput `json:"questions"`
	ExpiresAt   *time.Time      `json:"expiresAt"`
}

type QuestionInput struct {
	ID       string       `json:"id,omitempty"`
	Text     string       `json:"text"`
	Type     QuestionType `json:"type"`
	Options  []string     `json:"options"`
	Required *bool        `json:"required"`
}
