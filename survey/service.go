package survey

import (
	"context"
	"time"

	"github.com/gofrs/uuid"
	"github.com/pkg/errors"

	"github.com/mbolis/opinio/model"
)

// Store persists surveys and their responses. GetSurvey reports a missing
// survey with an error matching ErrNotFound. DeleteSurvey removes the
// responses of a survey before the survey itself, as one unit when it can.
type Store interface {
	CreateSurvey(ctx context.Context, s model.Survey) error
	ListSurveys(ctx context.Context, ownerID string) ([]model.Survey, error)
	GetSurvey(ctx context.Context, id string) (model.Survey, error)
	UpdateSurvey(ctx context.Context, s model.Survey) error
	DeleteSurvey(ctx context.Context, id string) error

	CreateResponse(ctx context.Context, r model.Response) error
	ListResponses(ctx context.Context, surveyID string) ([]model.Response, error)
}

// Results is everything the owner sees about a survey.
type Results struct {
	Survey    model.Survey       `json:"survey"`
	Responses []model.Response   `json:"responses"`
	Summaries map[string]Summary `json:"summaries"`
}

type Service struct {
	store Store
	now   func() time.Time
	newID func() string
}

type Option func(*Service)

// WithClock sets the source of the current instant.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithIDs sets the identifier generator.
func WithIDs(newID func() string) Option {
	return func(s *Service) { s.newID = newID }
}

func NewService(store Store, opts ...Option) *Service {
	svc := &Service{
		store: store,
		now:   time.Now,
		newID: NewID,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

// NewID returns a random UUID string.
func NewID() string {
	return uuid.Must(uuid.NewV4()).String()
}

func (svc *Service) CreateSurvey(ctx context.Context, ownerID string, in model.SurveyInput) (model.Survey, error) {
	if ownerID == Anonymous {
		return model.Survey{}, ErrUnauthorized
	}

	s := model.Survey{
		ID:          svc.newID(),
		OwnerID:     ownerID,
		Title:       in.Title,
		Description: in.Description,
		Questions:   model.BuildQuestions(in.Questions, nil, svc.newID),
		ExpiresAt:   in.ExpiresAt,
		CreatedAt:   svc.now(),
	}
	if err := model.ValidateSurvey(s); err != nil {
		return model.Survey{}, err
	}

	if err := svc.store.CreateSurvey(ctx, s); err != nil {
		return model.Survey{}, storeError("create_survey", err)
	}
	return s, nil
}

// ListSurveys returns the surveys of ownerID, newest first.
func (svc *Service) ListSurveys(ctx context.Context, ownerID string) ([]model.Survey, error) {
	if ownerID == Anonymous {
		return nil, ErrUnauthorized
	}
	surveys, err := svc.store.ListSurveys(ctx, ownerID)
	if err != nil {
		return nil, storeError("list_surveys", err)
	}
	return surveys, nil
}

// PublicSurvey returns the definition of an open survey to anyone.
func (svc *Service) PublicSurvey(ctx context.Context, id string) (model.Survey, error) {
	s, err := svc.getSurvey(ctx, id)
	if err != nil {
		return model.Survey{}, err
	}
	if err := CheckOpen(s, svc.now()); err != nil {
		return model.Survey{}, err
	}
	return s, nil
}

// UpdateSurvey replaces title, description, questions and expiry of a survey
// owned by callerID. Questions submitted with their current id keep it.
func (svc *Service) UpdateSurvey(ctx context.Context, callerID, id string, in model.SurveyInput) (model.Survey, error) {
	s, err := svc.ownedSurvey(ctx, callerID, id, Update)
	if err != nil {
		return model.Survey{}, err
	}

	known := make(map[string]bool, len(s.Questions))
	for _, q := range s.Questions {
		known[q.ID] = true
	}
	s.Title = in.Title
	s.Description = in.Description
	s.Questions = model.BuildQuestions(in.Questions, known, svc.newID)
	s.ExpiresAt = in.ExpiresAt
	if err := model.ValidateSurvey(s); err != nil {
		return model.Survey{}, err
	}

	if err := svc.store.UpdateSurvey(ctx, s); err != nil {
		if errors.Is(err, ErrNotFound) {
			return model.Survey{}, ErrNotFound
		}
		return model.Survey{}, storeError("update_survey", err)
	}
	return s, nil
}

// DeleteSurvey removes a survey owned by callerID together with its responses.
func (svc *Service) DeleteSurvey(ctx context.Context, callerID, id string) error {
	if _, err := svc.ownedSurvey(ctx, callerID, id, Delete); err != nil {
		return err
	}
	if err := svc.store.DeleteSurvey(ctx, id); err != nil {
		if errors.Is(err, ErrNotFound) {
			return ErrNotFound
		}
		return storeError("delete_survey", err)
	}
	return nil
}

// Results returns a survey, its responses and their summaries to the owner.
// Expiry does not apply here.
func (svc *Service) Results(ctx context.Context, callerID, id string) (Results, error) {
	s, err := svc.ownedSurvey(ctx, callerID, id, ReadResults)
	if err != nil {
		return Results{}, err
	}
	responses, err := svc.store.ListResponses(ctx, id)
	if err != nil {
		return Results{}, storeError("list_responses", err)
	}
	if responses == nil {
		responses = []model.Response{}
	}
	return Results{
		Survey:    s,
		Responses: responses,
		Summaries: Aggregate(s, responses),
	}, nil
}

// Submit validates and stores an anonymous response to an open survey.
func (svc *Service) Submit(ctx context.Context, surveyID string, submitted Submission) (model.Response, error) {
	s, err := svc.getSurvey(ctx, surveyID)
	if err != nil {
		return model.Response{}, err
	}
	now := svc.now()
	if err := CheckOpen(s, now); err != nil {
		return model.Response{}, err
	}

	answers, err := ValidateAnswers(s, submitted)
	if err != nil {
		return model.Response{}, err
	}

	r := model.Response{
		ID:          svc.newID(),
		SurveyID:    s.ID,
		Answers:     answers,
		SubmittedAt: now,
	}
	if err := svc.store.CreateResponse(ctx, r); err != nil {
		return model.Response{}, storeError("create_response", err)
	}
	return r, nil
}

func (svc *Service) getSurvey(ctx context.Context, id string) (model.Survey, error) {
	s, err := svc.store.GetSurvey(ctx, id)
	switch {
	case errors.Is(err, ErrNotFound):
		return model.Survey{}, ErrNotFound
	case err != nil:
		return model.Survey{}, storeError("get_survey", err)
	}
	return s, nil
}

// ownedSurvey loads a survey, then checks ownership: a missing survey is
// always ErrNotFound, an existing one ErrUnauthorized for anyone else.
func (svc *Service) ownedSurvey(ctx context.Context, callerID, id string, op Operation) (model.Survey, error) {
	s, err := svc.getSurvey(ctx, id)
	if err != nil {
		return model.Survey{}, err
	}
	if err := Authorize(s, callerID, op); err != nil {
		return model.Survey{}, err
	}
	return s, nil
}
