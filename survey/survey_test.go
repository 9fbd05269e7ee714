package survey

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/mbolis/opinio/model"
)

// memStore is an in-memory Store for tests.
type memStore struct {
	mu        sync.Mutex
	surveys   map[string]model.Survey
	responses []model.Response
	fail      error
}

func newMemStore() *memStore {
	return &memStore{surveys: map[string]model.Survey{}}
}

func (m *memStore) CreateSurvey(ctx context.Context, s model.Survey) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail != nil {
		return m.fail
	}
	m.surveys[s.ID] = s
	return nil
}

func (m *memStore) ListSurveys(ctx context.Context, ownerID string) ([]model.Survey, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.Survey
	for _, s := range m.surveys {
		if s.OwnerID == ownerID {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *memStore) GetSurvey(ctx context.Context, id string) (model.Survey, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail != nil {
		return model.Survey{}, m.fail
	}
	s, ok := m.surveys[id]
	if !ok {
		return model.Survey{}, errors.Wrap(ErrNotFound, id)
	}
	return s, nil
}

func (m *memStore) UpdateSurvey(ctx context.Context, s model.Survey) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.surveys[s.ID]; !ok {
		return ErrNotFound
	}
	m.surveys[s.ID] = s
	return nil
}

func (m *memStore) DeleteSurvey(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	kept := m.responses[:0]
	for _, r := range m.responses {
		if r.SurveyID != id {
			kept = append(kept, r)
		}
	}
	m.responses = kept
	if _, ok := m.surveys[id]; !ok {
		return ErrNotFound
	}
	delete(m.surveys, id)
	return nil
}

func (m *memStore) CreateResponse(ctx context.Context, r model.Response) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail != nil {
		return m.fail
	}
	m.responses = append(m.responses, r)
	return nil
}

func (m *memStore) ListResponses(ctx context.Context, surveyID string) ([]model.Response, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.Response
	for _, r := range m.responses {
		if r.SurveyID == surveyID {
			out = append(out, r)
		}
	}
	return out, nil
}

// sequentialIDs returns an id generator producing id-1, id-2, ...
func sequentialIDs() func() string {
	var mu sync.Mutex
	n := 0
	return func() string {
		mu.Lock()
		defer mu.Unlock()
		n++
		return fmt.Sprintf("id-%d", n)
	}
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func ptr[T any](v T) *T {
	return &v
}

var testNow = time.Date(2025, 3, 14, 12, 0, 0, 0, time.UTC)

func colorSurvey() model.Survey {
	return model.Survey{
		ID:      "s1",
		OwnerID: "U1",
		Title:   "Feedback",
		Questions: []model.Question{
			{ID: "q1", Text: "Color?", Type: model.SingleChoice, Options: []string{"Red", "Blue"}, Required: true},
		},
		CreatedAt: testNow,
	}
}

func response(id string, submitted time.Time, answers map[string]model.AnswerValue) model.Response {
	return model.Response{ID: id, SurveyID: "s1", Answers: answers, SubmittedAt: submitted}
}
