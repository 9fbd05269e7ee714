package database

import (
	"context"
	"database/sql"
	"time"

	"github.com/goccy/go-json"
	"github.com/pkg/errors"

	"github.com/mbolis/opinio/model"
)

func (st *Store) CreateResponse(ctx context.Context, r model.Response) error {
	tx, err := st.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "begin_tx")
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO response (id, survey_id, submitted_at) VALUES (?, ?, ?)`,
		r.ID,
		r.SurveyID,
		r.SubmittedAt.UTC(),
	)
	if err != nil {
		return errors.Wrap(err, "insert_response")
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO response_answer (response_id, question_id, kind, value)
		VALUES (?, ?, ?, ?)`)
	if err != nil {
		return errors.Wrap(err, "insert_response.answers.prepare")
	}
	defer stmt.Close()

	for qid, a := range r.Answers {
		value, err := json.Marshal(a)
		if err != nil {
			return errors.Wrap(err, "insert_response.answers.encode")
		}
		_, err = stmt.ExecContext(ctx, r.ID, qid, string(a.Kind()), string(value))
		if err != nil {
			return errors.Wrap(err, "insert_response.answers.insert")
		}
	}

	return errors.Wrap(tx.Commit(), "commit")
}

// ListResponses returns the responses of a survey in submission order.
func (st *Store) ListResponses(ctx context.Context, surveyID string) ([]model.Response, error) {
	rows, err := st.db.QueryContext(ctx, `
		SELECT
			r.id, r.submitted_at,
			a.question_id, a.kind, a.value
		FROM response r
		LEFT OUTER JOIN response_answer a ON (r.id = a.response_id)
		WHERE r.survey_id = ?
		ORDER BY r.seq`,
		surveyID,
	)
	if err != nil {
		return nil, errors.Wrap(err, "list_responses")
	}
	defer rows.Close()

	responses := []model.Response{}
	for rows.Next() {
		var (
			id                      string
			submittedAt             time.Time
			questionID, kind, value sql.NullString
		)
		err = rows.Scan(&id, &submittedAt, &questionID, &kind, &value)
		if err != nil {
			return nil, errors.Wrap(err, "list_responses.scan")
		}

		last := len(responses) - 1
		if last < 0 || responses[last].ID != id {
			responses = append(responses, model.Response{
				ID:          id,
				SurveyID:    surveyID,
				Answers:     map[string]model.AnswerValue{},
				SubmittedAt: submittedAt,
			})
			last++
		}
		if !questionID.Valid {
			continue
		}

		a, err := model.RestoreAnswer(model.AnswerKind(kind.String), []byte(value.String))
		if err != nil {
			return nil, errors.Wrapf(err, "list_responses.parse_value(%s)", questionID.String)
		}
		responses[last].Answers[questionID.String] = a
	}
	return responses, errors.Wrap(rows.Err(), "list_responses")
}
