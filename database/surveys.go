package database

import (
	"context"
	"database/sql"
	"time"

	"github.com/goccy/go-json"
	"github.com/pkg/errors"

	"github.com/mbolis/opinio/model"
	"github.com/mbolis/opinio/survey"
)

// Store keeps surveys, responses and user accounts in SQLite.
type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

var _ survey.Store = (*Store)(nil)

func (st *Store) CreateSurvey(ctx context.Context, s model.Survey) error {
	tx, err := st.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "begin_tx")
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO survey (id, owner_id, title, description, expires_at, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		s.ID,
		s.OwnerID,
		s.Title,
		s.Description,
		utcPtr(s.ExpiresAt),
		s.CreatedAt.UTC(),
	)
	if err != nil {
		return errors.Wrap(err, "insert_survey")
	}

	if err = insertQuestions(ctx, tx, s); err != nil {
		return err
	}

	return errors.Wrap(tx.Commit(), "commit")
}

func (st *Store) GetSurvey(ctx context.Context, id string) (model.Survey, error) {
	s := model.Survey{}
	var expiresAt sql.NullTime
	err := st.db.QueryRowContext(ctx, `
		SELECT id, owner_id, title, description, expires_at, created_at
		FROM survey
		WHERE id = ?`,
		id,
	).Scan(&s.ID, &s.OwnerID, &s.Title, &s.Description, &expiresAt, &s.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Survey{}, errors.Wrap(survey.ErrNotFound, id)
	}
	if err != nil {
		return model.Survey{}, errors.Wrap(err, "get_survey")
	}
	if expiresAt.Valid {
		s.ExpiresAt = &expiresAt.Time
	}

	rows, err := st.db.QueryContext(ctx, `
		SELECT survey_id, id, text, type, options, required
		FROM survey_question
		WHERE survey_id = ?
		ORDER BY position`,
		id,
	)
	if err != nil {
		return model.Survey{}, errors.Wrap(err, "get_survey.questions")
	}
	defer rows.Close()

	s.Questions = []model.Question{}
	for rows.Next() {
		_, q, err := scanQuestion(rows)
		if err != nil {
			return model.Survey{}, err
		}
		s.Questions = append(s.Questions, q)
	}
	return s, errors.Wrap(rows.Err(), "get_survey.questions")
}

// ListSurveys returns the surveys of ownerID, newest first.
func (st *Store) ListSurveys(ctx context.Context, ownerID string) ([]model.Survey, error) {
	rows, err := st.db.QueryContext(ctx, `
		SELECT id, owner_id, title, description, expires_at, created_at
		FROM survey
		WHERE owner_id = ?
		ORDER BY created_at DESC, rowid DESC`,
		ownerID,
	)
	if err != nil {
		return nil, errors.Wrap(err, "list_surveys")
	}
	defer rows.Close()

	surveys := []model.Survey{}
	index := map[string]int{}
	for rows.Next() {
		s := model.Survey{Questions: []model.Question{}}
		var expiresAt sql.NullTime
		err = rows.Scan(&s.ID, &s.OwnerID, &s.Title, &s.Description, &expiresAt, &s.CreatedAt)
		if err != nil {
			return nil, errors.Wrap(err, "list_surveys.scan")
		}
		if expiresAt.Valid {
			s.ExpiresAt = &expiresAt.Time
		}
		index[s.ID] = len(surveys)
		surveys = append(surveys, s)
	}
	if err = rows.Err(); err != nil {
		return nil, errors.Wrap(err, "list_surveys")
	}
	rows.Close()

	qrows, err := st.db.QueryContext(ctx, `
		SELECT q.survey_id, q.id, q.text, q.type, q.options, q.required
		FROM survey_question q
		INNER JOIN survey s ON (s.id = q.survey_id)
		WHERE s.owner_id = ?
		ORDER BY q.survey_id, q.position`,
		ownerID,
	)
	if err != nil {
		return nil, errors.Wrap(err, "list_surveys.questions")
	}
	defer qrows.Close()

	for qrows.Next() {
		surveyID, q, err := scanQuestion(qrows)
		if err != nil {
			return nil, err
		}
		if i, ok := index[surveyID]; ok {
			surveys[i].Questions = append(surveys[i].Questions, q)
		}
	}
	return surveys, errors.Wrap(qrows.Err(), "list_surveys.questions")
}

// UpdateSurvey replaces the mutable fields and the whole question list.
func (st *Store) UpdateSurvey(ctx context.Context, s model.Survey) error {
	tx, err := st.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "begin_tx")
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		UPDATE survey
		SET
			title = ?,
			description = ?,
			expires_at = ?
		WHERE id = ?`,
		s.Title,
		s.Description,
		utcPtr(s.ExpiresAt),
		s.ID,
	)
	if err != nil {
		return errors.Wrap(err, "update_survey")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "update_survey.verify")
	}
	if n < 1 {
		return errors.Wrap(survey.ErrNotFound, s.ID)
	}

	// delete all questions, then recreate them in order
	_, err = tx.ExecContext(ctx, `
		DELETE FROM survey_question
		WHERE survey_id = ?`,
		s.ID,
	)
	if err != nil {
		return errors.Wrap(err, "update_survey.delete_questions")
	}
	if err = insertQuestions(ctx, tx, s); err != nil {
		return err
	}

	return errors.Wrap(tx.Commit(), "commit")
}

// DeleteSurvey removes answers, responses and questions of a survey, then
// the survey, in one transaction.
func (st *Store) DeleteSurvey(ctx context.Context, id string) error {
	tx, err := st.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "begin_tx")
	}
	defer tx.Rollback()

	steps := []struct {
		code  string
		query string
	}{
		{"delete_survey.answers", `
			DELETE FROM response_answer
			WHERE response_id IN (SELECT id FROM response WHERE survey_id = ?)`},
		{"delete_survey.responses", `DELETE FROM response WHERE survey_id = ?`},
		{"delete_survey.questions", `DELETE FROM survey_question WHERE survey_id = ?`},
	}
	for _, step := range steps {
		if _, err = tx.ExecContext(ctx, step.query, id); err != nil {
			return errors.Wrap(err, step.code)
		}
	}

	res, err := tx.ExecContext(ctx, `DELETE FROM survey WHERE id = ?`, id)
	if err != nil {
		return errors.Wrap(err, "delete_survey")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "delete_survey.verify")
	}
	if n < 1 {
		return errors.Wrap(survey.ErrNotFound, id)
	}

	return errors.Wrap(tx.Commit(), "commit")
}

func insertQuestions(ctx context.Context, tx *sql.Tx, s model.Survey) error {
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO survey_question (survey_id, id, position, text, type, options, required)
		VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return errors.Wrap(err, "insert_questions.prepare")
	}
	defer stmt.Close()

	for i, q := range s.Questions {
		options := q.Options
		if options == nil {
			options = []string{}
		}
		optionsJSON, err := json.Marshal(options)
		if err != nil {
			return errors.Wrap(err, "insert_questions.options")
		}
		_, err = stmt.ExecContext(ctx, s.ID, q.ID, i, q.Text, string(q.Type), string(optionsJSON), q.Required)
		if err != nil {
			return errors.Wrap(err, "insert_questions.insert")
		}
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanQuestion(row scanner) (surveyID string, q model.Question, err error) {
	var qtype, options string
	err = row.Scan(&surveyID, &q.ID, &q.Text, &qtype, &options, &q.Required)
	if err != nil {
		return "", model.Question{}, errors.Wrap(err, "question.scan")
	}
	q.Type = model.QuestionType(qtype)
	if err = json.Unmarshal([]byte(options), &q.Options); err != nil {
		return "", model.Question{}, errors.Wrap(err, "question.parse_options")
	}
	if q.Options == nil {
		q.Options = []string{}
	}
	return surveyID, q, nil
}

func utcPtr(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC()
}
