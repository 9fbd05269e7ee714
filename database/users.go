package database

import (
	"context"
	"database/sql"
	"time"

	"github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrUserExists     = errors.New("username already taken")
	ErrBadCredentials = errors.New("invalid username or password")
	ErrTokenRejected  = errors.New("could not refresh")
)

// CreateUser registers a new account. A taken username fails with
// ErrUserExists.
func (st *Store) CreateUser(ctx context.Context, id, username, password string, now time.Time) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return errors.Wrap(err, "create_user.hash")
	}

	_, err = st.db.ExecContext(ctx, `
		INSERT INTO user (id, username, password_hash, created_at) VALUES (?, ?, ?, ?)`,
		id,
		username,
		hash,
		now.UTC(),
	)
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique {
		return ErrUserExists
	}
	return errors.Wrap(err, "create_user")
}

// VerifyPassword checks a username and password pair. Unknown users and
// wrong passwords are both reported as ErrBadCredentials.
func (st *Store) VerifyPassword(ctx context.Context, username, password string) error {
	var hash []byte
	err := st.db.QueryRowContext(ctx, `
		SELECT password_hash FROM user WHERE username = ?`,
		username,
	).Scan(&hash)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrBadCredentials
	}
	if err != nil {
		return errors.Wrap(err, "verify_password")
	}

	if bcrypt.CompareHashAndPassword(hash, []byte(password)) != nil {
		return ErrBadCredentials
	}
	return nil
}

func (st *Store) UserID(ctx context.Context, username string) (string, error) {
	var id string
	err := st.db.QueryRowContext(ctx, `
		SELECT id FROM user WHERE username = ?`,
		username,
	).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrBadCredentials
	}
	return id, errors.Wrap(err, "user_id")
}

// ChangePassword replaces the password of user id after checking the current
// one, and revokes every refresh token issued to the user. A wrong current
// password fails with ErrBadCredentials.
func (st *Store) ChangePassword(ctx context.Context, id, current, next string) error {
	var username string
	err := st.db.QueryRowContext(ctx, `
		SELECT username FROM user WHERE id = ?`,
		id,
	).Scan(&username)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrBadCredentials
	}
	if err != nil {
		return errors.Wrap(err, "change_password.user")
	}

	if err = st.VerifyPassword(ctx, username, current); err != nil {
		return err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(next), bcrypt.DefaultCost)
	if err != nil {
		return errors.Wrap(err, "change_password.hash")
	}

	tx, err := st.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "begin_tx")
	}
	defer tx.Rollback()

	if _, err = tx.ExecContext(ctx, `UPDATE user SET password_hash = ? WHERE id = ?`, hash, id); err != nil {
		return errors.Wrap(err, "change_password.update")
	}
	if _, err = tx.ExecContext(ctx, `DELETE FROM token WHERE username = ?`, username); err != nil {
		return errors.Wrap(err, "change_password.revoke")
	}
	return errors.Wrap(tx.Commit(), "commit")
}

// StoreToken remembers an issued refresh token until expiration.
func (st *Store) StoreToken(ctx context.Context, username, tokenID, refreshTokenID string, expiration time.Time) error {
	_, err := st.db.ExecContext(ctx, `
		INSERT INTO token (username, token_id, refresh_token_id, expiration) VALUES (?, ?, ?, ?)`,
		username,
		tokenID,
		refreshTokenID,
		expiration.UTC(),
	)
	return errors.Wrap(err, "store_token")
}

// ConsumeToken deletes a stored refresh token. It fails with
// ErrTokenRejected when the token is unknown or expired at now.
func (st *Store) ConsumeToken(ctx context.Context, username, tokenID, refreshTokenID string, now time.Time) error {
	tx, err := st.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "begin_tx")
	}
	defer tx.Rollback()

	var expiration time.Time
	err = tx.QueryRowContext(ctx, `
		SELECT expiration FROM token
		WHERE username = ?
			AND token_id = ?
			AND refresh_token_id = ?`,
		username,
		tokenID,
		refreshTokenID,
	).Scan(&expiration)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrTokenRejected
	}
	if err != nil {
		return errors.Wrap(err, "consume_token")
	}

	_, err = tx.ExecContext(ctx, `
		DELETE FROM token
		WHERE username = ?
			AND token_id = ?
			AND refresh_token_id = ?`,
		username,
		tokenID,
		refreshTokenID,
	)
	if err != nil {
		return errors.Wrap(err, "consume_token.delete")
	}
	if err = tx.Commit(); err != nil {
		return errors.Wrap(err, "commit")
	}

	if expiration.Before(now) {
		return ErrTokenRejected
	}
	return nil
}
