package database

import (
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"
)

func TestUsers(t *testing.T) {
	ctx := context.Background()
	st := openTestStore(t)

	if err := st.CreateUser(ctx, "U1", "alice", "s3cret", created); err != nil {
		t.Fatal(err)
	}
	if err := st.CreateUser(ctx, "U2", "alice", "other", created); !errors.Is(err, ErrUserExists) {
		t.Errorf("expected ErrUserExists, got %v", err)
	}

	tests := []struct {
		name     string
		username string
		password string
		wantErr  error
	}{
		{"right password", "alice", "s3cret", nil},
		{"wrong password", "alice", "nope", ErrBadCredentials},
		{"unknown user", "bob", "s3cret", ErrBadCredentials},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := st.VerifyPassword(ctx, tt.username, tt.password)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("got %v, want %v", err, tt.wantErr)
			}
		})
	}

	id, err := st.UserID(ctx, "alice")
	if err != nil || id != "U1" {
		t.Errorf("UserID = %q, %v", id, err)
	}
	if _, err := st.UserID(ctx, "bob"); !errors.Is(err, ErrBadCredentials) {
		t.Errorf("expected ErrBadCredentials for unknown user, got %v", err)
	}
}

func TestTokens(t *testing.T) {
	ctx := context.Background()
	st := openTestStore(t)

	if err := st.StoreToken(ctx, "alice", "t1", "r1", created.Add(time.Hour)); err != nil {
		t.Fatal(err)
	}
	if err := st.StoreToken(ctx, "alice", "t2", "r2", created.Add(-time.Hour)); err != nil {
		t.Fatal(err)
	}

	if err := st.ConsumeToken(ctx, "alice", "t1", "r1", created); err != nil {
		t.Errorf("valid token rejected: %v", err)
	}
	if err := st.ConsumeToken(ctx, "alice", "t1", "r1", created); !errors.Is(err, ErrTokenRejected) {
		t.Errorf("token should be single use, got %v", err)
	}
	if err := st.ConsumeToken(ctx, "alice", "t2", "r2", created); !errors.Is(err, ErrTokenRejected) {
		t.Errorf("expired token accepted: %v", err)
	}
	if err := st.ConsumeToken(ctx, "bob", "t1", "r1", created); !errors.Is(err, ErrTokenRejected) {
		t.Errorf("foreign token accepted: %v", err)
	}
}

func TestChangePassword(t *testing.T) {
	ctx := context.Background()
	st := openTestStore(t)

	if err := st.CreateUser(ctx, "U1", "alice", "s3cret", created); err != nil {
		t.Fatal(err)
	}
	if err := st.StoreToken(ctx, "alice", "t1", "r1", created.Add(time.Hour)); err != nil {
		t.Fatal(err)
	}

	if err := st.ChangePassword(ctx, "U1", "wrong", "n3w-secret"); !errors.Is(err, ErrBadCredentials) {
		t.Errorf("wrong current password: got %v", err)
	}
	if err := st.ChangePassword(ctx, "U9", "s3cret", "n3w-secret"); !errors.Is(err, ErrBadCredentials) {
		t.Errorf("unknown user: got %v", err)
	}
	if err := st.VerifyPassword(ctx, "alice", "s3cret"); err != nil {
		t.Fatalf("failed attempts changed the password: %v", err)
	}

	if err := st.ChangePassword(ctx, "U1", "s3cret", "n3w-secret"); err != nil {
		t.Fatal(err)
	}
	if err := st.VerifyPassword(ctx, "alice", "s3cret"); !errors.Is(err, ErrBadCredentials) {
		t.Errorf("old password still accepted: %v", err)
	}
	if err := st.VerifyPassword(ctx, "alice", "n3w-secret"); err != nil {
		t.Errorf("new password rejected: %v", err)
	}
	if err := st.ConsumeToken(ctx, "alice", "t1", "r1", created); !errors.Is(err, ErrTokenRejected) {
		t.Errorf("refresh token should be revoked, got %v", err)
	}
}
