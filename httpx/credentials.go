package httpx

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/oauth"
	"github.com/pkg/errors"
)

// ClaimUserID is the token claim holding the id of the authenticated user.
const ClaimUserID = "user_id"

// Users is the account storage behind the bearer server.
type Users interface {
	VerifyPassword(ctx context.Context, username, password string) error
	UserID(ctx context.Context, username string) (string, error)
	StoreToken(ctx context.Context, username, tokenID, refreshTokenID string, expiration time.Time) error
	ConsumeToken(ctx context.Context, username, tokenID, refreshTokenID string, now time.Time) error
}

type credentialsVerifier struct {
	users      Users
	refreshTTL time.Duration
	now        func() time.Time
}

func CredentialsVerifier(users Users, refreshTTL time.Duration) oauth.CredentialsVerifier {
	return &credentialsVerifier{users, refreshTTL, time.Now}
}

// NewBearerServer issues access tokens signed with secret for password and
// refresh_token grants.
func NewBearerServer(users Users, secret string, ttl, refreshTTL time.Duration) *oauth.BearerServer {
	return oauth.NewBearerServer(secret, ttl, CredentialsVerifier(users, refreshTTL), nil)
}

func (cs *credentialsVerifier) ValidateUser(username string, password string, scope string, r *http.Request) error {
	return cs.users.VerifyPassword(r.Context(), username, password)
}
func (cs *credentialsVerifier) StoreTokenID(tokenType oauth.TokenType, credential string, tokenID string, refreshTokenID string) error {
	return cs.users.StoreToken(context.Background(), credential, tokenID, refreshTokenID, cs.now().Add(cs.refreshTTL))
}
func (cs *credentialsVerifier) ValidateTokenID(tokenType oauth.TokenType, credential string, tokenID string, refreshTokenID string) error {
	return cs.users.ConsumeToken(context.Background(), credential, tokenID, refreshTokenID, cs.now())
}
func (cs *credentialsVerifier) AddClaims(tokenType oauth.TokenType, credential string, tokenID string, scope string, r *http.Request) (map[string]string, error) {
	id, err := cs.users.UserID(r.Context(), credential)
	if err != nil {
		return nil, err
	}
	return map[string]string{ClaimUserID: id}, nil
}
func (*credentialsVerifier) AddProperties(tokenType oauth.TokenType, credential string, tokenID string, scope string, r *http.Request) (map[string]string, error) {
	return map[string]string{}, nil
}
func (*credentialsVerifier) ValidateClient(clientID string, clientSecret string, scope string, r *http.Request) error {
	return errors.New("not supported")
}
