package routes

import (
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/go-chi/render"
	"github.com/pkg/errors"

	"github.com/mbolis/opinio/app"
	"github.com/mbolis/opinio/database"
	"github.com/mbolis/opinio/httpx"
	"github.com/mbolis/opinio/log"
	"github.com/mbolis/opinio/routes/middlewares"
	"github.com/mbolis/opinio/survey"
)

const minPasswordLength = 8

type registration struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func Register(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		reg := registration{}
		err := render.DecodeJSON(r.Body, &reg)
		if err != nil {
			httpx.LogStatus(w, r, http.StatusBadRequest, log.DebugLevel, "request.parse_body")
			return
		}

		reg.Username = strings.TrimSpace(reg.Username)
		if reg.Username == "" {
			httpx.LogStatusMsg(w, r, http.StatusBadRequest, log.DebugLevel, "register.username", "username is required")
			return
		}
		if utf8.RuneCountInString(reg.Password) < minPasswordLength {
			httpx.LogStatusMsg(w, r, http.StatusBadRequest, log.DebugLevel, "register.password", "password must be at least %d characters", minPasswordLength)
			return
		}

		id := survey.NewID()
		err = app.Store.CreateUser(r.Context(), id, reg.Username, reg.Password, time.Now())
		if errors.Is(err, database.ErrUserExists) {
			httpx.LogStatusMsg(w, r, http.StatusConflict, log.DebugLevel, "register.exists", "username %q is taken", reg.Username)
			return
		}
		if err != nil {
			httpx.LogInternalError(w, r, "db.insert_user", err)
			return
		}

		render.Status(r, http.StatusCreated)
		render.JSON(w, r, map[string]any{
			"id": id,
		})
	}
}

type passwordChange struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

// UpdateProfile changes the caller's password. Refresh tokens issued before
// the change stop working; access tokens last until they expire.
func UpdateProfile(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		change := passwordChange{}
		err := render.DecodeJSON(r.Body, &change)
		if err != nil {
			httpx.LogStatus(w, r, http.StatusBadRequest, log.DebugLevel, "request.parse_body")
			return
		}

		if utf8.RuneCountInString(change.NewPassword) < minPasswordLength {
			httpx.LogStatusMsg(w, r, http.StatusBadRequest, log.DebugLevel, "profile.password", "password must be at least %d characters", minPasswordLength)
			return
		}

		err = app.Store.ChangePassword(r.Context(), middlewares.CallerID(r), change.CurrentPassword, change.NewPassword)
		if errors.Is(err, database.ErrBadCredentials) {
			httpx.LogStatusMsg(w, r, http.StatusUnauthorized, log.InfoLevel, "profile.current_password", "current password is wrong")
			return
		}
		if err != nil {
			httpx.LogInternalError(w, r, "db.update_user", err)
			return
		}

		render.JSON(w, r, map[string]any{
			"status": "updated",
		})
	}
}

// Login exchanges HTTP Basic credentials for a bearer and a refresh token.
func Login(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		if !ok {
			httpx.LogStatus(w, r, http.StatusUnauthorized, log.DebugLevel, "login.basic_auth")
			return
		}

		body := url.Values{
			"grant_type": {"password"},
			"username":   {user},
			"password":   {pass},
		}
		r.Body = io.NopCloser(strings.NewReader(body.Encode()))
		r.Header.Set("content-type", "application/x-www-form-urlencoded")
		r.Header.Set("content-length", strconv.Itoa(len(body.Encode())))

		resp := httpx.NewResponseBuffer()
		app.UserCredentials(resp, r)
		if resp.Status() != http.StatusOK {
			httpx.LogStatus(w, r, http.StatusUnauthorized, log.DebugLevel, "login.rejected")
			return
		}
		resp.Flush(w)
	}
}

var reRefresh = regexp.MustCompile(`(?i)^refresh\s+(.*)`)

// Refresh trades a refresh token, sent as "Authorization: Refresh <token>",
// for a new token pair.
func Refresh(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		match := reRefresh.FindStringSubmatch(r.Header.Get("authorization"))
		if len(match) == 0 {
			httpx.LogStatus(w, r, http.StatusUnauthorized, log.DebugLevel, "refresh.token")
			return
		}

		body := url.Values{
			"grant_type":    {"refresh_token"},
			"refresh_token": {match[1]},
		}
		req, err := http.NewRequestWithContext(r.Context(), "POST", "/", strings.NewReader(body.Encode()))
		if err != nil {
			httpx.LogInternalError(w, r, "refresh.new_request", err)
			return
		}
		req.Header.Set("content-type", "application/x-www-form-urlencoded")
		req.Header.Set("content-length", strconv.Itoa(len(body.Encode())))

		resp := httpx.NewResponseBuffer()
		app.UserCredentials(resp, req)
		if resp.Status() != http.StatusOK {
			httpx.LogStatus(w, r, http.StatusUnauthorized, log.DebugLevel, "refresh.rejected")
			return
		}
		resp.Flush(w)
	}
}
