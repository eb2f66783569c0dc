package app

import (
	"io"
	"log"
	"net/http"
	"time"

	"boardhub/internal/store"
)

const authCookieName = "authToken"

type userPayload struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type loginPayload struct {
	userPayload
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

func userToPayload(user store.User) userPayload {
	return userPayload{
		ID:        user.ID,
		Email:     user.Email,
		CreatedAt: user.CreatedAt,
		UpdatedAt: user.UpdatedAt,
	}
}

// handleUsers serves /users, /users/signup, /users/login, /users/logout and /users/me.
func (s *HTTPServer) handleUsers(w http.ResponseWriter, r *http.Request, rc RequestContext, parts []string) bool {
	switch {
	case len(parts) == 0 && r.Method == http.MethodGet:
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = io.WriteString(w, "respond with a resource")
	case len(parts) == 1 && parts[0] == "signup" && r.Method == http.MethodPost:
		var input CredentialsInput
		if !s.decode(w, r, &input) {
			return true
		}
		user, err := s.service.SignUp(r.Context(), input)
		if err != nil {
			s.fail(w, r, err)
			return true
		}
		writeJSON(w, http.StatusCreated, userToPayload(user))
	case len(parts) == 1 && parts[0] == "login" && r.Method == http.MethodPost:
		s.login(w, r)
	case len(parts) == 1 && parts[0] == "logout":
		s.clearAuthCookie(w)
		w.WriteHeader(http.StatusNoContent)
	case len(parts) == 1 && parts[0] == "me" && r.Method == http.MethodGet:
		s.authenticate(w, r, rc, func(w http.ResponseWriter, r *http.Request, rc RequestContext) {
			user, err := s.service.CurrentUser(r.Context(), rc.Identity)
			if err != nil {
				s.fail(w, r, err)
				return
			}
			if user == nil {
				writeJSON(w, http.StatusOK, nil)
				return
			}
			writeJSON(w, http.StatusOK, userToPayload(*user))
		})
	default:
		return false
	}
	return true
}

func (s *HTTPServer) login(w http.ResponseWriter, r *http.Request) {
	var input CredentialsInput
	if !s.decode(w, r, &input) {
		return
	}
	result, err := s.service.Login(r.Context(), input)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     authCookieName,
		Value:    result.Token,
		Path:     "/",
		HttpOnly: true,
		Secure:   s.service.cfg.CookieSecure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(s.service.cfg.TokenTTL.Seconds()),
		Expires:  result.ExpiresAt,
	})
	writeJSON(w, http.StatusCreated, loginPayload{
		userPayload: userToPayload(result.User),
		Token:       result.Token,
		ExpiresAt:   result.ExpiresAt,
	})
}

func (s *HTTPServer) clearAuthCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     authCookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   s.service.cfg.CookieSecure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
	})
}

// authenticate verifies the auth token from the authToken cookie or a bearer header.
// With AuthEnforce unset a failed check is logged and the request proceeds without identity.
func (s *HTTPServer) authenticate(w http.ResponseWriter, r *http.Request, rc RequestContext, next func(http.ResponseWriter, *http.Request, RequestContext)) {
	token := ""
	if cookie, err := r.Cookie(authCookieName); err == nil {
		token = cookie.Value
	}
	if token == "" {
		token = bearerToken(r)
	}

	identity, err := s.service.Authenticate(token)
	if err != nil {
		failure := authorizationFailed(err)
		if s.service.cfg.AuthEnforce {
			s.fail(w, r, failure)
			return
		}
		log.Printf(`{"request_id":"%s","auth_error":%q}`, rc.RequestID, err.Error())
		next(w, r, rc)
		return
	}

	rc.Identity = &identity
	next(w, r.WithContext(withRequestContext(r.Context(), rc)), rc)
}
