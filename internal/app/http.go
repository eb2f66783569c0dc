package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"mime"
	"net/http"
	"strconv"
	"strings"
	"time"

	"boardhub/internal/auth"
	"boardhub/internal/search"
	"boardhub/internal/session"
	"boardhub/internal/util"
)

type HTTPServer struct {
	service    *Service
	corsOrigin string
	cookies    session.Cookies
}

func NewHTTPServer(service *Service, corsOrigin string) *HTTPServer {
	return &HTTPServer{
		service:    service,
		corsOrigin: corsOrigin,
		cookies:    session.NewCookies(service.cfg.SessionSecret, service.cfg.CookieSecure),
	}
}

func (s *HTTPServer) Handler() http.Handler {
	return s.withMiddleware(s.withSession(http.HandlerFunc(s.handle)))
}

func (s *HTTPServer) handle(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	rc := requestContextFrom(r.Context())
	parts := splitPath(r.URL.Path)

	if len(parts) == 0 {
		if r.Method == http.MethodGet || r.Method == http.MethodHead {
			writeJSON(w, http.StatusOK, map[string]any{"ok": true, "service": "boardhub"})
			return
		}
		s.fail(w, r, notFoundError())
		return
	}

	switch parts[0] {
	case "health", "ready":
		if len(parts) == 1 && (r.Method == http.MethodGet || r.Method == http.MethodHead) {
			s.handleHealth(w, r, parts[0] == "ready")
			return
		}
	case "session":
		if len(parts) == 1 && r.Method == http.MethodGet {
			s.handleSessionState(w, r, rc)
			return
		}
	case "search":
		if len(parts) == 1 && r.Method == http.MethodGet {
			s.handleSearch(w, r)
			return
		}
	case "board":
		if s.handleBoards(w, r, rc, parts[1:]) {
			return
		}
	case "users":
		if s.handleUsers(w, r, rc, parts[1:]) {
			return
		}
	}

	s.fail(w, r, notFoundError())
}

func (s *HTTPServer) handleHealth(w http.ResponseWriter, r *http.Request, ready bool) {
	if !ready {
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	status := "ready"
	statusCode := http.StatusOK
	checks := map[string]any{
		"database": map[string]any{"status": "ok"},
	}

	if err := s.service.Ping(ctx); err != nil {
		status = "not_ready"
		statusCode = http.StatusServiceUnavailable
		checks["database"] = map[string]any{
			"status": "error",
			"error":  err.Error(),
		}
	}

	writeJSON(w, statusCode, map[string]any{
		"ok":     status == "ready",
		"status": status,
		"checks": checks,
	})
}

func (s *HTTPServer) handleSessionState(w http.ResponseWriter, r *http.Request, rc RequestContext) {
	state, err := s.service.SessionState(r.Context(), rc.SessionID)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"id":         state.ID,
		"urlHistory": state.URLHistory,
		"boardPath":  state.BoardPath,
	})
}

func (s *HTTPServer) handleSearch(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	q := search.Query{
		Text:       strings.TrimSpace(query.Get("q")),
		FilterType: search.ParseResultType(strings.TrimSpace(query.Get("type"))),
	}
	if boardID := strings.TrimSpace(query.Get("boardId")); boardID != "" {
		if !util.ValidID(boardID) {
			s.fail(w, r, validationError("boardId is invalid", nil))
			return
		}
		q.FilterBoardID = boardID
	}
	for _, param := range []struct {
		name   string
		target *int
	}{{"limit", &q.Limit}, {"offset", &q.Offset}} {
		raw := strings.TrimSpace(query.Get(param.name))
		if raw == "" {
			continue
		}
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			s.fail(w, r, validationError(param.name+" must be a non-negative integer", nil))
			return
		}
		*param.target = parsed
	}
	writeJSON(w, http.StatusOK, s.service.Search(r.Context(), q))
}

// withSession resolves the signed session cookie, issuing a fresh session when
// it is missing or forged, and records the request URL in the session history.
func (s *HTTPServer) withSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if isProbe(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}

		rc := requestContextFrom(r.Context())
		sessionID, ok := s.cookies.Read(r)
		if !ok {
			sessionID = session.NewSessionID()
			s.cookies.Write(w, sessionID)
		}
		rc.SessionID = sessionID

		if err := s.service.RecordURL(r.Context(), sessionID, r.URL.RequestURI()); err != nil {
			log.Printf(`{"request_id":"%s","session_error":%q}`, rc.RequestID, err.Error())
		}

		next.ServeHTTP(w, r.WithContext(withRequestContext(r.Context(), rc)))
	})
}

func isProbe(path string) bool {
	return path == "/health" || path == "/ready"
}

func (s *HTTPServer) withMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = util.NewID("req")
		}
		r = r.WithContext(withRequestContext(r.Context(), RequestContext{RequestID: requestID}))

		started := time.Now()
		writer := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		setCORSHeaders(writer.Header(), s.corsOrigin)
		writer.Header().Set("X-Request-ID", requestID)

		next.ServeHTTP(writer, r)

		log.Printf(`{"request_id":"%s","method":"%s","path":"%s","status":%d,"duration_ms":%d}`,
			requestID,
			r.Method,
			r.URL.Path,
			writer.status,
			time.Since(started).Milliseconds(),
		)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func setCORSHeaders(header http.Header, corsOrigin string) {
	header.Set("Access-Control-Allow-Origin", corsOrigin)
	header.Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Request-ID")
	header.Set("Access-Control-Allow-Methods", "GET,POST,PUT,DELETE,OPTIONS")
	header.Set("Cache-Control", "no-store")
	header.Set("Content-Type", "application/json")
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// fail is the terminal error handler. The body is always {message, error};
// error carries details only in development.
func (s *HTTPServer) fail(w http.ResponseWriter, r *http.Request, err error) {
	status, code, message, details := mapError(err)
	if status >= http.StatusInternalServerError {
		log.Printf(`{"request_id":"%s","error":%q}`, requestContextFrom(r.Context()).RequestID, err.Error())
	}

	body := map[string]any{}
	if s.service.cfg.Development() {
		body["status"] = status
		body["code"] = code
		body["cause"] = err.Error()
		if details != nil {
			body["details"] = details
		}
	}
	writeJSON(w, status, map[string]any{
		"message": message,
		"error":   body,
	})
}

func mapError(err error) (status int, code, message string, details any) {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Status, domainErr.Code, domainErr.Message, domainErr.Details
	}
	if errors.Is(err, auth.ErrInvalidToken) || errors.Is(err, auth.ErrExpiredToken) {
		return http.StatusForbidden, "AUTHORIZATION_FAILED", "Authorization Failed", nil
	}
	return http.StatusInternalServerError, "SERVER_ERROR", "Server error", nil
}

// decodeBody accepts JSON or form-encoded bodies. An empty body leaves target untouched.
func decodeBody(r *http.Request, target any) error {
	if r.Body == nil {
		return nil
	}
	defer r.Body.Close()

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "application/x-www-form-urlencoded" {
		if err := r.ParseForm(); err != nil {
			return fmt.Errorf("invalid form body")
		}
		fields := make(map[string]string, len(r.PostForm))
		for key := range r.PostForm {
			fields[key] = r.PostForm.Get(key)
		}
		encoded, err := json.Marshal(fields)
		if err != nil {
			return fmt.Errorf("invalid form body")
		}
		return json.Unmarshal(encoded, target)
	}

	decoder := json.NewDecoder(r.Body)
	if err := decoder.Decode(target); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, http.ErrBodyReadAfterClose) {
			return nil
		}
		return fmt.Errorf("invalid JSON body")
	}
	return nil
}

func (s *HTTPServer) decode(w http.ResponseWriter, r *http.Request, target any) bool {
	if err := decodeBody(r, target); err != nil {
		s.fail(w, r, domainError(http.StatusBadRequest, "INVALID_BODY", err.Error(), nil))
		return false
	}
	return true
}

func bearerToken(r *http.Request) string {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if !strings.HasPrefix(header, "Bearer ") {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
}

func splitPath(path string) []string {
	trimmed := strings.Trim(path, "/")
	if trimmed == "" {
		return nil
	}
	return strings.Split(trimmed, "/")
}
