package app

import (
	"net/http"
	"time"

	"boardhub/internal/store"
)

type boardPayload struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type commentPayload struct {
	ID        string    `json:"id"`
	Content   string    `json:"content"`
	Board     string    `json:"board"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func boardToPayload(board store.Board) boardPayload {
	return boardPayload{
		ID:        board.ID,
		Title:     board.Title,
		Content:   board.Content,
		CreatedAt: board.CreatedAt,
		UpdatedAt: board.UpdatedAt,
	}
}

func commentToPayload(comment store.Comment) commentPayload {
	return commentPayload{
		ID:        comment.ID,
		Content:   comment.Content,
		Board:     comment.BoardID,
		CreatedAt: comment.CreatedAt,
		UpdatedAt: comment.UpdatedAt,
	}
}

// handleBoards serves /board and /board/:id/comments[/:commentId]. parts excludes "board".
func (s *HTTPServer) handleBoards(w http.ResponseWriter, r *http.Request, rc RequestContext, parts []string) bool {
	switch {
	case len(parts) == 0 && r.Method == http.MethodGet:
		s.listBoards(w, r)
	case len(parts) == 0 && r.Method == http.MethodPost:
		var input BoardInput
		if !s.decode(w, r, &input) {
			return true
		}
		board, err := s.service.CreateBoard(r.Context(), input)
		if err != nil {
			s.fail(w, r, err)
			return true
		}
		writeJSON(w, http.StatusOK, boardToPayload(board))
	case len(parts) == 1 && r.Method == http.MethodGet:
		board, err := s.service.GetBoard(r.Context(), rc.SessionID, parts[0])
		if err != nil {
			s.fail(w, r, err)
			return true
		}
		if board == nil {
			writeJSON(w, http.StatusOK, nil)
			return true
		}
		writeJSON(w, http.StatusOK, boardToPayload(*board))
	case len(parts) == 1 && r.Method == http.MethodPut:
		var input BoardInput
		if !s.decode(w, r, &input) {
			return true
		}
		board, err := s.service.UpdateBoard(r.Context(), parts[0], input)
		if err != nil {
			s.fail(w, r, err)
			return true
		}
		if board == nil {
			writeJSON(w, http.StatusOK, nil)
			return true
		}
		writeJSON(w, http.StatusOK, boardToPayload(*board))
	case len(parts) == 1 && r.Method == http.MethodDelete:
		if err := s.service.DeleteBoard(r.Context(), parts[0]); err != nil {
			s.fail(w, r, err)
			return true
		}
		w.WriteHeader(http.StatusNoContent)
	case len(parts) >= 2 && parts[1] == "comments":
		return s.handleComments(w, r, parts[0], parts[2:])
	default:
		return false
	}
	return true
}

// listBoards also sets the two demonstration cookies the client expects on the board list.
func (s *HTTPServer) listBoards(w http.ResponseWriter, r *http.Request) {
	boards, err := s.service.ListBoards(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	http.SetCookie(w, &http.Cookie{Name: "cookieName", Value: "cookieValue", Path: "/"})
	http.SetCookie(w, &http.Cookie{Name: "SecurecookieName", Value: "SecurecookieValue", Path: "/", HttpOnly: true})

	items := make([]boardPayload, 0, len(boards))
	for _, board := range boards {
		items = append(items, boardToPayload(board))
	}
	writeJSON(w, http.StatusOK, items)
}

func (s *HTTPServer) handleComments(w http.ResponseWriter, r *http.Request, boardID string, parts []string) bool {
	switch {
	case len(parts) == 0 && r.Method == http.MethodGet:
		comments, err := s.service.ListComments(r.Context(), boardID)
		if err != nil {
			s.fail(w, r, err)
			return true
		}
		items := make([]commentPayload, 0, len(comments))
		for _, comment := range comments {
			items = append(items, commentToPayload(comment))
		}
		writeJSON(w, http.StatusOK, items)
	case len(parts) == 0 && r.Method == http.MethodPost:
		var input CommentInput
		if !s.decode(w, r, &input) {
			return true
		}
		comment, err := s.service.CreateComment(r.Context(), boardID, input)
		if err != nil {
			s.fail(w, r, err)
			return true
		}
		writeJSON(w, http.StatusCreated, commentToPayload(comment))
	case len(parts) == 1 && r.Method == http.MethodPut:
		var input CommentInput
		if !s.decode(w, r, &input) {
			return true
		}
		comment, err := s.service.UpdateComment(r.Context(), boardID, parts[0], input)
		if err != nil {
			s.fail(w, r, err)
			return true
		}
		if comment == nil {
			writeJSON(w, http.StatusOK, nil)
			return true
		}
		writeJSON(w, http.StatusOK, commentToPayload(*comment))
	case len(parts) == 1 && r.Method == http.MethodDelete:
		if err := s.service.DeleteComment(r.Context(), boardID, parts[0]); err != nil {
			s.fail(w, r, err)
			return true
		}
		w.WriteHeader(http.StatusNoContent)
	default:
		return false
	}
	return true
}
