package app

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"strings"
	"time"

	"boardhub/internal/auth"
	"boardhub/internal/authpw"
	"boardhub/internal/config"
	"boardhub/internal/search"
	"boardhub/internal/session"
	"boardhub/internal/store"
	"boardhub/internal/util"
)

type BoardInput struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

type CommentInput struct {
	Content string `json:"content"`
}

type CredentialsInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResult is a logged-in user and the token proving it.
type LoginResult struct {
	User      store.User
	Token     string
	ExpiresAt time.Time
}

type dataStore interface {
	ListBoards(context.Context) ([]store.Board, error)
	GetBoard(context.Context, string) (store.Board, error)
	InsertBoard(context.Context, store.Board) (store.Board, error)
	UpdateBoard(context.Context, string, string, string) (store.Board, error)
	DeleteBoard(context.Context, string) error
	ListComments(context.Context, string) ([]store.Comment, error)
	InsertComment(context.Context, store.Comment) (store.Comment, error)
	UpdateComment(context.Context, string, string, string) (store.Comment, error)
	DeleteComment(context.Context, string, string) error
	GetUserByEmail(context.Context, string) (store.User, error)
	GetUserByID(context.Context, string) (store.User, error)
	CreateUser(context.Context, store.User) (store.User, error)
	Ping(ctx context.Context) error
}

type searchService interface {
	Search(context.Context, search.Query) search.Response
	IndexBoard(search.BoardRecord)
	IndexComment(search.CommentRecord)
	DeleteBoard(string)
	DeleteComment(string)
}

type Service struct {
	cfg       config.Config
	store     dataStore
	sessions  *session.Manager
	passwords *authpw.Service
	search    searchService
}

func New(cfg config.Config, dataStore *store.PostgresStore, sessions *session.Manager, searchService *search.Service) *Service {
	svc := &Service{
		cfg:       cfg,
		store:     dataStore,
		sessions:  sessions,
		passwords: authpw.NewService(dataStore),
	}
	if searchService != nil {
		svc.search = searchService
	}
	return svc
}

func (s *Service) ListBoards(ctx context.Context) ([]store.Board, error) {
	return s.store.ListBoards(ctx)
}

func (s *Service) CreateBoard(ctx context.Context, input BoardInput) (store.Board, error) {
	board, err := s.store.InsertBoard(ctx, store.Board{
		ID:      util.NewID(""),
		Title:   input.Title,
		Content: input.Content,
	})
	if err != nil {
		return store.Board{}, err
	}
	s.indexBoard(board)
	return board, nil
}

// GetBoard returns nil for an unknown board. A found board's title is pushed
// onto the session's board path.
func (s *Service) GetBoard(ctx context.Context, sessionID, boardID string) (*store.Board, error) {
	if !util.ValidID(boardID) {
		return nil, nil
	}
	board, err := s.store.GetBoard(ctx, boardID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if sessionID != "" {
		if err := s.sessions.RecordBoardVisit(ctx, sessionID, board.Title); err != nil {
			log.Printf("session: record board visit %s: %v", sessionID, err)
		}
	}
	return &board, nil
}

// UpdateBoard replaces title and content; nil means no such board.
func (s *Service) UpdateBoard(ctx context.Context, boardID string, input BoardInput) (*store.Board, error) {
	if !util.ValidID(boardID) {
		return nil, nil
	}
	board, err := s.store.UpdateBoard(ctx, boardID, input.Title, input.Content)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	s.indexBoard(board)
	return &board, nil
}

// DeleteBoard removes the board only; its comments stay.
func (s *Service) DeleteBoard(ctx context.Context, boardID string) error {
	if !util.ValidID(boardID) {
		return nil
	}
	if err := s.store.DeleteBoard(ctx, boardID); err != nil {
		return err
	}
	if s.search != nil {
		s.search.DeleteBoard(boardID)
	}
	return nil
}

func (s *Service) ListComments(ctx context.Context, boardID string) ([]store.Comment, error) {
	if !util.ValidID(boardID) {
		return []store.Comment{}, nil
	}
	return s.store.ListComments(ctx, boardID)
}

func (s *Service) CreateComment(ctx context.Context, boardID string, input CommentInput) (store.Comment, error) {
	if !util.ValidID(boardID) {
		return store.Comment{}, validationError("board is invalid", map[string]any{"board": boardID})
	}
	if strings.TrimSpace(input.Content) == "" {
		return store.Comment{}, validationError("content is required", nil)
	}
	comment, err := s.store.InsertComment(ctx, store.Comment{
		ID:      util.NewID(""),
		BoardID: boardID,
		Content: input.Content,
	})
	if err != nil {
		return store.Comment{}, err
	}
	s.indexComment(comment)
	return comment, nil
}

// UpdateComment changes the content of a comment on the given board; nil means no match.
func (s *Service) UpdateComment(ctx context.Context, boardID, commentID string, input CommentInput) (*store.Comment, error) {
	if strings.TrimSpace(input.Content) == "" {
		return nil, validationError("content is required", nil)
	}
	if !util.ValidID(boardID) || !util.ValidID(commentID) {
		return nil, nil
	}
	comment, err := s.store.UpdateComment(ctx, boardID, commentID, input.Content)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	s.indexComment(comment)
	return &comment, nil
}

func (s *Service) DeleteComment(ctx context.Context, boardID, commentID string) error {
	if !util.ValidID(boardID) || !util.ValidID(commentID) {
		return nil
	}
	if err := s.store.DeleteComment(ctx, boardID, commentID); err != nil {
		return err
	}
	if s.search != nil {
		s.search.DeleteComment(commentID)
	}
	return nil
}

func (s *Service) SignUp(ctx context.Context, input CredentialsInput) (store.User, error) {
	user, err := s.passwords.SignUp(ctx, input.Email, input.Password)
	switch {
	case errors.Is(err, authpw.ErrMissingCredentials):
		return store.User{}, validationError(err.Error(), nil)
	case errors.Is(err, authpw.ErrEmailTaken):
		return store.User{}, validationError(err.Error(), map[string]any{"email": authpw.NormalizeEmail(input.Email)})
	case err != nil:
		return store.User{}, err
	}
	return user, nil
}

func (s *Service) Login(ctx context.Context, input CredentialsInput) (LoginResult, error) {
	user, err := s.passwords.Login(ctx, input.Email, input.Password)
	switch {
	case errors.Is(err, authpw.ErrMissingCredentials):
		return LoginResult{}, validationError(err.Error(), nil)
	case errors.Is(err, authpw.ErrInvalidCredentials):
		return LoginResult{}, authenticationError(err.Error())
	case err != nil:
		return LoginResult{}, err
	}

	expiresAt := time.Now().Add(s.cfg.TokenTTL)
	token, err := auth.IssueToken([]byte(s.cfg.TokenSecret), auth.Claims{
		Sub:   user.ID,
		Email: user.Email,
		JTI:   util.NewID("jti"),
		Exp:   expiresAt.Unix(),
	})
	if err != nil {
		return LoginResult{}, err
	}
	return LoginResult{User: user, Token: token, ExpiresAt: expiresAt}, nil
}

// Authenticate verifies a token's signature and expiry and returns the identity it carries.
func (s *Service) Authenticate(token string) (Identity, error) {
	if token == "" {
		return Identity{}, auth.ErrInvalidToken
	}
	claims, err := auth.ParseToken([]byte(s.cfg.TokenSecret), token)
	if err != nil {
		return Identity{}, err
	}
	return Identity{
		UserID:    claims.Sub,
		Email:     claims.Email,
		ExpiresAt: time.Unix(claims.Exp, 0),
	}, nil
}

// CurrentUser loads the user behind an identity. A token for a deleted user yields nil.
func (s *Service) CurrentUser(ctx context.Context, identity *Identity) (*store.User, error) {
	if identity == nil {
		return nil, nil
	}
	user, err := s.store.GetUserByID(ctx, identity.UserID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *Service) RecordURL(ctx context.Context, sessionID, url string) error {
	return s.sessions.RecordURL(ctx, sessionID, url)
}

func (s *Service) SessionState(ctx context.Context, sessionID string) (store.SessionState, error) {
	return s.sessions.State(ctx, sessionID)
}

func (s *Service) Search(ctx context.Context, q search.Query) search.Response {
	if s.search == nil || strings.TrimSpace(q.Text) == "" {
		return search.Response{Results: []search.Result{}, Query: q.Text}
	}
	return s.search.Search(ctx, q)
}

func (s *Service) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}

func (s *Service) indexBoard(board store.Board) {
	if s.search == nil {
		return
	}
	s.search.IndexBoard(search.BoardRecord{ID: board.ID, Title: board.Title, Content: board.Content})
}

func (s *Service) indexComment(comment store.Comment) {
	if s.search == nil {
		return
	}
	s.search.IndexComment(search.CommentRecord{ID: comment.ID, Content: comment.Content, BoardID: comment.BoardID})
}
