package app

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"sort"
	"sync"
	"testing"
	"time"

	"boardhub/internal/authpw"
	"boardhub/internal/config"
	"boardhub/internal/search"
	"boardhub/internal/session"
	"boardhub/internal/store"
	"golang.org/x/crypto/bcrypt"
)

// fakeStore is an in-memory dataStore and session.Backend.
type fakeStore struct {
	mu       sync.Mutex
	seq      int
	boards   map[string]store.Board
	comments map[string]store.Comment
	users    map[string]store.User
	lists    map[string][]string

	pingFn          func(context.Context) error
	appendSessionFn func(context.Context, string, string, string) error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		boards:   map[string]store.Board{},
		comments: map[string]store.Comment{},
		users:    map[string]store.User{},
		lists:    map[string][]string{},
	}
}

func (f *fakeStore) stamp() time.Time {
	f.seq++
	return time.Date(2024, 1, 1, 0, 0, f.seq, 0, time.UTC)
}

func (f *fakeStore) ListBoards(context.Context) ([]store.Board, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	items := make([]store.Board, 0, len(f.boards))
	for _, board := range f.boards {
		items = append(items, board)
	}
	sort.Slice(items, func(i, j int) bool { return items[i].CreatedAt.Before(items[j].CreatedAt) })
	return items, nil
}

func (f *fakeStore) GetBoard(_ context.Context, id string) (store.Board, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	board, ok := f.boards[id]
	if !ok {
		return store.Board{}, sql.ErrNoRows
	}
	return board, nil
}

func (f *fakeStore) InsertBoard(_ context.Context, board store.Board) (store.Board, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	now := f.stamp()
	board.CreatedAt, board.UpdatedAt = now, now
	f.boards[board.ID] = board
	return board, nil
}

func (f *fakeStore) UpdateBoard(_ context.Context, id, title, content string) (store.Board, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	board, ok := f.boards[id]
	if !ok {
		return store.Board{}, sql.ErrNoRows
	}
	board.Title, board.Content, board.UpdatedAt = title, content, f.stamp()
	f.boards[id] = board
	return board, nil
}

func (f *fakeStore) DeleteBoard(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.boards, id)
	return nil
}

func (f *fakeStore) ListComments(_ context.Context, boardID string) ([]store.Comment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	items := []store.Comment{}
	for _, comment := range f.comments {
		if comment.BoardID == boardID {
			items = append(items, comment)
		}
	}
	sort.Slice(items, func(i, j int) bool { return items[i].CreatedAt.Before(items[j].CreatedAt) })
	return items, nil
}

func (f *fakeStore) InsertComment(_ context.Context, comment store.Comment) (store.Comment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	now := f.stamp()
	comment.CreatedAt, comment.UpdatedAt = now, now
	f.comments[comment.ID] = comment
	return comment, nil
}

func (f *fakeStore) UpdateComment(_ context.Context, boardID, commentID, content string) (store.Comment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	comment, ok := f.comments[commentID]
	if !ok || comment.BoardID != boardID {
		return store.Comment{}, sql.ErrNoRows
	}
	comment.Content, comment.UpdatedAt = content, f.stamp()
	f.comments[commentID] = comment
	return comment, nil
}

func (f *fakeStore) DeleteComment(_ context.Context, boardID, commentID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if comment, ok := f.comments[commentID]; ok && comment.BoardID == boardID {
		delete(f.comments, commentID)
	}
	return nil
}

func (f *fakeStore) GetUserByEmail(_ context.Context, email string) (store.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, user := range f.users {
		if user.Email == email {
			return user, nil
		}
	}
	return store.User{}, sql.ErrNoRows
}

func (f *fakeStore) GetUserByID(_ context.Context, id string) (store.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	user, ok := f.users[id]
	if !ok {
		return store.User{}, sql.ErrNoRows
	}
	return user, nil
}

func (f *fakeStore) CreateUser(_ context.Context, user store.User) (store.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.users {
		if existing.Email == user.Email {
			return store.User{}, store.ErrDuplicateEmail
		}
	}
	now := f.stamp()
	user.CreatedAt, user.UpdatedAt = now, now
	f.users[user.ID] = user
	return user, nil
}

func (f *fakeStore) Ping(ctx context.Context) error {
	if f.pingFn != nil {
		return f.pingFn(ctx)
	}
	return nil
}

func (f *fakeStore) AppendSessionEntry(ctx context.Context, sessionID, list, value string, limit int, _ time.Duration) error {
	if f.appendSessionFn != nil {
		if err := f.appendSessionFn(ctx, sessionID, list, value); err != nil {
			return err
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	key := sessionID + ":" + list
	entries := append(f.lists[key], value)
	if limit > 0 && len(entries) > limit {
		entries = entries[len(entries)-limit:]
	}
	f.lists[key] = entries
	return nil
}

func (f *fakeStore) LoadSessionState(_ context.Context, sessionID string) (store.SessionState, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	state := store.SessionState{ID: sessionID, URLHistory: []string{}, BoardPath: []string{}}
	state.URLHistory = append(state.URLHistory, f.lists[sessionID+":"+store.ListURLHistory]...)
	state.BoardPath = append(state.BoardPath, f.lists[sessionID+":"+store.ListBoardPath]...)
	return state, nil
}

type fakeSearch struct {
	mu       sync.Mutex
	boards   []search.BoardRecord
	comments []search.CommentRecord
	deleted  []string
	queries  []search.Query
}

func (f *fakeSearch) Search(_ context.Context, q search.Query) search.Response {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queries = append(f.queries, q)
	return search.Response{Results: []search.Result{{Type: search.ResultBoard, ID: "b1", Title: q.Text}}, Total: 1, Query: q.Text}
}
func (f *fakeSearch) IndexBoard(board search.BoardRecord) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.boards = append(f.boards, board)
}
func (f *fakeSearch) IndexComment(comment search.CommentRecord) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.comments = append(f.comments, comment)
}
func (f *fakeSearch) DeleteBoard(id string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, "board:"+id)
}
func (f *fakeSearch) DeleteComment(id string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, "comment:"+id)
}

func testConfig() config.Config {
	return config.Config{
		Env:           "development",
		TokenSecret:   "token-secret",
		TokenTTL:      time.Hour,
		SessionSecret: "session-secret",
	}
}

func newTestService(fs *fakeStore) *Service {
	return &Service{
		cfg:       testConfig(),
		store:     fs,
		sessions:  session.NewManager(fs, session.DefaultPolicy()),
		passwords: authpw.NewService(fs).WithCost(bcrypt.MinCost),
	}
}

func TestGetBoardRecordsVisitOnlyWhenFound(t *testing.T) {
	fs := newFakeStore()
	svc := newTestService(fs)
	ctx := context.Background()

	board, err := svc.CreateBoard(ctx, BoardInput{Title: "First", Content: "hello"})
	if err != nil {
		t.Fatalf("create board: %v", err)
	}

	got, err := svc.GetBoard(ctx, "s1", board.ID)
	if err != nil || got == nil || got.Title != "First" {
		t.Fatalf("expected board, got %+v err=%v", got, err)
	}
	missing, err := svc.GetBoard(ctx, "s1", "00000000-0000-0000-0000-000000000000")
	if err != nil || missing != nil {
		t.Fatalf("expected nil for unknown board, got %+v err=%v", missing, err)
	}
	invalid, err := svc.GetBoard(ctx, "s1", "not-a-uuid")
	if err != nil || invalid != nil {
		t.Fatalf("expected nil for malformed id, got %+v err=%v", invalid, err)
	}

	state, _ := svc.SessionState(ctx, "s1")
	if len(state.BoardPath) != 1 || state.BoardPath[0] != "First" {
		t.Fatalf("unexpected board path %v", state.BoardPath)
	}
}

func TestGetBoardIgnoresSessionFailure(t *testing.T) {
	fs := newFakeStore()
	fs.appendSessionFn = func(context.Context, string, string, string) error { return errors.New("session down") }
	svc := newTestService(fs)
	ctx := context.Background()

	board, _ := svc.CreateBoard(ctx, BoardInput{Title: "t"})
	got, err := svc.GetBoard(ctx, "s1", board.ID)
	if err != nil || got == nil {
		t.Fatalf("expected board despite session failure, got %+v err=%v", got, err)
	}
}

func TestBoardPathKeepsLastTen(t *testing.T) {
	fs := newFakeStore()
	svc := newTestService(fs)
	ctx := context.Background()

	for i := 0; i < 12; i++ {
		board, _ := svc.CreateBoard(ctx, BoardInput{Title: string(rune('A' + i))})
		if _, err := svc.GetBoard(ctx, "s1", board.ID); err != nil {
			t.Fatalf("get board: %v", err)
		}
	}

	state, _ := svc.SessionState(ctx, "s1")
	if len(state.BoardPath) != 10 {
		t.Fatalf("expected 10 entries, got %d", len(state.BoardPath))
	}
	if state.BoardPath[0] != "C" || state.BoardPath[9] != "L" {
		t.Fatalf("expected oldest evicted, got %v", state.BoardPath)
	}
}

func TestUpdateBoardLastWriteWins(t *testing.T) {
	fs := newFakeStore()
	svc := newTestService(fs)
	ctx := context.Background()

	board, _ := svc.CreateBoard(ctx, BoardInput{Title: "t", Content: "c"})
	if _, err := svc.UpdateBoard(ctx, board.ID, BoardInput{Title: "a", Content: "1"}); err != nil {
		t.Fatalf("update: %v", err)
	}
	updated, err := svc.UpdateBoard(ctx, board.ID, BoardInput{Title: "b", Content: "2"})
	if err != nil || updated == nil || updated.Title != "b" || updated.Content != "2" {
		t.Fatalf("expected second write to win, got %+v err=%v", updated, err)
	}

	missing, err := svc.UpdateBoard(ctx, "00000000-0000-0000-0000-000000000000", BoardInput{Title: "x"})
	if err != nil || missing != nil {
		t.Fatalf("expected nil for unknown board, got %+v err=%v", missing, err)
	}
}

func TestDeleteBoardKeepsComments(t *testing.T) {
	fs := newFakeStore()
	svc := newTestService(fs)
	ctx := context.Background()

	board, _ := svc.CreateBoard(ctx, BoardInput{Title: "t"})
	if _, err := svc.CreateComment(ctx, board.ID, CommentInput{Content: "stays"}); err != nil {
		t.Fatalf("create comment: %v", err)
	}
	if err := svc.DeleteBoard(ctx, board.ID); err != nil {
		t.Fatalf("delete board: %v", err)
	}

	comments, _ := svc.ListComments(ctx, board.ID)
	if len(comments) != 1 {
		t.Fatalf("expected orphaned comment to remain, got %d", len(comments))
	}
}

func TestCreateCommentValidation(t *testing.T) {
	svc := newTestService(newFakeStore())
	ctx := context.Background()

	_, err := svc.CreateComment(ctx, "00000000-0000-0000-0000-000000000001", CommentInput{Content: "   "})
	var domainErr *DomainError
	if !errors.As(err, &domainErr) || domainErr.Status != http.StatusBadRequest || domainErr.Code != "VALIDATION_ERROR" {
		t.Fatalf("expected validation error for empty content, got %v", err)
	}

	_, err = svc.CreateComment(ctx, "nope", CommentInput{Content: "x"})
	if !errors.As(err, &domainErr) || domainErr.Code != "VALIDATION_ERROR" {
		t.Fatalf("expected validation error for invalid board, got %v", err)
	}
}

func TestCommentsAreScopedToBoard(t *testing.T) {
	svc := newTestService(newFakeStore())
	ctx := context.Background()

	first, _ := svc.CreateBoard(ctx, BoardInput{Title: "one"})
	second, _ := svc.CreateBoard(ctx, BoardInput{Title: "two"})
	comment, _ := svc.CreateComment(ctx, first.ID, CommentInput{Content: "on first"})

	if got, _ := svc.ListComments(ctx, second.ID); len(got) != 0 {
		t.Fatalf("expected no comments on second board, got %d", len(got))
	}
	updated, err := svc.UpdateComment(ctx, second.ID, comment.ID, CommentInput{Content: "moved"})
	if err != nil || updated != nil {
		t.Fatalf("expected no update through the wrong board, got %+v err=%v", updated, err)
	}
	if err := svc.DeleteComment(ctx, second.ID, comment.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if got, _ := svc.ListComments(ctx, first.ID); len(got) != 1 || got[0].Content != "on first" {
		t.Fatalf("expected comment untouched, got %+v", got)
	}

	updated, err = svc.UpdateComment(ctx, first.ID, comment.ID, CommentInput{Content: "edited"})
	if err != nil || updated == nil || updated.Content != "edited" {
		t.Fatalf("expected updated comment, got %+v err=%v", updated, err)
	}
}

func TestSignUpAndLogin(t *testing.T) {
	svc := newTestService(newFakeStore())
	ctx := context.Background()

	user, err := svc.SignUp(ctx, CredentialsInput{Email: " Ada@Example.com ", Password: "pw"})
	if err != nil || user.Email != "ada@example.com" {
		t.Fatalf("signup: %+v err=%v", user, err)
	}

	_, err = svc.SignUp(ctx, CredentialsInput{Email: "ada@example.com", Password: "other"})
	var domainErr *DomainError
	if !errors.As(err, &domainErr) || domainErr.Code != "VALIDATION_ERROR" {
		t.Fatalf("expected duplicate signup rejected, got %v", err)
	}

	_, err = svc.Login(ctx, CredentialsInput{Email: "ada@example.com", Password: "wrong"})
	if !errors.As(err, &domainErr) || domainErr.Code != "AUTHENTICATION_ERROR" || domainErr.Status != http.StatusBadRequest {
		t.Fatalf("expected authentication error, got %v", err)
	}

	result, err := svc.Login(ctx, CredentialsInput{Email: "ada@example.com", Password: "pw"})
	if err != nil || result.Token == "" {
		t.Fatalf("login: %+v err=%v", result, err)
	}
	identity, err := svc.Authenticate(result.Token)
	if err != nil || identity.UserID != user.ID || identity.Email != "ada@example.com" {
		t.Fatalf("authenticate: %+v err=%v", identity, err)
	}
}

func TestAuthenticateRejectsExpiredToken(t *testing.T) {
	svc := newTestService(newFakeStore())
	svc.cfg.TokenTTL = -time.Minute
	ctx := context.Background()

	if _, err := svc.SignUp(ctx, CredentialsInput{Email: "a@b.c", Password: "pw"}); err != nil {
		t.Fatalf("signup: %v", err)
	}
	result, err := svc.Login(ctx, CredentialsInput{Email: "a@b.c", Password: "pw"})
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if _, err := svc.Authenticate(result.Token); err == nil {
		t.Fatal("expected expired token to be rejected")
	}
	if _, err := svc.Authenticate(""); err == nil {
		t.Fatal("expected empty token to be rejected")
	}
}

func TestWritesReachSearchIndex(t *testing.T) {
	fs := newFakeStore()
	idx := &fakeSearch{}
	svc := newTestService(fs)
	svc.search = idx
	ctx := context.Background()

	board, _ := svc.CreateBoard(ctx, BoardInput{Title: "indexed"})
	comment, _ := svc.CreateComment(ctx, board.ID, CommentInput{Content: "body"})
	_ = svc.DeleteComment(ctx, board.ID, comment.ID)
	_ = svc.DeleteBoard(ctx, board.ID)

	if len(idx.boards) != 1 || idx.boards[0].Title != "indexed" {
		t.Fatalf("unexpected indexed boards %+v", idx.boards)
	}
	if len(idx.comments) != 1 || idx.comments[0].BoardID != board.ID {
		t.Fatalf("unexpected indexed comments %+v", idx.comments)
	}
	if len(idx.deleted) != 2 {
		t.Fatalf("expected two deletes, got %v", idx.deleted)
	}

	if resp := svc.Search(ctx, search.Query{Text: "  "}); len(resp.Results) != 0 || len(idx.queries) != 0 {
		t.Fatalf("expected blank query to skip the index, got %+v", resp)
	}
}
