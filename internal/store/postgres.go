package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
)

const uniqueViolation = "23505"

type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) DB() *sql.DB {
	return s.db
}

func (s *PostgresStore) ListBoards(ctx context.Context) ([]Board, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, title, content, created_at, updated_at
		FROM boards
		ORDER BY created_at, id
	`)
	if err != nil {
		return nil, fmt.Errorf("list boards: %w", err)
	}
	defer rows.Close()

	boards := make([]Board, 0)
	for rows.Next() {
		var board Board
		if err := rows.Scan(&board.ID, &board.Title, &board.Content, &board.CreatedAt, &board.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan board: %w", err)
		}
		boards = append(boards, board)
	}
	return boards, rows.Err()
}

func (s *PostgresStore) GetBoard(ctx context.Context, boardID string) (Board, error) {
	var board Board
	err := s.db.QueryRowContext(ctx, `
		SELECT id, title, content, created_at, updated_at
		FROM boards
		WHERE id=$1
	`, boardID).Scan(&board.ID, &board.Title, &board.Content, &board.CreatedAt, &board.UpdatedAt)
	if err != nil {
		return Board{}, err
	}
	return board, nil
}

func (s *PostgresStore) InsertBoard(ctx context.Context, board Board) (Board, error) {
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO boards (id, title, content)
		VALUES ($1, $2, $3)
		RETURNING created_at, updated_at
	`, board.ID, board.Title, board.Content).Scan(&board.CreatedAt, &board.UpdatedAt)
	if err != nil {
		return Board{}, fmt.Errorf("insert board: %w", err)
	}
	return board, nil
}

// UpdateBoard replaces title and content. A missing board yields sql.ErrNoRows.
func (s *PostgresStore) UpdateBoard(ctx context.Context, boardID, title, content string) (Board, error) {
	var board Board
	err := s.db.QueryRowContext(ctx, `
		UPDATE boards
		SET title=$2, content=$3, updated_at=NOW()
		WHERE id=$1
		RETURNING id, title, content, created_at, updated_at
	`, boardID, title, content).Scan(&board.ID, &board.Title, &board.Content, &board.CreatedAt, &board.UpdatedAt)
	if err != nil {
		return Board{}, err
	}
	return board, nil
}

func (s *PostgresStore) DeleteBoard(ctx context.Context, boardID string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM boards WHERE id=$1`, boardID); err != nil {
		return fmt.Errorf("delete board: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListComments(ctx context.Context, boardID string) ([]Comment, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, board_id, content, created_at, updated_at
		FROM comments
		WHERE board_id=$1
		ORDER BY created_at, id
	`, boardID)
	if err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}
	defer rows.Close()

	comments := make([]Comment, 0)
	for rows.Next() {
		var comment Comment
		if err := rows.Scan(&comment.ID, &comment.BoardID, &comment.Content, &comment.CreatedAt, &comment.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan comment: %w", err)
		}
		comments = append(comments, comment)
	}
	return comments, rows.Err()
}

func (s *PostgresStore) InsertComment(ctx context.Context, comment Comment) (Comment, error) {
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO comments (id, board_id, content)
		VALUES ($1, $2, $3)
		RETURNING created_at, updated_at
	`, comment.ID, comment.BoardID, comment.Content).Scan(&comment.CreatedAt, &comment.UpdatedAt)
	if err != nil {
		return Comment{}, fmt.Errorf("insert comment: %w", err)
	}
	return comment, nil
}

// UpdateComment changes the content of the comment matching both ids. A miss yields sql.ErrNoRows.
func (s *PostgresStore) UpdateComment(ctx context.Context, boardID, commentID, content string) (Comment, error) {
	var comment Comment
	err := s.db.QueryRowContext(ctx, `
		UPDATE comments
		SET content=$3, updated_at=NOW()
		WHERE board_id=$1 AND id=$2
		RETURNING id, board_id, content, created_at, updated_at
	`, boardID, commentID, content).Scan(&comment.ID, &comment.BoardID, &comment.Content, &comment.CreatedAt, &comment.UpdatedAt)
	if err != nil {
		return Comment{}, err
	}
	return comment, nil
}

func (s *PostgresStore) DeleteComment(ctx context.Context, boardID, commentID string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM comments WHERE board_id=$1 AND id=$2`, boardID, commentID); err != nil {
		return fmt.Errorf("delete comment: %w", err)
	}
	return nil
}

func (s *PostgresStore) CreateUser(ctx context.Context, user User) (User, error) {
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO users (id, email, password_hash)
		VALUES ($1, $2, $3)
		RETURNING created_at, updated_at
	`, user.ID, user.Email, user.PasswordHash).Scan(&user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return User{}, ErrDuplicateEmail
		}
		return User{}, fmt.Errorf("insert user: %w", err)
	}
	return user, nil
}

func (s *PostgresStore) GetUserByEmail(ctx context.Context, email string) (User, error) {
	var user User
	err := s.db.QueryRowContext(ctx, `
		SELECT id, email, password_hash, created_at, updated_at
		FROM users
		WHERE email=$1
	`, email).Scan(&user.ID, &user.Email, &user.PasswordHash, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		return User{}, err
	}
	return user, nil
}

func (s *PostgresStore) GetUserByID(ctx context.Context, userID string) (User, error) {
	var user User
	err := s.db.QueryRowContext(ctx, `
		SELECT id, email, password_hash, created_at, updated_at
		FROM users
		WHERE id=$1
	`, userID).Scan(&user.ID, &user.Email, &user.PasswordHash, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		return User{}, err
	}
	return user, nil
}

// AppendSessionEntry pushes value onto a session list, keeping only the newest
// limit entries when limit > 0, and extends the expiry of the whole session.
func (s *PostgresStore) AppendSessionEntry(ctx context.Context, sessionID, list, value string, limit int, ttl time.Duration) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin session tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	expiresAt := time.Now().Add(ttl)
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO session_entries (session_id, list, value, expires_at)
		VALUES ($1, $2, $3, $4)
	`, sessionID, list, value, expiresAt); err != nil {
		return fmt.Errorf("append session entry: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `UPDATE session_entries SET expires_at=$2 WHERE session_id=$1`, sessionID, expiresAt); err != nil {
		return fmt.Errorf("touch session: %w", err)
	}
	if limit > 0 {
		if _, err := tx.ExecContext(ctx, `
			DELETE FROM session_entries
			WHERE session_id=$1 AND list=$2 AND id NOT IN (
				SELECT id FROM session_entries
				WHERE session_id=$1 AND list=$2
				ORDER BY id DESC
				LIMIT $3
			)
		`, sessionID, list, limit); err != nil {
			return fmt.Errorf("trim session list: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit session tx: %w", err)
	}
	return nil
}

func (s *PostgresStore) LoadSessionState(ctx context.Context, sessionID string) (SessionState, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT list, value
		FROM session_entries
		WHERE session_id=$1 AND expires_at > NOW()
		ORDER BY id
	`, sessionID)
	if err != nil {
		return SessionState{}, fmt.Errorf("load session: %w", err)
	}
	defer rows.Close()

	state := SessionState{ID: sessionID, URLHistory: []string{}, BoardPath: []string{}}
	for rows.Next() {
		var list, value string
		if err := rows.Scan(&list, &value); err != nil {
			return SessionState{}, fmt.Errorf("scan session entry: %w", err)
		}
		switch list {
		case ListURLHistory:
			state.URLHistory = append(state.URLHistory, value)
		case ListBoardPath:
			state.BoardPath = append(state.BoardPath, value)
		}
	}
	return state, rows.Err()
}

// PurgeExpiredSessions deletes session entries past their expiry.
func (s *PostgresStore) PurgeExpiredSessions(ctx context.Context) (int64, error) {
	result, err := s.db.ExecContext(ctx, `DELETE FROM session_entries WHERE expires_at <= NOW()`)
	if err != nil {
		return 0, fmt.Errorf("purge sessions: %w", err)
	}
	return result.RowsAffected()
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}
