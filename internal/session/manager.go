package session

import (
	"context"
	"time"

	"boardhub/internal/store"
	"boardhub/internal/util"
)

// Backend persists session lists. Implemented by RedisStore and store.PostgresStore.
type Backend interface {
	AppendSessionEntry(ctx context.Context, sessionID, list, value string, limit int, ttl time.Duration) error
	LoadSessionState(ctx context.Context, sessionID string) (store.SessionState, error)
}

// Policy sets the capacity of each session list. A limit of 0 keeps every entry.
type Policy struct {
	URLHistoryLimit int
	BoardPathLimit  int
	TTL             time.Duration
}

func DefaultPolicy() Policy {
	return Policy{
		URLHistoryLimit: 0,
		BoardPathLimit:  10,
		TTL:             24 * time.Hour,
	}
}

func (p Policy) limit(list string) int {
	switch list {
	case store.ListURLHistory:
		return p.URLHistoryLimit
	case store.ListBoardPath:
		return p.BoardPathLimit
	default:
		return 0
	}
}

type Manager struct {
	backend Backend
	policy  Policy
}

func NewManager(backend Backend, policy Policy) *Manager {
	return &Manager{backend: backend, policy: policy}
}

func (m *Manager) Policy() Policy {
	return m.policy
}

// RecordURL appends a requested URL to the session's URL history.
func (m *Manager) RecordURL(ctx context.Context, sessionID, url string) error {
	return m.backend.AppendSessionEntry(ctx, sessionID, store.ListURLHistory, url, m.policy.limit(store.ListURLHistory), m.policy.TTL)
}

// RecordBoardVisit appends a board title to the session's board path, evicting the oldest beyond the cap.
func (m *Manager) RecordBoardVisit(ctx context.Context, sessionID, title string) error {
	return m.backend.AppendSessionEntry(ctx, sessionID, store.ListBoardPath, title, m.policy.limit(store.ListBoardPath), m.policy.TTL)
}

func (m *Manager) State(ctx context.Context, sessionID string) (store.SessionState, error) {
	return m.backend.LoadSessionState(ctx, sessionID)
}

func NewSessionID() string {
	return util.NewID("")
}
