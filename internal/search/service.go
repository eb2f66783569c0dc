package search

import (
	"context"
	"log"
)

// Service tries the Meilisearch index first and falls back to PG FTS.
type Service struct {
	index    Index
	fallback Searcher
	// async runs index writes; tests swap it for a synchronous runner.
	async func(func())
}

// NewService creates a search service. Either backend may be nil.
func NewService(meili *Meili, pgfts *PgFTS) *Service {
	s := &Service{async: func(fn func()) { go fn() }}
	if meili != nil {
		s.index = meili
	}
	if pgfts != nil {
		s.fallback = pgfts
	}
	return s
}

func (s *Service) Search(ctx context.Context, q Query) Response {
	if s.index != nil && s.index.Healthy() {
		results, total, err := s.index.Search(ctx, q)
		if err == nil {
			return Response{Results: nonNil(results), Total: total, Query: q.Text}
		}
		log.Printf("search: meilisearch error, falling back to pgfts: %v", err)
	}

	if s.fallback == nil {
		return Response{Results: []Result{}, Total: 0, Query: q.Text}
	}
	results, total, err := s.fallback.Search(ctx, q)
	if err != nil {
		log.Printf("search: pgfts error: %v", err)
		return Response{Results: []Result{}, Total: 0, Query: q.Text}
	}
	return Response{Results: nonNil(results), Total: total, Query: q.Text}
}

// IndexBoard indexes a board (fire-and-forget).
func (s *Service) IndexBoard(board BoardRecord) {
	s.write("index board "+board.ID, func(index Index) error { return index.IndexBoard(board) })
}

// IndexComment indexes a comment (fire-and-forget).
func (s *Service) IndexComment(comment CommentRecord) {
	s.write("index comment "+comment.ID, func(index Index) error { return index.IndexComment(comment) })
}

// DeleteBoard removes a board from the index (fire-and-forget).
func (s *Service) DeleteBoard(id string) {
	s.write("delete board "+id, func(index Index) error { return index.DeleteBoard(id) })
}

// DeleteComment removes a comment from the index (fire-and-forget).
func (s *Service) DeleteComment(id string) {
	s.write("delete comment "+id, func(index Index) error { return index.DeleteComment(id) })
}

func (s *Service) write(what string, fn func(Index) error) {
	if s.index == nil || !s.index.Healthy() {
		return
	}
	index := s.index
	s.async(func() {
		if err := fn(index); err != nil {
			log.Printf("search: %s: %v", what, err)
		}
	})
}

// ReindexAllFromPG pushes every board and comment from PostgreSQL into the index.
func (s *Service) ReindexAllFromPG(ctx context.Context) {
	pgfts, ok := s.fallback.(*PgFTS)
	if s.index == nil || !s.index.Healthy() || !ok {
		return
	}
	boards, comments, err := pgfts.LoadAllRecords(ctx)
	if err != nil {
		log.Printf("search: reindex load failed: %v", err)
		return
	}
	if err := s.index.IndexBoards(boards); err != nil {
		log.Printf("search: reindex boards: %v", err)
	}
	if err := s.index.IndexComments(comments); err != nil {
		log.Printf("search: reindex comments: %v", err)
	}
}

func nonNil(r []Result) []Result {
	if r == nil {
		return []Result{}
	}
	return r
}
