package search

import "context"

// ResultType identifies the kind of entity in a search result.
type ResultType string

const (
	ResultBoard   ResultType = "board"
	ResultComment ResultType = "comment"
)

// ParseResultType maps a query parameter to a ResultType; unknown values mean "all types".
func ParseResultType(value string) ResultType {
	switch ResultType(value) {
	case ResultBoard, ResultComment:
		return ResultType(value)
	default:
		return ""
	}
}

// Result is a single search hit returned to the caller.
type Result struct {
	Type    ResultType `json:"type"`
	ID      string     `json:"id"`
	Title   string     `json:"title"`
	Snippet string     `json:"snippet"`
	BoardID string     `json:"boardId"`
}

// Query describes a search request.
type Query struct {
	Text          string
	FilterType    ResultType // empty = all types
	FilterBoardID string
	Limit         int
	Offset        int
}

// Response is the envelope returned by the search endpoint.
type Response struct {
	Results []Result `json:"results"`
	Total   int      `json:"total"`
	Query   string   `json:"query"`
}

// Searcher can execute a full-text search.
type Searcher interface {
	Search(ctx context.Context, q Query) ([]Result, int, error)
	Healthy() bool
}

// Indexer can push entities into a search index.
type Indexer interface {
	IndexBoard(board BoardRecord) error
	IndexComment(comment CommentRecord) error
	DeleteBoard(id string) error
	DeleteComment(id string) error
	IndexBoards(boards []BoardRecord) error
	IndexComments(comments []CommentRecord) error
}

// Index is a searchable, writable index such as Meilisearch.
type Index interface {
	Searcher
	Indexer
}

// BoardRecord is the data we index for a board.
type BoardRecord struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	Content string `json:"content"`
}

// CommentRecord is the data we index for a comment.
type CommentRecord struct {
	ID      string `json:"id"`
	Content string `json:"content"`
	BoardID string `json:"boardId"`
}

func normalizeLimit(limit int) int {
	if limit <= 0 {
		return 20
	}
	if limit > 100 {
		return 100
	}
	return limit
}
