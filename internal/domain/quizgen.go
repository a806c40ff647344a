package domain

import "context"

// QuestionBackend is the external capability that produces raw candidate questions.
type QuestionBackend interface {
	// GenerateBatch asks the backend for count items about topic at the given difficulty
	// label. Any error (transport, timeout, unparseable payload) fails the whole batch.
	GenerateBatch(ctx context.Context, topic string, difficultyLabel string, count int) ([]RawGeneratedItem, error)
}
