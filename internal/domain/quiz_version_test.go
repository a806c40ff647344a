package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewQuizVersion(t *testing.T) {
	q := NewQuestion("Q", [4]string{"a", "b", "c", "d"}, LabelA, "", 1)
	v := NewQuizVersion("  biology ", DifficultyBeginner, []Question{q}, OutcomeAllGenerated)

	assert.Equal(t, "biology", v.TopicKey)
	assert.True(t, v.IsLive())
	assert.Nil(t, v.RetiredAt)
	assert.Equal(t, v.CreatedAt, v.UpdatedAt)
	assert.NoError(t, v.Validate())
}

func TestQuizVersion_Validate(t *testing.T) {
	q := NewQuestion("Q", [4]string{"a", "b", "c", "d"}, LabelA, "", 1)

	assert.ErrorIs(t, NewQuizVersion("", DifficultyBeginner, []Question{q}, OutcomeAllGenerated).Validate(), ErrInvalidRequest)
	assert.ErrorIs(t, NewQuizVersion("go", DifficultyBeginner, nil, OutcomeAllGenerated).Validate(), ErrInvalidRequest)

	bad := q
	bad.CorrectLabel = Label("E")
	assert.ErrorIs(t, NewQuizVersion("go", DifficultyBeginner, []Question{bad}, OutcomeAllGenerated).Validate(), ErrInvalidRequest)
}
