package validation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateGenerationRequest(t *testing.T) {
	v := NewValidator()

	tests := []struct {
		name       string
		topic      string
		difficulty string
		count      int
		wantFields []string
	}{
		{"valid", "Photosynthesis", "beginner", 5, nil},
		{"alias difficulty", "Go channels", "Hard", 1, nil},
		{"missing topic", "  ", "mixed", 3, []string{"topic"}},
		{"topic too long", strings.Repeat("x", 201), "mixed", 3, []string{"topic"}},
		{"unknown difficulty", "Go", "legendary", 3, []string{"difficulty"}},
		{"zero count", "Go", "beginner", 0, []string{"count"}},
		{"everything wrong", "", "", 500, []string{"topic", "difficulty", "count"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := v.ValidateGenerationRequest(tt.topic, tt.difficulty, tt.count)
			var fields []string
			for _, e := range errs {
				fields = append(fields, e.Field)
			}
			assert.Equal(t, tt.wantFields, fields)
		})
	}
}

func TestValidateTopicKey(t *testing.T) {
	v := NewValidator()

	assert.Empty(t, v.ValidateTopicKey("biology.photosynthesis"))
	assert.Empty(t, v.ValidateTopicKey("go:concurrency-101"))
	assert.Len(t, v.ValidateTopicKey(""), 1)
	assert.Len(t, v.ValidateTopicKey("has space"), 1)
	assert.Len(t, v.ValidateTopicKey(strings.Repeat("k", 101)), 1)
}

func TestValidateVersionID(t *testing.T) {
	v := NewValidator()

	assert.Empty(t, v.ValidateVersionID("01HZX3J9Q8W4E5R6T7Y8V9K0MN"))
	assert.Len(t, v.ValidateVersionID(""), 1)
	assert.Len(t, v.ValidateVersionID("not-a-ulid"), 1)
	assert.Len(t, v.ValidateVersionID("01HZX3J9Q8W4E5R6T7Y8U9I0OL"), 1)
}
