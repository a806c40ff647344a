package service

import (
	"math/rand/v2"
	"regexp"
	"sync"
	"time"

	"quiz-forge/internal/domain"
)

// OptionRandomizer permutes a question's options and moves the correct marker with them.
type OptionRandomizer interface {
	Shuffle(q domain.Question) domain.Question
}

type optionRandomizer struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewOptionRandomizer creates a randomizer drawing from src. A nil src seeds a PCG from the clock.
func NewOptionRandomizer(src rand.Source) OptionRandomizer {
	if src == nil {
		now := uint64(time.Now().UnixNano())
		src = rand.NewPCG(now, now>>1|1)
	}
	return &optionRandomizer{rng: rand.New(src)}
}

// answerLetter matches a capital label, or a lowercase one only when punctuation or the end
// of text follows it, so "the answer is a country" is not touched. Group 2 keeps that trailer.
const answerLetter = `(?:[ABCD]\b|[abcd]([)\].,;:!?]|$))`

// Phrases in an explanation that name the correct letter. Group 1 is the phrase up to the letter.
var answerRevealPatterns = []*regexp.Regexp{
	regexp.MustCompile(`((?i:the\s+(?:correct\s+)?answer\s+is)\s*\(?)` + answerLetter),
	regexp.MustCompile(`((?i:correct\s+answer)\s*[:：]\s*\(?)` + answerLetter),
	regexp.MustCompile(`((?i:correct\s+(?:option|choice)\s+is)\s*\(?)` + answerLetter),
	regexp.MustCompile(`((?i:i\.e\.,?\s+option)\s*\(?)` + answerLetter),
	regexp.MustCompile(`(答案是\s*)[A-Da-d]()`),
}

func (r *optionRandomizer) Shuffle(q domain.Question) domain.Question {
	if q.Placeholder {
		return q
	}

	correctText := q.CorrectText()
	var texts [4]string
	for i, opt := range q.Options {
		texts[i] = opt.Text
	}

	r.mu.Lock()
	r.rng.Shuffle(len(texts), func(i, j int) {
		texts[i], texts[j] = texts[j], texts[i]
	})
	r.mu.Unlock()

	// Duplicate texts resolve to the first matching slot.
	newLabel := q.CorrectLabel
	for i, text := range texts {
		if text == correctText {
			newLabel = domain.Labels[i]
			break
		}
	}

	out := domain.NewQuestion(q.Title, texts, newLabel, rewriteAnswerReferences(q.Explanation, newLabel), q.DifficultyLevel)
	return out
}

func rewriteAnswerReferences(explanation string, label domain.Label) string {
	for _, re := range answerRevealPatterns {
		explanation = re.ReplaceAllString(explanation, "${1}"+string(label)+"${2}")
	}
	return explanation
}
