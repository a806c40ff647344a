package service

import (
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"quiz-forge/internal/domain"

	"github.com/samber/lo"
)

// Normalizer turns one untrusted backend item into a well-formed question.
type Normalizer interface {
	Normalize(raw domain.RawGeneratedItem, fallbackLevel int) (domain.Question, error)
}

type normalizer struct {
	strictAnswer bool
}

// NewNormalizer creates a Normalizer. With strictAnswer set, an item whose correct answer
// cannot be read as A..D is rejected instead of defaulting to A.
func NewNormalizer(strictAnswer bool) Normalizer {
	return &normalizer{strictAnswer: strictAnswer}
}

// Byte limits of the title and option columns. Oracle sizes VARCHAR2 in bytes.
const (
	maxTitleBytes  = 2000
	maxOptionBytes = 1000
)

// Accepts "B", "b", "(B)", "B.", "B)", "[B]", "Option B", "Answer: B".
var answerLetterPattern = regexp.MustCompile(`(?i)^(?:option|answer|choice)?\s*:?\s*[(\[]?\s*([abcd])\s*[)\].:]?$`)

// Accepts a letter followed by the option text: "B. Paris", "(c) Rome", "Answer: D) Madrid".
var answerLetterWithTextPattern = regexp.MustCompile(`(?i)^(?:option|answer|choice)?\s*:?\s*[(\[]?\s*([abcd])\s*[)\].:]\s+\S`)

func (n *normalizer) Normalize(raw domain.RawGeneratedItem, fallbackLevel int) (domain.Question, error) {
	if raw.NotObject {
		return domain.Question{}, domain.NewMalformedItemError("item is not an object")
	}

	fields := map[string]domain.RawField{
		"title":          raw.Title,
		"option_a":       raw.OptionA,
		"option_b":       raw.OptionB,
		"option_c":       raw.OptionC,
		"option_d":       raw.OptionD,
		"correct_answer": raw.CorrectAnswer,
		"explanation":    raw.Explanation,
		"difficulty":     raw.Difficulty,
	}
	for name, f := range fields {
		if f.Present && !f.Valid {
			return domain.Question{}, domain.NewMalformedItemError(name + " is not a scalar value")
		}
	}

	content := []domain.RawField{raw.Title, raw.OptionA, raw.OptionB, raw.OptionC, raw.OptionD}
	if !lo.SomeBy(content, func(f domain.RawField) bool { return f.Usable() }) {
		return domain.Question{}, domain.NewMalformedItemError("item has no title and no options")
	}

	var texts [4]string
	for i, label := range domain.Labels {
		texts[i] = truncateBytes(textOrDefault(raw.Option(label), domain.PlaceholderOptionText(label)), maxOptionBytes)
	}

	correct, ok := parseCorrectLabel(raw.CorrectAnswer, texts)
	if !ok {
		if n.strictAnswer {
			return domain.Question{}, domain.NewMalformedItemError("correct answer is not one of A, B, C, D")
		}
		correct = domain.LabelA
	}

	return domain.NewQuestion(
		truncateBytes(textOrDefault(raw.Title, domain.PlaceholderTitle), maxTitleBytes),
		texts,
		correct,
		textOrDefault(raw.Explanation, domain.PlaceholderExplanation),
		resolveLevel(raw.Difficulty, fallbackLevel),
	), nil
}

func textOrDefault(f domain.RawField, def string) string {
	if !f.Usable() {
		return def
	}
	return strings.TrimSpace(f.Value)
}

// truncateBytes cuts s to at most limit bytes without splitting a rune.
func truncateBytes(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	cut := limit
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return strings.TrimSpace(s[:cut])
}

// parseCorrectLabel reads a label letter, tolerating decorations. As a last resort an
// answer that repeats one option's text verbatim selects that option.
func parseCorrectLabel(f domain.RawField, texts [4]string) (domain.Label, bool) {
	if !f.Usable() {
		return "", false
	}
	value := strings.TrimSpace(f.Value)
	if m := answerLetterPattern.FindStringSubmatch(value); m != nil {
		return domain.Label(strings.ToUpper(m[1])), true
	}
	if m := answerLetterWithTextPattern.FindStringSubmatch(value); m != nil {
		return domain.Label(strings.ToUpper(m[1])), true
	}
	for i, text := range texts {
		if strings.EqualFold(text, value) {
			return domain.Labels[i], true
		}
	}
	return "", false
}

// resolveLevel maps the item's difficulty field to an ordinal 1..4.
func resolveLevel(f domain.RawField, fallbackLevel int) int {
	if fallbackLevel < domain.MinDifficultyLevel || fallbackLevel > domain.MaxDifficultyLevel {
		fallbackLevel = domain.MinDifficultyLevel
	}
	if !f.Usable() {
		return fallbackLevel
	}
	value := strings.TrimSpace(f.Value)
	if level, err := strconv.Atoi(value); err == nil {
		if level < domain.MinDifficultyLevel || level > domain.MaxDifficultyLevel {
			return domain.MinDifficultyLevel
		}
		return level
	}
	d, err := domain.ParseDifficulty(value)
	if err != nil || d == domain.DifficultyMixed {
		return fallbackLevel
	}
	return d.ToOrdinal()
}
