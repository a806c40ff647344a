package domain

import "fmt"

// Label identifies one of the four option slots.
type Label string

const (
	LabelA Label = "A"
	LabelB Label = "B"
	LabelC Label = "C"
	LabelD Label = "D"
)

// Labels is the fixed slot order.
var Labels = [4]Label{LabelA, LabelB, LabelC, LabelD}

// Index returns the slot index of the label, or -1.
func (l Label) Index() int {
	for i, label := range Labels {
		if label == l {
			return i
		}
	}
	return -1
}

func (l Label) IsValid() bool {
	return l.Index() >= 0
}

const (
	PlaceholderTitle       = "Untitled question"
	PlaceholderExplanation = "No explanation was provided for this question."

	FallbackTitle       = "Question generation is temporarily unavailable"
	FallbackExplanation = "This placeholder was served because the question generator could not produce a question."
)

// PlaceholderOptionText is the text used for an option the backend left out.
func PlaceholderOptionText(label Label) string {
	return fmt.Sprintf("Option %s not provided", label)
}

// Option is one labelled answer choice.
type Option struct {
	Label Label  `json:"label"`
	Text  string `json:"text"`
}

// Question is a validated, normalized multiple choice question.
type Question struct {
	Title           string    `json:"title"`
	Options         [4]Option `json:"options"`
	CorrectLabel    Label     `json:"correct_label"`
	Explanation     string    `json:"explanation"`
	DifficultyLevel int       `json:"difficulty_level"`
	Placeholder     bool      `json:"placeholder,omitempty"`
}

// NewQuestion builds a question from the option texts in A..D order.
func NewQuestion(title string, texts [4]string, correct Label, explanation string, level int) Question {
	q := Question{
		Title:           title,
		CorrectLabel:    correct,
		Explanation:     explanation,
		DifficultyLevel: level,
	}
	for i, label := range Labels {
		q.Options[i] = Option{Label: label, Text: texts[i]}
	}
	return q
}

// FallbackQuestion is the deterministic placeholder served when generation fails.
func FallbackQuestion(level int) Question {
	q := NewQuestion(
		FallbackTitle,
		[4]string{
			"Unavailable (A)",
			"Unavailable (B)",
			"Unavailable (C)",
			"Unavailable (D)",
		},
		LabelA,
		FallbackExplanation,
		level,
	)
	q.Placeholder = true
	return q
}

// CorrectText returns the text of the option marked correct.
func (q Question) CorrectText() string {
	if idx := q.CorrectLabel.Index(); idx >= 0 {
		return q.Options[idx].Text
	}
	return ""
}

// OptionText returns the text at the given label.
func (q Question) OptionText(label Label) string {
	if idx := label.Index(); idx >= 0 {
		return q.Options[idx].Text
	}
	return ""
}

// Validate validates the question
func (q Question) Validate() error {
	for i, opt := range q.Options {
		if opt.Label != Labels[i] {
			return fmt.Errorf("option slot %d is labelled %q, want %q", i, opt.Label, Labels[i])
		}
	}
	if !q.CorrectLabel.IsValid() {
		return fmt.Errorf("correct label %q does not index an option", q.CorrectLabel)
	}
	return nil
}
