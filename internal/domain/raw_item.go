package domain

import (
	"encoding/json"
	"strconv"
	"strings"
)

// RawField is one optional scalar field of a backend item.
// Present is false when the key is missing or null; Valid is false when the value was
// present but not a scalar (object, array, bool).
type RawField struct {
	Value   string
	Present bool
	Valid   bool
}

// Field builds a present, valid RawField.
func Field(value string) RawField {
	return RawField{Value: value, Present: true, Valid: true}
}

// Usable reports whether the field carries non-blank text.
func (f RawField) Usable() bool {
	return f.Present && f.Valid && strings.TrimSpace(f.Value) != ""
}

// RawGeneratedItem is an untrusted item as returned by the generation backend.
type RawGeneratedItem struct {
	Title         RawField
	OptionA       RawField
	OptionB       RawField
	OptionC       RawField
	OptionD       RawField
	CorrectAnswer RawField
	Explanation   RawField
	Difficulty    RawField

	// NotObject is set when the backend returned something other than a JSON object.
	NotObject bool
}

// Option returns the raw field for a slot label.
func (r RawGeneratedItem) Option(label Label) RawField {
	switch label {
	case LabelA:
		return r.OptionA
	case LabelB:
		return r.OptionB
	case LabelC:
		return r.OptionC
	case LabelD:
		return r.OptionD
	}
	return RawField{}
}

var (
	titleKeys       = []string{"title", "question", "text"}
	correctKeys     = []string{"correct_answer", "ai_answer", "answer"}
	explanationKeys = []string{"explanation_text", "explanation", "subtitle"}
	difficultyKeys  = []string{"difficulty_id", "difficulty", "difficulty_level"}
)

// DecodeRawItem converts one decoded JSON value into a RawGeneratedItem.
// Keys are matched case-insensitively.
func DecodeRawItem(v any) RawGeneratedItem {
	obj, ok := v.(map[string]any)
	if !ok {
		return RawGeneratedItem{NotObject: true}
	}

	fields := make(map[string]any, len(obj))
	for k, val := range obj {
		fields[strings.ToLower(strings.TrimSpace(k))] = val
	}

	item := RawGeneratedItem{
		Title:         lookupField(fields, titleKeys...),
		OptionA:       lookupField(fields, "option_a", "optiona"),
		OptionB:       lookupField(fields, "option_b", "optionb"),
		OptionC:       lookupField(fields, "option_c", "optionc"),
		OptionD:       lookupField(fields, "option_d", "optiond"),
		CorrectAnswer: lookupField(fields, correctKeys...),
		Explanation:   lookupField(fields, explanationKeys...),
		Difficulty:    lookupField(fields, difficultyKeys...),
	}

	// Some models answer with an "options" array instead of option_X keys.
	if arr, ok := fields["options"].([]any); ok {
		slots := []*RawField{&item.OptionA, &item.OptionB, &item.OptionC, &item.OptionD}
		for i, slot := range slots {
			if slot.Present || i >= len(arr) {
				continue
			}
			*slot = scalarField(arr[i])
		}
	}
	return item
}

func lookupField(fields map[string]any, keys ...string) RawField {
	for _, k := range keys {
		if v, ok := fields[k]; ok && v != nil {
			return scalarField(v)
		}
	}
	return RawField{}
}

func scalarField(v any) RawField {
	switch val := v.(type) {
	case nil:
		return RawField{}
	case string:
		return Field(val)
	case float64:
		return Field(strconv.FormatFloat(val, 'f', -1, 64))
	case json.Number:
		return Field(val.String())
	case int:
		return Field(strconv.Itoa(val))
	default:
		return RawField{Present: true}
	}
}
