package models

import (
	"database/sql"
	"time"
)

// QuizVersion maps the QUIZ_VERSIONS table.
type QuizVersion struct {
	ID         string       `db:"ID"`          // ULID
	TopicKey   string       `db:"TOPIC_KEY"`
	Difficulty string       `db:"DIFFICULTY"`
	Outcome    string       `db:"OUTCOME"`
	Status     string       `db:"STATUS"`      // LIVE or RETIRED
	CreatedAt  time.Time    `db:"CREATED_AT"`
	UpdatedAt  time.Time    `db:"UPDATED_AT"`
	RetiredAt  sql.NullTime `db:"RETIRED_AT"`
}

// QuizVersionQuestion maps the QUIZ_VERSION_QUESTIONS table.
// DeletedAt hides the question while its version is retired.
type QuizVersionQuestion struct {
	ID              string         `db:"ID"`
	VersionID       string         `db:"VERSION_ID"`
	Position        int            `db:"POSITION"`
	Title           string         `db:"TITLE"`
	OptionA         string         `db:"OPTION_A"`
	OptionB         string         `db:"OPTION_B"`
	OptionC         string         `db:"OPTION_C"`
	OptionD         string         `db:"OPTION_D"`
	CorrectLabel    string         `db:"CORRECT_LABEL"`
	Explanation     sql.NullString `db:"EXPLANATION"`
	DifficultyLevel int            `db:"DIFFICULTY_LEVEL"`
	Placeholder     int            `db:"PLACEHOLDER"` // Oracle has no boolean column type
	CreatedAt       time.Time      `db:"CREATED_AT"`
	DeletedAt       sql.NullTime   `db:"DELETED_AT"`
}
