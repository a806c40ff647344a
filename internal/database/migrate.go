package database

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"quiz-forge/internal/logger"

	"go.uber.org/zap"
)

// alreadyExistsCodes are Oracle errors raised when re-running a CREATE statement.
var alreadyExistsCodes = []string{"ORA-00955", "ORA-01408", "ORA-02275"}

// Execer is the subset of *sql.DB used by RunMigrations.
type Execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// RunMigrations executes every *.up.sql file in dir in name order. Objects that already
// exist are skipped so the command can be re-run.
func RunMigrations(ctx context.Context, db Execer, dir string) error {
	files, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("could not read migrations directory: %w", err)
	}

	names := make([]string, 0, len(files))
	for _, file := range files {
		if !file.IsDir() && strings.HasSuffix(file.Name(), ".up.sql") {
			names = append(names, file.Name())
		}
	}
	sort.Strings(names)

	l := logger.Get()
	for _, name := range names {
		content, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			return fmt.Errorf("could not read migration file %s: %w", name, err)
		}

		for i, stmt := range SplitStatements(string(content)) {
			if _, err := db.ExecContext(ctx, stmt); err != nil {
				if isAlreadyExists(err) {
					l.Warn("Skipping existing object", zap.String("file", name), zap.Int("statement", i), zap.Error(err))
					continue
				}
				return fmt.Errorf("could not execute migration %s (statement %d): %w", name, i, err)
			}
		}
		l.Info("Executed migration", zap.String("file", name))
	}

	l.Info("Migrations completed successfully", zap.Int("files", len(names)))
	return nil
}

// SplitStatements splits a script on semicolons that end a line. Oracle rejects
// trailing semicolons and multiple statements per call. Comment lines are dropped.
func SplitStatements(script string) []string {
	var (
		stmts   []string
		current strings.Builder
	)
	flush := func() {
		if s := strings.TrimSpace(current.String()); s != "" {
			stmts = append(stmts, s)
		}
		current.Reset()
	}

	for _, line := range strings.Split(script, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "--") {
			continue
		}
		if strings.HasSuffix(trimmed, ";") {
			current.WriteString(strings.TrimSuffix(trimmed, ";"))
			flush()
			continue
		}
		current.WriteString(trimmed)
		current.WriteString("\n")
	}
	flush()
	return stmts
}

func isAlreadyExists(err error) bool {
	msg := err.Error()
	for _, code := range alreadyExistsCodes {
		if strings.Contains(msg, code) {
			return true
		}
	}
	return false
}
