package sqlagent

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/grocer-core-poc/server/internal/agent/graph/prompts"
	"github.com/grocer-core-poc/server/internal/agent/model"
	errx "github.com/grocer-core-poc/server/internal/core/error"
	"github.com/grocer-core-poc/server/internal/services/completion"
	logx "github.com/grocer-core-poc/server/pkg/logger"
)

// ErrParse is returned when no attempt produced an executable query.
var ErrParse = errors.New("could not produce a valid query")

const sampleRows = 3

// Agent answers natural-language questions over an allow-listed set of tables
// by generating, validating and executing one SELECT statement. Failed
// attempts are fed back to the model as observations.
type Agent struct {
	db        *sql.DB
	completer completion.Completer
	cfg       model.SQLAgentConfig
}

func New(db *sql.DB, completer completion.Completer, cfg model.SQLAgentConfig) *Agent {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 3
	}
	return &Agent{db: db, completer: completer, cfg: cfg}
}

func (a *Agent) limits() Limits {
	return Limits{MaxRows: a.cfg.MaxRows, MaxBytes: a.cfg.MaxBytes, Timeout: a.cfg.Timeout}
}

// Answer returns the model's answer to question using only tables.
func (a *Agent) Answer(ctx context.Context, tables []string, question string) (string, error) {
	if len(tables) == 0 {
		return "", errors.New("sql agent: table allow-list is empty")
	}
	known, err := a.tableNames(ctx)
	if err != nil {
		return "", errx.WrapStore(err)
	}
	dump, err := a.DescribeTables(ctx, tables)
	if err != nil {
		return "", err
	}

	var observations []string
	for attempt := 1; attempt <= a.cfg.MaxAttempts; attempt++ {
		p, err := prompts.RenderSQLQuery(ctx, dump, question, a.cfg.MaxRows, observations)
		if err != nil {
			return "", err
		}
		out, err := a.completer.Complete(ctx, p)
		if err != nil {
			return "", err
		}

		stmt := extractStatement(out)
		if err := validateStatement(stmt, tables, known); err != nil {
			observations = append(observations, fmt.Sprintf("%q was rejected: %v", stmt, err))
			logx.Warn().Int("attempt", attempt).Err(err).Msg("sql agent: rejected statement")
			continue
		}

		result, err := RunQuery(ctx, a.db, stmt, nil, a.limits())
		if err != nil {
			observations = append(observations, fmt.Sprintf("%q failed: %v", stmt, err))
			logx.Warn().Int("attempt", attempt).Err(err).Msg("sql agent: query failed")
			continue
		}

		logx.Debug().Int("attempt", attempt).Str("sql", stmt).Msg("sql agent: query executed")
		answerPrompt, err := prompts.RenderSQLAnswer(ctx, question, stmt, result)
		if err != nil {
			return "", err
		}
		return a.completer.Complete(ctx, answerPrompt)
	}

	return "", fmt.Errorf("%w after %d attempts: %s", ErrParse, a.cfg.MaxAttempts, observations[len(observations)-1])
}

// DescribeTables renders the CREATE statement and a few sample rows of each table.
func (a *Agent) DescribeTables(ctx context.Context, tables []string) (string, error) {
	var b strings.Builder
	for i, t := range tables {
		var ddl string
		err := a.db.QueryRowContext(ctx,
			`SELECT sql FROM sqlite_master WHERE type='table' AND name = ?`, t).Scan(&ddl)
		if errors.Is(err, sql.ErrNoRows) {
			return "", errx.WrapStore(fmt.Errorf("table %q does not exist", t))
		}
		if err != nil {
			return "", errx.WrapStore(err)
		}

		sample, err := RunQuery(ctx, a.db, fmt.Sprintf(`SELECT * FROM "%s" LIMIT %d`, t, sampleRows), nil, Limits{})
		if err != nil {
			return "", errx.WrapStore(err)
		}

		if i > 0 {
			b.WriteString("\n\n")
		}
		fmt.Fprintf(&b, "%s;\n/*\n%d rows from %s table:\n%s\n*/", ddl, sampleRows, t, sample)
	}
	return b.String(), nil
}

func (a *Agent) tableNames(ctx context.Context) ([]string, error) {
	rows, err := a.db.QueryContext(ctx, `SELECT name FROM sqlite_master WHERE type='table' AND name NOT LIKE 'sqlite_%'`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var n string
		if err := rows.Scan(&n); err != nil {
			return nil, err
		}
		names = append(names, n)
	}
	return names, rows.Err()
}
