package sqlagent

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	logx "github.com/grocer-core-poc/server/pkg/logger"
)

// Limits bounds the rendered size of a query result.
type Limits struct {
	MaxRows  int
	MaxLines int
	MaxBytes int
	Timeout  time.Duration
}

// RunQuery executes a read query and renders it as a pipe-separated table.
// Output beyond the limits is cut and marked.
func RunQuery(ctx context.Context, db *sql.DB, query string, args []any, lim Limits) (string, error) {
	cctx := ctx
	cancel := func() {}
	if lim.Timeout > 0 {
		cctx, cancel = context.WithTimeout(ctx, lim.Timeout)
	}
	defer cancel()

	rows, err := db.QueryContext(cctx, query, args...)
	if err != nil {
		return "", err
	}
	defer func() {
		if err := rows.Close(); err != nil {
			logx.Debug().Err(err).Msg("sqlagent: failed to close rows")
		}
	}()

	cols, err := rows.Columns()
	if err != nil {
		return "", err
	}
	out := []string{strings.Join(cols, " | ")}
	totalBytes := len(out[0])
	count := 0
	truncated := false
	for rows.Next() {
		if lim.MaxRows > 0 && count >= lim.MaxRows {
			truncated = true
			break
		}
		vals := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return "", err
		}
		parts := make([]string, 0, len(vals))
		for _, v := range vals {
			parts = append(parts, formatValue(v))
		}
		line := strings.Join(parts, " | ")
		out = append(out, line)
		totalBytes += len(line) + 1
		count++
		if (lim.MaxLines > 0 && len(out) >= lim.MaxLines) || (lim.MaxBytes > 0 && totalBytes >= lim.MaxBytes) {
			truncated = rows.Next()
			break
		}
	}
	if err := rows.Err(); err != nil {
		return "", err
	}

	result := strings.Join(out, "\n")
	if truncated {
		kb := (len(result) + 1023) / 1024
		result += fmt.Sprintf("\n... additional data cutoff (%d kB)", kb)
	}
	return result, nil
}

func formatValue(v any) string {
	switch t := v.(type) {
	case nil:
		return "NULL"
	case []byte:
		return string(t)
	case time.Time:
		return t.Format("2006-01-02")
	default:
		return fmt.Sprintf("%v", t)
	}
}
