package tools

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/grocer-core-poc/server/internal/services/sqlagent"
	"github.com/grocer-core-poc/server/internal/store"
	logx "github.com/grocer-core-poc/server/pkg/logger"
)

// SQLAnswerer answers a question using only the given tables.
type SQLAnswerer interface {
	Answer(ctx context.Context, tables []string, question string) (string, error)
}

// StructuredAdapter scopes a structured-query agent to a table allow-list.
type StructuredAdapter struct {
	id     ToolID
	tables []string
	agent  SQLAnswerer
}

func NewUserDetailsAdapter(agent SQLAnswerer) *StructuredAdapter {
	return &StructuredAdapter{id: UserDetails, tables: []string{store.TableUsers}, agent: agent}
}

func NewOffersAdapter(agent SQLAnswerer) *StructuredAdapter {
	return &StructuredAdapter{id: Offers, tables: []string{store.TableOffers, store.TableProducts}, agent: agent}
}

func NewExpiryAdapter(agent SQLAnswerer) *StructuredAdapter {
	return &StructuredAdapter{id: Expiry, tables: []string{store.TableTransactions}, agent: agent}
}

func (a *StructuredAdapter) ID() ToolID { return a.id }

// Tables returns the allow-list.
func (a *StructuredAdapter) Tables() []string {
	return append([]string(nil), a.tables...)
}

// Invoke reports query-generation failures to the model as text. Other errors
// propagate and end the turn.
func (a *StructuredAdapter) Invoke(ctx context.Context, input string) (string, error) {
	out, err := a.agent.Answer(ctx, a.tables, input)
	if errors.Is(err, sqlagent.ErrParse) {
		logx.Warn().Str("tool", a.id.Name()).Err(err).Msg("Structured query agent gave up")
		return fmt.Sprintf("Could not answer from the %s data. Following error: %v", strings.Join(a.tables, ", "), err), nil
	}
	if err != nil {
		return "", err
	}
	return out, nil
}

var _ Adapter = (*StructuredAdapter)(nil)
