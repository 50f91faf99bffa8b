package tools

import (
	"context"
	"errors"
	"strings"

	"github.com/grocer-core-poc/server/internal/agent/model"
	"github.com/grocer-core-poc/server/internal/services/mailer"
	"github.com/grocer-core-poc/server/internal/services/vectorsearch"
)

// scriptedCompleter answers each prompt with the reply of the first matching
// marker, falling back to replies in order.
type scriptedCompleter struct {
	byMarker map[string]string
	replies  []string
	err      error
	prompts  []string
}

func (s *scriptedCompleter) Complete(_ context.Context, prompt string) (string, error) {
	s.prompts = append(s.prompts, prompt)
	if s.err != nil {
		return "", s.err
	}
	for marker, reply := range s.byMarker {
		if strings.Contains(prompt, marker) {
			return reply, nil
		}
	}
	if len(s.replies) == 0 {
		return "", errors.New("no scripted reply")
	}
	r := s.replies[0]
	s.replies = s.replies[1:]
	return r, nil
}

type fakeSearcher struct {
	rows    map[string][]vectorsearch.Row // keyed by storeID|text
	err     error
	queries []vectorsearch.Query
}

func (f *fakeSearcher) Search(_ context.Context, q vectorsearch.Query) ([]vectorsearch.Row, error) {
	f.queries = append(f.queries, q)
	if f.err != nil {
		return nil, f.err
	}
	return f.rows[q.Filters["storeID"]+"|"+q.Text], nil
}

type fakeAnswerer struct {
	answer string
	err    error
	tables []string
	input  string
}

func (f *fakeAnswerer) Answer(_ context.Context, tables []string, question string) (string, error) {
	f.tables, f.input = tables, question
	return f.answer, f.err
}

type fakeSender struct {
	sent []mailer.Message
	err  error
}

func (f *fakeSender) Send(_ context.Context, m mailer.Message) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, m)
	return nil
}

type fakeCatalog struct {
	functions []model.CatalogFunction
	calls     []string
	args      []map[string]string
	err       error
}

func (f *fakeCatalog) List(context.Context) ([]model.CatalogFunction, error) {
	return f.functions, nil
}

func (f *fakeCatalog) Call(_ context.Context, name string, args map[string]string) (string, error) {
	f.calls = append(f.calls, name)
	f.args = append(f.args, args)
	if f.err != nil {
		return "", f.err
	}
	return "result of " + name, nil
}

// echoAdapter returns its input prefixed by the tool name.
type echoAdapter struct {
	id  ToolID
	err error
}

func (e echoAdapter) ID() ToolID { return e.id }

func (e echoAdapter) Invoke(_ context.Context, input string) (string, error) {
	if e.err != nil {
		return "", e.err
	}
	return e.id.Name() + ":" + input, nil
}

func echoAdapters() Adapters {
	return Adapters{
		UserDetails: echoAdapter{id: UserDetails},
		Offers:      echoAdapter{id: Offers},
		Inventory:   echoAdapter{id: Inventory},
		Expiry:      echoAdapter{id: Expiry},
		Recipe:      echoAdapter{id: Recipe},
		Weather:     echoAdapter{id: Weather},
		Festivals:   echoAdapter{id: Festivals},
		SendEmail:   echoAdapter{id: SendEmail},
	}
}
