package agent

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cloudwego/eino/schema"

	"github.com/grocer-core-poc/server/internal/agent/graph"
	"github.com/grocer-core-poc/server/internal/agent/graph/conversations"
	"github.com/grocer-core-poc/server/internal/agent/graph/nodes"
	"github.com/grocer-core-poc/server/internal/agent/graph/normalizer"
	"github.com/grocer-core-poc/server/internal/agent/graph/tools"
	"github.com/grocer-core-poc/server/internal/agent/model"
	"github.com/grocer-core-poc/server/internal/agent/repo"
	"github.com/grocer-core-poc/server/internal/config"
	"github.com/grocer-core-poc/server/internal/services/completion"
	"github.com/grocer-core-poc/server/internal/services/mailer"
	"github.com/grocer-core-poc/server/internal/services/sqlagent"
	"github.com/grocer-core-poc/server/internal/services/vectorsearch"
	"github.com/grocer-core-poc/server/internal/services/weather"
	"github.com/grocer-core-poc/server/internal/store"
	logx "github.com/grocer-core-poc/server/pkg/logger"
)

// Dependencies are the external collaborators of the agent.
type Dependencies struct {
	ChatModels       *nodes.ChatModels
	DB               *sql.DB
	Searcher         vectorsearch.Searcher
	Sender           mailer.Sender
	Forecaster       tools.Forecaster
	ConversationRepo model.ConversationRepository
	Now              func() time.Time
}

// Service is the conversation entry point.
type Service struct {
	runner   *graph.Runner
	registry *tools.Registry
	opts     normalizer.Options
	closers  []func() error
}

// New connects every external collaborator described by cfg and builds the
// agent on top of them.
func New(ctx context.Context, cfg *config.App) (*Service, error) {
	var closers []func() error
	fail := func(err error) (*Service, error) {
		for i := len(closers) - 1; i >= 0; i-- {
			_ = closers[i]()
		}
		return nil, err
	}

	cms, err := nodes.NewChatModels(ctx, cfg.LLM, cfg.Agent, cfg.ToolModel)
	if err != nil {
		return fail(err)
	}

	db, err := cfg.SQLite.New(ctx)
	if err != nil {
		return fail(fmt.Errorf("open sqlite: %w", err))
	}
	closers = append(closers, db.Close)
	if err := store.Migrate(ctx, db); err != nil {
		return fail(err)
	}

	wc, err := cfg.Weaviate.New()
	if err != nil {
		return fail(fmt.Errorf("create weaviate client: %w", err))
	}

	sender, err := mailer.NewSMTP(cfg.Email)
	if err != nil {
		return fail(err)
	}

	convRepo, closeRepo, err := repo.Open(ctx, cfg.Conversation, cfg.Redis)
	if err != nil {
		return fail(err)
	}
	closers = append(closers, closeRepo)

	wx := weather.NewClient(cfg.Weather, &http.Client{Timeout: cfg.Weather.Timeout})
	toolCompleter := completion.New(cms.Tool, cms.ToolModelName)

	svc, err := NewWithDependencies(ctx, cfg, Dependencies{
		ChatModels:       cms,
		DB:               db,
		Searcher:         vectorsearch.NewWeaviate(wc),
		Sender:           sender,
		Forecaster:       weather.NewForecaster(wx, wx, toolCompleter),
		ConversationRepo: convRepo,
	})
	if err != nil {
		return fail(err)
	}
	svc.closers = closers
	return svc, nil
}

// NewWithDependencies builds the registry and the dispatch loop over deps.
// ConversationRepo may be nil to disable checkpoints.
func NewWithDependencies(ctx context.Context, cfg *config.App, deps Dependencies) (*Service, error) {
	if deps.ChatModels == nil || deps.DB == nil || deps.Searcher == nil || deps.Sender == nil || deps.Forecaster == nil {
		return nil, errors.New("agent dependencies are incomplete")
	}
	now := deps.Now
	if now == nil {
		now = time.Now
	}

	toolCompleter := completion.New(deps.ChatModels.Tool, deps.ChatModels.ToolModelName)
	sqlAgent := sqlagent.New(deps.DB, toolCompleter, cfg.SQLAgent)
	catalog := store.NewCatalog(deps.DB, sqlagent.Limits{
		MaxRows:  cfg.SQLAgent.MaxRows,
		MaxBytes: cfg.SQLAgent.MaxBytes,
		Timeout:  cfg.SQLAgent.Timeout,
	})

	registry, err := tools.NewRegistry(ctx, tools.Adapters{
		UserDetails: tools.NewUserDetailsAdapter(sqlAgent),
		Offers:      tools.NewOffersAdapter(sqlAgent),
		Inventory:   tools.NewInventoryAdapter(toolCompleter, deps.Searcher, cfg.Index.ProductIndex),
		Expiry:      tools.NewExpiryAdapter(sqlAgent),
		Recipe:      tools.NewRecipeAdapter(deps.Searcher, cfg.Index.RecipeIndex),
		Weather:     tools.NewWeatherAdapter(deps.Forecaster),
		Festivals:   tools.NewFestivalAdapter(toolCompleter, now),
		SendEmail:   tools.NewEmailAdapter(toolCompleter, deps.Sender, cfg.Email),
	}, catalog, cfg.Catalog.Functions)
	if err != nil {
		return nil, fmt.Errorf("build tool registry: %w", err)
	}

	runner, err := graph.BuildGraph(ctx, &graph.GraphConfig{
		ChatModels:      deps.ChatModels,
		MessagesManager: conversations.NewMessagesManager(deps.ConversationRepo),
		Registry:        registry,
		Prompt:          cfg.Prompt,
		ToolMaxCalls:    cfg.Conversation.Tools.MaxCalls,
	})
	if err != nil {
		return nil, err
	}

	return &Service{
		runner:   runner,
		registry: registry,
		opts: normalizer.Options{
			ShowToolActivity: cfg.Server.ShowToolActivity,
			IsCatalog:        registry.IsCatalogFunction,
		},
	}, nil
}

// Chat runs one turn and returns its normalized chunks. Only request
// validation errors are returned directly; a failed turn ends the stream
// with an "Error: ..." chunk.
func (s *Service) Chat(ctx context.Context, req model.ChatRequest) (*schema.StreamReader[string], error) {
	msgs, err := conversations.FromChatMessages(req.Messages)
	if err != nil {
		return nil, err
	}
	in := model.TurnInput{ThreadID: req.Configurable.ThreadID, Messages: msgs}

	logx.Info().
		Str("thread_id", in.ThreadID).
		Int("messages", len(msgs)).
		Bool("stream", req.Stream).
		Msg("Chat turn")

	if !req.Stream {
		ev, err := s.runner.Invoke(ctx, in)
		if err != nil {
			logx.Error().Str("thread_id", in.ThreadID).Err(err).Msg("Turn failed")
			return schema.StreamReaderFromArray([]string{errorChunk(err)}), nil
		}
		events := schema.StreamReaderFromArray([]model.Event{ev})
		return normalizer.Stream(events, s.opts), nil
	}

	return withErrorChunk(normalizer.Stream(s.runner.Stream(ctx, in), s.opts), in.ThreadID), nil
}

// Registry exposes the tools available to the reasoning model.
func (s *Service) Registry() *tools.Registry {
	return s.registry
}

// Close releases the collaborators opened by New.
func (s *Service) Close() error {
	var errs []error
	for i := len(s.closers) - 1; i >= 0; i-- {
		errs = append(errs, s.closers[i]())
	}
	return errors.Join(errs...)
}

func errorChunk(err error) string {
	return "Error: " + err.Error()
}

// withErrorChunk turns a stream failure into a final textual chunk.
func withErrorChunk(chunks *schema.StreamReader[string], threadID string) *schema.StreamReader[string] {
	sr, sw := schema.Pipe[string](8)
	go func() {
		defer sw.Close()
		defer chunks.Close()
		for {
			c, err := chunks.Recv()
			if errors.Is(err, io.EOF) {
				return
			}
			if err != nil {
				logx.Error().Str("thread_id", threadID).Err(err).Msg("Turn failed")
				sw.Send(errorChunk(err), nil)
				return
			}
			if closed := sw.Send(c, nil); closed {
				return
			}
		}
	}()
	return sr
}
