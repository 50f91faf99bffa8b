package tools

import (
	"context"
	"errors"
	"fmt"

	"github.com/cloudwego/eino/components/tool"
	"github.com/cloudwego/eino/schema"

	"github.com/grocer-core-poc/server/internal/agent/graph/prompts"
	"github.com/grocer-core-poc/server/internal/agent/model"
	logx "github.com/grocer-core-poc/server/pkg/logger"
)

// ErrUnknownTool is returned when the model requests a tool that is neither
// built in nor covered by an allow-listed catalog pattern.
var ErrUnknownTool = errors.New("unknown tool")

// ToolID enumerates the built-in adapters.
type ToolID int

const (
	UserDetails ToolID = iota
	Offers
	Inventory
	Expiry
	Recipe
	Weather
	Festivals
	SendEmail

	toolCount
)

type toolSpec struct {
	name        string
	description string
	param       string
	paramDesc   string
}

// specs is indexed by ToolID; its length must equal toolCount.
var specs = [...]toolSpec{
	UserDetails: {
		name:        "get_user_details",
		description: "Input to this tool is user Loyalty ID and related question. This tool will help you get details from user data.",
		param:       "user_question_with_loyalty_id",
		paramDesc:   "The user's Loyalty ID together with the question about the user.",
	},
	Offers: {
		name:        "get_offers_details",
		description: "Use this tool to get every details of offers from offer table by passing user Loyalty ID.",
		param:       "user_input",
		paramDesc:   "The user's Loyalty ID and what they want to know about their offers.",
	},
	Inventory: {
		name:        "get_product_availability_and_price",
		description: "Use this tool to check for the product availability and product price, given list of Product Names and List of User Store ID. Never pass User ID. It will return its analysis.",
		param:       "products_user_store_details",
		paramDesc:   "Product names and the user's store IDs.",
	},
	Expiry: {
		name:        "get_expired_products_details",
		description: "This tool can be used to to get expired products details by looking in to Product Expiry Date in transactions table. Input to this tool will be Loyalty ID of user.",
		param:       "product_id_and_loyalty_id_details",
		paramDesc:   "The user's Loyalty ID and optionally product IDs.",
	},
	Recipe: {
		name:        "get_stored_recipie",
		description: "This tool will help you to search for recipie for user input.",
		param:       "user_input",
		paramDesc:   "The dish or ingredients the user is looking for.",
	},
	Weather: {
		name:        "get_weather_forecast",
		description: "This tool will get the weather forecast, for provided user address details so that agent can suggest the grocery suited for user weather.",
		param:       "address",
		paramDesc:   "The user's address.",
	},
	Festivals: {
		name:        "suggest_for_upcoming_festivals",
		description: "This tool will take in user location and other details. Post that based on the festivals around current date it will return list recipies and products.",
		param:       "user_details",
		paramDesc:   "The user's location and other details.",
	},
	SendEmail: {
		name:        "send_email_function",
		description: "This tool takes user email details and chatbot conversation summary as recieved by the agent to send email to user.",
		param:       "user_details_and_conversation_summary",
		paramDesc:   "The user's email details and a summary of the conversation including the grocery list.",
	},
}

var _ [toolCount]toolSpec = specs

// Name returns the tool name advertised to the model.
func (id ToolID) Name() string {
	if id < 0 || id >= toolCount {
		return fmt.Sprintf("tool(%d)", int(id))
	}
	return specs[id].name
}

func (id ToolID) String() string { return id.Name() }

// Adapter is one built-in capability. Invoke receives the single free-text
// argument the model supplied.
type Adapter interface {
	ID() ToolID
	Invoke(ctx context.Context, input string) (string, error)
}

// Adapters holds one implementation per ToolID.
type Adapters struct {
	UserDetails Adapter
	Offers      Adapter
	Inventory   Adapter
	Expiry      Adapter
	Recipe      Adapter
	Weather     Adapter
	Festivals   Adapter
	SendEmail   Adapter
}

func (a Adapters) byID() [toolCount]Adapter {
	return [toolCount]Adapter{
		UserDetails: a.UserDetails,
		Offers:      a.Offers,
		Inventory:   a.Inventory,
		Expiry:      a.Expiry,
		Recipe:      a.Recipe,
		Weather:     a.Weather,
		Festivals:   a.Festivals,
		SendEmail:   a.SendEmail,
	}
}

// Registry is built once at startup and shared read-only across turns.
type Registry struct {
	adapters [toolCount]Adapter
	byName   map[string]ToolID
	catalog  *catalogSet
}

// NewRegistry validates adapters and loads the catalog functions matching
// patterns. catalog may be nil when patterns is empty.
func NewRegistry(ctx context.Context, adapters Adapters, catalog CatalogSource, patterns []string) (*Registry, error) {
	r := &Registry{
		adapters: adapters.byID(),
		byName:   make(map[string]ToolID, toolCount),
	}
	for id, a := range r.adapters {
		tid := ToolID(id)
		if a == nil {
			return nil, fmt.Errorf("adapter %s is not configured", tid)
		}
		if a.ID() != tid {
			return nil, fmt.Errorf("adapter for %s reports id %s", tid, a.ID())
		}
		r.byName[tid.Name()] = tid
	}

	cs, err := loadCatalog(ctx, catalog, patterns)
	if err != nil {
		return nil, err
	}
	for _, fn := range cs.functions {
		if _, clash := r.byName[fn.Name]; clash {
			return nil, fmt.Errorf("catalog function %s shadows a built-in tool", fn.Name)
		}
	}
	r.catalog = cs

	logx.Debug().
		Int("builtin_tools", int(toolCount)).
		Int("catalog_functions", len(cs.functions)).
		Msg("Tool registry built")
	return r, nil
}

// Lookup resolves a built-in tool by exact name.
func (r *Registry) Lookup(name string) (ToolID, bool) {
	id, ok := r.byName[name]
	return id, ok
}

// Adapter returns the implementation for id.
func (r *Registry) Adapter(id ToolID) Adapter {
	return r.adapters[id]
}

// IsCatalogFunction reports whether name resolves to a catalog function.
func (r *Registry) IsCatalogFunction(name string) bool {
	if _, builtin := r.byName[name]; builtin {
		return false
	}
	_, ok := r.catalog.resolve(name)
	return ok
}

// Tools returns every advertised tool: the built-ins in ToolID order followed
// by the loaded catalog functions.
func (r *Registry) Tools() []tool.BaseTool {
	out := make([]tool.BaseTool, 0, int(toolCount)+len(r.catalog.functions))
	for id := ToolID(0); id < toolCount; id++ {
		out = append(out, &adapterTool{spec: specs[id], adapter: r.adapters[id]})
	}
	for _, fn := range r.catalog.functions {
		out = append(out, &catalogTool{fn: fn, source: r.catalog.source})
	}
	return out
}

// ToolInfos returns the schema of every advertised tool.
func (r *Registry) ToolInfos(ctx context.Context) ([]*schema.ToolInfo, error) {
	ts := r.Tools()
	infos := make([]*schema.ToolInfo, 0, len(ts))
	for _, t := range ts {
		info, err := t.Info(ctx)
		if err != nil {
			return nil, err
		}
		infos = append(infos, info)
	}
	return infos, nil
}

// PromptNames feeds the agent system prompt.
func (r *Registry) PromptNames() prompts.AgentToolNames {
	return prompts.AgentToolNames{
		UserTool:      UserDetails.Name(),
		OffersTool:    Offers.Name(),
		InventoryTool: Inventory.Name(),
		ExpiryTool:    Expiry.Name(),
		RecipeTool:    Recipe.Name(),
		WeatherTool:   Weather.Name(),
		FestivalTool:  Festivals.Name(),
		EmailTool:     SendEmail.Name(),
	}
}

// HandleUnknown runs a catalog function that was not advertised but falls
// under an allow-listed pattern. Any other name fails the turn.
func (r *Registry) HandleUnknown(ctx context.Context, name, input string) (string, error) {
	resolved, ok := r.catalog.resolve(name)
	if !ok {
		logx.Error().Str("tool_name", name).Msg("Model requested an unknown tool")
		return "", fmt.Errorf("%w: %q", ErrUnknownTool, name)
	}
	logx.Debug().
		Str("tool_name", name).
		Str("function", resolved.function).
		Str("pattern", resolved.pattern).
		Msg("Resolved catalog function by pattern")

	args, err := decodeArgs(input)
	if err != nil {
		return "", fmt.Errorf("catalog function %s: %w", resolved.function, err)
	}
	return runCatalog(ctx, r.catalog.source, resolved.function, args), nil
}

// NormalizeArguments trims every argument and coerces non-string values to
// strings. Input that is not a JSON object is passed through unchanged.
func (r *Registry) NormalizeArguments(_ context.Context, name, arguments string) (string, error) {
	args, err := decodeArgs(arguments)
	if err != nil {
		logx.Debug().Str("tool_name", name).Msg("Arguments are not a JSON object; passing through")
		return arguments, nil
	}
	out, err := encodeArgs(args)
	if err != nil {
		return arguments, nil
	}
	return out, nil
}

// CatalogFunctions returns the catalog functions advertised at startup.
func (r *Registry) CatalogFunctions() []model.CatalogFunction {
	return append([]model.CatalogFunction(nil), r.catalog.functions...)
}
