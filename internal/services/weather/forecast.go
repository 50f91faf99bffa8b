package weather

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/grocer-core-poc/server/internal/agent/graph/prompts"
	"github.com/grocer-core-poc/server/internal/services/completion"
	logx "github.com/grocer-core-poc/server/pkg/logger"
)

// Forecaster approximates next week's weather at an address from the same
// week one year earlier. When the lookup fails it asks a language model.
type Forecaster struct {
	geocoder  Geocoder
	archive   Archive
	completer completion.Completer
	now       func() time.Time
}

func NewForecaster(g Geocoder, a Archive, c completion.Completer) *Forecaster {
	return &Forecaster{geocoder: g, archive: a, completer: c, now: time.Now}
}

// WithClock replaces the time source.
func (f *Forecaster) WithClock(now func() time.Time) *Forecaster {
	f.now = now
	return f
}

// Forecast returns a descriptor or, on fallback, whatever the model answered.
// Only a failure of the fallback itself is returned as an error.
func (f *Forecaster) Forecast(ctx context.Context, address string) (string, error) {
	today := f.now()
	d, err := f.observe(ctx, address, today)
	if err == nil {
		logx.Debug().Str("address", address).Str("weather", string(d)).Msg("weather from archive")
		return string(d), nil
	}
	logx.Warn().Err(err).Str("address", address).Msg("weather lookup failed, asking model")

	p, perr := prompts.RenderWeatherFallback(ctx, address, today.Format(prompts.DateLayout))
	if perr != nil {
		return "", perr
	}
	out, cerr := f.completer.Complete(ctx, p)
	if cerr != nil {
		return "", fmt.Errorf("weather fallback: %w", errors.Join(err, cerr))
	}
	return out, nil
}

func (f *Forecaster) observe(ctx context.Context, address string, today time.Time) (Descriptor, error) {
	place := cityCountry(address)
	if place == "" {
		return "", fmt.Errorf("%w: empty address", ErrLocationNotFound)
	}
	at, err := f.geocoder.Geocode(ctx, place)
	if err != nil {
		return "", err
	}

	start := today.AddDate(0, 0, -365)
	end := start.AddDate(0, 0, 7)
	means, err := f.archive.DailyMeans(ctx, at, start, end)
	if err != nil {
		return "", err
	}
	if len(means) == 0 {
		return "", ErrNoObservations
	}

	var sum float64
	for _, m := range means {
		sum += m
	}
	// truncation toward zero, not rounding
	return Classify(int(sum / float64(len(means)))), nil
}

// cityCountry keeps the last two comma separated parts of an address.
func cityCountry(address string) string {
	parts := strings.Split(address, ",")
	if len(parts) > 2 {
		parts = parts[len(parts)-2:]
	}
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, ", ")
}
