package tools

import "context"

// Forecaster produces a weather descriptor for an address.
type Forecaster interface {
	Forecast(ctx context.Context, address string) (string, error)
}

type WeatherAdapter struct {
	forecaster Forecaster
}

func NewWeatherAdapter(f Forecaster) *WeatherAdapter {
	return &WeatherAdapter{forecaster: f}
}

func (a *WeatherAdapter) ID() ToolID { return Weather }

func (a *WeatherAdapter) Invoke(ctx context.Context, input string) (string, error) {
	return a.forecaster.Forecast(ctx, input)
}

var _ Adapter = (*WeatherAdapter)(nil)
