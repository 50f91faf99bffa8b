package weather

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeGeocoder struct {
	at    Coordinates
	err   error
	place string
}

func (f *fakeGeocoder) Geocode(_ context.Context, place string) (Coordinates, error) {
	f.place = place
	return f.at, f.err
}

type fakeArchive struct {
	means      []float64
	err        error
	start, end time.Time
}

func (f *fakeArchive) DailyMeans(_ context.Context, _ Coordinates, start, end time.Time) ([]float64, error) {
	f.start, f.end = start, end
	return f.means, f.err
}

type fakeCompleter struct {
	reply  string
	err    error
	prompt string
	calls  int
}

func (f *fakeCompleter) Complete(_ context.Context, prompt string) (string, error) {
	f.calls++
	f.prompt = prompt
	return f.reply, f.err
}

var fixedNow = func() time.Time { return time.Date(2024, 3, 7, 10, 0, 0, 0, time.UTC) }

func TestForecastFromArchive(t *testing.T) {
	g := &fakeGeocoder{at: Coordinates{43.65, -79.38}}
	a := &fakeArchive{means: []float64{20, 22, 24, 26}}
	c := &fakeCompleter{}
	f := NewForecaster(g, a, c).WithClock(fixedNow)

	got, err := f.Forecast(context.Background(), "150 Carlton, Toronto, Ontario, Canada")
	require.NoError(t, err)
	assert.Equal(t, "Warm", got)
	assert.Equal(t, "Ontario, Canada", g.place)
	assert.Equal(t, time.Date(2023, 3, 8, 10, 0, 0, 0, time.UTC), a.start)
	assert.Equal(t, time.Date(2023, 3, 15, 10, 0, 0, 0, time.UTC), a.end)
	assert.Zero(t, c.calls)
}

func TestForecastTruncatesMean(t *testing.T) {
	f := NewForecaster(&fakeGeocoder{}, &fakeArchive{means: []float64{5.9, 6.0}}, &fakeCompleter{}).WithClock(fixedNow)
	got, err := f.Forecast(context.Background(), "Vihar, Delhi, India")
	require.NoError(t, err)
	// mean 5.95 truncates to 5, which lands in the VeryCold fall-through
	assert.Equal(t, "Very Cold", got)
}

func TestForecastFallsBackToModel(t *testing.T) {
	tests := []struct {
		name string
		g    *fakeGeocoder
		a    *fakeArchive
	}{
		{"geocoder fails", &fakeGeocoder{err: ErrLocationNotFound}, &fakeArchive{}},
		{"archive fails", &fakeGeocoder{}, &fakeArchive{err: errors.New("timeout")}},
		{"no observations", &fakeGeocoder{}, &fakeArchive{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &fakeCompleter{reply: "Hot"}
			f := NewForecaster(tt.g, tt.a, c).WithClock(fixedNow)

			got, err := f.Forecast(context.Background(), "Downtown Dubai, Dubai, United Arab Emirates")
			require.NoError(t, err)
			assert.Equal(t, "Hot", got)
			assert.Equal(t, 1, c.calls)
			assert.Contains(t, c.prompt, "Downtown Dubai, Dubai, United Arab Emirates")
			assert.Contains(t, c.prompt, "2024-Mar-07")
		})
	}
}

func TestForecastFallbackFailure(t *testing.T) {
	c := &fakeCompleter{err: errors.New("model down")}
	f := NewForecaster(&fakeGeocoder{err: ErrLocationNotFound}, &fakeArchive{}, c).WithClock(fixedNow)

	_, err := f.Forecast(context.Background(), "nowhere")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrLocationNotFound)
	assert.ErrorContains(t, err, "model down")
}

func TestCityCountry(t *testing.T) {
	assert.Equal(t, "Mexico City, Mexico", cityCountry("104, Parliament, Mexico City, Mexico"))
	assert.Equal(t, "Delhi, India", cityCountry("Delhi, India"))
	assert.Equal(t, "Paris", cityCountry("Paris"))
	assert.Equal(t, "", cityCountry("  "))
}
