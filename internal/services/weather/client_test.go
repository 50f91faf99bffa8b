package weather

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grocer-core-poc/server/internal/agent/model"
	errx "github.com/grocer-core-poc/server/internal/core/error"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewClient(model.WeatherConfig{
		GeocoderURL: srv.URL,
		ArchiveURL:  srv.URL,
		UserAgent:   "grocer-test",
		Timeout:     time.Second,
	}, srv.Client())
}

func TestGeocode(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/search", r.URL.Path)
		assert.Equal(t, "Toronto, Ontario", r.URL.Query().Get("q"))
		assert.Equal(t, "json", r.URL.Query().Get("format"))
		assert.Equal(t, "grocer-test", r.Header.Get("User-Agent"))
		_, _ = w.Write([]byte(`[{"lat":"43.6535","lon":"-79.3839","display_name":"Toronto"}]`))
	})

	at, err := c.Geocode(context.Background(), "Toronto, Ontario")
	require.NoError(t, err)
	assert.InDelta(t, 43.6535, at.Latitude, 1e-9)
	assert.InDelta(t, -79.3839, at.Longitude, 1e-9)
}

func TestGeocodeNoMatch(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[]`))
	})
	_, err := c.Geocode(context.Background(), "Atlantis")
	assert.ErrorIs(t, err, ErrLocationNotFound)
}

func TestGeocodeUpstreamFailure(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	})
	_, err := c.Geocode(context.Background(), "Toronto")
	require.Error(t, err)
	assert.Equal(t, http.StatusBadGateway, errx.StatusOf(err))
}

func TestDailyMeans(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "/v1/archive", r.URL.Path)
		assert.Equal(t, "2023-03-08", q.Get("start_date"))
		assert.Equal(t, "2023-03-15", q.Get("end_date"))
		assert.Equal(t, "temperature_2m_mean", q.Get("daily"))
		_, _ = w.Write([]byte(`{"daily":{"time":["2023-03-08","2023-03-09","2023-03-10"],"temperature_2m_mean":[1.5,null,2.5]}}`))
	})

	start := time.Date(2023, 3, 8, 0, 0, 0, 0, time.UTC)
	means, err := c.DailyMeans(context.Background(), Coordinates{43.65, -79.38}, start, start.AddDate(0, 0, 7))
	require.NoError(t, err)
	assert.Equal(t, []float64{1.5, 2.5}, means)
}

func TestDailyMeansEmpty(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"daily":{"time":[],"temperature_2m_mean":[]}}`))
	})
	_, err := c.DailyMeans(context.Background(), Coordinates{}, time.Now(), time.Now())
	assert.ErrorIs(t, err, ErrNoObservations)
}
