package weather

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/bytedance/sonic"

	"github.com/grocer-core-poc/server/internal/agent/model"
	errx "github.com/grocer-core-poc/server/internal/core/error"
)

var (
	// ErrLocationNotFound is returned when the geocoder has no match for a place.
	ErrLocationNotFound = errors.New("location not found")
	// ErrNoObservations is returned when the archive has no temperatures for a window.
	ErrNoObservations = errors.New("no temperature observations")
)

const archiveDateLayout = "2006-01-02"

// Coordinates is a geocoded point.
type Coordinates struct {
	Latitude  float64
	Longitude float64
}

// Geocoder resolves a place name to coordinates.
type Geocoder interface {
	Geocode(ctx context.Context, place string) (Coordinates, error)
}

// Archive returns daily mean temperatures for an inclusive date range.
type Archive interface {
	DailyMeans(ctx context.Context, at Coordinates, start, end time.Time) ([]float64, error)
}

// Client talks to a Nominatim geocoder and the Open-Meteo historical archive.
type Client struct {
	http        *http.Client
	geocoderURL string
	archiveURL  string
	userAgent   string
}

func NewClient(cfg model.WeatherConfig, hc *http.Client) *Client {
	if hc == nil {
		hc = &http.Client{Timeout: cfg.Timeout}
	}
	return &Client{
		http:        hc,
		geocoderURL: cfg.GeocoderURL,
		archiveURL:  cfg.ArchiveURL,
		userAgent:   cfg.UserAgent,
	}
}

type nominatimPlace struct {
	Lat string `json:"lat"`
	Lon string `json:"lon"`
}

func (c *Client) Geocode(ctx context.Context, place string) (Coordinates, error) {
	q := url.Values{}
	q.Set("q", place)
	q.Set("format", "json")
	q.Set("limit", "1")

	var places []nominatimPlace
	if err := c.getJSON(ctx, c.geocoderURL+"/search?"+q.Encode(), &places); err != nil {
		return Coordinates{}, err
	}
	if len(places) == 0 {
		return Coordinates{}, fmt.Errorf("%w: %q", ErrLocationNotFound, place)
	}

	lat, err := strconv.ParseFloat(places[0].Lat, 64)
	if err != nil {
		return Coordinates{}, errx.WrapUpstream(fmt.Errorf("geocoder latitude: %w", err))
	}
	lon, err := strconv.ParseFloat(places[0].Lon, 64)
	if err != nil {
		return Coordinates{}, errx.WrapUpstream(fmt.Errorf("geocoder longitude: %w", err))
	}
	return Coordinates{Latitude: lat, Longitude: lon}, nil
}

type archiveResponse struct {
	Daily struct {
		Time []string   `json:"time"`
		Mean []*float64 `json:"temperature_2m_mean"`
	} `json:"daily"`
}

// DailyMeans skips days the archive reports without a value.
func (c *Client) DailyMeans(ctx context.Context, at Coordinates, start, end time.Time) ([]float64, error) {
	q := url.Values{}
	q.Set("latitude", strconv.FormatFloat(at.Latitude, 'f', 4, 64))
	q.Set("longitude", strconv.FormatFloat(at.Longitude, 'f', 4, 64))
	q.Set("start_date", start.Format(archiveDateLayout))
	q.Set("end_date", end.Format(archiveDateLayout))
	q.Set("daily", "temperature_2m_mean")
	q.Set("timezone", "auto")

	var resp archiveResponse
	if err := c.getJSON(ctx, c.archiveURL+"/v1/archive?"+q.Encode(), &resp); err != nil {
		return nil, err
	}

	means := make([]float64, 0, len(resp.Daily.Mean))
	for _, m := range resp.Daily.Mean {
		if m != nil {
			means = append(means, *m)
		}
	}
	if len(means) == 0 {
		return nil, ErrNoObservations
	}
	return means, nil
}

func (c *Client) getJSON(ctx context.Context, endpoint string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	res, err := c.http.Do(req)
	if err != nil {
		return errx.WrapUpstream(err)
	}
	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return errx.WrapUpstream(err)
	}
	if res.StatusCode != http.StatusOK {
		return errx.WrapUpstream(fmt.Errorf("%s returned %d: %s", req.URL.Host, res.StatusCode, truncate(body, 200)))
	}
	if err := sonic.Unmarshal(body, out); err != nil {
		return errx.WrapUpstream(fmt.Errorf("decode %s response: %w", req.URL.Host, err))
	}
	return nil
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}

var (
	_ Geocoder = (*Client)(nil)
	_ Archive  = (*Client)(nil)
)
