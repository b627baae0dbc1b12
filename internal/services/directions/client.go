package directions

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"adroute-backend/internal/models"

	"github.com/sirupsen/logrus"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"
	"golang.org/x/sync/singleflight"
)

// Client fetches walking paths from an OSRM-compatible routing service
type Client struct {
	baseURL    string
	profile    string
	httpClient *http.Client
	cache      *PathCache
	group      singleflight.Group
}

// routeResponse is the subset of the OSRM /route response we read
type routeResponse struct {
	Code    string `json:"code"`
	Message string `json:"message,omitempty"`
	Routes  []struct {
		Geometry json.RawMessage `json:"geometry"`
		Distance float64         `json:"distance"` // meters
		Duration float64         `json:"duration"` // seconds
	} `json:"routes"`
}

// NewClient creates a directions client with a 24h path cache
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		profile: "foot",
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		cache: NewPathCache(1000, 24*time.Hour),
	}
}

// Cache exposes the path cache so the server can schedule its cleanup
func (c *Client) Cache() *PathCache {
	return c.cache
}

// WalkingRoute returns the walking path from one point to another.
// Concurrent requests for the same endpoints share one provider call. The
// shared call is bounded by the client timeout, not by any caller's ctx, so a
// caller that gives up stops waiting without failing the others.
func (c *Client) WalkingRoute(ctx context.Context, from, to models.Coordinate) ([]models.Coordinate, error) {
	signature := Signature(from, to)
	if cached, found := c.cache.Get(signature); found {
		logrus.WithField("signature", signature).Debug("📦 Directions cache HIT")
		return cached, nil
	}

	ch := c.group.DoChan(signature, func() (interface{}, error) {
		points, err := c.fetch(context.WithoutCancel(ctx), from, to)
		if err != nil {
			return nil, err
		}
		c.cache.Set(signature, points)
		return points, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.([]models.Coordinate), nil
	}
}

// fetch makes the actual routing API call
func (c *Client) fetch(ctx context.Context, from, to models.Coordinate) ([]models.Coordinate, error) {
	url := fmt.Sprintf(
		"%s/route/v1/%s/%.6f,%.6f;%.6f,%.6f?overview=full&geometries=geojson",
		c.baseURL, c.profile,
		from.Lng, from.Lat,
		to.Lng, to.Lat,
	)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("directions request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("directions API returned status %d: %s", resp.StatusCode, string(body))
	}

	var apiResp routeResponse
	if err := json.Unmarshal(body, &apiResp); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	if apiResp.Code != "Ok" {
		return nil, fmt.Errorf("directions API returned code %s: %s", apiResp.Code, apiResp.Message)
	}
	if len(apiResp.Routes) == 0 {
		return nil, fmt.Errorf("directions API returned no routes")
	}

	points, err := decodeLineString(apiResp.Routes[0].Geometry)
	if err != nil {
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"points":     len(points),
		"distance_m": apiResp.Routes[0].Distance,
	}).Debug("🚶 Walking route fetched")
	return points, nil
}

func decodeLineString(raw json.RawMessage) ([]models.Coordinate, error) {
	var g geom.T
	if err := geojson.Unmarshal(raw, &g); err != nil {
		return nil, fmt.Errorf("failed to decode route geometry: %w", err)
	}
	ls, ok := g.(*geom.LineString)
	if !ok {
		return nil, fmt.Errorf("unexpected route geometry %T", g)
	}

	coords := ls.Coords()
	points := make([]models.Coordinate, len(coords))
	for i, c := range coords {
		points[i] = models.Coordinate{Lat: c.Y(), Lng: c.X()}
	}
	return points, nil
}
