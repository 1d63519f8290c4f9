package elevation

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"paceline/series"
)

// DefaultChunkSize bounds how many coordinates go into one request URL.
const DefaultChunkSize = 500

var defaultHTTPClient = &http.Client{Timeout: 30 * time.Second}

// Client fetches ground elevations for coordinate lists from a Google-style
// elevation endpoint: GET <endpoint>?locations=lat,lon|lat,lon&key=<key>
// answered with {"status":"OK","results":[{"elevation":...},...]}.
//
// The zero value is not usable; Endpoint is required. All other fields are
// optional.
type Client struct {
	Endpoint   string
	APIKey     string
	HTTPClient *http.Client
	ChunkSize  int
	Logger     *slog.Logger
}

var _ series.ElevationSource = (*Client)(nil)

type lookupResponse struct {
	Status       string `json:"status"`
	ErrorMessage string `json:"error_message"`
	Results      []struct {
		Elevation float64 `json:"elevation"`
	} `json:"results"`
}

// Lookup returns one elevation in meters per coordinate pair, in input
// order. Requests are split into chunks so long recordings do not overflow
// the service's URL length limit.
func (c *Client) Lookup(ctx context.Context, lats, lons []float64) ([]float64, error) {
	if len(lats) != len(lons) {
		return nil, fmt.Errorf("elevation: %d latitudes for %d longitudes", len(lats), len(lons))
	}
	if len(lats) == 0 {
		return nil, nil
	}
	if c.Endpoint == "" {
		return nil, fmt.Errorf("elevation: no endpoint configured")
	}

	chunk := c.ChunkSize
	if chunk <= 0 {
		chunk = DefaultChunkSize
	}

	out := make([]float64, 0, len(lats))
	for start := 0; start < len(lats); start += chunk {
		end := start + chunk
		if end > len(lats) {
			end = len(lats)
		}
		elevs, err := c.fetch(ctx, lats[start:end], lons[start:end])
		if err != nil {
			return nil, err
		}
		out = append(out, elevs...)
	}
	return out, nil
}

func (c *Client) fetch(ctx context.Context, lats, lons []float64) ([]float64, error) {
	var locs strings.Builder
	for i := range lats {
		if i > 0 {
			locs.WriteByte('|')
		}
		locs.WriteString(strconv.FormatFloat(lats[i], 'f', 6, 64))
		locs.WriteByte(',')
		locs.WriteString(strconv.FormatFloat(lons[i], 'f', 6, 64))
	}
	params := url.Values{}
	params.Set("locations", locs.String())
	if c.APIKey != "" {
		params.Set("key", c.APIKey)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.Endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}
	client := c.HTTPClient
	if client == nil {
		client = defaultHTTPClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("elevation request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("elevation service returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var decoded lookupResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("decoding elevation response: %w", err)
	}
	if decoded.Status != "OK" {
		if decoded.ErrorMessage != "" {
			return nil, fmt.Errorf("elevation service status %s: %s", decoded.Status, decoded.ErrorMessage)
		}
		return nil, fmt.Errorf("elevation service status %s", decoded.Status)
	}
	if len(decoded.Results) != len(lats) {
		return nil, fmt.Errorf("elevation service returned %d results for %d locations", len(decoded.Results), len(lats))
	}

	out := make([]float64, len(decoded.Results))
	for i, r := range decoded.Results {
		out[i] = r.Elevation
	}
	c.logger().Debug("elevation chunk resolved", "points", len(out))
	return out, nil
}

func (c *Client) logger() *slog.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return slog.Default()
}
