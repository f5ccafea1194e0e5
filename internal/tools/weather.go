package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"github.com/firebase/genkit/go/genkit"
)

// DefaultWeatherBaseURL is the public forecast endpoint used when none is
// configured.
const DefaultWeatherBaseURL = "https://api.open-meteo.com"

type weatherInput struct {
	Latitude  float64 `json:"latitude" jsonschema_description:"Latitude of the location"`
	Longitude float64 `json:"longitude" jsonschema_description:"Longitude of the location"`
}

func (r *Registry) defineWeatherTool() {
	r.add("getWeather", genkit.DefineTool(r.g,
		"getWeather",
		"Get the current weather at a location.",
		wrap(r, "getWeather", r.getWeather)))
}

// getWeather fetches the forecast and hands the decoded payload straight to
// the model; it reads whichever fields it needs.
func (r *Registry) getWeather(ctx context.Context, _ *ExecutionContext, in weatherInput) (map[string]any, error) {
	base := r.weather
	if base == "" {
		base = DefaultWeatherBaseURL
	}

	q := url.Values{}
	q.Set("latitude", strconv.FormatFloat(in.Latitude, 'f', -1, 64))
	q.Set("longitude", strconv.FormatFloat(in.Longitude, 'f', -1, 64))
	q.Set("current", "temperature_2m")
	q.Set("hourly", "temperature_2m")
	q.Set("daily", "sunrise,sunset")
	q.Set("timezone", "auto")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, base+"/v1/forecast?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("building forecast request: %w", err)
	}

	resp, err := r.httpc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching forecast: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
		return nil, fmt.Errorf("forecast service returned %d: %s", resp.StatusCode, body)
	}

	var payload map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decoding forecast: %w", err)
	}
	return payload, nil
}
