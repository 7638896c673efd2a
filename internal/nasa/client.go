// Package nasa fetches the upstream data the bot relays: APOD, Mars rover
// photos, the image library, DONKI space weather, and the numbers-API
// trivia endpoint. Each fetch is one GET + decode; failures surface as
// plain errors and never carry partial results.
package nasa

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	defaultAPIBase    = "https://api.nasa.gov"
	defaultImagesBase = "https://images-api.nasa.gov"
	defaultTriviaBase = "http://numbersapi.com"
)

type Config struct {
	APIKey string

	// Base URL overrides, mainly for tests. Empty means public defaults.
	APIBase    string
	ImagesBase string
	TriviaBase string

	Timeout time.Duration
}

type Client struct {
	cfg  Config
	http *http.Client
}

func NewClient(cfg Config) *Client {
	if cfg.APIBase == "" {
		cfg.APIBase = defaultAPIBase
	}
	if cfg.ImagesBase == "" {
		cfg.ImagesBase = defaultImagesBase
	}
	if cfg.TriviaBase == "" {
		cfg.TriviaBase = defaultTriviaBase
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		cfg:  cfg,
		http: &http.Client{Timeout: timeout},
	}
}

// Apod fetches the featured item for a calendar date (YYYY-MM-DD). An empty
// date omits the date parameter entirely, which means the upstream's own
// current-day item; that is distinct from any client-side date default.
func (c *Client) Apod(ctx context.Context, date string) (*Apod, error) {
	q := url.Values{"api_key": {c.cfg.APIKey}}
	if date != "" {
		q.Set("date", date)
	}
	var out Apod
	if err := c.getJSON(ctx, c.cfg.APIBase+"/planetary/apod?"+q.Encode(), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// MarsPhotos fetches Curiosity photos for an earth date. An empty date maps
// to the rover's most recent available day ("latest").
func (c *Client) MarsPhotos(ctx context.Context, date string) ([]RoverPhoto, error) {
	if date == "" {
		date = "latest"
	}
	q := url.Values{"api_key": {c.cfg.APIKey}, "earth_date": {date}}

	var out struct {
		Photos []struct {
			EarthDate string `json:"earth_date"`
			ImgSrc    string `json:"img_src"`
			Camera    struct {
				FullName string `json:"full_name"`
			} `json:"camera"`
			Rover struct {
				Name string `json:"name"`
			} `json:"rover"`
		} `json:"photos"`
	}
	if err := c.getJSON(ctx, c.cfg.APIBase+"/mars-photos/api/v1/rovers/curiosity/photos?"+q.Encode(), &out); err != nil {
		return nil, err
	}

	photos := make([]RoverPhoto, 0, len(out.Photos))
	for _, p := range out.Photos {
		photos = append(photos, RoverPhoto{
			EarthDate:  p.EarthDate,
			ImgSrc:     p.ImgSrc,
			CameraName: p.Camera.FullName,
			RoverName:  p.Rover.Name,
		})
	}
	return photos, nil
}

// SearchImages queries the NASA image library, preserving the provider's
// result order. Items without a preview link keep an empty PreviewURL.
func (c *Client) SearchImages(ctx context.Context, query string) ([]ImageSearchItem, error) {
	q := url.Values{"q": {query}, "media_type": {"image"}}

	var out struct {
		Collection struct {
			Items []struct {
				Data []struct {
					Title       string `json:"title"`
					Description string `json:"description"`
				} `json:"data"`
				Links []struct {
					Rel  string `json:"rel"`
					Href string `json:"href"`
				} `json:"links"`
			} `json:"items"`
		} `json:"collection"`
	}
	if err := c.getJSON(ctx, c.cfg.ImagesBase+"/search?"+q.Encode(), &out); err != nil {
		return nil, err
	}

	items := make([]ImageSearchItem, 0, len(out.Collection.Items))
	for _, raw := range out.Collection.Items {
		it := ImageSearchItem{}
		if len(raw.Data) > 0 {
			it.Title = raw.Data[0].Title
			it.Description = raw.Data[0].Description
		}
		for _, l := range raw.Links {
			if l.Rel == "preview" {
				it.PreviewURL = l.Href
				break
			}
		}
		items = append(items, it)
	}
	return items, nil
}

// SolarFlares fetches the DONKI solar-flare event list in upstream order
// (most recent first, as provided; not re-sorted here).
func (c *Client) SolarFlares(ctx context.Context) ([]FlareEvent, error) {
	q := url.Values{"api_key": {c.cfg.APIKey}}
	var out []FlareEvent
	if err := c.getJSON(ctx, c.cfg.APIBase+"/DONKI/FLR?"+q.Encode(), &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Trivia fetches one random date fact as plain text. Best-effort; callers
// treat any error as "no fact right now".
func (c *Client) Trivia(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.TriviaBase+"/random/date", nil)
	if err != nil {
		return "", err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		return "", fmt.Errorf("trivia: http %d", resp.StatusCode)
	}
	b, err := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if err != nil {
		return "", err
	}
	fact := strings.TrimSpace(string(b))
	if fact == "" {
		return "", fmt.Errorf("trivia: empty response")
	}
	return fact, nil
}

func (c *Client) getJSON(ctx context.Context, rawURL string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		// Drain a little so the connection can be reused.
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 512))
		return fmt.Errorf("GET %s: http %d", req.URL.Path, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("GET %s: decode: %w", req.URL.Path, err)
	}
	return nil
}
