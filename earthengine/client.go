package earthengine

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

const (
	DefaultBaseURL = "https://earthengine.googleapis.com"

	scopeEarthEngine = "https://www.googleapis.com/auth/earthengine"
	scopeCloud       = "https://www.googleapis.com/auth/cloud-platform"
)

var (
	// ErrNotFound is returned when the service reports a missing or
	// inaccessible asset.
	ErrNotFound = errors.New("earthengine: resource not found or inaccessible")
	// ErrUnauthorized is returned when credentials are rejected.
	ErrUnauthorized = errors.New("earthengine: credentials rejected")
)

// VisParams are the rendering parameters of a map layer.
type VisParams struct {
	Min     float64  `json:"min"     yaml:"min"`
	Max     float64  `json:"max"     yaml:"max"`
	Palette []string `json:"palette" yaml:"palette"`
}

// Evaluator materializes lazy expressions. *Client talks to the remote service;
// eetest.Evaluator interprets graphs in-process.
type Evaluator interface {
	// Compute evaluates a non-image value and returns its JSON encoding.
	Compute(ctx context.Context, o Object) (json.RawMessage, error)
	// GetMap registers an image for tile rendering and returns the map name.
	GetMap(ctx context.Context, img Image, vis VisParams) (string, error)
	// Tile fetches one rendered PNG tile of a map.
	Tile(ctx context.Context, mapName string, z, x, y int) ([]byte, error)
}

// Options configures Dial.
type Options struct {
	BaseURL string
	Project string
	Timeout time.Duration
	// HTTPClient replaces the OAuth2 client; used against test servers.
	HTTPClient *http.Client
}

// Client is an authenticated session with the remote service.
type Client struct {
	http    *http.Client
	baseURL string
	project string
}

// Dial validates credentials, obtains a first access token within
// opts.Timeout and returns a session. Nothing else is requested if this fails.
func Dial(ctx context.Context, creds Credentials, opts Options) (*Client, error) {
	if err := creds.Validate(); err != nil {
		return nil, err
	}
	project := opts.Project
	if project == "" {
		project = creds.ProjectID
	}
	if project == "" {
		return nil, errors.New("credentials: project_id is required")
	}
	timeout := opts.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	base := strings.TrimRight(opts.BaseURL, "/")
	if base == "" {
		base = DefaultBaseURL
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		key, err := creds.keyJSON()
		if err != nil {
			return nil, fmt.Errorf("encode credentials: %w", err)
		}
		jwtConfig, err := google.JWTConfigFromJSON(key, scopeEarthEngine, scopeCloud)
		if err != nil {
			return nil, fmt.Errorf("failed to create JWT config: %w", err)
		}
		// Token requests go through a bounded client; the token source ignores
		// cancellation of ctx.
		ctx = context.WithValue(ctx, oauth2.HTTPClient, &http.Client{Timeout: timeout})
		firstCtx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()
		tok, err := jwtConfig.TokenSource(firstCtx).Token()
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrUnauthorized, err)
		}
		ts := oauth2.ReuseTokenSource(tok, jwtConfig.TokenSource(ctx))
		httpClient = oauth2.NewClient(ctx, ts)
		httpClient.Timeout = timeout
	}

	return &Client{http: httpClient, baseURL: base, project: project}, nil
}

// Project is the cloud project the session bills against.
func (c *Client) Project() string { return c.project }

type computeResp struct {
	Result json.RawMessage `json:"result"`
}

// Compute calls POST /v1/projects/{project}/value:compute.
func (c *Client) Compute(ctx context.Context, o Object) (json.RawMessage, error) {
	var out computeResp
	if err := c.post(ctx, "/v1/projects/"+c.project+"/value:compute", map[string]any{
		"expression": Encode(o.node),
	}, &out); err != nil {
		return nil, err
	}
	return out.Result, nil
}

type mapReq struct {
	Expression           Expression `json:"expression"`
	FileFormat           string     `json:"fileFormat"`
	VisualizationOptions visOptions `json:"visualizationOptions"`
}

type visOptions struct {
	Ranges        []visRange `json:"ranges"`
	PaletteColors []string   `json:"paletteColors,omitempty"`
}

type visRange struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

type mapResp struct {
	Name string `json:"name"`
}

// GetMap calls POST /v1/projects/{project}/maps.
func (c *Client) GetMap(ctx context.Context, img Image, vis VisParams) (string, error) {
	req := mapReq{
		Expression: Encode(img.node),
		FileFormat: "PNG",
		VisualizationOptions: visOptions{
			Ranges:        []visRange{{Min: vis.Min, Max: vis.Max}},
			PaletteColors: paletteHex(vis.Palette),
		},
	}
	var out mapResp
	if err := c.post(ctx, "/v1/projects/"+c.project+"/maps", req, &out); err != nil {
		return "", err
	}
	if out.Name == "" {
		return "", errors.New("earthengine: map response without name")
	}
	return out.Name, nil
}

// Tile calls GET /v1/{mapName}/tiles/{z}/{x}/{y}.
func (c *Client) Tile(ctx context.Context, mapName string, z, x, y int) ([]byte, error) {
	url := c.baseURL + "/v1/" + mapName + "/tiles/" + strconv.Itoa(z) + "/" + strconv.Itoa(x) + "/" + strconv.Itoa(y)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("tile request failed: %w", err)
	}
	defer resp.Body.Close()
	data, _ := io.ReadAll(resp.Body)
	if err := statusError(resp, data); err != nil {
		return nil, err
	}
	return data, nil
}

func (c *Client) post(ctx context.Context, path string, in, out any) error {
	body, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("earthengine call failed: %w", err)
	}
	defer resp.Body.Close()

	data, _ := io.ReadAll(resp.Body)
	if err := statusError(resp, data); err != nil {
		return err
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

type apiError struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

// statusError maps non-2xx responses onto the package sentinels. The service
// reports unknown assets as 400 with a "not found" message as well as 404.
func statusError(resp *http.Response, data []byte) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	var ae apiError
	_ = json.Unmarshal(data, &ae)
	msg := ae.Error.Message
	if msg == "" {
		msg = strings.TrimSpace(string(data))
	}
	switch {
	case resp.StatusCode == http.StatusNotFound || ae.Error.Status == "NOT_FOUND" ||
		strings.Contains(strings.ToLower(msg), "not found"):
		return fmt.Errorf("%w: %s", ErrNotFound, msg)
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return fmt.Errorf("%w: %s", ErrUnauthorized, msg)
	default:
		return fmt.Errorf("earthengine non-2xx: %s, body: %s", resp.Status, msg)
	}
}

// paletteHex converts CSS color names used in vis params to the hex strings
// the maps endpoint expects. Unknown names are passed through.
func paletteHex(palette []string) []string {
	out := make([]string, len(palette))
	for i, p := range palette {
		if hex, ok := cssColors[strings.ToLower(p)]; ok {
			out[i] = hex
		} else {
			out[i] = strings.TrimPrefix(p, "#")
		}
	}
	return out
}

var cssColors = map[string]string{
	"white":       "ffffff",
	"black":       "000000",
	"blue":        "0000ff",
	"red":         "ff0000",
	"yellow":      "ffff00",
	"yellowgreen": "9acd32",
	"green":       "008000",
	"darkgreen":   "006400",
	"brown":       "a52a2a",
	"orange":      "ffa500",
}
