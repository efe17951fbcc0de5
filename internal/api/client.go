package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"rqwatch/internal/log"
)

// ErrorSink receives request errors that should be surfaced to the user as a
// dismissible message. Pollers never publish here; they fold failures into
// their own backoff policy instead.
type ErrorSink interface {
	ReportError(err *RequestError)
}

// Client issues requests against the torrent service and normalizes every
// failure class into a *RequestError.
type Client struct {
	baseURL string
	http    *http.Client
	sink    ErrorSink
}

// NewClient creates a client for the service at baseURL.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// SetErrorSink installs the sink used for showError requests.
func (c *Client) SetErrorSink(sink ErrorSink) {
	c.sink = sink
}

// ListTorrents fetches the current torrent list.
func (c *Client) ListTorrents(ctx context.Context) (*TorrentList, error) {
	var list TorrentList
	if err := c.do(ctx, http.MethodGet, "/torrents", nil, nil, false, &list); err != nil {
		return nil, err
	}
	return &list, nil
}

// TorrentDetails fetches the immutable details of a torrent.
func (c *Client) TorrentDetails(ctx context.Context, id int64) (*TorrentDetails, error) {
	var details TorrentDetails
	path := fmt.Sprintf("/torrents/%d", id)
	if err := c.do(ctx, http.MethodGet, path, nil, nil, false, &details); err != nil {
		return nil, err
	}
	return &details, nil
}

// TorrentStats fetches a progress snapshot for a torrent.
func (c *Client) TorrentStats(ctx context.Context, id int64) (*TorrentStats, error) {
	var stats TorrentStats
	path := fmt.Sprintf("/torrents/%d/stats", id)
	if err := c.do(ctx, http.MethodGet, path, nil, nil, false, &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}

// AddTorrentOptions control the torrent creation endpoint. OnlyFiles is a
// zero-based index filter; nil means no filter parameter is sent.
type AddTorrentOptions struct {
	ListOnly  bool
	Overwrite bool
	OnlyFiles []int
	ShowError bool
}

// Query returns the query parameters for these options. OnlyFiles is emitted
// comma-joined in ascending order.
func (o AddTorrentOptions) Query() url.Values {
	v := url.Values{}
	if o.ListOnly {
		v.Set("list_only", "true")
	}
	if o.Overwrite {
		v.Set("overwrite", "true")
	}
	if o.OnlyFiles != nil {
		indices := make([]int, len(o.OnlyFiles))
		copy(indices, o.OnlyFiles)
		sort.Ints(indices)
		parts := make([]string, len(indices))
		for i, idx := range indices {
			parts[i] = strconv.Itoa(idx)
		}
		v.Set("only_files", strings.Join(parts, ","))
	}
	return v
}

// AddTorrent submits a payload (magnet/URL string or raw .torrent bytes) to
// the creation endpoint. With ListOnly set the server parses the payload and
// returns the file manifest without committing the torrent.
func (c *Client) AddTorrent(ctx context.Context, payload []byte, opts AddTorrentOptions) (*AddTorrentResponse, error) {
	var resp AddTorrentResponse
	err := c.do(ctx, http.MethodPost, "/torrents", opts.Query(), bytes.NewReader(payload), opts.ShowError, &resp)
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// do issues one request and decodes the JSON response into out. Every error
// path returns a *RequestError; showError additionally publishes it to the
// sink for user display.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body io.Reader, showError bool, out any) error {
	reqURL := c.baseURL + path
	if len(query) > 0 {
		reqURL += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL, body)
	if err != nil {
		return c.fail(newTransportError(method, path), showError)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		log.Debug("api").
			Str("method", method).
			Str("path", path).
			Err(err).
			Msg("Request failed before a response was received")
		return c.fail(newTransportError(method, path), showError)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return c.fail(newTransportError(method, path), showError)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return c.fail(&RequestError{
			Kind:       KindHTTPStatus,
			Method:     method,
			Path:       path,
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			Text:       errorBodyText(data),
		}, showError)
	}

	if out != nil {
		if err := json.Unmarshal(data, out); err != nil {
			return c.fail(&RequestError{
				Kind:       KindPayload,
				Method:     method,
				Path:       path,
				StatusCode: resp.StatusCode,
				Status:     resp.Status,
				Text:       fmt.Sprintf("malformed response body: %v", err),
			}, showError)
		}
	}

	return nil
}

// fail publishes the error to the sink when requested and returns it either
// way so the caller can apply its own retry policy.
func (c *Client) fail(reqErr *RequestError, showError bool) error {
	if showError && c.sink != nil {
		c.sink.ReportError(reqErr)
	}
	return reqErr
}

// errorBodyText extracts the most specific human-readable message from an
// error response body: the human_readable field when present, else the
// pretty-printed JSON, else the raw text.
func errorBodyText(data []byte) string {
	raw := strings.TrimSpace(string(data))

	var parsed any
	if err := json.Unmarshal(data, &parsed); err != nil {
		return raw
	}

	if obj, ok := parsed.(map[string]any); ok {
		if msg, ok := obj["human_readable"].(string); ok && msg != "" {
			return msg
		}
	}

	pretty, err := json.MarshalIndent(parsed, "", "  ")
	if err != nil {
		return raw
	}
	return string(pretty)
}
