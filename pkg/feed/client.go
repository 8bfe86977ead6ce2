package feed

import (
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/lintang-b-s/trafficx/pkg/util"
)

const (
	connectTimeout = 10 * time.Second
	requestTimeout = 30 * time.Second

	// cap on the response-body excerpt quoted in a non-200 error.
	errBodyExcerptLimit = 512
)

// Client is the shared http client for the three feed endpoints. connect is
// bounded to 10s, the whole request to 30s.
type Client struct {
	httpClient *http.Client
}

func NewClient() *Client {
	dialer := &net.Dialer{
		Timeout: connectTimeout,
	}
	return &Client{
		httpClient: &http.Client{
			Timeout: requestTimeout,
			Transport: &http.Transport{
				DialContext:         dialer.DialContext,
				TLSHandshakeTimeout: connectTimeout,
			},
		},
	}
}

// GetJSON fetches url and decodes the response body into v. a non-200 status
// is an error carrying an excerpt of the body.
func (c *Client) GetJSON(ctx context.Context, url string, v interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return util.WrapErrorf(err, util.ErrBadParamInput, "feed.Client.GetJSON: build request %s", url)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return util.WrapErrorf(err, util.ErrInternalServerError, "feed.Client.GetJSON: fetch %s", url)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		excerpt, _ := io.ReadAll(io.LimitReader(resp.Body, errBodyExcerptLimit))
		return util.WrapErrorf(nil, util.ErrInternalServerError,
			"feed.Client.GetJSON: %s returned http %d: %s", url, resp.StatusCode, string(excerpt))
	}

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return util.WrapErrorf(err, util.ErrInternalServerError, "feed.Client.GetJSON: decode %s", url)
	}
	return nil
}
