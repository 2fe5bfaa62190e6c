package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"filefinder/internal/disks"
)

// invokePath is where the host accepts commands: POST {base}/invoke/{command}.
const invokePath = "/invoke/"

// HTTPClient invokes backend commands on a native host over HTTP.
// It never retries; a failed command is reported once to the caller.
type HTTPClient struct {
	baseURL    string
	httpClient *http.Client
}

// HTTPConfig holds client configuration.
type HTTPConfig struct {
	BaseURL string
	Timeout time.Duration // 0 waits for the host indefinitely
}

// NewHTTPClient creates a new client.
func NewHTTPClient(cfg HTTPConfig) *HTTPClient {
	return &HTTPClient{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
			Transport: &http.Transport{
				DialContext: (&net.Dialer{
					Timeout:   10 * time.Second,
					KeepAlive: 30 * time.Second,
				}).DialContext,
				MaxIdleConns:    10,
				IdleConnTimeout: 90 * time.Second,
			},
		},
	}
}

var _ Backend = (*HTTPClient)(nil)

// GetDisks invokes get_disks.
func (c *HTTPClient) GetDisks(ctx context.Context) ([]disks.Summary, error) {
	var out DiskList
	if err := c.invoke(ctx, CmdGetDisks, struct{}{}, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// SearchForFile invokes search_for_file.
func (c *HTTPClient) SearchForFile(ctx context.Context, req SearchRequest) ([]SearchResult, error) {
	var out []SearchResult
	if err := c.invoke(ctx, CmdSearchForFile, req, &out); err != nil {
		return nil, err
	}
	if out == nil {
		out = []SearchResult{}
	}
	return out, nil
}

// ShowInExplorer invokes show_in_explorer. The response body is not consumed.
func (c *HTTPClient) ShowInExplorer(ctx context.Context, path string) error {
	return c.invoke(ctx, CmdShowInExplorer, RevealRequest{Path: path}, nil)
}

// invoke posts one command and decodes the reply into out (when non-nil).
func (c *HTTPClient) invoke(ctx context.Context, command string, payload, out interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return &CommandError{Command: command, Kind: KindDecode, Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+invokePath+command, bytes.NewReader(body))
	if err != nil {
		return &CommandError{Command: command, Kind: KindTransport, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &CommandError{Command: command, Kind: KindTransport, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return remoteError(command, resp)
	}

	if out == nil {
		io.Copy(io.Discard, resp.Body)
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &CommandError{Command: command, Kind: KindDecode, Err: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}

// remoteError builds a CommandError from a non-2xx reply.
func remoteError(command string, resp *http.Response) error {
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 64*1024))

	var er errorResponse
	msg := strings.TrimSpace(string(data))
	if json.Unmarshal(data, &er) == nil && er.Error != "" {
		msg = er.Error
	}
	if msg == "" {
		msg = resp.Status
	}

	return &CommandError{
		Command: command,
		Kind:    KindRemote,
		Message: msg,
		Err:     fmt.Errorf("status %d", resp.StatusCode),
	}
}
