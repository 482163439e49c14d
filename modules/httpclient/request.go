package httpclient

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/specialistvlad/flowgridgo/internal/ctxlog"
	"github.com/specialistvlad/flowgridgo/internal/secrets"
)

// RequestInput defines the arguments for the http_request runner.
type RequestInput struct {
	URL    string `flowgo:"url"`
	Method string `flowgo:"method"`
}

// RequestDeps defines the resources injected from the step's uses block.
type RequestDeps struct {
	Client *http.Client `flowgo:"client"`
}

// RequestOutput is the result an http_request step exposes to later steps.
type RequestOutput struct {
	StatusCode int64  `cty:"status_code"`
	Body       string `cty:"body"`
}

// OnRunHttpRequest is the handler for the 'http_request' runner's on_run
// lifecycle event.
func OnRunHttpRequest(ctx context.Context, deps *RequestDeps, input *RequestInput) (*RequestOutput, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Info("Making HTTP request.", "method", input.Method, "url", input.URL)

	if deps.Client == nil {
		return nil, fmt.Errorf("http client dependency was not injected")
	}

	req, err := http.NewRequestWithContext(ctx, input.Method, input.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := deps.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()
	logger.Info("Received HTTP response.", "status", resp.Status)

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	body := string(bodyBytes)
	if bundle := secrets.BundleFrom(ctx); bundle != nil {
		body = bundle.Mask(body)
	}
	return &RequestOutput{
		StatusCode: int64(resp.StatusCode),
		Body:       body,
	}, nil
}
