package httpclient

import (
	"context"
	"fmt"
	"net/http"
	"time"
)

// AssetInput is the argument block for an http_client resource.
type AssetInput struct {
	Timeout string `flowgo:"timeout"`
}

// CreateHttpClient builds the shared *http.Client. Pooling limits are fixed;
// only the request timeout comes from the flow file.
func CreateHttpClient(_ context.Context, input *AssetInput) (*http.Client, error) {
	timeout, err := time.ParseDuration(input.Timeout)
	if err != nil {
		return nil, fmt.Errorf("invalid timeout %q: %w", input.Timeout, err)
	}

	transport := &http.Transport{
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
	}
	return &http.Client{Timeout: timeout, Transport: transport}, nil
}

// DestroyHttpClient closes the client's idle connections; there is nothing
// else to release.
func DestroyHttpClient(client *http.Client) error {
	client.CloseIdleConnections()
	return nil
}
