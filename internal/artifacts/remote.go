package artifacts

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
)

// Client fetches artifacts over HTTP from the training service.
type Client struct {
	base string
	rest *resty.Client
}

// NewClient builds a Client for the given base URL.
func NewClient(base string, timeout time.Duration) *Client {
	r := resty.New()
	if timeout > 0 {
		r.SetTimeout(timeout)
	} else {
		r.SetTimeout(10 * time.Second)
	}
	return &Client{base: base, rest: r}
}

// FetchImportances retrieves the latest importance artifact published
// for the model.
func (c *Client) FetchImportances(ctx context.Context, model string) (*ImportanceArtifact, error) {
	a := &ImportanceArtifact{}
	resp, err := c.rest.R().
		SetContext(ctx).
		SetPathParam("model", model).
		SetResult(a).
		Get(c.base + "/api/v1/artifacts/importances/{model}")
	if err != nil {
		return nil, fmt.Errorf("fetch importances for %s: %w", model, err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("fetch importances for %s: %s", model, resp.Status())
	}
	return a, nil
}

// FetchPCA retrieves the latest decomposition published for the model.
func (c *Client) FetchPCA(ctx context.Context, model string) (*PCAArtifact, error) {
	a := &PCAArtifact{}
	resp, err := c.rest.R().
		SetContext(ctx).
		SetPathParam("model", model).
		SetResult(a).
		Get(c.base + "/api/v1/artifacts/decompositions/{model}")
	if err != nil {
		return nil, fmt.Errorf("fetch decomposition for %s: %w", model, err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("fetch decomposition for %s: %s", model, resp.Status())
	}
	return a, nil
}

// FetchDistributions retrieves the per-class probability distributions
// published under the given name.
func (c *Client) FetchDistributions(ctx context.Context, name string) (*DistributionsArtifact, error) {
	a := &DistributionsArtifact{}
	resp, err := c.rest.R().
		SetContext(ctx).
		SetPathParam("name", name).
		SetResult(a).
		Get(c.base + "/api/v1/artifacts/distributions/{name}")
	if err != nil {
		return nil, fmt.Errorf("fetch distributions for %s: %w", name, err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("fetch distributions for %s: %s", name, resp.Status())
	}
	return a, nil
}
