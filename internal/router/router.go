package router

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"chat-gateway/internal/metrics"
	"chat-gateway/internal/models"
	"chat-gateway/internal/provider"
	"chat-gateway/internal/translator"
	"chat-gateway/internal/upstream"
)

// Operation names used in logs and metrics.
const (
	OpListModels = "list_models"
	OpCompletion = "completion"
	OpStream     = "stream"
)

// Doer sends a native request upstream.
type Doer interface {
	Do(ctx context.Context, native models.NativeRequest) (*http.Response, error)
}

// Router dispatches gateway requests to the provider variant behind their endpoint.
type Router struct {
	client      Doer
	maxResponse int64
}

// New constructs a router that sends native requests through client.
func New(client Doer, maxResponseBytes int64) *Router {
	return &Router{
		client:      client,
		maxResponse: maxResponseBytes,
	}
}

// Stream is an open upstream event stream. The caller must close Body.
type Stream struct {
	Variant provider.Variant
	Body    io.ReadCloser
}

// Dispatch serves the non-streaming entry point, choosing the operation from req.Action.
func (r *Router) Dispatch(ctx context.Context, req translator.GatewayRequest) ([]byte, error) {
	if req.Action == translator.ActionFetchModels {
		return r.ListModels(ctx, req)
	}
	return r.Complete(ctx, req)
}

// ListModels fetches and normalizes the endpoint's model listing.
func (r *Router) ListModels(ctx context.Context, req translator.GatewayRequest) ([]byte, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	variant := provider.Classify(req.Endpoint)
	native := provider.BuildListModels(variant, req.Endpoint, req.APIKey)

	raw, err := r.fetch(ctx, variant, OpListModels, native)
	if err != nil {
		return nil, err
	}

	out, err := provider.NormalizeModelsList(variant, raw)
	if err != nil {
		return nil, fmt.Errorf("provider %s list models: %w", variant, err)
	}
	return out, nil
}

// Complete performs a non-streaming completion and normalizes the result.
func (r *Router) Complete(ctx context.Context, req translator.GatewayRequest) ([]byte, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	variant := provider.Classify(req.Endpoint)
	native := provider.BuildChatCompletion(variant, req.Endpoint, req.Model, req.APIKey, req.ToCanonical(false))

	raw, err := r.fetch(ctx, variant, OpCompletion, native)
	if err != nil {
		return nil, err
	}

	out, err := provider.NormalizeCompletion(variant, raw)
	if err != nil {
		return nil, fmt.Errorf("provider %s completion: %w", variant, err)
	}
	return out, nil
}

// OpenStream issues a streaming completion and returns the open upstream body.
// Non-2xx replies are returned as *upstream.Error before anything is streamed.
func (r *Router) OpenStream(ctx context.Context, req translator.GatewayRequest) (*Stream, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	variant := provider.Classify(req.Endpoint)
	native := provider.BuildChatCompletion(variant, req.Endpoint, req.Model, req.APIKey, req.ToCanonical(true))

	resp, err := r.do(ctx, variant, OpStream, native)
	if err != nil {
		return nil, err
	}
	return &Stream{Variant: variant, Body: resp.Body}, nil
}

func (r *Router) fetch(ctx context.Context, variant provider.Variant, op string, native models.NativeRequest) ([]byte, error) {
	resp, err := r.do(ctx, variant, op, native)
	if err != nil {
		return nil, err
	}
	return upstream.ReadAll(resp, r.maxResponse)
}

func (r *Router) do(ctx context.Context, variant provider.Variant, op string, native models.NativeRequest) (*http.Response, error) {
	start := time.Now()
	resp, err := r.client.Do(ctx, native)
	metrics.UpstreamLatency.WithLabelValues(variant.String(), op).Observe(time.Since(start).Seconds())

	status := "error"
	var upErr *upstream.Error
	switch {
	case err == nil:
		status = strconv.Itoa(resp.StatusCode)
	case errors.As(err, &upErr):
		status = strconv.Itoa(upErr.Status)
		slog.Warn("upstream rejected request", "provider", variant.String(), "operation", op, "status", upErr.Status)
	default:
		slog.Error("upstream request failed", "provider", variant.String(), "operation", op, "err", err)
	}
	metrics.UpstreamRequestsTotal.WithLabelValues(variant.String(), op, status).Inc()

	if err != nil {
		return nil, err
	}
	return resp, nil
}
