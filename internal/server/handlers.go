package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"chat-gateway/internal/metrics"
	"chat-gateway/internal/relay"
	"chat-gateway/internal/translator"
	"chat-gateway/internal/upstream"
)

func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

// handleChat serves both the model listing and non-streaming completions.
func (s *Server) handleChat(c echo.Context) error {
	var req translator.GatewayRequest
	if err := decodeRequestBody(c, s.cfg.Server.MaxBodyBytes, &req); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), s.cfg.Server.RequestTimeout)
	defer cancel()

	out, err := s.router.Dispatch(ctx, req)
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSONBlob(http.StatusOK, out)
}

func (s *Server) handleStream(c echo.Context) error {
	var req translator.GatewayRequest
	if err := decodeRequestBody(c, s.cfg.Server.MaxBodyBytes, &req); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), s.cfg.Server.RequestTimeout)
	defer cancel()

	stream, err := s.router.OpenStream(ctx, req)
	if err != nil {
		return toHTTPError(err)
	}
	defer stream.Body.Close()

	resp := c.Response()
	header := resp.Header()
	header.Set("Content-Type", "text/event-stream")
	header.Set("Cache-Control", "no-cache")
	header.Set("Connection", "keep-alive")
	resp.WriteHeader(http.StatusOK)
	resp.Flush()

	metrics.ActiveStreams.Inc()
	defer metrics.ActiveStreams.Dec()

	variant := stream.Variant.String()
	result, err := relay.Relay(ctx, stream.Variant, stream.Body, resp)
	metrics.StreamEventsTotal.WithLabelValues(variant, metrics.OutcomeEmitted).Add(float64(result.Emitted))
	metrics.StreamEventsTotal.WithLabelValues(variant, metrics.OutcomeSkipped).Add(float64(result.Skipped))

	// The status is already committed, so errors end the stream without a body.
	if err != nil {
		if errors.Is(err, context.Canceled) {
			slog.Info("stream cancelled", "provider", variant, "emitted", result.Emitted)
		} else {
			slog.Error("stream aborted", "provider", variant, "emitted", result.Emitted, "err", err)
		}
		return nil
	}
	slog.Debug("stream complete", "provider", variant, "emitted", result.Emitted, "skipped", result.Skipped)
	return nil
}

func decodeRequestBody[T any](c echo.Context, limit int64, target *T) error {
	req := c.Request()
	defer req.Body.Close()

	req.Body = http.MaxBytesReader(c.Response(), req.Body, limit)

	decoder := json.NewDecoder(req.Body)
	if err := decoder.Decode(target); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return requestError{
				Status:  http.StatusRequestEntityTooLarge,
				Message: "Request body too large",
			}
		}
		return errInvalidBody
	}

	if err := decoder.Decode(&struct{}{}); err != io.EOF {
		return errInvalidBody
	}
	return nil
}

var errInvalidBody = requestError{
	Status:  http.StatusBadRequest,
	Message: "Invalid JSON body",
}

type requestError struct {
	Status  int
	Message string
}

func (e requestError) Error() string {
	return e.Message
}

type errorBody struct {
	Error string `json:"error"`
}

func jsonErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	var upErr *upstream.Error
	if errors.As(err, &upErr) {
		contentType := upErr.ContentType
		if contentType == "" {
			contentType = echo.MIMEApplicationJSON
		}
		_ = c.Blob(upErr.Status, contentType, upErr.Body)
		return
	}

	var reqErr requestError
	if errors.As(err, &reqErr) {
		_ = c.JSON(reqErr.Status, errorBody{Error: reqErr.Message})
		return
	}

	var he *echo.HTTPError
	if errors.As(err, &he) {
		message := http.StatusText(he.Code)
		if m, ok := he.Message.(string); ok && m != "" {
			message = m
		}
		_ = c.JSON(he.Code, errorBody{Error: message})
		return
	}

	slog.Error("unhandled request error", "path", c.Path(), "err", err)
	_ = c.JSON(http.StatusInternalServerError, errorBody{Error: "Internal server error"})
}

func toHTTPError(err error) error {
	var reqErr requestError
	if errors.As(err, &reqErr) {
		return reqErr
	}

	var upErr *upstream.Error
	if errors.As(err, &upErr) {
		return upErr
	}

	if errors.Is(err, translator.ErrMissingCredentials) {
		return requestError{
			Status:  http.StatusBadRequest,
			Message: "Missing endpoint or apiKey",
		}
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return requestError{
			Status:  http.StatusGatewayTimeout,
			Message: "Upstream request timed out",
		}
	}

	slog.Error("request failed", "err", err)
	return requestError{
		Status:  http.StatusInternalServerError,
		Message: "Internal server error",
	}
}
