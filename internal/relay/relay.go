// Package relay copies an upstream event stream to the client, transcoding
// provider-native payloads to canonical SSE lines when needed.
package relay

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"chat-gateway/internal/models"
	"chat-gateway/internal/provider"
)

const (
	readChunkSize = 32 << 10
	dataPrefix    = "data:"
)

// Sink is the client side of a relay. Every write is followed by a Flush.
type Sink interface {
	io.Writer
	Flush()
}

// Result summarizes a finished relay.
type Result struct {
	Emitted int
	Skipped int
	Done    bool
}

// SplitLines appends chunk to buf and splits on newline. Complete lines are
// returned without their terminator; the unterminated tail is returned as rest
// and must be passed back in with the next chunk.
func SplitLines(buf, chunk []byte) (lines []string, rest []byte) {
	buf = append(buf, chunk...)
	for {
		idx := bytes.IndexByte(buf, '\n')
		if idx < 0 {
			break
		}
		lines = append(lines, strings.TrimSuffix(string(buf[:idx]), "\r"))
		buf = buf[idx+1:]
	}
	if len(buf) == 0 {
		return lines, nil
	}
	return lines, append([]byte(nil), buf...)
}

// Relay streams upstream to sink until upstream ends, the context is
// cancelled, or a write fails. OpenAI-compatible streams are forwarded as-is;
// the other variants are transcoded line by line and always end with exactly
// one terminal sentinel.
func Relay(ctx context.Context, v provider.Variant, upstream io.Reader, sink Sink) (Result, error) {
	switch v {
	case provider.Claude, provider.Gemini:
		t := &transcoder{variant: v, sink: sink}
		return t.run(ctx, upstream)
	default:
		return passthrough(ctx, upstream, sink)
	}
}

func passthrough(ctx context.Context, upstream io.Reader, sink Sink) (Result, error) {
	var res Result
	chunk := make([]byte, readChunkSize)
	for {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		n, readErr := upstream.Read(chunk)
		if n > 0 {
			if _, err := sink.Write(chunk[:n]); err != nil {
				return res, fmt.Errorf("write to client: %w", err)
			}
			sink.Flush()
			res.Emitted++
		}
		if errors.Is(readErr, io.EOF) {
			return res, nil
		}
		if readErr != nil {
			return res, fmt.Errorf("read upstream stream: %w", readErr)
		}
	}
}

type transcoder struct {
	variant provider.Variant
	sink    Sink
	res     Result
}

func (t *transcoder) run(ctx context.Context, upstream io.Reader) (Result, error) {
	var pending []byte
	chunk := make([]byte, readChunkSize)

	for !t.res.Done {
		if err := ctx.Err(); err != nil {
			return t.res, err
		}

		n, readErr := upstream.Read(chunk)
		if n > 0 {
			var lines []string
			lines, pending = SplitLines(pending, chunk[:n])
			if err := t.consume(lines); err != nil {
				return t.res, err
			}
		}
		if errors.Is(readErr, io.EOF) {
			break
		}
		if readErr != nil {
			return t.res, fmt.Errorf("read upstream stream: %w", readErr)
		}
	}

	// The upstream has closed, so an unterminated tail is a complete line.
	if !t.res.Done && len(pending) > 0 {
		if err := t.consume([]string{strings.TrimSuffix(string(pending), "\r")}); err != nil {
			return t.res, err
		}
	}
	if !t.res.Done {
		if err := t.write(models.DoneLine); err != nil {
			return t.res, err
		}
		t.res.Done = true
	}
	return t.res, nil
}

func (t *transcoder) consume(lines []string) error {
	for _, line := range lines {
		if t.res.Done {
			return nil
		}
		payload, ok := strings.CutPrefix(line, dataPrefix)
		if !ok {
			continue
		}
		payload = strings.TrimSpace(payload)
		if payload == "" {
			continue
		}

		out, ok := provider.NormalizeStreamLine(t.variant, payload)
		if !ok {
			t.res.Skipped++
			slog.Debug("skipping stream payload", "provider", t.variant.String(), "bytes", len(payload))
			continue
		}
		if err := t.write(out); err != nil {
			return err
		}
		t.res.Emitted++
		if out == models.DoneLine {
			t.res.Done = true
		}
	}
	return nil
}

func (t *transcoder) write(line string) error {
	if _, err := io.WriteString(t.sink, line+"\n\n"); err != nil {
		return fmt.Errorf("write to client: %w", err)
	}
	t.sink.Flush()
	return nil
}
