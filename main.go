package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"chat-gateway/cmd"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := cmd.Execute(ctx, os.Args[1:])
	stop()

	if err == nil || errors.Is(err, context.Canceled) {
		return
	}
	slog.Error("chat-gateway exited", "err", err)
	os.Exit(1)
}
