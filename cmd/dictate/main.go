// Command dictate is a push-to-talk and continuous dictation client for
// Hyprland and other Wayland desktops.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rbright/dictate/internal/app"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

// run cancels the command context on SIGINT or SIGTERM so an owning session
// can release its socket before exit.
func run(args []string) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return app.Execute(ctx, args, os.Stdout, os.Stderr)
}
