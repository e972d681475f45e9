// cliclient is a command line client for the mandelview server.
// It connects to the websocket session, applies a list of actions to the
// view, and saves the resulting frame as a PNG file.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/marben/mandelview/internal/server"
)

// main is the entry point for the CLI client.
func main() {
	log.Printf("Starting CLI client...")
	if err := run(); err != nil {
		log.Fatalf("FATAL: %v", err)
	}
}

// run connects to the server, replays the requested actions and saves the
// final frame.
func run() error {
	addr := flag.String("addr", ":8080", "server address")
	actions := flag.String("actions", "", "comma separated actions, e.g. zoom-in,pan-left,next-scheme")
	size := flag.String("size", "", "frame size as WxH (default: the server's)")
	out := flag.String("o", "mandel.png", "output file")
	timeout := flag.Duration("timeout", time.Minute, "give up after this long")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, *timeout)
	defer cancel()

	log.Printf("Connecting to mandelview server on %s...", *addr)
	c, err := server.Dial(ctx, *addr)
	if err != nil {
		return fmt.Errorf("failed to connect to server: %w", err)
	}
	defer c.Close()

	if *size != "" {
		var w, h int
		if _, err := fmt.Sscanf(*size, "%dx%d", &w, &h); err != nil {
			return fmt.Errorf("invalid -size %q: %w", *size, err)
		}
		if _, err := c.Send(ctx, server.Input{Type: server.MsgResize, Width: w, Height: h}); err != nil {
			return err
		}
	}
	for _, a := range strings.Split(*actions, ",") {
		if a = strings.TrimSpace(a); a == "" {
			continue
		}
		if _, err := c.Send(ctx, server.Input{Type: server.MsgKey, Action: a}); err != nil {
			return err
		}
	}

	log.Printf("Requesting frame...")
	st, frame, err := c.Snapshot(ctx)
	if err != nil {
		return fmt.Errorf("snapshot: %w", err)
	}
	for _, line := range st.Caption {
		log.Print(line)
	}

	if err := os.WriteFile(*out, frame, 0o644); err != nil {
		return fmt.Errorf("failed to write frame: %w", err)
	}
	log.Printf("Frame (%dx%d, %s) saved to %q", st.Width, st.Height, st.Scheme, *out)
	return nil
}
