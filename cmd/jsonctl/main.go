package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/danielpatrickdp/jsonui/internal/config"
	"github.com/danielpatrickdp/jsonui/internal/remote"
	"github.com/danielpatrickdp/jsonui/internal/render/headless"
	"github.com/danielpatrickdp/jsonui/internal/value"
)

const usage = `usage: jsonctl [--addr host:port] <command> [args]

commands:
  get [path]          print the document, or the node at a slash separated path
  set <widget> <json> queue an edit of the widget at a widget path
  press <widget>      queue a press of a button, tree node or window close
  widgets             print the widget paths of the last frame
`

// stateClient is the part of remote.Client the commands use.
type stateClient interface {
	Get(ctx context.Context) (any, error)
	Set(ctx context.Context, path string, v any) error
	Press(ctx context.Context, path string) error
	Widgets(ctx context.Context) (headless.Frame, error)
	Close() error
}

func dial(addr string) (stateClient, error) {
	return remote.NewClient(addr)
}

// #region main
func main() {
	os.Exit(run(os.Args[1:], dial, os.Stdout, os.Stderr))
}

// run returns the exit code. The connection is closed before returning.
func run(argv []string, connect func(string) (stateClient, error), stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("jsonctl", flag.ContinueOnError)
	fs.SetOutput(stderr)
	addr := fs.String("addr", envOr(config.EnvAddr, "localhost:50061"), "state service address")
	timeout := fs.Duration("timeout", 5*time.Second, "RPC timeout")
	fs.Usage = func() { fmt.Fprint(stderr, usage) }
	if err := fs.Parse(argv); err != nil {
		return 2
	}

	args := fs.Args()
	if len(args) == 0 {
		fs.Usage()
		return 2
	}

	client, err := connect(*addr)
	if err != nil {
		fmt.Fprintf(stderr, "connect: %v\n", err)
		return 1
	}
	defer client.Close()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	if err := runCommand(ctx, client, args, stdout); err != nil {
		fmt.Fprintf(stderr, "%s: %v\n", args[0], err)
		return 1
	}
	return 0
}

// #endregion main

// #region commands
func runCommand(ctx context.Context, c stateClient, args []string, out io.Writer) error {
	switch args[0] {
	case "get":
		doc, err := c.Get(ctx)
		if err != nil {
			return err
		}
		if len(args) > 1 {
			node, ok := value.Get(doc, value.ParsePath(args[1]))
			if !ok {
				return fmt.Errorf("%s: %w", args[1], value.ErrPathNotFound)
			}
			doc = node
		}
		data, err := value.EncodeIndent(doc, "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(out, string(data))
	case "set":
		if len(args) != 3 {
			return fmt.Errorf("want <widget> <json>")
		}
		v, err := value.Decode([]byte(args[2]))
		if err != nil {
			return fmt.Errorf("parse value: %w", err)
		}
		return c.Set(ctx, args[1], v)
	case "press":
		if len(args) != 2 {
			return fmt.Errorf("want <widget>")
		}
		return c.Press(ctx, args[1])
	case "widgets":
		frame, err := c.Widgets(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "frame %d\n", frame.Number)
		for _, w := range frame.Widgets {
			data, _ := json.Marshal(w.Value)
			fmt.Fprintf(out, "  %-8s %s = %s\n", w.Type, w.Path, data)
		}
		for _, ev := range frame.Dropped {
			fmt.Fprintf(out, "  dropped  %s\n", ev.Path)
		}
	default:
		return fmt.Errorf("unknown command")
	}
	return nil
}

// #endregion commands

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
