package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/aquawatch/aquawatch/internal/client/api"
	"github.com/aquawatch/aquawatch/internal/client/cli"
)

func main() {
	server := "http://localhost:8000"
	if v := os.Getenv("AQUAWATCH_SERVER"); v != "" {
		server = v
	}

	fs := flag.NewFlagSet("aquawatch-cli", flag.ExitOnError)
	fs.StringVar(&server, "s", server, "server base URL")
	fs.Parse(os.Args[1:])

	client := api.New(server)
	if token := os.Getenv("AQUAWATCH_TOKEN"); token != "" {
		client.SetToken(token)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app := cli.NewApp(client, os.Stdout)
	if err := app.Run(ctx, fs.Args()); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
