package main

import (
	"context"
	"os/signal"
	"syscall"

	"FinTrack/internal/cli"

	"github.com/alecthomas/kong"
	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var root cli.CLI
	kctx := kong.Parse(&root,
		kong.Name("fintrack"),
		kong.Description("Summaries of personal finance transactions per calendar period."),
		kong.UsageOnError(),
		kong.BindTo(ctx, (*context.Context)(nil)),
	)
	err := kctx.Run(&root.Globals)
	kctx.FatalIfErrorf(err)
}
