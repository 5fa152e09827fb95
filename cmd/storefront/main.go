package main

import (
	"context"
	"os"
	"strings"

	"github.com/angelmondragon/storefront-client/pkg/config"
	"github.com/angelmondragon/storefront-client/pkg/env"
	pkgerrors "github.com/angelmondragon/storefront-client/pkg/errors"
	"github.com/angelmondragon/storefront-client/pkg/logger"
)

func main() {
	ctx := context.Background()
	logg := logger.New(logger.Options{
		ServiceName: "storefront",
		Level:       logger.ParseLevel(env.Get(config.EnvLogLevel, "info")),
		Format:      env.Get(config.EnvLogFormat, logger.FormatJSON),
	})

	loaded, err := env.Load("", env.Get(config.EnvProfile, ""))
	switch {
	case err != nil:
		logg.Warn(ctx, "failed to read .env files: "+err.Error())
	case len(loaded) == 0:
		logg.Debug(ctx, ".env file not found, relying on environment")
	default:
		logg.Debug(ctx, "loaded "+strings.Join(loaded, ", "))
	}

	root := newRootCmd(defaultDeps())
	if err := root.ExecuteContext(ctx); err != nil {
		os.Exit(pkgerrors.ExitCode(err))
	}
}
