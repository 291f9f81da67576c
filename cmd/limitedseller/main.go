package main

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"time"

	"limitedseller/cmd/limitedseller/commands"
	"limitedseller/lib/osutil"
	"limitedseller/lib/serviceutil"
	"limitedseller/lib/telemetry"

	"github.com/joho/godotenv"
)

func main() {
	err := godotenv.Load()
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		slog.Warn("failed to load .env", "err", err)
	}

	ctx, cancel := osutil.SignalContext(context.Background())
	defer cancel()

	tel, err := telemetry.SetupFromEnv(ctx, "limitedseller")
	if err != nil {
		serviceutil.Fatal("failed to setup telemetry", err)
	}
	if tel.Enabled() {
		telemetry.InstrumentPerfStats(ctx, 15*time.Second)
	}

	err = commands.ExecuteContext(ctx)

	shutdownErr := tel.Shutdown(context.Background())
	if shutdownErr != nil {
		slog.Warn("failed to shutdown telemetry", "err", shutdownErr)
	}
	if err != nil {
		os.Exit(1)
	}
}
