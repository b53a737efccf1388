// Command server runs the risk wheel game server: JSON over HTTP, live events
// over websockets and the same API over gRPC.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/xtding233/riskwheel/internal/app"
)

func main() {
	dotEnv := flag.String("env", ".env", "dotenv file to load before reading the environment")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.NewApp(*dotEnv)
	if err != nil {
		fmt.Fprintf(os.Stderr, "riskwheel: %v\n", err)
		os.Exit(1)
	}
	if err := a.Run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "riskwheel: %v\n", err)
		os.Exit(1)
	}
}
