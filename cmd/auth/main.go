package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/filmdoms/community/internal/common/bootstrap"
	srv "github.com/filmdoms/community/internal/common/server"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.NewAuthApp(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to start auth service: %v\n", err)
		os.Exit(1)
	}
	defer app.Close()

	serverConfig := srv.DefaultServerConfig(app.Config.HTTPPort)
	server := srv.NewServer(serverConfig, app.Handler())

	app.Log.Infof("auth service starting: refresh store=%s", app.Config.RefreshStore)

	if err := srv.Run(ctx, server, app.Log, "auth"); err != nil {
		app.Log.Errorf("%v", err)
		app.Close()
		os.Exit(1)
	}
}
