package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"yubot/app/client/engine"
	"yubot/app/config"
	"yubot/app/service/archive"
	"yubot/app/service/dispatch"
	"yubot/app/service/session"
	"yubot/app/service/turn"
	"yubot/app/transport/telegram"
	"yubot/app/transport/web"
	"yubot/app/util/mylog"

	"github.com/gofiber/fiber/v2/log"
	"github.com/samber/do"
	"golang.org/x/sync/errgroup"
)

func main() {
	di := do.New()
	defer di.Shutdown()
	defer log.Info("Waiting for services to finish...")

	mylog.Preinit()

	appCtx, cancel := context.WithCancel(context.Background())
	defer cancel()
	do.ProvideValue(di, appCtx)

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}
	do.ProvideValue(di, cfg)

	if err = mylog.Init(cfg); err != nil {
		log.Fatalf("logging init failed: %v", err)
	}

	do.Provide(di, engine.NewClient)
	do.Provide(di, session.New)
	do.Provide(di, archive.New)
	do.Provide(di, dispatch.New)
	do.Provide(di, turn.New)
	do.Provide(di, web.New)
	do.Provide(di, telegram.New)

	slog.Info("Service started")

	go func() {
		sigint := make(chan os.Signal, 1)
		signal.Notify(sigint, os.Interrupt)
		<-sigint

		log.Info("Shutting down...")

		cancel()
	}()

	group, groupCtx := errgroup.WithContext(appCtx)

	group.Go(func() error {
		return do.MustInvoke[*web.Server](di).Run(groupCtx)
	})
	group.Go(func() error {
		return do.MustInvoke[*telegram.Bot](di).Run(groupCtx)
	})

	if err = group.Wait(); err != nil {
		log.Fatalf("transport failed: %v", err)
	}
}
