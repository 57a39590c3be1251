package main

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"snowfield/client"
	"snowfield/server"
)

func botCommand() error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if CLI.Bot.FPS <= 0 {
		return fmt.Errorf("fps must be positive, got %d", CLI.Bot.FPS)
	}
	if err := server.InitLogger(cfg.Log); err != nil {
		return err
	}
	defer server.SyncLogger()
	log := server.Log.With(zap.String("bot", CLI.Bot.Name))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	conn, err := client.Dial(ctx, CLI.Bot.URL, CLI.Bot.Name, CLI.Bot.Character, log)
	if err != nil {
		return err
	}
	defer conn.Close()
	log.Infof("connected as %s", conn.Self().PlayerID)

	bot := client.NewBot(conn, cfg, client.Wander, log)
	err = bot.Run(ctx, time.Second/time.Duration(CLI.Bot.FPS))
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
