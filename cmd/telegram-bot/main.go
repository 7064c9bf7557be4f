package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/joho/godotenv"
)

const (
	defaultServiceURL = "http://localhost:8080"
)

type BotConfig struct {
	Token          string
	ServiceURL     string
	UpdateTimeout  int
	AllowedUserIDs []int64 // empty means everyone
}

func main() {
	_ = godotenv.Load()

	var token string
	var serviceURL string
	var allowedUsers string

	flag.StringVar(&token, "token", "", "Telegram bot token (required, or set TELEGRAM_BOT_TOKEN env var)")
	flag.StringVar(&serviceURL, "service-url", defaultServiceURL, "pbp-service URL")
	flag.StringVar(&allowedUsers, "allowed-users", "", "Comma-separated list of allowed user IDs (optional)")
	flag.Parse()

	if token == "" {
		token = os.Getenv("TELEGRAM_BOT_TOKEN")
	}
	if token == "" {
		slog.Error("Telegram bot token is required. Set -token flag or TELEGRAM_BOT_TOKEN env var")
		os.Exit(1)
	}
	if serviceURL == defaultServiceURL {
		if envURL := os.Getenv("PBP_SERVICE_URL"); envURL != "" {
			serviceURL = envURL
		}
	}

	config := BotConfig{
		Token:          token,
		ServiceURL:     strings.TrimRight(serviceURL, "/"),
		UpdateTimeout:  60,
		AllowedUserIDs: parseUserIDs(allowedUsers),
	}

	slog.Info("Starting Telegram bot...", "service_url", config.ServiceURL)

	bot, err := tgbotapi.NewBotAPI(config.Token)
	if err != nil {
		slog.Error("Failed to create bot", "error", err)
		os.Exit(1)
	}
	bot.Debug = false
	slog.Info("Authorized on account", "username", bot.Self.UserName)

	u := tgbotapi.NewUpdate(0)
	u.Timeout = config.UpdateTimeout

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		slog.Info("Received shutdown signal, stopping bot...")
		cancel()
	}()

	h := newHandler(bot, newServiceClient(config.ServiceURL), config.AllowedUserIDs)
	updates := bot.GetUpdatesChan(u)

	go func() {
		for {
			select {
			case <-ctx.Done():
				bot.StopReceivingUpdates()
				return
			case update := <-updates:
				if update.Message == nil {
					continue
				}
				h.handleMessage(ctx, update.Message)
			}
		}
	}()

	<-ctx.Done()
	slog.Info("Telegram bot stopped")
}

func parseUserIDs(s string) []int64 {
	var ids []int64
	for _, idStr := range strings.Split(s, ",") {
		id, err := strconv.ParseInt(strings.TrimSpace(idStr), 10, 64)
		if err == nil {
			ids = append(ids, id)
		}
	}
	return ids
}
