package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/Vodeneev/tennispbp/internal/notify"
	"github.com/Vodeneev/tennispbp/internal/pkg/models"
)

// Telegram rejects messages over 4096 characters.
const maxMessageLen = 4000

type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

type handler struct {
	bot     sender
	service *serviceClient
	allowed []int64
}

func newHandler(bot sender, service *serviceClient, allowed []int64) *handler {
	return &handler{bot: bot, service: service, allowed: allowed}
}

func (h *handler) isAllowed(userID int64) bool {
	if len(h.allowed) == 0 {
		return true
	}
	for _, id := range h.allowed {
		if id == userID {
			return true
		}
	}
	return false
}

func (h *handler) handleMessage(ctx context.Context, message *tgbotapi.Message) {
	if message.From != nil && !h.isAllowed(message.From.ID) {
		h.reply(message.Chat.ID, "Access denied. You are not authorized to use this bot.")
		return
	}

	text := strings.TrimSpace(message.Text)
	if text == "" {
		return
	}
	parts := strings.Fields(text)
	command := strings.ToLower(strings.TrimPrefix(parts[0], "/"))
	args := strings.TrimSpace(strings.TrimPrefix(text, parts[0]))

	switch command {
	case "start", "help":
		h.sendHelp(message.Chat.ID)
	case "matches":
		h.sendMatches(ctx, message.Chat.ID, parseLimit(args), false)
	case "unresolved":
		h.sendMatches(ctx, message.Chat.ID, parseLimit(args), true)
	case "match":
		if args == "" {
			h.reply(message.Chat.ID, "Usage: /match <player name>")
			return
		}
		h.sendMatchByName(ctx, message.Chat.ID, args)
	case "analyze":
		h.runAnalyze(ctx, message.Chat.ID)
	default:
		if strings.HasPrefix(text, "/") {
			h.reply(message.Chat.ID, "Unknown command. Use /help to see available commands.")
			return
		}
		// Plain text is a player name lookup.
		h.sendMatchByName(ctx, message.Chat.ID, text)
	}
}

func parseLimit(s string) int {
	if n, err := strconv.Atoi(strings.TrimSpace(s)); err == nil && n > 0 && n <= 50 {
		return n
	}
	return 5
}

func (h *handler) sendHelp(chatID int64) {
	helpText := `*Point-by-point bot*

/matches [limit] - Latest analyses
/unresolved [limit] - Analyses with unresolved sets
/match <name> - Analyses for a player
/analyze - Run an analysis cycle now
/help - Show this help message

Any other text is searched as a player name. Limit must be between 1 and 50, default 5.`
	h.replyMarkdown(chatID, helpText)
}

func (h *handler) sendMatches(ctx context.Context, chatID int64, limit int, unresolvedOnly bool) {
	h.typing(chatID)
	analyses, err := h.service.matches(ctx)
	if err != nil {
		h.reply(chatID, fmt.Sprintf("Error: %v", err))
		return
	}
	if unresolvedOnly {
		filtered := analyses[:0]
		for _, a := range analyses {
			if len(a.UnresolvedSets()) > 0 {
				filtered = append(filtered, a)
			}
		}
		analyses = filtered
	}
	if len(analyses) == 0 {
		h.reply(chatID, "No analyses found.")
		return
	}
	if len(analyses) > limit {
		analyses = analyses[:limit]
	}
	h.sendAnalyses(chatID, analyses)
}

func (h *handler) sendMatchByName(ctx context.Context, chatID int64, name string) {
	h.typing(chatID)
	analyses, err := h.service.matchesByName(ctx, name)
	if err != nil {
		h.reply(chatID, fmt.Sprintf("Error: %v", err))
		return
	}
	if len(analyses) == 0 {
		h.reply(chatID, fmt.Sprintf("No analyses found for %q.", name))
		return
	}
	h.sendAnalyses(chatID, analyses)
}

func (h *handler) runAnalyze(ctx context.Context, chatID int64) {
	h.typing(chatID)
	results, err := h.service.analyze(ctx)
	if err != nil {
		h.reply(chatID, fmt.Sprintf("Error: %v", err))
		return
	}
	var b strings.Builder
	for _, r := range results {
		status := "ok"
		if !r.Success {
			status = "failed: " + r.Error
		}
		fmt.Fprintf(&b, "%s: %s in %s\n", r.Worker, status, r.Duration)
	}
	h.reply(chatID, b.String())
}

// sendAnalyses packs alerts into as few messages as the length limit allows.
func (h *handler) sendAnalyses(chatID int64, analyses []models.MatchAnalysis) {
	var b strings.Builder
	for i := range analyses {
		entry := notify.FormatAnalysisAlert(&analyses[i]) + "\n\n"
		if b.Len() > 0 && b.Len()+len(entry) > maxMessageLen {
			h.replyMarkdown(chatID, b.String())
			b.Reset()
		}
		b.WriteString(entry)
	}
	if b.Len() > 0 {
		h.replyMarkdown(chatID, b.String())
	}
}

func (h *handler) typing(chatID int64) {
	_, _ = h.bot.Send(tgbotapi.NewChatAction(chatID, tgbotapi.ChatTyping))
}

func (h *handler) reply(chatID int64, text string) {
	if _, err := h.bot.Send(tgbotapi.NewMessage(chatID, text)); err != nil {
		slog.Error("Failed to send reply", "chat_id", chatID, "error", err)
	}
}

func (h *handler) replyMarkdown(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdown
	if _, err := h.bot.Send(msg); err != nil {
		slog.Error("Failed to send reply", "chat_id", chatID, "error", err)
	}
}

type serviceClient struct {
	baseURL string
	client  *http.Client
}

func newServiceClient(baseURL string) *serviceClient {
	return &serviceClient{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 3 * time.Minute},
	}
}

type matchesResponse struct {
	Matches []models.MatchAnalysis `json:"matches"`
}

type analyzeResult struct {
	Worker   string `json:"worker"`
	Duration string `json:"duration"`
	Success  bool   `json:"success"`
	Error    string `json:"error"`
}

func (c *serviceClient) matches(ctx context.Context) ([]models.MatchAnalysis, error) {
	var resp matchesResponse
	if err := c.do(ctx, http.MethodGet, "/matches", &resp); err != nil {
		return nil, err
	}
	return resp.Matches, nil
}

func (c *serviceClient) matchesByName(ctx context.Context, name string) ([]models.MatchAnalysis, error) {
	var resp matchesResponse
	if err := c.do(ctx, http.MethodGet, "/match-by-name?name="+url.QueryEscape(name), &resp); err != nil {
		return nil, err
	}
	return resp.Matches, nil
}

func (c *serviceClient) analyze(ctx context.Context) ([]analyzeResult, error) {
	var resp struct {
		Results []analyzeResult `json:"results"`
	}
	if err := c.do(ctx, http.MethodPost, "/analyze", &resp); err != nil {
		return nil, err
	}
	return resp.Results, nil
}

func (c *serviceClient) do(ctx context.Context, method, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to connect to pbp-service: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var errorResp map[string]string
		if err := json.NewDecoder(resp.Body).Decode(&errorResp); err == nil && errorResp["error"] != "" {
			return fmt.Errorf("pbp-service: %s", errorResp["error"])
		}
		return fmt.Errorf("pbp-service returned status %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}
