package notify

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/Vodeneev/tennispbp/internal/pkg/config"
	"github.com/Vodeneev/tennispbp/internal/pkg/models"
)

// Bot API allows roughly 30 messages a minute per chat.
const defaultSendInterval = 3 * time.Second

type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

type messageType int

const (
	messageTypeAnalysis messageType = iota
	messageTypeTest
)

func (t messageType) String() string {
	if t == messageTypeTest {
		return "test"
	}
	return "analysis"
}

type queuedMessage struct {
	msgType  messageType
	text     string
	matchID  string
	queuedAt time.Time
}

// TelegramNotifier posts analysis alerts to one chat through a rate limited queue.
type TelegramNotifier struct {
	bot          sender
	chatID       int64
	interval     time.Duration
	alertOnIssue bool

	mu       sync.Mutex
	lastSend time.Time

	queue     chan queuedMessage
	queueDone chan struct{}
	wg        sync.WaitGroup
	ctx       context.Context
	cancel    context.CancelFunc
}

// NewTelegramNotifier connects to the bot API. It returns nil when the bot
// cannot be reached; every method is safe on a nil notifier.
func NewTelegramNotifier(cfg *config.TelegramConfig) *TelegramNotifier {
	if cfg.BotToken == "" || cfg.ChatID == 0 {
		return nil
	}
	bot, err := tgbotapi.NewBotAPI(cfg.BotToken)
	if err != nil {
		slog.Error("Failed to create telegram bot", "error", err)
		return nil
	}
	bot.Debug = false

	n := newNotifier(bot, cfg.ChatID, cfg.MinInterval)
	n.alertOnIssue = cfg.AlertOnIssue
	slog.Info("Telegram notifier initialized", "chat_id", cfg.ChatID, "bot", bot.Self.UserName)
	return n
}

func newNotifier(bot sender, chatID int64, interval time.Duration) *TelegramNotifier {
	if interval <= 0 {
		interval = defaultSendInterval
	}
	ctx, cancel := context.WithCancel(context.Background())
	n := &TelegramNotifier{
		bot:       bot,
		chatID:    chatID,
		interval:  interval,
		queue:     make(chan queuedMessage, 100),
		queueDone: make(chan struct{}),
		ctx:       ctx,
		cancel:    cancel,
	}
	n.wg.Add(1)
	go n.messageSender()
	return n
}

// QueueLen returns current number of messages in the send queue.
func (n *TelegramNotifier) QueueLen() int {
	if n == nil {
		return 0
	}
	return len(n.queue)
}

func (n *TelegramNotifier) messageSender() {
	defer n.wg.Done()
	for {
		select {
		case <-n.ctx.Done():
			for {
				select {
				case msg := <-n.queue:
					n.send(msg)
				default:
					close(n.queueDone)
					return
				}
			}
		case msg := <-n.queue:
			n.send(msg)
		}
	}
}

func (n *TelegramNotifier) send(msg queuedMessage) {
	n.mu.Lock()
	elapsed := time.Since(n.lastSend)
	if elapsed < n.interval && n.ctx.Err() == nil {
		wait := n.interval - elapsed
		n.mu.Unlock()
		select {
		case <-n.ctx.Done():
		case <-time.After(wait):
		}
		n.mu.Lock()
	}
	n.lastSend = time.Now()
	n.mu.Unlock()

	tgMsg := tgbotapi.NewMessage(n.chatID, msg.text)
	tgMsg.ParseMode = tgbotapi.ModeMarkdown

	start := time.Now()
	_, err := n.bot.Send(tgMsg)
	args := []any{
		"type", msg.msgType.String(),
		"match_id", msg.matchID,
		"send_duration", time.Since(start),
		"delay_since_queued", time.Since(msg.queuedAt),
	}
	if err != nil {
		slog.Error("Telegram send: failed", append(args, "error", err)...)
		return
	}
	slog.Info("Telegram send: success", append(args, "queue_length", len(n.queue))...)
}

func (n *TelegramNotifier) enqueue(ctx context.Context, msg queuedMessage) error {
	if n == nil || n.bot == nil {
		return fmt.Errorf("telegram notifier not initialized")
	}
	msg.queuedAt = time.Now()
	select {
	case <-n.ctx.Done():
		return fmt.Errorf("notifier stopped")
	case <-ctx.Done():
		return ctx.Err()
	case n.queue <- msg:
		return nil
	default:
		slog.Warn("Telegram message queue is full, dropping message", "type", msg.msgType.String(), "match_id", msg.matchID)
		return fmt.Errorf("message queue is full")
	}
}

// NotifyAnalysis queues an alert when the analysis has something worth
// reporting. It reports whether a message was queued.
func (n *TelegramNotifier) NotifyAnalysis(ctx context.Context, a *models.MatchAnalysis) (bool, error) {
	if n == nil || !ShouldAlert(a, n.alertOnIssue) {
		return false, nil
	}
	if err := n.enqueue(ctx, queuedMessage{msgType: messageTypeAnalysis, text: FormatAnalysisAlert(a), matchID: a.MatchID}); err != nil {
		return false, err
	}
	return true, nil
}

// SendTestAlert queues a plain test message.
func (n *TelegramNotifier) SendTestAlert(ctx context.Context, message string) error {
	text := fmt.Sprintf("*Test Alert*\n\n%s\n\n_Time: %s_", escapeMarkdown(message), time.Now().UTC().Format("2006-01-02 15:04:05 UTC"))
	return n.enqueue(ctx, queuedMessage{msgType: messageTypeTest, text: text})
}

// Stop stops the notifier and waits for all queued messages to be sent
func (n *TelegramNotifier) Stop() {
	if n == nil {
		return
	}
	n.cancel()
	<-n.queueDone
	n.wg.Wait()
}

// ShouldAlert reports whether an analysis has unresolved sets, or momentum
// issues when those are enabled.
func ShouldAlert(a *models.MatchAnalysis, alertOnIssue bool) bool {
	if a == nil {
		return false
	}
	if len(a.UnresolvedSets()) > 0 {
		return true
	}
	return alertOnIssue && len(a.MomentumIssues) > 0
}

// FormatAnalysisAlert renders an analysis as a Markdown message.
func FormatAnalysisAlert(a *models.MatchAnalysis) string {
	var b strings.Builder

	title := a.MatchID
	if a.Registry.HomeName != "" && a.Registry.AwayName != "" {
		title = a.Registry.HomeName + " vs " + a.Registry.AwayName
	}
	b.WriteString("*Point-by-point analysis*\n\n")
	fmt.Fprintf(&b, "*%s*\n", escapeMarkdown(title))

	for _, s := range a.Sets {
		if s.Resolved {
			fmt.Fprintf(&b, "Set %d: %s (%s)\n", s.SetNumber, s.FinalScore, escapeMarkdown(s.Mode.String()))
			continue
		}
		oracle := "n/a"
		if s.Oracle != nil {
			oracle = s.Oracle.String()
		}
		fmt.Fprintf(&b, "Set %d: *unresolved*, rebuilt %s, expected %s\n", s.SetNumber, s.FinalScore, oracle)
		if s.Reason != "" {
			fmt.Fprintf(&b, "  _%s_\n", escapeMarkdown(s.Reason))
		}
	}

	if n := a.AmbiguousGames(); n > 0 {
		fmt.Fprintf(&b, "Ambiguous games: %d\n", n)
	}
	if n := a.InferredPoints(); n > 0 {
		fmt.Fprintf(&b, "Inferred points: %d\n", n)
	}

	if len(a.MomentumIssues) > 0 {
		fmt.Fprintf(&b, "\nMomentum issues: %d\n", len(a.MomentumIssues))
		for i, issue := range a.MomentumIssues {
			if i == 5 {
				fmt.Fprintf(&b, "...and %d more\n", len(a.MomentumIssues)-i)
				break
			}
			fmt.Fprintf(&b, "  Set %d game %d: %s\n", issue.SetNumber, issue.GameNumber, escapeMarkdown(issue.Reason))
		}
	}

	if !a.AnalyzedAt.IsZero() {
		fmt.Fprintf(&b, "\n_Analyzed: %s_", a.AnalyzedAt.UTC().Format("2006-01-02 15:04 UTC"))
	}
	return b.String()
}

// escapeMarkdown escapes the characters legacy Markdown treats as markup.
func escapeMarkdown(text string) string {
	replacer := strings.NewReplacer(
		"_", "\\_",
		"*", "\\*",
		"`", "\\`",
		"[", "\\[",
	)
	return replacer.Replace(text)
}
