package notify

import (
	"log/slog"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Sender delivers one outbound notification. Fire-and-forget: delivery
// failure is logged, never retried, never fatal.
type Sender interface {
	Send(text string)
}

// Min interval between two Telegram messages to the same chat to avoid
// 429 Too Many Requests (~30/min limit).
const telegramSendInterval = 2 * time.Second

// TelegramNotifier queues messages and sends them from a background worker
// with a minimum interval between sends.
type TelegramNotifier struct {
	bot    *tgbotapi.BotAPI
	chatID int64

	mu       sync.Mutex
	lastSend time.Time

	queue chan string
	done  chan struct{}
	wg    sync.WaitGroup
}

// NewTelegramNotifier creates the notifier and verifies the bot token.
// Returns nil on failure; a nil notifier is usable and drops all messages,
// so a bad token degrades delivery without blocking the pipeline.
func NewTelegramNotifier(token string, chatID int64) *TelegramNotifier {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		slog.Error("Failed to create telegram bot", "error", err)
		return nil
	}
	bot.Debug = false

	if _, err := bot.GetMe(); err != nil {
		slog.Error("Failed to get bot info", "error", err)
		return nil
	}

	n := &TelegramNotifier{
		bot:    bot,
		chatID: chatID,
		queue:  make(chan string, 100),
		done:   make(chan struct{}),
	}

	n.wg.Add(1)
	go n.messageSender()

	slog.Info("Telegram notifier initialized", "chat_id", chatID)
	return n
}

// Send queues a message. Non-blocking: when the queue is full the message is
// dropped with a log line rather than stalling a scan worker.
func (n *TelegramNotifier) Send(text string) {
	if n == nil {
		return
	}
	select {
	case n.queue <- text:
	default:
		slog.Warn("Telegram queue full, dropping message", "preview", truncate(text, 50))
	}
}

// Stop drains the queue and stops the sender.
func (n *TelegramNotifier) Stop() {
	if n == nil {
		return
	}
	close(n.done)
	n.wg.Wait()
}

func (n *TelegramNotifier) messageSender() {
	defer n.wg.Done()

	for {
		select {
		case <-n.done:
			// Drain remaining messages before exit.
			for {
				select {
				case text := <-n.queue:
					n.send(text)
				default:
					return
				}
			}
		case text := <-n.queue:
			n.send(text)
		}
	}
}

func (n *TelegramNotifier) send(text string) {
	n.mu.Lock()
	if elapsed := time.Since(n.lastSend); elapsed < telegramSendInterval {
		wait := telegramSendInterval - elapsed
		n.mu.Unlock()
		time.Sleep(wait)
		n.mu.Lock()
	}
	n.lastSend = time.Now()
	n.mu.Unlock()

	msg := tgbotapi.NewMessage(n.chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdown

	if _, err := n.bot.Send(msg); err != nil {
		slog.Error("Telegram send failed", "error", err, "preview", truncate(text, 50))
		return
	}
	slog.Info("Telegram send: success", "queue_length", len(n.queue))
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
