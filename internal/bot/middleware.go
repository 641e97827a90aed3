package bot

import (
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	tele "gopkg.in/telebot.v3"

	"telegram-wager-bot/internal/config"
	"telegram-wager-bot/internal/metrics"
)

// AccessMiddleware drops updates from chats and topics the bot is not
// configured for. Private chats always pass. When a denial message is
// configured, unauthorized commands get it as a single reply; everything
// else is ignored silently.
func AccessMiddleware(cfg *config.Config) tele.MiddlewareFunc {
	return func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			chat := c.Chat()
			if chat == nil || c.Sender() == nil {
				return nil
			}

			threadID := 0
			if msg := c.Message(); msg != nil {
				threadID = msg.ThreadID
			}

			if cfg.IsAllowed(chat.ID, string(chat.Type), threadID) {
				return next(c)
			}

			log.Debug().
				Int64("chat_id", chat.ID).
				Int("thread_id", threadID).
				Msg("Ignoring update from unauthorized chat")

			if cfg.DenialEnabled() && isCommand(c.Text()) {
				return c.Reply(cfg.Access.DenyMessage)
			}
			return nil
		}
	}
}

// LoggingMiddleware creates a middleware that logs all incoming messages.
func LoggingMiddleware() tele.MiddlewareFunc {
	return func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			sender := c.Sender()
			chat := c.Chat()

			logEvent := log.Debug()
			if sender != nil {
				logEvent = logEvent.
					Int64("user_id", sender.ID).
					Str("username", sender.Username)
			}
			if chat != nil {
				logEvent = logEvent.
					Int64("chat_id", chat.ID).
					Str("chat_type", string(chat.Type))
			}
			logEvent.
				Str("text", c.Text()).
				Msg("Received message")

			return next(c)
		}
	}
}

// MetricsMiddleware records the count and latency of every handled update.
func MetricsMiddleware() tele.MiddlewareFunc {
	return func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			start := time.Now()
			err := next(c)

			status := "ok"
			if err != nil {
				status = "error"
			}
			metrics.RecordCommand(commandName(c), status, time.Since(start))

			return err
		}
	}
}

// RecoveryMiddleware creates a middleware that recovers from panics.
func RecoveryMiddleware() tele.MiddlewareFunc {
	return func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) (err error) {
			defer func() {
				if r := recover(); r != nil {
					log.Error().
						Interface("panic", r).
						Msg("Recovered from panic in handler")
					err = c.Reply("❌ Something went wrong. Please try again later.")
				}
			}()
			return next(c)
		}
	}
}

func isCommand(text string) bool {
	return strings.HasPrefix(text, "/")
}

// commandName labels an update for metrics: the command without the bot
// mention, or the kind of message for non-commands.
func commandName(c tele.Context) string {
	text := c.Text()
	if isCommand(text) {
		name := strings.Fields(text)[0]
		if i := strings.Index(name, "@"); i > 0 {
			name = name[:i]
		}
		return name
	}
	if msg := c.Message(); msg != nil && msg.Dice != nil {
		return "dice"
	}
	return "text"
}
