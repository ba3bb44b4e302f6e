package notify

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"html"
	"io"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"roomify/server/internal/models"
)

const defaultTelegramURL = "https://api.telegram.org"

// TelegramConfig holds the bot credentials
type TelegramConfig struct {
	IsEnabled bool
	BotToken  string
	ChatID    string
}

// Telegram forwards workflow events to an operator chat
type Telegram struct {
	logger  *logrus.Logger
	client  *http.Client
	config  TelegramConfig
	baseURL string
}

func NewTelegram(config TelegramConfig, logger *logrus.Logger) *Telegram {
	if logger == nil {
		logger = logrus.New()
		logger.SetFormatter(&logrus.JSONFormatter{})
	}
	return &Telegram{
		logger: logger,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
		config:  config,
		baseURL: defaultTelegramURL,
	}
}

// WithBaseURL points the notifier at another Bot API host
func (t *Telegram) WithBaseURL(url string) *Telegram {
	t.baseURL = url
	return t
}

// SendMessage sends a message to the configured Telegram chat
func (t *Telegram) SendMessage(message string) error {
	if !t.config.IsEnabled {
		return nil
	}

	if t.config.BotToken == "" {
		return errors.New("Telegram bot token is not configured")
	}

	if t.config.ChatID == "" {
		return errors.New("Telegram chat ID is not configured")
	}

	url := fmt.Sprintf("%s/bot%s/sendMessage", t.baseURL, t.config.BotToken)
	payload := map[string]interface{}{
		"chat_id":    t.config.ChatID,
		"text":       message,
		"parse_mode": "HTML",
	}

	jsonData, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal message payload: %v", err)
	}

	resp, err := t.client.Post(url, "application/json", bytes.NewBuffer(jsonData))
	if err != nil {
		return fmt.Errorf("failed to send message to Telegram API: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		switch resp.StatusCode {
		case http.StatusUnauthorized, http.StatusNotFound:
			return errors.New("invalid bot token")
		case http.StatusBadRequest:
			return fmt.Errorf("invalid chat ID or message format: %s", string(body))
		case http.StatusForbidden:
			return errors.New("bot was blocked by the user or chat")
		default:
			return fmt.Errorf("Telegram API error (status %d): %s", resp.StatusCode, string(body))
		}
	}

	return nil
}

// Handle is an event queue subscriber
func (t *Telegram) Handle(event models.WorkflowEvent) error {
	message := FormatEvent(event)
	if message == "" {
		return nil
	}
	if err := t.SendMessage(message); err != nil {
		return err
	}
	t.logger.WithFields(logrus.Fields{
		"event":    event.Type,
		"match_id": event.MatchID,
	}).Debug("Sent Telegram notification")
	return nil
}

// FormatEvent renders an event as a Telegram HTML message. Unknown event
// types render as an empty string.
func FormatEvent(event models.WorkflowEvent) string {
	var title, detail string
	switch event.Type {
	case models.EventViewingProposed:
		title = "📅 Viewing proposed"
		if event.ViewingDate != nil {
			detail = event.ViewingDate.Format(viewingDayFormat)
		}
	case models.EventViewingConfirmed:
		title = "✅ Viewing confirmed"
		if event.ViewingDate != nil {
			detail = event.ViewingDate.Format(viewingDayFormat)
		}
	case models.EventRentProposed:
		title = "💰 Rent proposal sent"
		if event.MonthlyPrice != nil {
			detail = fmt.Sprintf("%s %s", event.MonthlyPrice.String(), event.Currency)
		}
		if event.StartDate != nil {
			detail += " from " + event.StartDate.Format(leaseDateFormat)
		}
	case models.EventPaymentSucceeded:
		title = "🎉 Lease activated"
		if event.MonthlyPrice != nil {
			detail = fmt.Sprintf("%s %s paid", event.MonthlyPrice.String(), event.Currency)
		}
	case models.EventOfferDeclined:
		title = "❌ Rent proposal declined"
	case models.EventOfferExpired:
		title = "⌛ Rent proposal expired"
	case models.EventOfferCancelled:
		title = "🚫 Rent proposal cancelled"
	default:
		return ""
	}

	message := fmt.Sprintf("<b>%s</b>\n\n🔗 Match <code>%s</code>", title, html.EscapeString(event.MatchID))
	if event.LeaseID != "" {
		message += fmt.Sprintf("\n📄 Lease <code>%s</code>", html.EscapeString(event.LeaseID))
	}
	if detail != "" {
		message += "\n" + html.EscapeString(detail)
	}
	return message
}
