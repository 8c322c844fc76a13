package workers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"time"

	"campaign-quest-system/models"

	"gorm.io/gorm"
)

const maxSendAttempts = 5

// TelegramNotifier drains the notification outbox and delivers messages
// through the Bot API. Delivery is best-effort: rows that keep failing
// are parked after maxSendAttempts and only the log knows.
type TelegramNotifier struct {
	BaseURL    string
	Token      string
	HTTPClient *http.Client
	DB         *gorm.DB
}

func NewTelegramNotifier(db *gorm.DB) *TelegramNotifier {
	token := os.Getenv("TELEGRAM_BOT_TOKEN")
	if token == "" {
		log.Fatal("TELEGRAM_BOT_TOKEN environment variable is required for notifications")
	}
	baseURL := os.Getenv("TELEGRAM_API_BASE_URL")
	if baseURL == "" {
		baseURL = "https://api.telegram.org"
	}

	return &TelegramNotifier{
		BaseURL: baseURL,
		Token:   token,
		DB:      db,
		HTTPClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// SendMessage delivers one text message to a Telegram chat.
func (n *TelegramNotifier) SendMessage(ctx context.Context, chatID int64, text string) error {
	payload, err := json.Marshal(map[string]interface{}{
		"chat_id": chatID,
		"text":    text,
	})
	if err != nil {
		return fmt.Errorf("failed to encode message: %w", err)
	}

	endpoint := fmt.Sprintf("%s/bot%s/sendMessage", n.BaseURL, n.Token)
	req, err := http.NewRequestWithContext(ctx, "POST", endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to call telegram: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("telegram returned status %d: %s", resp.StatusCode, string(body))
	}
	return nil
}

// PollNotifications loops until ctx is done, flushing the outbox every
// pollInterval. Committed settlements enqueue rows; nothing here can
// affect those commits.
func PollNotifications(ctx context.Context, notifier *TelegramNotifier, pollInterval time.Duration) {
	log.Println("Starting notification outbox polling...")

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("Notification polling stopped.")
			return
		case <-ticker.C:
			if err := notifier.flushOutbox(ctx); err != nil {
				log.Printf("⚠️ Notification flush failed: %v", err)
			}
		}
	}
}

func (n *TelegramNotifier) flushOutbox(ctx context.Context) error {
	var pending []models.Notification
	err := n.DB.
		Where("sent_at IS NULL AND attempts < ?", maxSendAttempts).
		Order("created_at ASC").
		Limit(50).
		Find(&pending).Error
	if err != nil {
		return fmt.Errorf("failed to load outbox: %w", err)
	}

	for _, notification := range pending {
		sendErr := n.SendMessage(ctx, notification.TelegramID, notification.Text)

		updates := map[string]interface{}{
			"attempts": notification.Attempts + 1,
		}
		if sendErr != nil {
			updates["last_error"] = sendErr.Error()
			log.Printf("⚠️ Failed to notify tg:%d (attempt %d): %v",
				notification.TelegramID, notification.Attempts+1, sendErr)
		} else {
			now := time.Now()
			updates["sent_at"] = now
			updates["last_error"] = ""
		}

		if err := n.DB.Model(&models.Notification{}).
			Where("id = ?", notification.ID).
			Updates(updates).Error; err != nil {
			log.Printf("⚠️ Failed to update notification %s: %v", notification.ID, err)
		}
	}
	return nil
}
