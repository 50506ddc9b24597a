package notifier

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"slices"
	"strconv"
	"strings"
	"time"
)

// Reply is the answer to one incoming message. Photo, if set, is a PNG sent
// after the text.
type Reply struct {
	Text  string
	Photo []byte
}

// CommandHandler is called for every incoming text message.
type CommandHandler func(ctx context.Context, text string) *Reply

// telegramUpdate represents a Telegram update from long polling.
type telegramUpdate struct {
	UpdateID int `json:"update_id"`
	Message  *struct {
		Text string `json:"text"`
		Chat struct {
			ID int64 `json:"id"`
		} `json:"chat"`
	} `json:"message"`
}

// PollTimeout is the long-poll wait passed to getUpdates.
const PollTimeout = 30 * time.Second

func sleep(ctx context.Context, d time.Duration) {
	select {
	case <-ctx.Done():
	case <-time.After(d):
	}
}

// StartPolling begins long-polling for Telegram messages. Replies go back to
// the chat that sent the message; messages from chats other than ChatID and
// AllowedChats are dropped. Blocks until ctx is cancelled.
func (t *TelegramNotifier) StartPolling(ctx context.Context, handler CommandHandler) {
	offset := 0
	client := &http.Client{Timeout: PollTimeout + 5*time.Second, Transport: t.Client.Transport}

	for {
		select {
		case <-ctx.Done():
			log.Info("telegram polling stopped")
			return
		default:
		}

		updates, err := t.getUpdates(ctx, client, offset)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			log.WithError(err).Warn("polling request failed")
			sleep(ctx, 5*time.Second)
			continue
		}

		for _, update := range updates {
			offset = update.UpdateID + 1
			if update.Message == nil || update.Message.Text == "" {
				continue
			}
			chatID := strconv.FormatInt(update.Message.Chat.ID, 10)
			if !t.allowed(chatID) {
				log.Warnf("ignoring message from unauthorized chat %s", chatID)
				continue
			}
			text := strings.TrimSpace(update.Message.Text)
			log.Infof("received message from %s: %s", chatID, text)
			t.reply(ctx, chatID, handler(ctx, text))
		}
	}
}

func (t *TelegramNotifier) allowed(chatID string) bool {
	return chatID == t.ChatID || slices.Contains(t.AllowedChats, chatID)
}

func (t *TelegramNotifier) getUpdates(ctx context.Context, client *http.Client, offset int) ([]telegramUpdate, error) {
	apiURL := fmt.Sprintf("%s?offset=%d&timeout=%d", t.method("getUpdates"), offset, int(PollTimeout.Seconds()))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create polling request: %w", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read polling response: %w", err)
	}
	var result struct {
		OK          bool             `json:"ok"`
		Description string           `json:"description"`
		Result      []telegramUpdate `json:"result"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("decode polling response: %w", err)
	}
	if !result.OK {
		return nil, fmt.Errorf("getUpdates: %s", result.Description)
	}
	return result.Result, nil
}

func (t *TelegramNotifier) reply(ctx context.Context, chatID string, r *Reply) {
	if r == nil {
		return
	}
	if r.Text != "" {
		if err := t.SendTo(ctx, chatID, r.Text); err != nil {
			log.WithError(err).Error("send reply")
		}
	}
	if len(r.Photo) > 0 {
		if err := t.SendPhoto(ctx, chatID, "", r.Photo); err != nil {
			log.WithError(err).Error("send chart")
		}
	}
}
