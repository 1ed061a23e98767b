package email

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/alexander-kastil/talk-low-code-process/internal/config"
)

// Action types under which mock mails are filed.
const (
	ActionOffer   = "offer"
	ActionUnknown = "unknown"
)

const mockEmailTTL = 5 * time.Minute

// MockEmail is what RedisSender stores per recipient and action type.
type MockEmail struct {
	To         string `json:"to"`
	From       string `json:"from"`
	Subject    string `json:"subject"`
	Body       string `json:"body"`
	SentAt     string `json:"sent_at"`
	ActionType string `json:"actionType"`
}

// MockEmailKey is the Redis key a mock mail for the recipient is stored under.
func MockEmailKey(to, actionType string) string {
	return fmt.Sprintf("mockemail:%s:%s", strings.ToLower(strings.TrimSpace(to)), actionType)
}

// RedisSender stores mails in Redis instead of sending them (MOCK_SERVICES=true).
// The service API reads them back for integration tests.
type RedisSender struct {
	client *redis.Client
	from   string
}

func NewRedisSender(client *redis.Client, cfg *config.Config) *RedisSender {
	return &RedisSender{client: client, from: cfg.SmtpFromAddress}
}

func actionTypeOf(subject string) string {
	if strings.HasPrefix(strings.TrimSpace(subject), "Offer") {
		return ActionOffer
	}
	return ActionUnknown
}

// Send files the mail under the first recipient. A later mail to the same recipient and
// action type replaces the earlier one.
func (s *RedisSender) Send(ctx context.Context, to []string, subject string, rawMessage []byte) error {
	if len(to) == 0 {
		return fmt.Errorf("no recipients given")
	}
	actionType := actionTypeOf(subject)

	jsonData, err := json.Marshal(MockEmail{
		To:         strings.Join(to, ", "),
		From:       s.from,
		Subject:    subject,
		Body:       string(rawMessage),
		SentAt:     time.Now().UTC().Format(time.RFC3339Nano),
		ActionType: actionType,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal email data: %w", err)
	}

	key := MockEmailKey(to[0], actionType)
	if err := s.client.Set(ctx, key, jsonData, mockEmailTTL).Err(); err != nil {
		return fmt.Errorf("failed to store email in Redis key '%s': %w", key, err)
	}

	log.Printf("Mock email stored in Redis key '%s' (TTL: %v, To: %s, Subject: %s)", key, mockEmailTTL, strings.Join(to, ", "), subject)
	return nil
}
