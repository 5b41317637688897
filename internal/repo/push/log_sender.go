package push

import (
	"context"
	"fmt"

	"github.com/nguyentranbao-ct/chat-notify/internal/models"
	log "github.com/nguyentranbao-ct/chat-notify/pkg/logger/log"
)

// LogSender writes notifications to the log instead of a push provider.
type LogSender struct{}

func NewLogSender() *LogSender {
	return &LogSender{}
}

func (LogSender) Send(ctx context.Context, tokens []string, n models.Notification) []models.TokenResult {
	results := make([]models.TokenResult, len(tokens))
	for i, token := range tokens {
		log.Infow(ctx, "push notification",
			"token", token,
			"title", n.Title,
			"body", n.Body,
			"badge", n.Badge,
			"collapse_key", n.CollapseKey,
			"tag", n.Tag,
			"data", n.Data,
		)
		results[i] = models.TokenResult{Token: token, MessageID: fmt.Sprintf("log-%d", i)}
	}
	return results
}
