package push

import (
	"context"
	"fmt"

	"firebase.google.com/go/v4/messaging"
	"github.com/nguyentranbao-ct/chat-notify/internal/models"
	log "github.com/nguyentranbao-ct/chat-notify/pkg/logger/log"
)

// fcm accepts at most this many tokens per multicast request.
const maxMulticastTokens = 500

type multicaster interface {
	SendEachForMulticast(ctx context.Context, message *messaging.MulticastMessage) (*messaging.BatchResponse, error)
}

type FCMSender struct {
	client           multicaster
	androidChannelID string
}

func NewFCMSender(client *messaging.Client, androidChannelID string) *FCMSender {
	return &FCMSender{
		client:           client,
		androidChannelID: androidChannelID,
	}
}

// Send delivers n to every token. Failures are reported per token and never
// abort delivery to the remaining tokens.
func (s *FCMSender) Send(ctx context.Context, tokens []string, n models.Notification) []models.TokenResult {
	results := make([]models.TokenResult, 0, len(tokens))
	for start := 0; start < len(tokens); start += maxMulticastTokens {
		end := min(start+maxMulticastTokens, len(tokens))
		batch := tokens[start:end]

		resp, err := s.client.SendEachForMulticast(ctx, buildMulticast(batch, n, s.androidChannelID))
		if err != nil {
			log.Warnw(ctx, "fcm multicast failed", "tokens", len(batch), "error", err)
			for _, token := range batch {
				results = append(results, models.TokenResult{Token: token, Error: err.Error()})
			}
			continue
		}
		results = append(results, collectResults(batch, resp)...)
	}
	return results
}

func collectResults(tokens []string, resp *messaging.BatchResponse) []models.TokenResult {
	results := make([]models.TokenResult, len(tokens))
	for i, token := range tokens {
		results[i].Token = token
		if i >= len(resp.Responses) || resp.Responses[i] == nil {
			results[i].Error = "missing response"
			continue
		}
		r := resp.Responses[i]
		if r.Success {
			results[i].MessageID = r.MessageID
			continue
		}
		results[i].Error = fmt.Sprint(r.Error)
		results[i].Unregistered = messaging.IsUnregistered(r.Error)
	}
	return results
}

// buildMulticast maps n onto the android, apns and webpush payloads. Without
// a configured android channel the collapse key doubles as the channel id.
func buildMulticast(tokens []string, n models.Notification, androidChannelID string) *messaging.MulticastMessage {
	if androidChannelID == "" {
		androidChannelID = n.CollapseKey
	}
	return &messaging.MulticastMessage{
		Tokens: tokens,
		Data:   n.Data,
		Notification: &messaging.Notification{
			Title: n.Title,
			Body:  n.Body,
		},
		Android: &messaging.AndroidConfig{
			CollapseKey: n.CollapseKey,
			Priority:    "high",
			Notification: &messaging.AndroidNotification{
				Title:     n.Title,
				Body:      n.Body,
				Tag:       n.Tag,
				ChannelID: androidChannelID,
			},
		},
		APNS: &messaging.APNSConfig{
			Payload: &messaging.APNSPayload{
				Aps: &messaging.Aps{
					Alert: &messaging.ApsAlert{
						Title: n.Title,
						Body:  n.Body,
					},
					Badge:    n.Badge,
					ThreadID: n.CollapseKey,
					Sound:    "default",
				},
			},
		},
		Webpush: &messaging.WebpushConfig{
			Notification: &messaging.WebpushNotification{
				Title: n.Title,
				Body:  n.Body,
				Tag:   n.Tag,
			},
		},
	}
}
