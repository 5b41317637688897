package setup

import (
	"context"
	_ "embed"
	"fmt"
	"time"

	"go.uber.org/fx"
	"gopkg.in/yaml.v3"

	"github.com/nguyentranbao-ct/chat-notify/internal/models"
	"github.com/nguyentranbao-ct/chat-notify/internal/usecase"
	log "github.com/nguyentranbao-ct/chat-notify/pkg/logger/log"
)

//go:embed data/default_channels.yaml
var defaultChannelsData []byte

type DefaultChannel struct {
	Name    string             `yaml:"name"`
	Type    models.ChannelType `yaml:"type"`
	Private bool               `yaml:"private"`
}

func LoadDefaultChannels(data []byte) ([]DefaultChannel, error) {
	var channels []DefaultChannel
	if err := yaml.Unmarshal(data, &channels); err != nil {
		return nil, fmt.Errorf("failed to unmarshal default channels: %w", err)
	}
	for i, ch := range channels {
		if ch.Name == "" {
			return nil, fmt.Errorf("default channel #%d has no name", i)
		}
		if ch.Type == "" {
			channels[i].Type = models.ChannelTypeGroup
		}
	}
	return channels, nil
}

// EnsureDefaultChannels creates every channel of the embedded list that does
// not exist yet, looked up by name.
func EnsureDefaultChannels(ctx context.Context, membership usecase.MembershipUsecase, channels []DefaultChannel) error {
	for _, ch := range channels {
		channel, created, err := membership.EnsureChannel(ctx, usecase.CreateChannelParams{
			Name:    ch.Name,
			Type:    ch.Type,
			Private: ch.Private,
		})
		if err != nil {
			return fmt.Errorf("failed to ensure channel '%s': %w", ch.Name, err)
		}
		if created {
			log.Infow(ctx, "Created default channel", "channel_id", channel.ID, "name", ch.Name)
		} else {
			log.Debugw(ctx, "Channel already exists", "channel_id", channel.ID, "name", ch.Name)
		}
	}
	return nil
}

// SetupChannels registers the default channel bootstrap on application start.
func SetupChannels(lc fx.Lifecycle, membership usecase.MembershipUsecase) {
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			channels, err := LoadDefaultChannels(defaultChannelsData)
			if err != nil {
				return err
			}
			log.Debugw(ctx, "Loaded channels from YAML", "count", len(channels))
			return EnsureDefaultChannels(ctx, membership, channels)
		},
	})
}
