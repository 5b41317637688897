package usecase

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"google.golang.org/grpc/codes"

	"github.com/nguyentranbao-ct/chat-notify/internal/config"
	"github.com/nguyentranbao-ct/chat-notify/internal/models"
	"github.com/nguyentranbao-ct/chat-notify/internal/repo/mongodb"
	"github.com/nguyentranbao-ct/chat-notify/internal/repo/redis"
	log "github.com/nguyentranbao-ct/chat-notify/pkg/logger/log"
	"github.com/nguyentranbao-ct/chat-notify/pkg/tmplx"
	"github.com/nguyentranbao-ct/chat-notify/pkg/util"
)

// FanOutUsecase announces a new message to every member of its channel
// except the author.
type FanOutUsecase interface {
	FanOut(ctx context.Context, job models.FanOutJob) (*models.FanOutReport, error)
}

type titleData struct {
	SenderName  string
	ChannelName string
	Content     string
}

type fanOutUsecase struct {
	channelRepo mongodb.ChannelRepository
	memberRepo  mongodb.MemberRepository
	userRepo    mongodb.UserRepository
	readState   ReadStateUsecase
	sender      NotificationSender
	dedup       redis.Deduplicator
	title       *tmplx.Template
	duration    *prometheus.HistogramVec
	deliveries  *prometheus.CounterVec
}

func NewFanOutUsecase(
	conf *config.Config,
	channelRepo mongodb.ChannelRepository,
	memberRepo mongodb.MemberRepository,
	userRepo mongodb.UserRepository,
	readState ReadStateUsecase,
	sender NotificationSender,
	dedup redis.Deduplicator,
) (FanOutUsecase, error) {
	title, err := tmplx.Parse("notification_title", conf.Notification.TitleTemplate,
		tmplx.WithValidate(titleData{SenderName: "a", ChannelName: "b"}, func(buf *bytes.Buffer) error {
			if strings.TrimSpace(buf.String()) == "" {
				return errors.New("title renders empty")
			}
			return nil
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("parse title template: %w", err)
	}
	duration, err := util.GetHistogramVec("fanout_duration_seconds", "code")
	if err != nil {
		return nil, fmt.Errorf("get histogram vec: %w", err)
	}
	deliveries, err := util.GetCounterVec("fanout_tokens_total", "status")
	if err != nil {
		return nil, fmt.Errorf("get counter vec: %w", err)
	}
	return &fanOutUsecase{
		channelRepo: channelRepo,
		memberRepo:  memberRepo,
		userRepo:    userRepo,
		readState:   readState,
		sender:      sender,
		dedup:       dedup,
		title:       title,
		duration:    duration,
		deliveries:  deliveries,
	}, nil
}

func (uc *fanOutUsecase) FanOut(ctx context.Context, job models.FanOutJob) (report *models.FanOutReport, err error) {
	start := time.Now()
	defer func() {
		code := codes.OK
		if err != nil {
			code = models.AsError(err).Code
		}
		uc.duration.WithLabelValues(code.String()).Observe(time.Since(start).Seconds())
	}()

	report = &models.FanOutReport{ChannelID: job.ChannelID, MessageID: job.MessageID}

	key := job.DedupKey()
	first, err := uc.dedup.Claim(ctx, key)
	if err != nil {
		log.Warnw(ctx, "fan-out dedup unavailable, continuing", "key", key, "error", err)
		first = true
	}
	if !first {
		log.Infow(ctx, "fan-out already done", "key", key)
		report.Skipped = true
		return report, nil
	}

	if err := uc.fanOut(ctx, job, report); err != nil {
		// let a redelivery try again
		if rerr := uc.dedup.Release(ctx, key); rerr != nil {
			log.Warnw(ctx, "failed to release fan-out claim", "key", key, "error", rerr)
		}
		return report, err
	}

	log.Infow(ctx, "fan-out finished",
		"channel_id", job.ChannelID,
		"message_id", job.MessageID,
		"recipients", report.Recipients,
		"delivered", report.Delivered,
		"failed", report.Failed,
	)
	return report, nil
}

func (uc *fanOutUsecase) fanOut(ctx context.Context, job models.FanOutJob, report *models.FanOutReport) error {
	channel, err := uc.channelRepo.GetByID(ctx, job.ChannelID)
	if err != nil {
		return models.UpstreamFailure(err)
	}
	members, err := uc.memberRepo.ListByChannel(ctx, job.ChannelID)
	if err != nil {
		return models.UpstreamFailure(err)
	}

	title, err := uc.title.RenderString(titleData{
		SenderName:  uc.senderName(ctx, job.SenderID),
		ChannelName: channel.Name,
		Content:     job.Content,
	})
	if err != nil {
		return fmt.Errorf("render title: %w", err)
	}

	for _, member := range members {
		if member.UserID == job.SenderID || !member.Active {
			continue
		}
		report.Recipients++

		delivered, failed, err := uc.notifyMember(ctx, member.UserID, job, title)
		if err != nil {
			log.Warnw(ctx, "failed to notify member", "channel_id", job.ChannelID, "user_id", member.UserID, "error", err)
			report.Failures = append(report.Failures, member.UserID)
		}
		report.Delivered += delivered
		report.Failed += failed
	}
	return nil
}

func (uc *fanOutUsecase) senderName(ctx context.Context, senderID string) string {
	sender, err := uc.userRepo.GetByID(ctx, senderID)
	if err != nil {
		if !errors.Is(err, models.ErrNotFound) {
			log.Warnw(ctx, "failed to load sender", "user_id", senderID, "error", err)
		}
		return senderID
	}
	if sender.DisplayName == "" {
		return senderID
	}
	return sender.DisplayName
}

func (uc *fanOutUsecase) notifyMember(ctx context.Context, userID string, job models.FanOutJob, title string) (int, int, error) {
	user, err := uc.userRepo.GetByID(ctx, userID)
	if errors.Is(err, models.ErrNotFound) {
		return 0, 0, nil
	}
	if err != nil {
		return 0, 0, fmt.Errorf("load recipient: %w", err)
	}
	if len(user.Tokens) == 0 {
		return 0, 0, nil
	}

	var badge *int
	if n, err := uc.readState.BadgeCount(ctx, userID); err != nil {
		log.Warnw(ctx, "failed to compute badge", "user_id", userID, "error", err)
	} else {
		badge = util.Ptr(n)
	}

	n := models.Notification{
		Title:       title,
		Body:        job.Content,
		Badge:       badge,
		CollapseKey: job.ChannelID,
		Tag:         job.MessageID,
		Data: map[string]string{
			"userId": job.SenderID,
			"chatId": job.ChannelID,
			"type":   "chat",
		},
	}
	delivered, failed := deliver(ctx, uc.sender, uc.userRepo, uc.deliveries, userID, user.Tokens, n)
	return delivered, failed, nil
}

// deliver sends n to tokens and drops tokens the provider reports as no
// longer registered.
func deliver(
	ctx context.Context,
	sender NotificationSender,
	userRepo mongodb.UserRepository,
	counter *prometheus.CounterVec,
	userID string,
	tokens []string,
	n models.Notification,
) (delivered, failed int) {
	for _, r := range sender.Send(ctx, tokens, n) {
		if r.OK() {
			delivered++
			counter.WithLabelValues("delivered").Inc()
			continue
		}
		failed++
		counter.WithLabelValues("failed").Inc()
		log.Warnw(ctx, "push delivery failed", "user_id", userID, "unregistered", r.Unregistered, "error", r.Error)
		if r.Unregistered {
			if err := userRepo.RemoveToken(ctx, userID, r.Token); err != nil {
				log.Warnw(ctx, "failed to drop stale token", "user_id", userID, "error", err)
			}
		}
	}
	return delivered, failed
}
