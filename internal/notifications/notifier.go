package notifications

import (
	"context"

	"github.com/angelmondragon/medicarehub-backend/pkg/enums"
	"github.com/angelmondragon/medicarehub-backend/pkg/logger"
)

// AudioCue plays the alert sound.
type AudioCue interface {
	Play(ctx context.Context) error
}

// SystemChannel delivers OS-level notifications.
type SystemChannel interface {
	Send(ctx context.Context, title, body string) error
}

// Notifier fans one alert out to the audio cue, the system channel and the
// banner board. It never persists anything.
type Notifier struct {
	audio   AudioCue
	system  SystemChannel
	banners *BannerBoard
	logg    *logger.Logger
}

func NewNotifier(audio AudioCue, system SystemChannel, banners *BannerBoard, logg *logger.Logger) *Notifier {
	if banners == nil {
		banners = NewBannerBoard(DefaultBannerTTL, nil)
	}
	if logg == nil {
		logg = logger.Nop()
	}
	return &Notifier{audio: audio, system: system, banners: banners, logg: logg}
}

// Banners exposes the board for dismissal and rendering.
func (n *Notifier) Banners() *BannerBoard {
	return n.banners
}

// Show plays the cue, sends the system notification, then posts the banner.
// Cue and system failures are logged and do not stop the banner.
func (n *Notifier) Show(ctx context.Context, title, message string, severity enums.NotificationType) Banner {
	if !severity.IsValid() {
		severity = enums.NotificationTypeSuccess
	}
	if n.audio != nil {
		if err := n.audio.Play(ctx); err != nil {
			n.logg.Warn(n.logg.WithError(ctx, err), "audio cue failed")
		}
	}
	if n.system != nil {
		if err := n.system.Send(ctx, title, message); err != nil {
			n.logg.Warn(n.logg.WithError(ctx, err), "system notification failed")
		}
	}
	return n.banners.Post(title, message, severity)
}
