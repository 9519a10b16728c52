package notifications

import (
	"sync"
	"time"

	"github.com/angelmondragon/medicarehub-backend/pkg/enums"
	"github.com/google/uuid"
)

const DefaultBannerTTL = 5 * time.Second

// Banner is an in-app, dismissible message.
type Banner struct {
	ID       string                 `json:"id"`
	Title    string                 `json:"title"`
	Message  string                 `json:"message"`
	Severity enums.NotificationType `json:"severity"`
	ShownAt  time.Time              `json:"shownAt"`
}

// BannerBoard holds at most one banner. Posting replaces the current banner;
// each banner expires after the TTL unless dismissed first.
type BannerBoard struct {
	mu       sync.Mutex
	ttl      time.Duration
	current  *Banner
	timer    *time.Timer
	onChange func(*Banner)
	now      func() time.Time
}

// NewBannerBoard builds a board. onChange, when set, observes every post and
// removal (nil means the board is empty).
func NewBannerBoard(ttl time.Duration, onChange func(*Banner)) *BannerBoard {
	if ttl <= 0 {
		ttl = DefaultBannerTTL
	}
	return &BannerBoard{ttl: ttl, onChange: onChange, now: time.Now}
}

// Post shows a banner and schedules its removal.
func (b *BannerBoard) Post(title, message string, severity enums.NotificationType) Banner {
	banner := Banner{
		ID:       uuid.NewString(),
		Title:    title,
		Message:  message,
		Severity: severity,
		ShownAt:  b.now().UTC(),
	}

	b.mu.Lock()
	if b.timer != nil {
		b.timer.Stop()
	}
	b.current = &banner
	id := banner.ID
	b.timer = time.AfterFunc(b.ttl, func() { b.Dismiss(id) })
	b.mu.Unlock()

	b.notify(&banner)
	return banner
}

// Current returns the active banner, if any.
func (b *BannerBoard) Current() (Banner, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.current == nil {
		return Banner{}, false
	}
	return *b.current, true
}

// Dismiss removes the banner when it is still the active one.
func (b *BannerBoard) Dismiss(id string) bool {
	b.mu.Lock()
	if b.current == nil || b.current.ID != id {
		b.mu.Unlock()
		return false
	}
	b.current = nil
	if b.timer != nil {
		b.timer.Stop()
		b.timer = nil
	}
	b.mu.Unlock()

	b.notify(nil)
	return true
}

// Stop cancels the pending expiry without emitting a change.
func (b *BannerBoard) Stop() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.timer != nil {
		b.timer.Stop()
		b.timer = nil
	}
}

func (b *BannerBoard) notify(banner *Banner) {
	if b.onChange == nil {
		return
	}
	if banner != nil {
		cp := *banner
		banner = &cp
	}
	b.onChange(banner)
}
