package proc

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"sync/atomic"
	"time"

	"github.com/disgoorg/disgo/bot"
	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/gateway"
	"github.com/leeineian/homework/alert"
	"github.com/leeineian/homework/sys"
)

var statusRotatorRunning int32

func GetRotationInterval() time.Duration {
	return time.Duration(15+rand.Intn(46)) * time.Second
}

// StatusFunc produces one presence candidate; an empty string skips it.
type StatusFunc func(ctx context.Context, d Deps, now time.Time) string

type statusRotator struct {
	client     *bot.Client
	deps       Deps
	generators []StatusFunc

	mu       sync.Mutex
	lastText string
}

func StartStatusRotator(ctx context.Context, client *bot.Client, d Deps) (bool, func(), func()) {
	if !d.Config.StatusRotations {
		return false, nil, nil
	}
	if !atomic.CompareAndSwapInt32(&statusRotatorRunning, 0, 1) {
		return false, nil, nil
	}

	r := &statusRotator{
		client:     client,
		deps:       d,
		generators: []StatusFunc{GetBossStatus, GetTrackingStatus, GetResetStatus},
	}

	return true, func() {
			for {
				next := GetRotationInterval()
				r.update(ctx, next)
				select {
				case <-time.After(next):
				case <-ctx.Done():
					return
				}
			}
		}, func() {
			sys.LogStatus(sys.MsgDaemonShutdown, "Status Rotator")
		}
}

// pick chooses a candidate different from the last shown one when possible.
func (r *statusRotator) pick(candidates []string) string {
	r.mu.Lock()
	defer r.mu.Unlock()

	var fresh []string
	for _, s := range candidates {
		if s != r.lastText {
			fresh = append(fresh, s)
		}
	}
	selected := candidates[0]
	if len(fresh) > 0 {
		selected = fresh[rand.Intn(len(fresh))]
	}
	r.lastText = selected
	return selected
}

func (r *statusRotator) update(ctx context.Context, nextInterval time.Duration) {
	now := time.Now()
	var candidates []string
	for _, gen := range r.generators {
		if text := gen(ctx, r.deps, now); text != "" {
			candidates = append(candidates, text)
		}
	}
	if len(candidates) == 0 {
		return
	}

	selected := r.pick(candidates)
	err := r.client.SetPresence(ctx,
		gateway.WithOnlineStatus(discord.OnlineStatusOnline),
		gateway.WithPlayingActivity(selected),
	)
	if err != nil {
		sys.LogStatus(sys.MsgStatusUpdateFail, err)
		return
	}
	sys.LogStatus(sys.MsgStatusRotated, selected, nextInterval)
}

// Generators

func GetBossStatus(_ context.Context, d Deps, now time.Time) string {
	next, ok := alert.NextBoss(now, d.AlertConfig())
	if !ok {
		return ""
	}
	return fmt.Sprintf(sys.MsgStatusNextBoss, formatUntil(next.Target.Sub(now)))
}

func GetTrackingStatus(_ context.Context, d Deps, _ time.Time) string {
	n := d.Repo.CharacterCount()
	if n == 0 {
		return ""
	}
	return fmt.Sprintf(sys.MsgStatusTracking, n)
}

func GetResetStatus(_ context.Context, d Deps, now time.Time) string {
	next := d.Repo.Schedule().NextDaily(now)
	return fmt.Sprintf(sys.MsgStatusNextReset, formatUntil(next.Sub(now)))
}

func formatUntil(d time.Duration) string {
	if d < time.Minute {
		return "<1m"
	}
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	if h == 0 {
		return fmt.Sprintf("%dm", m)
	}
	return fmt.Sprintf("%dh %dm", h, m)
}
