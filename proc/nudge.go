package proc

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/disgoorg/disgo/bot"
	"github.com/disgoorg/snowflake/v2"
	"github.com/leeineian/homework/sys"
	"github.com/leeineian/homework/task"
)

var (
	nudgeDispatcherRunning int32
	errNudgeNotDue         = errors.New("nudge not due")
)

// StartNudgeDispatcher DMs users whose nudge time has passed.
func StartNudgeDispatcher(ctx context.Context, client *bot.Client, d Deps) (bool, func(), func()) {
	if !atomic.CompareAndSwapInt32(&nudgeDispatcherRunning, 0, 1) {
		return false, nil, nil
	}

	return true, func() {
			ticker := time.NewTicker(30 * time.Second)
			defer ticker.Stop()

			for {
				select {
				case <-ticker.C:
					dispatchNudges(ctx, client, d)
				case <-ctx.Done():
					return
				}
			}
		}, func() {
			sys.LogNudge(sys.MsgDaemonShutdown, "Nudge Dispatcher")
		}
}

func dispatchNudges(parentCtx context.Context, client *bot.Client, d Deps) {
	ctx, cancel := context.WithTimeout(parentCtx, 30*time.Second)
	defer cancel()

	records, err := d.Repo.All(ctx)
	if err != nil {
		sys.LogNudge(sys.MsgNudgeQueryFail, err)
		return
	}

	now := d.Repo.Now()
	for _, rec := range records {
		if !rec.NudgeDue(now) {
			continue
		}
		claimed, err := claimNudge(ctx, d.Repo, rec.UserID, now)
		if err != nil {
			if !errors.Is(err, errNudgeNotDue) {
				sys.LogNudge(sys.MsgNudgeClaimFail, rec.UserID, err)
			}
			continue
		}
		sys.SafeGo(func() { sendNudge(parentCtx, client, d.Repo.Catalog(), claimed) })
	}
}

// claimNudge clears NudgeAt so a nudge is delivered at most once.
func claimNudge(ctx context.Context, repo *task.Repository, userID snowflake.ID, now time.Time) (*task.Record, error) {
	return repo.Update(ctx, userID, false, func(rec *task.Record) error {
		if !rec.NudgeDue(now) {
			return errNudgeNotDue
		}
		rec.NudgeAt = nil
		return nil
	})
}

func sendNudge(ctx context.Context, client *bot.Client, c *task.Catalog, rec *task.Record) {
	if err := sendDM(ctx, client, rec.UserID, NudgeText(rec, c)); err != nil {
		sys.LogNudge(sys.MsgNudgeSendFail, rec.UserID, err)
		return
	}
	sys.LogNudge(sys.MsgNudgeSent, rec.UserID)
}

// NudgeText lists the unfinished tasks of every character in rec.
func NudgeText(rec *task.Record, c *task.Catalog) string {
	var sb strings.Builder
	sb.WriteString(sys.MsgNudgeHeader)

	pending := 0
	for _, ch := range rec.Characters {
		open := ch.Progress.Unfinished(c)
		if len(open) == 0 {
			continue
		}
		pending++
		labels := make([]string, len(open))
		for i, def := range open {
			if def.Kind == task.Count {
				labels[i] = fmt.Sprintf("%s (%d/%d)", def.Label, ch.Progress.Remaining(def), def.Max)
			} else {
				labels[i] = def.Label
			}
		}
		sb.WriteString(fmt.Sprintf(sys.MsgNudgeCharacterLine, ch.Name, strings.Join(labels, ", ")))
	}

	if pending == 0 {
		return sys.MsgNudgeAllDone
	}
	return sb.String()
}
