package proc

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/disgoorg/disgo/bot"
	"github.com/disgoorg/disgo/rest"
	"github.com/leeineian/homework/sys"
	"github.com/leeineian/homework/task"
	"github.com/robfig/cron/v3"
)

var resetSweeperRunning int32

// StartResetSweeper applies resets to every record at each daily boundary
// and announces them in the homework channel.
func StartResetSweeper(ctx context.Context, client *bot.Client, d Deps) (bool, func(), func()) {
	if !atomic.CompareAndSwapInt32(&resetSweeperRunning, 0, 1) {
		return false, nil, nil
	}

	sched := d.Repo.Schedule()
	c := cron.New()
	if _, err := c.AddFunc(sched.CronSpec(), func() { runReset(ctx, client, d, true) }); err != nil {
		sys.LogReset(sys.MsgResetScheduleFail, err)
		return false, nil, nil
	}

	return true, func() {
			// Catch up on boundaries crossed while the bot was offline.
			runReset(ctx, client, d, false)
			c.Start()
			<-ctx.Done()
		}, func() {
			sys.LogReset(sys.MsgDaemonShutdown, "Reset Sweeper")
			stopCtx := c.Stop()
			select {
			case <-stopCtx.Done():
			case <-time.After(5 * time.Second):
			}
		}
}

func runReset(parentCtx context.Context, client *bot.Client, d Deps, announce bool) {
	ctx, cancel := context.WithTimeout(parentCtx, time.Minute)
	defer cancel()

	n, err := d.Repo.Sweep(ctx)
	if err != nil {
		sys.LogReset(sys.MsgResetSweepFail, err)
		return
	}

	now := d.Repo.Now()
	sched := d.Repo.Schedule()
	weekly := sched.LastWeekly(now).Equal(sched.LastDaily(now))
	period := task.Daily
	if weekly {
		period = task.Weekly
	}
	sys.LogReset(sys.MsgResetSwept, period, n)

	if !announce {
		return
	}
	channelID := d.Channels.Get(sys.ChannelHomework)
	if channelID == 0 {
		return
	}

	notice := sys.MsgResetNoticeDaily
	if weekly {
		notice = sys.MsgResetNoticeWeekly
	}
	if _, err := client.Rest.CreateMessage(channelID, textMessage(notice, sys.OpenHomeworkRow()), rest.WithCtx(ctx)); err != nil {
		sys.LogReset(sys.MsgResetNoticeFail, channelID, err)
	}
}
