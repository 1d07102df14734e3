package proc

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/disgoorg/disgo/bot"
	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/rest"
	"github.com/disgoorg/snowflake/v2"
	"github.com/leeineian/homework/alert"
	"github.com/leeineian/homework/sys"
	"github.com/robfig/cron/v3"
	"golang.org/x/time/rate"
)

var alertSchedulerRunning int32

// messageClient is the slice of the REST client the alert flow posts and edits through.
type messageClient interface {
	CreateMessage(channelID snowflake.ID, messageCreate discord.MessageCreate, opts ...rest.RequestOpt) (*discord.Message, error)
	UpdateMessage(channelID snowflake.ID, messageID snowflake.ID, messageUpdate discord.MessageUpdate, opts ...rest.RequestOpt) (*discord.Message, error)
}

// alertScheduler posts the hourly alert and expires it after the window.
type alertScheduler struct {
	messages messageClient
	dm       func(ctx context.Context, userID snowflake.ID, content string) error
	log      func(format string, v ...any)
	deps     Deps
	cfg      alert.Config
	limiter  *rate.Limiter

	mu     sync.Mutex
	timers map[snowflake.ID]*time.Timer
}

func newAlertScheduler(messages messageClient, dm func(context.Context, snowflake.ID, string) error, d Deps) *alertScheduler {
	return &alertScheduler{
		messages: messages,
		dm:       dm,
		log:      sys.LogAlert,
		deps:     d,
		cfg:      d.AlertConfig(),
		limiter:  rate.NewLimiter(rate.Limit(4), 10),
		timers:   make(map[snowflake.ID]*time.Timer),
	}
}

// StartAlertScheduler checks the alert minutes once a minute through cron.
func StartAlertScheduler(ctx context.Context, client *bot.Client, d Deps) (bool, func(), func()) {
	if len(d.Config.AlertMinutes) == 0 {
		return false, nil, nil
	}
	if !atomic.CompareAndSwapInt32(&alertSchedulerRunning, 0, 1) {
		return false, nil, nil
	}

	a := newAlertScheduler(client.Rest, func(ctx context.Context, userID snowflake.ID, content string) error {
		return sendDM(ctx, client, userID, content)
	}, d)

	c := cron.New(cron.WithLocation(d.Config.Location))
	if _, err := c.AddFunc("* * * * *", func() { a.tick(ctx, time.Now()) }); err != nil {
		sys.LogAlert(sys.MsgAlertScheduleFail, err)
		return false, nil, nil
	}

	return true, func() {
			c.Start()
			<-ctx.Done()
		}, func() {
			sys.LogAlert(sys.MsgDaemonShutdown, "Alert Scheduler")
			stopCtx := c.Stop()
			select {
			case <-stopCtx.Done():
			case <-time.After(5 * time.Second):
			}
			a.stopTimers()
		}
}

// tick posts the alert planned for now, if any, and reports whether one fired.
func (a *alertScheduler) tick(ctx context.Context, now time.Time) bool {
	planned, ok := alert.Plan(now, a.cfg)
	if !ok {
		return false
	}
	a.log(sys.MsgAlertFiring, planned.Target.Format("15:04"), planned.Boss)

	if channelID := a.deps.Channels.Get(sys.ChannelAlert); channelID != 0 {
		a.post(ctx, channelID, planned)
	} else {
		a.log(sys.MsgAlertNoChannel)
	}

	sys.SafeGo(func() { a.notifySubscribers(ctx, planned) })
	return true
}

// post sends the alert and arms one timer that marks it expired.
func (a *alertScheduler) post(ctx context.Context, channelID snowflake.ID, planned alert.Alert) {
	msg, err := a.messages.CreateMessage(channelID, textMessage(planned.Text()), rest.WithCtx(ctx))
	if err != nil {
		a.log(sys.MsgAlertSendFail, channelID, err)
		return
	}

	a.mu.Lock()
	a.timers[msg.ID] = time.AfterFunc(a.cfg.Window, func() {
		a.expire(ctx, channelID, msg.ID, planned)
	})
	a.mu.Unlock()
}

func (a *alertScheduler) expire(ctx context.Context, channelID, messageID snowflake.ID, planned alert.Alert) {
	a.mu.Lock()
	delete(a.timers, messageID)
	a.mu.Unlock()

	_, err := a.messages.UpdateMessage(channelID, messageID, textUpdate(planned.ExpiredText()), rest.WithCtx(ctx))
	switch {
	case err == nil:
		a.log(sys.MsgAlertExpired, messageID)
	case IsMessageGone(err):
	default:
		a.log(sys.MsgAlertEditFail, messageID, err)
	}
}

// pending reports how many expiry edits are still armed.
func (a *alertScheduler) pending() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.timers)
}

func (a *alertScheduler) stopTimers() {
	a.mu.Lock()
	defer a.mu.Unlock()
	for id, t := range a.timers {
		t.Stop()
		delete(a.timers, id)
	}
}

// notifySubscribers DMs the alert to every user with alerts switched on.
func (a *alertScheduler) notifySubscribers(ctx context.Context, planned alert.Alert) {
	records, err := a.deps.Repo.All(ctx)
	if err != nil {
		a.log(sys.MsgAlertSubscribersFail, err)
		return
	}

	sent := 0
	for _, rec := range records {
		if !rec.Alerts {
			continue
		}
		if err := a.limiter.Wait(ctx); err != nil {
			return
		}
		if err := a.dm(ctx, rec.UserID, planned.Text()); err != nil {
			a.log(sys.MsgAlertDMFail, rec.UserID, err)
			continue
		}
		sent++
	}
	if sent > 0 {
		a.log(sys.MsgAlertDMSent, sent)
	}
}
