// Package proc runs the background daemons: the hourly alert, the reset
// sweeper, personal nudges and the presence rotator.
package proc

import (
	"context"
	"errors"
	"net/http"
	"sync"

	"github.com/disgoorg/disgo/bot"
	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/rest"
	"github.com/disgoorg/snowflake/v2"
	"github.com/leeineian/homework/alert"
	"github.com/leeineian/homework/sys"
	"github.com/leeineian/homework/task"
)

// Deps are the shared objects every daemon works against.
type Deps struct {
	Config   *sys.Config
	Repo     *task.Repository
	Channels *sys.Channels
}

// AlertConfig derives the alert schedule from the bot configuration.
func (d Deps) AlertConfig() alert.Config {
	return alert.Config{
		Minutes:   d.Config.AlertMinutes,
		BossHours: d.Config.BossHours,
		Window:    d.Config.AlertWindow,
		Location:  d.Config.Location,
	}
}

// Register installs the daemons; they start on the first Ready event.
func Register(l *sys.Loader, d Deps) {
	var once sync.Once
	l.OnClientReady(func(ctx context.Context, client *bot.Client) {
		once.Do(func() {
			l.RegisterDaemon("Alert Scheduler", sys.LogAlert, func(ctx context.Context) (bool, func(), func()) {
				return StartAlertScheduler(ctx, client, d)
			})
			l.RegisterDaemon("Reset Sweeper", sys.LogReset, func(ctx context.Context) (bool, func(), func()) {
				return StartResetSweeper(ctx, client, d)
			})
			l.RegisterDaemon("Nudge Dispatcher", sys.LogNudge, func(ctx context.Context) (bool, func(), func()) {
				return StartNudgeDispatcher(ctx, client, d)
			})
			l.RegisterDaemon("Status Rotator", sys.LogStatus, func(ctx context.Context) (bool, func(), func()) {
				return StartStatusRotator(ctx, client, d)
			})
		})
	})
}

// textMessage builds a Components V2 container holding one text block and
// any extra rows.
func textMessage(content string, rows ...discord.ContainerSubComponent) discord.MessageCreate {
	return discord.NewMessageCreateBuilder().
		SetIsComponentsV2(true).
		AddComponents(sys.TextContainer(content, rows...)).
		Build()
}

func textUpdate(content string) discord.MessageUpdate {
	return discord.NewMessageUpdateBuilder().
		SetIsComponentsV2(true).
		AddComponents(sys.TextContainer(content)).
		Build()
}

// sendDM opens a DM channel with userID and posts content there.
func sendDM(ctx context.Context, client *bot.Client, userID snowflake.ID, content string) error {
	ch, err := client.Rest.CreateDMChannel(userID, rest.WithCtx(ctx))
	if err != nil {
		return err
	}
	_, err = client.Rest.CreateMessage(ch.ID(), textMessage(content), rest.WithCtx(ctx))
	return err
}

// unknownMessageCode is Discord's JSON error code for a deleted message.
const unknownMessageCode = 10008

// IsMessageGone reports whether err means the target message no longer exists.
func IsMessageGone(err error) bool {
	var restErr *rest.Error
	if !errors.As(err, &restErr) {
		return false
	}
	if restErr.Code == unknownMessageCode {
		return true
	}
	return restErr.Response != nil && restErr.Response.StatusCode == http.StatusNotFound
}
