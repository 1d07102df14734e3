package home

import (
	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/events"
	"github.com/leeineian/homework/sys"
	"github.com/leeineian/homework/task"
)

func (h *handlers) registerAlert() {
	h.loader.RegisterCommand(discord.SlashCommandCreate{
		Name:                     "alert",
		NameLocalizations:        map[discord.Locale]string{discord.LocaleKorean: "알림"},
		Description:              "Receive event alerts by DM",
		DescriptionLocalizations: map[discord.Locale]string{discord.LocaleKorean: "이벤트 알림을 DM으로 받습니다."},
		Options: []discord.ApplicationCommandOption{
			discord.ApplicationCommandOptionSubCommand{
				Name:                     "toggle",
				NameLocalizations:        map[discord.Locale]string{discord.LocaleKorean: "전환"},
				Description:              "Turn DM alerts on or off",
				DescriptionLocalizations: map[discord.Locale]string{discord.LocaleKorean: "DM 알림을 켜거나 끕니다."},
			},
		},
	}, h.handleAlertToggle)
}

func (h *handlers) handleAlertToggle(event *events.ApplicationCommandInteractionCreate) {
	userID := event.User().ID

	ctx, cancel := h.ctx()
	defer cancel()

	rec, err := h.Repo.Update(ctx, userID, true, func(rec *task.Record) error {
		rec.Alerts = !rec.Alerts
		return nil
	})
	if err != nil {
		logUnexpected(err)
		respond(event, userMessage(err))
		return
	}

	sys.LogAlert(sys.MsgAlertSubscription, userID, rec.Alerts)
	if rec.Alerts {
		respond(event, sys.MsgAlertEnabled)
	} else {
		respond(event, sys.MsgAlertDisabled)
	}
}
