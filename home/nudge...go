package home

import (
	"fmt"
	"time"

	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/events"
	"github.com/leeineian/homework/alert"
	"github.com/leeineian/homework/sys"
	"github.com/leeineian/homework/task"
	"github.com/sho0pi/naturaltime"
)

// NewParser builds the natural language parser used by /nudge set.
func NewParser() (*naturaltime.Parser, error) {
	return naturaltime.New()
}

func (h *handlers) registerNudge() {
	h.loader.RegisterCommand(discord.SlashCommandCreate{
		Name:                     "nudge",
		NameLocalizations:        map[discord.Locale]string{discord.LocaleKorean: "독촉"},
		Description:              "Get a DM of unfinished homework later",
		DescriptionLocalizations: map[discord.Locale]string{discord.LocaleKorean: "남은 숙제를 나중에 DM으로 알려줍니다."},
		Options: []discord.ApplicationCommandOption{
			discord.ApplicationCommandOptionSubCommand{
				Name:                     "set",
				NameLocalizations:        map[discord.Locale]string{discord.LocaleKorean: "설정"},
				Description:              "Schedule the nudge",
				DescriptionLocalizations: map[discord.Locale]string{discord.LocaleKorean: "독촉 시간을 설정합니다."},
				Options: []discord.ApplicationCommandOption{
					discord.ApplicationCommandOptionString{
						Name:              "when",
						NameLocalizations: map[discord.Locale]string{discord.LocaleKorean: "언제"},
						Description:       "When to nudge (e.g., 'in 2 hours', 'tonight at 11pm', '90m')",
						Required:          true,
					},
				},
			},
			discord.ApplicationCommandOptionSubCommand{
				Name:                     "clear",
				NameLocalizations:        map[discord.Locale]string{discord.LocaleKorean: "취소"},
				Description:              "Cancel the pending nudge",
				DescriptionLocalizations: map[discord.Locale]string{discord.LocaleKorean: "예약된 독촉을 취소합니다."},
			},
		},
	}, func(event *events.ApplicationCommandInteractionCreate) {
		data := event.SlashCommandInteractionData()
		subCmd := data.SubCommandName
		if subCmd == nil {
			return
		}

		switch *subCmd {
		case "set":
			h.handleNudgeSet(event, data)
		case "clear":
			h.handleNudgeClear(event)
		}
	})
}

func (h *handlers) handleNudgeSet(event *events.ApplicationCommandInteractionCreate, data discord.SlashCommandInteractionData) {
	now := h.Repo.Now()
	at, err := ParseWhen(h.Parser, data.String("when"), now)
	if err != nil {
		respond(event, sys.ErrNudgeParseFailed)
		return
	}
	if !at.After(now) {
		respond(event, sys.ErrNudgePastTime)
		return
	}

	ctx, cancel := h.ctx()
	defer cancel()

	userID := event.User().ID
	_, err = h.Repo.Update(ctx, userID, false, func(rec *task.Record) error {
		rec.NudgeAt = &at
		return nil
	})
	if err != nil {
		logUnexpected(err)
		respond(event, userMessage(err))
		return
	}

	sys.LogNudge(sys.MsgNudgeScheduled, userID, at.Format(time.RFC3339))
	respond(event, fmt.Sprintf(sys.MsgNudgeSetNotice, alert.Timestamp(at)))
}

func (h *handlers) handleNudgeClear(event *events.ApplicationCommandInteractionCreate) {
	ctx, cancel := h.ctx()
	defer cancel()

	hadNudge := false
	_, err := h.Repo.Update(ctx, event.User().ID, false, func(rec *task.Record) error {
		hadNudge = rec.NudgeAt != nil
		rec.NudgeAt = nil
		return nil
	})
	if err != nil {
		logUnexpected(err)
		respond(event, userMessage(err))
		return
	}

	if !hadNudge {
		respond(event, sys.MsgNudgeNonePending)
		return
	}
	respond(event, sys.MsgNudgeCleared)
}

// ParseWhen reads a natural language time, falling back to a Go duration.
func ParseWhen(p *naturaltime.Parser, input string, now time.Time) (time.Time, error) {
	if p != nil {
		if result, err := p.ParseDate(input, now); err == nil && result != nil {
			return *result, nil
		}
	}
	if d, err := time.ParseDuration(input); err == nil {
		return now.Add(d), nil
	}
	return time.Time{}, fmt.Errorf("could not parse time: %s", input)
}
