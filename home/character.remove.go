package home

import (
	"fmt"

	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/events"
	"github.com/leeineian/homework/sys"
	"github.com/leeineian/homework/task"
)

func (h *handlers) handleCharacterRemove(event *events.ApplicationCommandInteractionCreate, data discord.SlashCommandInteractionData) {
	name := data.String("name")
	userID := event.User().ID

	ctx, cancel := h.ctx()
	defer cancel()

	rec, err := h.Repo.Update(ctx, userID, false, func(rec *task.Record) error {
		return rec.RemoveCharacter(name)
	})
	if err != nil {
		logUnexpected(err)
		respond(event, userMessage(err))
		return
	}

	sys.LogHomework(sys.MsgCharacterRemoved, userID, name)
	notice := fmt.Sprintf(sys.MsgCharacterRemovedNotice, name)
	if len(rec.Characters) == 0 {
		respond(event, notice)
		return
	}
	if err := event.CreateMessage(checklistMessage(rec, h.Repo.Catalog(), 0, notice)); err != nil {
		sys.LogHomework(sys.MsgHomeworkRespondError, err)
	}
}
