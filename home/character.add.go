package home

import (
	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/events"
	"github.com/leeineian/homework/sys"
	"github.com/leeineian/homework/task"
)

// handleCharacterAdd creates the record on first use, seeded with the default
// characters, and opens the checklist on the new character.
func (h *handlers) handleCharacterAdd(event *events.ApplicationCommandInteractionCreate, data discord.SlashCommandInteractionData) {
	name := data.String("name")
	userID := event.User().ID

	ctx, cancel := h.ctx()
	defer cancel()

	rec, err := h.Repo.Update(ctx, userID, true, func(rec *task.Record) error {
		return rec.AddCharacter(name, h.Repo.Catalog())
	})
	if err != nil {
		logUnexpected(err)
		respond(event, userMessage(err))
		return
	}

	page := rec.Index(name)
	sys.LogHomework(sys.MsgCharacterAdded, userID, name)
	if err := event.CreateMessage(checklistMessage(rec, h.Repo.Catalog(), page, sys.MsgCharacterAddedNotice)); err != nil {
		sys.LogHomework(sys.MsgHomeworkRespondError, err)
	}
}
