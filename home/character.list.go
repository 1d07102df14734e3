package home

import (
	"fmt"
	"strings"

	"github.com/disgoorg/disgo/events"
	"github.com/leeineian/homework/sys"
)

func (h *handlers) handleCharacterList(event *events.ApplicationCommandInteractionCreate) {
	ctx, cancel := h.ctx()
	defer cancel()

	rec, err := h.Repo.Get(ctx, event.User().ID)
	if err != nil {
		logUnexpected(err)
		respond(event, userMessage(err))
		return
	}
	if len(rec.Characters) == 0 {
		respond(event, sys.ErrNoCharacters)
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf(sys.MsgCharacterListHeader, len(rec.Characters)))
	for _, ch := range rec.Characters {
		done := len(h.Repo.Catalog().Defs()) - len(ch.Progress.Unfinished(h.Repo.Catalog()))
		sb.WriteString(fmt.Sprintf(sys.MsgCharacterListItem, ch.Name, done, len(h.Repo.Catalog().Defs())))
	}
	respond(event, sb.String())
}
