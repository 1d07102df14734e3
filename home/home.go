// Package home holds the slash commands and checklist buttons.
package home

import (
	"context"
	"errors"
	"time"

	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/rest"
	"github.com/leeineian/homework/sys"
	"github.com/leeineian/homework/task"
	"github.com/sho0pi/naturaltime"
)

// Deps are the shared objects every handler works against.
type Deps struct {
	Config   *sys.Config
	Repo     *task.Repository
	Channels *sys.Channels
	Parser   *naturaltime.Parser
}

type handlers struct {
	Deps
	loader *sys.Loader
}

// Register binds every command and button handler on l.
func Register(l *sys.Loader, d Deps) {
	h := &handlers{Deps: d, loader: l}

	h.registerCharacter()
	h.registerHomework()
	h.registerChannel()
	h.registerAlert()
	h.registerNudge()
}

// ctx bounds one interaction's storage work.
func (h *handlers) ctx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(h.loader.Context(), 10*time.Second)
}

type messageCreator interface {
	CreateMessage(messageCreate discord.MessageCreate, opts ...rest.RequestOpt) error
}

// respond sends an ephemeral text container.
func respond(event messageCreator, content string) {
	err := event.CreateMessage(discord.NewMessageCreateBuilder().
		SetIsComponentsV2(true).
		AddComponents(sys.TextContainer(content)).
		SetEphemeral(true).
		Build())
	if err != nil {
		sys.LogHomework(sys.MsgHomeworkRespondError, err)
	}
}

// userMessage turns a handler error into the text shown to the user.
func userMessage(err error) string {
	switch {
	case errors.Is(err, task.ErrCharacterExists):
		return sys.ErrCharacterExists
	case errors.Is(err, task.ErrCharacterNotFound):
		return sys.ErrCharacterNotFound
	case errors.Is(err, task.ErrInvalidName):
		return sys.ErrCharacterInvalidName
	case errors.Is(err, task.ErrNoCharacters), errors.Is(err, task.ErrNoRecord):
		return sys.ErrNoCharacters
	case errors.Is(err, task.ErrUnknownTask):
		return sys.ErrUnknownTask
	default:
		return sys.ErrGeneric
	}
}

// logUnexpected logs err unless it is one of the user-facing sentinels.
func logUnexpected(err error) {
	if userMessage(err) == sys.ErrGeneric {
		sys.LogHomework(sys.MsgHomeworkHandlerError, err)
	}
}
