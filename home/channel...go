package home

import (
	"fmt"

	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/events"
	"github.com/disgoorg/omit"
	"github.com/leeineian/homework/sys"
)

func (h *handlers) registerChannel() {
	adminPerm := discord.PermissionManageChannels

	h.loader.RegisterCommand(discord.SlashCommandCreate{
		Name:                     "channel",
		NameLocalizations:        map[discord.Locale]string{discord.LocaleKorean: "채널"},
		Description:              "Configure where alerts and homework posts go (Admin Only)",
		DescriptionLocalizations: map[discord.Locale]string{discord.LocaleKorean: "알림과 숙제 채널을 설정합니다."},
		DefaultMemberPermissions: omit.New(&adminPerm),
		Contexts: []discord.InteractionContextType{
			discord.InteractionContextTypeGuild,
		},
		Options: []discord.ApplicationCommandOption{
			discord.ApplicationCommandOptionSubCommand{
				Name:                     "set",
				NameLocalizations:        map[discord.Locale]string{discord.LocaleKorean: "설정"},
				Description:              "Route a post type to a channel",
				DescriptionLocalizations: map[discord.Locale]string{discord.LocaleKorean: "채널을 설정합니다."},
				Options: []discord.ApplicationCommandOption{
					discord.ApplicationCommandOptionString{
						Name:        "kind",
						Description: "Which posts to route",
						Required:    true,
						Choices: []discord.ApplicationCommandOptionChoiceString{
							{Name: "Alerts", NameLocalizations: map[discord.Locale]string{discord.LocaleKorean: "알림"}, Value: sys.ChannelAlert},
							{Name: "Homework", NameLocalizations: map[discord.Locale]string{discord.LocaleKorean: "숙제"}, Value: sys.ChannelHomework},
						},
					},
					discord.ApplicationCommandOptionChannel{
						Name:        "channel",
						Description: "Target channel",
						Required:    true,
						ChannelTypes: []discord.ChannelType{
							discord.ChannelTypeGuildText,
							discord.ChannelTypeGuildNews,
						},
					},
				},
			},
		},
	}, func(event *events.ApplicationCommandInteractionCreate) {
		data := event.SlashCommandInteractionData()
		if data.SubCommandName == nil || *data.SubCommandName != "set" {
			return
		}
		h.handleChannelSet(event, data)
	})
}

func (h *handlers) handleChannelSet(event *events.ApplicationCommandInteractionCreate, data discord.SlashCommandInteractionData) {
	kind := data.String("kind")
	ch, ok := data.OptChannel("channel")
	if !ok {
		respond(event, sys.ErrGeneric)
		return
	}

	if err := h.Channels.Set(kind, ch.ID); err != nil {
		sys.LogHomework(sys.MsgChannelSetFail, kind, err)
		respond(event, sys.ErrChannelSetFailed)
		return
	}

	sys.LogHomework(sys.MsgChannelSet, kind, ch.ID)
	respond(event, fmt.Sprintf(sys.MsgChannelSetNotice, kind, ch.ID))
}
