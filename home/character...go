package home

import (
	"strings"

	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/events"
	"github.com/leeineian/homework/sys"
)

func (h *handlers) registerCharacter() {
	nameOption := func(desc string, autocomplete bool) discord.ApplicationCommandOptionString {
		return discord.ApplicationCommandOptionString{
			Name:              "name",
			NameLocalizations: map[discord.Locale]string{discord.LocaleKorean: "닉네임"},
			Description:       desc,
			Required:          true,
			Autocomplete:      autocomplete,
		}
	}

	h.loader.RegisterCommand(discord.SlashCommandCreate{
		Name:                     "character",
		NameLocalizations:        map[discord.Locale]string{discord.LocaleKorean: "캐릭터"},
		Description:              "Manage your characters",
		DescriptionLocalizations: map[discord.Locale]string{discord.LocaleKorean: "캐릭터를 관리합니다."},
		Options: []discord.ApplicationCommandOption{
			discord.ApplicationCommandOptionSubCommand{
				Name:                     "add",
				NameLocalizations:        map[discord.Locale]string{discord.LocaleKorean: "추가"},
				Description:              "Add a character",
				DescriptionLocalizations: map[discord.Locale]string{discord.LocaleKorean: "캐릭터를 추가합니다."},
				Options:                  []discord.ApplicationCommandOption{nameOption("Character name to add", false)},
			},
			discord.ApplicationCommandOptionSubCommand{
				Name:                     "remove",
				NameLocalizations:        map[discord.Locale]string{discord.LocaleKorean: "제거"},
				Description:              "Remove a character",
				DescriptionLocalizations: map[discord.Locale]string{discord.LocaleKorean: "캐릭터를 제거합니다."},
				Options:                  []discord.ApplicationCommandOption{nameOption("Character name to remove", true)},
			},
			discord.ApplicationCommandOptionSubCommand{
				Name:                     "list",
				NameLocalizations:        map[discord.Locale]string{discord.LocaleKorean: "목록"},
				Description:              "List your characters",
				DescriptionLocalizations: map[discord.Locale]string{discord.LocaleKorean: "등록된 캐릭터 목록을 확인합니다."},
			},
		},
	}, func(event *events.ApplicationCommandInteractionCreate) {
		data := event.SlashCommandInteractionData()
		subCmd := data.SubCommandName
		if subCmd == nil {
			return
		}

		switch *subCmd {
		case "add":
			h.handleCharacterAdd(event, data)
		case "remove":
			h.handleCharacterRemove(event, data)
		case "list":
			h.handleCharacterList(event)
		}
	})

	h.loader.RegisterAutocompleteHandler("character", h.handleCharacterAutocomplete)
}

// handleCharacterAutocomplete suggests the user's own character names.
func (h *handlers) handleCharacterAutocomplete(event *events.AutocompleteInteractionCreate) {
	focused := ""
	for _, opt := range event.Data.Options {
		if opt.Focused {
			focused = strings.ToLower(opt.String())
			break
		}
	}

	ctx, cancel := h.ctx()
	defer cancel()

	var choices []discord.AutocompleteChoice
	if rec, err := h.Repo.Get(ctx, event.User().ID); err == nil {
		for _, name := range rec.Names() {
			if focused == "" || strings.Contains(strings.ToLower(name), focused) {
				choices = append(choices, discord.AutocompleteChoiceString{Name: name, Value: name})
			}
			if len(choices) >= 25 {
				break
			}
		}
	}

	if err := event.AutocompleteResult(choices); err != nil {
		sys.LogHomework(sys.MsgHomeworkRespondError, err)
	}
}
