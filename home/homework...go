package home

import (
	"fmt"
	"strings"

	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/events"
	"github.com/leeineian/homework/sys"
	"github.com/leeineian/homework/task"
)

const buttonsPerRow = 5

func (h *handlers) registerHomework() {
	h.loader.RegisterCommand(discord.SlashCommandCreate{
		Name:                     "homework",
		NameLocalizations:        map[discord.Locale]string{discord.LocaleKorean: "숙제"},
		Description:              "Open your homework checklist",
		DescriptionLocalizations: map[discord.Locale]string{discord.LocaleKorean: "숙제 체크리스트를 엽니다."},
		Options: []discord.ApplicationCommandOption{
			discord.ApplicationCommandOptionString{
				Name:              "character",
				NameLocalizations: map[discord.Locale]string{discord.LocaleKorean: "캐릭터"},
				Description:       "Character to open first",
				Required:          false,
				Autocomplete:      true,
			},
		},
	}, h.handleHomework)

	h.loader.RegisterAutocompleteHandler("homework", h.handleCharacterAutocomplete)
	h.loader.RegisterComponentHandler(sys.OpenCustomID, h.handleHomeworkOpen)
	h.loader.RegisterComponentHandler(sys.TogglePrefix, h.handleHomeworkToggle)
	h.loader.RegisterComponentHandler(sys.PagePrefix, h.handleHomeworkPage)
}

func (h *handlers) handleHomework(event *events.ApplicationCommandInteractionCreate) {
	data := event.SlashCommandInteractionData()

	ctx, cancel := h.ctx()
	defer cancel()

	rec, err := h.Repo.Get(ctx, event.User().ID)
	if err == nil && len(rec.Characters) == 0 {
		err = task.ErrNoCharacters
	}
	if err != nil {
		logUnexpected(err)
		respond(event, userMessage(err))
		return
	}

	page := 0
	if name, ok := data.OptString("character"); ok {
		if page = rec.Index(name); page < 0 {
			respond(event, sys.ErrCharacterNotFound)
			return
		}
	}

	if err := event.CreateMessage(checklistMessage(rec, h.Repo.Catalog(), page, "")); err != nil {
		sys.LogHomework(sys.MsgHomeworkRespondError, err)
	}
}

// --- Rendering ---

// checklistMessage is the ephemeral checklist opened on page.
func checklistMessage(rec *task.Record, c *task.Catalog, page int, notice string) discord.MessageCreate {
	return discord.NewMessageCreateBuilder().
		SetIsComponentsV2(true).
		AddComponents(checklistContainer(rec, c, page, notice)).
		SetEphemeral(true).
		Build()
}

func checklistUpdate(rec *task.Record, c *task.Catalog, page int, notice string) discord.MessageUpdate {
	return discord.NewMessageUpdateBuilder().
		SetIsComponentsV2(true).
		AddComponents(checklistContainer(rec, c, page, notice)).
		Build()
}

func checklistContainer(rec *task.Record, c *task.Catalog, page int, notice string) discord.ContainerComponent {
	n := len(rec.Characters)
	page = task.Cycle(page, 0, n)
	ch := rec.Characters[page]

	text := renderSummary(ch, c, page, n)
	if notice != "" {
		text = notice + "\n\n" + text
	}

	subs := []discord.ContainerSubComponent{
		discord.NewTextDisplay(text),
		discord.NewSeparator(discord.SeparatorSpacingSizeSmall).WithDivider(true),
	}

	defs := c.Defs()
	for i := 0; i < len(defs); i += buttonsPerRow {
		var rowButtons []discord.InteractiveComponent
		for _, d := range defs[i:min(i+buttonsPerRow, len(defs))] {
			rowButtons = append(rowButtons, taskButton(ch, d))
		}
		subs = append(subs, discord.NewActionRow(rowButtons...))
	}

	single := n < 2
	subs = append(subs, discord.NewActionRow(
		discord.NewButton(discord.ButtonStyleSecondary, "◀", sys.PageCustomID(page, -1), "", 0).WithDisabled(single),
		discord.NewButton(discord.ButtonStyleSecondary, "🔄", sys.PageCustomID(page, 0), "", 0),
		discord.NewButton(discord.ButtonStyleSecondary, "▶", sys.PageCustomID(page, 1), "", 0).WithDisabled(single),
	))

	return discord.NewContainer(subs...)
}

func taskButton(ch task.Character, d task.Def) discord.ButtonComponent {
	p := ch.Progress
	id := sys.ToggleCustomID(ch.Name, d.Key)
	label := buttonLabel(p, d)
	style := discord.ButtonStyleSecondary
	switch {
	case p.IsDone(d):
		style = discord.ButtonStyleSuccess
	case d.Kind == task.Count:
		style = discord.ButtonStylePrimary
	}
	return discord.NewButton(style, label, id, "", 0)
}

func buttonLabel(p task.Progress, d task.Def) string {
	label := d.Label
	if d.Kind == task.Count {
		label = fmt.Sprintf("%s %d/%d", d.Label, p.Remaining(d), d.Max)
	} else if p.IsDone(d) {
		label = "✅ " + d.Label
	}
	if d.Scope == task.Account {
		label = "🛒 " + label
	}
	return label
}

// renderSummary is the text block above the buttons for one character.
func renderSummary(ch task.Character, c *task.Catalog, page, n int) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf(sys.MsgHomeworkHeader, ch.Name, page+1, n))

	for _, period := range []task.Period{task.Daily, task.Weekly} {
		var lines []string
		for _, d := range c.Defs() {
			if d.Period != period {
				continue
			}
			mark := "⬜"
			if ch.Progress.IsDone(d) {
				mark = "✅"
			}
			line := fmt.Sprintf("%s %s", mark, d.Label)
			if d.Kind == task.Count {
				line += fmt.Sprintf(" (%d/%d)", ch.Progress.Remaining(d), d.Max)
			}
			lines = append(lines, line)
		}
		if len(lines) == 0 {
			continue
		}
		header := sys.MsgHomeworkDailyHeader
		if period == task.Weekly {
			header = sys.MsgHomeworkWeeklyHeader
		}
		sb.WriteString(header)
		sb.WriteString(strings.Join(lines, "\n"))
		sb.WriteString("\n")
	}
	return strings.TrimRight(sb.String(), "\n")
}

// --- Buttons ---

func (h *handlers) handleHomeworkOpen(event *events.ComponentInteractionCreate) {
	ctx, cancel := h.ctx()
	defer cancel()

	rec, err := h.Repo.Get(ctx, event.User().ID)
	if err == nil && len(rec.Characters) == 0 {
		err = task.ErrNoCharacters
	}
	if err != nil {
		logUnexpected(err)
		respond(event, userMessage(err))
		return
	}
	if err := event.CreateMessage(checklistMessage(rec, h.Repo.Catalog(), 0, "")); err != nil {
		sys.LogHomework(sys.MsgHomeworkRespondError, err)
	}
}

func (h *handlers) handleHomeworkToggle(event *events.ComponentInteractionCreate) {
	name, key, err := sys.ParseToggleCustomID(event.Data.CustomID())
	if err != nil {
		sys.LogHomework(sys.MsgHomeworkBadCustomID, err)
		return
	}

	ctx, cancel := h.ctx()
	defer cancel()

	var (
		page int
		used task.Def
	)
	rec, err := h.Repo.Update(ctx, event.User().ID, false, func(rec *task.Record) error {
		var err error
		page, used, err = rec.UseCharacter(name, key, h.Repo.Catalog())
		return err
	})
	if err != nil {
		logUnexpected(err)
		respond(event, userMessage(err))
		return
	}

	sys.LogHomework(sys.MsgHomeworkToggled, event.User().ID, name, used.Key)
	if err := event.UpdateMessage(checklistUpdate(rec, h.Repo.Catalog(), page, "")); err != nil {
		sys.LogHomework(sys.MsgHomeworkRespondError, err)
	}
}

func (h *handlers) handleHomeworkPage(event *events.ComponentInteractionCreate) {
	page, delta, err := sys.ParsePageCustomID(event.Data.CustomID())
	if err != nil {
		sys.LogHomework(sys.MsgHomeworkBadCustomID, err)
		return
	}

	ctx, cancel := h.ctx()
	defer cancel()

	rec, err := h.Repo.Get(ctx, event.User().ID)
	if err == nil && len(rec.Characters) == 0 {
		err = task.ErrNoCharacters
	}
	if err != nil {
		logUnexpected(err)
		respond(event, userMessage(err))
		return
	}

	next := task.Cycle(page, delta, len(rec.Characters))
	if err := event.UpdateMessage(checklistUpdate(rec, h.Repo.Catalog(), next, "")); err != nil {
		sys.LogHomework(sys.MsgHomeworkRespondError, err)
	}
}
