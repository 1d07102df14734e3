package sys

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/disgoorg/disgo/discord"
)

// Checklist custom IDs. The acting user always comes from the interaction.
// Toggle IDs name the character so a stale message never lands on whoever
// slid into the same page; page IDs only steer navigation.
const (
	OpenCustomID   = "hw:open"
	TogglePrefix   = "hw:toggle:"
	PagePrefix     = "hw:page:"
	maxCustomIDLen = 100
)

// ToggleCustomID formats hw:toggle:<name>:<key>.
func ToggleCustomID(name, key string) string {
	return TogglePrefix + name + ":" + key
}

// PageCustomID formats hw:page:<page>:<delta>.
func PageCustomID(page, delta int) string {
	return PagePrefix + strconv.Itoa(page) + ":" + strconv.Itoa(delta)
}

// ParseToggleCustomID splits a toggle ID into character name and task key.
// Task keys never contain ':', so the last one separates them.
func ParseToggleCustomID(id string) (string, string, error) {
	rest, ok := strings.CutPrefix(id, TogglePrefix)
	if !ok || utf8.RuneCountInString(id) > maxCustomIDLen {
		return "", "", fmt.Errorf("not a toggle id: %q", id)
	}
	i := strings.LastIndex(rest, ":")
	if i <= 0 || i == len(rest)-1 {
		return "", "", fmt.Errorf("malformed toggle id: %q", id)
	}
	return rest[:i], rest[i+1:], nil
}

func ParsePageCustomID(id string) (int, int, error) {
	rest, ok := strings.CutPrefix(id, PagePrefix)
	if !ok {
		return 0, 0, fmt.Errorf("not a page id: %q", id)
	}
	pageStr, deltaStr, ok := strings.Cut(rest, ":")
	if !ok {
		return 0, 0, fmt.Errorf("malformed page id: %q", id)
	}
	page, err := strconv.Atoi(pageStr)
	if err != nil || page < 0 {
		return 0, 0, fmt.Errorf("malformed page in %q", id)
	}
	delta, err := strconv.Atoi(deltaStr)
	if err != nil {
		return 0, 0, fmt.Errorf("malformed delta in %q", id)
	}
	return page, delta, nil
}

// --- Builders ---

// TextContainer wraps content in a single-text container.
func TextContainer(content string, rows ...discord.ContainerSubComponent) discord.ContainerComponent {
	subs := append([]discord.ContainerSubComponent{discord.NewTextDisplay(content)}, rows...)
	return discord.NewContainer(subs...)
}

// OpenHomeworkRow is the button row that opens a fresh checklist view.
func OpenHomeworkRow() discord.ActionRowComponent {
	return discord.NewActionRow(
		discord.NewButton(discord.ButtonStylePrimary, MsgHomeworkOpenButton, OpenCustomID, "", 0),
	)
}
