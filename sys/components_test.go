package sys

import (
	"strings"
	"testing"
)

func TestToggleCustomIDRoundTrip(t *testing.T) {
	for _, name := range []string{"Main", "닉:네임", strings.Repeat("가", 32)} {
		id := ToggleCustomID(name, "field_boss")
		if len([]rune(id)) > maxCustomIDLen {
			t.Fatalf("ToggleCustomID(%q) is %d runes long", name, len([]rune(id)))
		}
		gotName, key, err := ParseToggleCustomID(id)
		if err != nil || gotName != name || key != "field_boss" {
			t.Fatalf("ParseToggleCustomID(%q)=(%q, %q, %v)", id, gotName, key, err)
		}
	}
}

func TestParseToggleCustomIDRejectsMalformed(t *testing.T) {
	for _, id := range []string{
		"hw:page:1:1",
		"hw:toggle:",
		"hw:toggle:Main",
		"hw:toggle:Main:",
		"hw:toggle::raid",
		"hw:toggle:Main:" + strings.Repeat("k", 100),
	} {
		if _, _, err := ParseToggleCustomID(id); err == nil {
			t.Fatalf("ParseToggleCustomID(%q) accepted", id)
		}
	}
}

func TestPageCustomIDRoundTrip(t *testing.T) {
	for _, delta := range []int{-1, 0, 1} {
		page, got, err := ParsePageCustomID(PageCustomID(2, delta))
		if err != nil || page != 2 || got != delta {
			t.Fatalf("delta %d: got (%d, %d, %v)", delta, page, got, err)
		}
	}
	for _, id := range []string{"hw:page:", "hw:page:1", "hw:page:-2:1", "hw:page:1:x", "hw:open"} {
		if _, _, err := ParsePageCustomID(id); err == nil {
			t.Fatalf("ParsePageCustomID(%q) accepted", id)
		}
	}
}
