package ui

import "testing"

func TestNewPalette(t *testing.T) {
	p := NewPalette("#111111", "#222222", "#333333", "#444444", "#555555")

	if !p.title.GetBold() || p.title.GetMarginBottom() != 1 {
		t.Error("expected bold title with a bottom margin")
	}
	if !p.ok.GetBold() || !p.err.GetBold() {
		t.Error("expected bold ok and err styles")
	}
	if p.warn.GetBold() {
		t.Error("expected plain warn style")
	}
	if !p.help.GetItalic() {
		t.Error("expected italic help style")
	}
}
