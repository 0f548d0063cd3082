package server

import (
	"strings"
	"testing"

	protocol "github.com/tliron/glsp/protocol_3_16"
)

// ---------------------------------------------------------------------------
// Diagnostics
// ---------------------------------------------------------------------------

func TestDiagnostics_Clean(t *testing.T) {
	diags := diagnosticsFor("++[>+<-] comments are fine")
	if len(diags) != 0 {
		t.Errorf("expected no diagnostics, got %+v", diags)
	}
	if diags == nil {
		t.Error("diagnostics must be an empty slice, not nil, so clients clear old markers")
	}
}

func TestDiagnostics_UnexpectedClose(t *testing.T) {
	diags := diagnosticsFor("+\n+-]")
	if len(diags) != 1 {
		t.Fatalf("expected 1 diagnostic, got %d", len(diags))
	}
	d := diags[0]
	want := protocol.Range{
		Start: protocol.Position{Line: 1, Character: 2},
		End:   protocol.Position{Line: 1, Character: 3},
	}
	if d.Range != want {
		t.Errorf("range = %+v, want %+v", d.Range, want)
	}
	if !strings.Contains(d.Message, "unexpected closing bracket") {
		t.Errorf("message = %q", d.Message)
	}
	if d.Severity == nil || *d.Severity != protocol.DiagnosticSeverityError {
		t.Error("severity should be Error")
	}
	if d.Source == nil || *d.Source != lspName {
		t.Errorf("source = %v, want %s", d.Source, lspName)
	}
}

func TestDiagnostics_Unterminated(t *testing.T) {
	// The outer loop is the one left open.
	diags := diagnosticsFor("+\n  [[-]\n")
	if len(diags) != 1 {
		t.Fatalf("expected 1 diagnostic, got %d", len(diags))
	}
	start := diags[0].Range.Start
	if start.Line != 1 || start.Character != 2 {
		t.Errorf("start = %+v, want line 1 character 2", start)
	}
	if !strings.Contains(diags[0].Message, "missing closing bracket") {
		t.Errorf("message = %q", diags[0].Message)
	}
}

func TestDiagnostics_NonASCIIComment(t *testing.T) {
	diags := diagnosticsFor("héllo ]")
	if len(diags) != 1 {
		t.Fatalf("expected 1 diagnostic, got %d", len(diags))
	}
	if got := diags[0].Range.Start.Character; got != 6 {
		t.Errorf("character = %d, want 6", got)
	}
}

// ---------------------------------------------------------------------------
// Position helpers
// ---------------------------------------------------------------------------

func TestOffsetAt(t *testing.T) {
	text := "ab\ncd\n\nxé+"
	tests := []struct {
		line, char protocol.UInteger
		want       int
		ok         bool
	}{
		{0, 0, 0, true},
		{0, 1, 1, true},
		{0, 2, 0, false}, // end of line
		{1, 1, 4, true},
		{2, 0, 0, false}, // empty line
		{3, 2, 10, true}, // after a two-byte rune
		{3, 3, 0, false}, // end of text
		{9, 0, 0, false}, // past last line
	}
	for _, tt := range tests {
		got, ok := offsetAt(text, protocol.Position{Line: tt.line, Character: tt.char})
		if ok != tt.ok || (ok && got != tt.want) {
			t.Errorf("offsetAt(%d:%d) = %d, %v; want %d, %v", tt.line, tt.char, got, ok, tt.want, tt.ok)
		}
	}
}

func TestPositionOf(t *testing.T) {
	text := "ab\nxé+"
	tests := []struct {
		offset int
		want   protocol.Position
	}{
		{0, protocol.Position{Line: 0, Character: 0}},
		{3, protocol.Position{Line: 1, Character: 0}},
		{6, protocol.Position{Line: 1, Character: 2}},
		{100, protocol.Position{Line: 1, Character: 3}},
	}
	for _, tt := range tests {
		if got := positionOf(text, tt.offset); got != tt.want {
			t.Errorf("positionOf(%d) = %+v, want %+v", tt.offset, got, tt.want)
		}
	}
}

func TestMatchBracket(t *testing.T) {
	text := "[a[b]c]]"
	tests := []struct {
		offset int
		want   int
		ok     bool
	}{
		{0, 6, true},
		{2, 4, true},
		{4, 2, true},
		{6, 0, true},
		{7, 0, false},
		{1, 0, false},
	}
	for _, tt := range tests {
		got, ok := matchBracket(text, tt.offset)
		if ok != tt.ok || (ok && got != tt.want) {
			t.Errorf("matchBracket(%d) = %d, %v; want %d, %v", tt.offset, got, ok, tt.want, tt.ok)
		}
	}
}

// ---------------------------------------------------------------------------
// Hover
// ---------------------------------------------------------------------------

func hoverText(t *testing.T, h *protocol.Hover) string {
	t.Helper()
	mc, ok := h.Contents.(protocol.MarkupContent)
	if !ok {
		t.Fatalf("hover contents are %T, want MarkupContent", h.Contents)
	}
	return mc.Value
}

func TestHover_Command(t *testing.T) {
	h := hoverAt("x+.", protocol.Position{Line: 0, Character: 1})
	if h == nil {
		t.Fatal("expected hover for +")
	}
	if v := hoverText(t, h); !strings.Contains(v, "increment") {
		t.Errorf("hover = %q", v)
	}
	if h.Range == nil || h.Range.Start.Character != 1 || h.Range.End.Character != 2 {
		t.Errorf("range = %+v", h.Range)
	}
}

func TestHover_Comment(t *testing.T) {
	if h := hoverAt("x+.", protocol.Position{Line: 0, Character: 0}); h != nil {
		t.Errorf("expected no hover on a comment, got %+v", h)
	}
}

func TestHover_Bracket(t *testing.T) {
	text := "+\n[-\n]"
	h := hoverAt(text, protocol.Position{Line: 1, Character: 0})
	if h == nil {
		t.Fatal("expected hover for [")
	}
	if v := hoverText(t, h); !strings.Contains(v, "matches `]` at line 3, column 1") {
		t.Errorf("hover = %q", v)
	}

	h = hoverAt("+]", protocol.Position{Line: 0, Character: 1})
	if h == nil {
		t.Fatal("expected hover for ]")
	}
	if v := hoverText(t, h); !strings.Contains(v, "unmatched") {
		t.Errorf("hover = %q", v)
	}
}

func TestHover_OutOfRange(t *testing.T) {
	if h := hoverAt("+", protocol.Position{Line: 4, Character: 0}); h != nil {
		t.Errorf("expected nil hover past the document, got %+v", h)
	}
}
