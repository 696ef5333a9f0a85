package tmux

import (
	"strings"
	"testing"
)

func TestParseOutputLineDecodesOctalSequences(t *testing.T) {
	line := `%output %1 hello\040world\012next`
	paneID, content, ok := parseControlOutputLine(line)
	if !ok {
		t.Fatal("line should parse")
	}
	if paneID != "%1" {
		t.Errorf("got pane id %q, want %%1", paneID)
	}
	if string(content) != "hello world\nnext" {
		t.Errorf("got content %q, want %q", content, "hello world\nnext")
	}
}

func TestParseExtendedOutputLineDecodesValueSection(t *testing.T) {
	line := `%extended-output %7 3 0 : \033[31mred\033[0m`
	paneID, content, ok := parseControlOutputLine(line)
	if !ok {
		t.Fatal("line should parse")
	}
	if paneID != "%7" {
		t.Errorf("got pane id %q, want %%7", paneID)
	}
	if string(content) != "\x1b[31mred\x1b[0m" {
		t.Errorf("got content %q", content)
	}
}

func TestDecodeNonOctalBackslashesAsLiteral(t *testing.T) {
	decoded := decodeTmuxEscapedValue(`path\\name\x`)
	if string(decoded) != `path\\name\x` {
		t.Errorf("got %q, want literal passthrough", decoded)
	}
}

func TestDetectsEmptyTargetErrorsButNotServerDown(t *testing.T) {
	if !isTmuxEmptyTargetError(`tmux ["list-panes"] failed: no current target`) {
		t.Error("expected 'no current target' to be an empty-target error")
	}
	if !isTmuxEmptyTargetError(`tmux ["list-panes"] failed: can't find session: alpha`) {
		t.Error("expected 'can't find session' to be an empty-target error")
	}
	if isTmuxEmptyTargetError(`tmux ["list-panes"] failed: no server running on /tmp/tmux-501/default`) {
		t.Error("server-down error should not be classified as empty-target")
	}
}

func TestParseListPanesOutputParsesDelimitedFields(t *testing.T) {
	fields := []string{"$1", "main", "@1", "0", "win", "%2", "1", "/home/leo", "zsh", "0", "1700000000"}
	line := strings.Join(fields, listPanesDelim)
	sessions, err := parseListPanesOutput(line)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(sessions) != 1 {
		t.Fatalf("got %d sessions, want 1", len(sessions))
	}
	s := sessions[0]
	if s.SessionName != "main" || s.PaneID != "%2" || s.PaneIndex != 1 || s.WindowIndex != 0 {
		t.Errorf("unexpected parsed session: %+v", s)
	}
	if s.PaneDead {
		t.Error("pane_dead should be false")
	}
	if s.PaneLastActivityUnix != 1700000000 {
		t.Errorf("got pane_last_activity_unix %d", s.PaneLastActivityUnix)
	}
}

func TestParseListPanesOutputRejectsWrongFieldCount(t *testing.T) {
	if _, err := parseListPanesOutput("too\tfew\tfields"); err == nil {
		t.Error("expected an error for malformed list-panes output")
	}
}
