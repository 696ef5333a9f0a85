package tmux

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/leo/herd/internal/domain"
)

// parseControlOutputLine parses one line of `tmux -C` control-mode stdout,
// handling both %output and %extended-output notifications. Returns false
// if the line is not a pane-output notification.
func parseControlOutputLine(line string) (paneID string, content []byte, ok bool) {
	if rest, found := strings.CutPrefix(line, "%output "); found {
		id, value, found := strings.Cut(rest, " ")
		if !found {
			return "", nil, false
		}
		return id, decodeTmuxEscapedValue(value), true
	}
	if rest, found := strings.CutPrefix(line, "%extended-output "); found {
		id, metaAndValue, found := strings.Cut(rest, " ")
		if !found {
			return "", nil, false
		}
		var value string
		if _, v, found := strings.Cut(metaAndValue, " : "); found {
			value = v
		} else if _, v, found := strings.Cut(metaAndValue, ":"); found {
			value = v
		} else {
			return "", nil, false
		}
		return id, decodeTmuxEscapedValue(strings.TrimLeft(value, " ")), true
	}
	return "", nil, false
}

func isOctalByte(b byte) bool { return b >= '0' && b <= '7' }

// decodeTmuxEscapedValue undoes tmux's `\NNN` octal byte escaping of
// control-mode output, passing any other backslash sequence through
// literally.
func decodeTmuxEscapedValue(value string) []byte {
	decoded := make([]byte, 0, len(value))
	b := []byte(value)
	i := 0
	for i < len(b) {
		if b[i] == '\\' && i+3 < len(b) && isOctalByte(b[i+1]) && isOctalByte(b[i+2]) && isOctalByte(b[i+3]) {
			if parsed, err := strconv.ParseUint(value[i+1:i+4], 8, 8); err == nil {
				decoded = append(decoded, byte(parsed))
				i += 4
				continue
			}
		}
		decoded = append(decoded, b[i])
		i++
	}
	return decoded
}

// parseListPanesOutput parses `list-panes -F` output into session refs,
// tolerating the configured delimiter, a literal tab, or an escaped "\t" so
// it survives whichever quoting the shell that invoked tmux applied.
func parseListPanesOutput(output string) ([]domain.SessionRef, error) {
	var sessions []domain.SessionRef
	for _, line := range strings.Split(output, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		var parts []string
		switch {
		case strings.Contains(line, listPanesDelim):
			parts = strings.Split(line, listPanesDelim)
		case strings.Contains(line, "\t"):
			parts = strings.Split(line, "\t")
		case strings.Contains(line, `\t`):
			parts = strings.Split(line, `\t`)
		default:
			parts = []string{line}
		}
		if len(parts) != 11 {
			return nil, fmt.Errorf("unexpected list-panes field count %d, line: %s", len(parts), line)
		}

		windowIndex, err := strconv.ParseInt(parts[3], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid window_index value %q in line %q: %w", parts[3], line, err)
		}
		paneIndex, err := strconv.ParseInt(parts[6], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid pane_index value %q in line %q: %w", parts[6], line, err)
		}

		var paneDead bool
		switch parts[9] {
		case "0":
			paneDead = false
		case "1":
			paneDead = true
		default:
			return nil, fmt.Errorf("invalid pane_dead value %q in line: %s", parts[9], line)
		}

		paneLastActivity, err := strconv.ParseInt(parts[10], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid pane_last value %q in line %q: %w", parts[10], line, err)
		}

		sessions = append(sessions, domain.SessionRef{
			SessionID:            parts[0],
			SessionName:          parts[1],
			WindowID:             parts[2],
			WindowIndex:          windowIndex,
			WindowName:           parts[4],
			PaneID:               parts[5],
			PaneIndex:            paneIndex,
			PaneCurrentPath:      parts[7],
			PaneCurrentCommand:   parts[8],
			PaneDead:             paneDead,
			PaneLastActivityUnix: paneLastActivity,
		})
	}
	return sessions, nil
}
