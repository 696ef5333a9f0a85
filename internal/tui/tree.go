package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/leo/herd/internal/agent"
	"github.com/leo/herd/internal/scheduler"
)

// ItemKind distinguishes session headers from pane entries.
type ItemKind int

const (
	KindSession ItemKind = iota
	KindPane
)

// TreeItem is one visible row in the flattened tree.
type TreeItem struct {
	Kind         ItemKind
	SessionIndex int
	PaneIndex    int
}

// sessionGroup is one tmux session and the UiSessions (panes) inside it,
// in the order FlattenTree should render them.
type sessionGroup struct {
	name    string
	indices []int // indices into the original []scheduler.UiSession slice
}

func groupBySession(sessions []scheduler.UiSession) []sessionGroup {
	var groups []sessionGroup
	byName := make(map[string]int)
	for i, s := range sessions {
		if idx, ok := byName[s.SessionName]; ok {
			groups[idx].indices = append(groups[idx].indices, i)
			continue
		}
		byName[s.SessionName] = len(groups)
		groups = append(groups, sessionGroup{name: s.SessionName, indices: []int{i}})
	}
	return groups
}

// FlattenTree builds the visible flat list from the scheduler's session
// list, grouped by tmux session name. Session headers are always expanded
// and are not selectable.
func FlattenTree(sessions []scheduler.UiSession) []TreeItem {
	var items []TreeItem
	for gi, group := range groupBySession(sessions) {
		items = append(items, TreeItem{Kind: KindSession, SessionIndex: gi})
		for _, paneIdx := range group.indices {
			items = append(items, TreeItem{Kind: KindPane, PaneIndex: paneIdx})
		}
	}
	return items
}

// NextPane returns the index of the next KindPane item after from, or from if none.
func NextPane(items []TreeItem, from int) int {
	for i := from + 1; i < len(items); i++ {
		if items[i].Kind == KindPane {
			return i
		}
	}
	return from
}

// PrevPane returns the index of the previous KindPane item before from, or from if none.
func PrevPane(items []TreeItem, from int) int {
	for i := from - 1; i >= 0; i-- {
		if items[i].Kind == KindPane {
			return i
		}
	}
	return from
}

// NearestPane returns the closest KindPane to the given index.
// It clamps out-of-bounds indices, keeps the position if it's already a pane,
// otherwise tries the previous pane first (like Neovim dd), then next.
func NearestPane(items []TreeItem, from int) int {
	if len(items) == 0 {
		return 0
	}
	if from >= len(items) {
		from = len(items) - 1
	}
	if from < 0 {
		from = 0
	}
	if items[from].Kind == KindPane {
		return from
	}
	if prev := PrevPane(items, from); prev != from {
		return prev
	}
	if next := NextPane(items, from); next != from {
		return next
	}
	return 0
}

// FirstPane returns the index of the first KindPane item, or 0 if none.
func FirstPane(items []TreeItem) int {
	for i, it := range items {
		if it.Kind == KindPane {
			return i
		}
	}
	return 0
}

// FirstAttentionPane returns the index of the first pane whose status needs
// attention (Stalled or Waiting), falling back to FirstPane if none do.
func FirstAttentionPane(items []TreeItem, sessions []scheduler.UiSession) int {
	for i, it := range items {
		if it.Kind == KindPane && needsAttention(sessions[it.PaneIndex].Status) {
			return i
		}
	}
	return FirstPane(items)
}

func needsAttention(status agent.AgentStatus) bool {
	return status == agent.StatusStalled || status == agent.StatusWaiting
}

// RenderTreeItem renders a single row.
func RenderTreeItem(item TreeItem, sessions []scheduler.UiSession, groups []sessionGroup, selected bool, width int) string {
	switch item.Kind {
	case KindSession:
		group := groups[item.SessionIndex]
		avail := width - 2
		name := group.name
		name = truncate(name, avail)
		text := " " + name
		text += strings.Repeat(" ", max(width-len(text), 0))
		return workspaceStyle.Render(text)

	case KindPane:
		s := sessions[item.PaneIndex]
		label := fmt.Sprintf("%d:%d %s", s.WindowIndex, s.PaneIndex, s.AgentName)
		elapsed := formatElapsed(time.Since(time.Unix(s.LastUpdateUnix, 0)))

		prefix := "   "
		right := " " + elapsed + " "
		middle := label
		if s.Herded {
			middle = "herd " + middle
		}
		avail := width - len(prefix) - 2 - len(right)
		if len(middle) > avail {
			middle = truncate(middle, avail)
		}
		gap := max(avail-len(middle), 0)

		if selected {
			icon := statusIconSelected(s.Status)
			return selectedStyle.Render(prefix) + icon + selectedStyle.Render(" "+middle+strings.Repeat(" ", gap)+right)
		}
		icon := statusIcon(s.Status)
		return paneItemStyle.Render(prefix) + icon + paneItemStyle.Render(" "+middle) + dimStyle.Render(strings.Repeat(" ", gap)+right)
	}
	return ""
}

func statusIcon(status agent.AgentStatus) string {
	switch status {
	case agent.StatusRunning:
		return busyIconStyle.Render("●")
	case agent.StatusStalled, agent.StatusWaiting:
		return attentionIconStyle.Render("●")
	default:
		return paneItemStyle.Render("○")
	}
}

func statusIconSelected(status agent.AgentStatus) string {
	switch status {
	case agent.StatusRunning:
		return busyIconSelectedStyle.Render("●")
	case agent.StatusStalled, agent.StatusWaiting:
		return attentionIconSelectedStyle.Render("●")
	default:
		return idleIconSelectedStyle.Render("○")
	}
}

// truncate shortens s to maxLen, adding ellipsis if needed.
func truncate(s string, maxLen int) string {
	if maxLen <= 0 {
		return ""
	}
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}

// formatElapsed returns a human-readable short duration string.
func formatElapsed(d time.Duration) string {
	switch {
	case d < time.Minute:
		return fmt.Sprintf("%ds", int(d.Seconds()))
	case d < time.Hour:
		return fmt.Sprintf("%dm", int(d.Minutes()))
	case d < 24*time.Hour:
		h := int(d.Hours())
		m := int(d.Minutes()) % 60
		if m == 0 {
			return fmt.Sprintf("%dh", h)
		}
		return fmt.Sprintf("%dh%dm", h, m)
	default:
		return fmt.Sprintf("%dd", int(d.Hours())/24)
	}
}

// VisibleSlice returns the start index for scrolling the tree view.
func VisibleSlice(total, cursor, height int) int {
	if total <= height {
		return 0
	}
	start := 0
	if cursor >= height {
		start = cursor - height + 1
	}
	if start+height > total {
		start = total - height
	}
	return start
}
