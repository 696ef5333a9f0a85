// Package notifier posts a Slack message when a herded pane needs human
// attention. The scheduler calls it when such a pane's process state
// transitions into Stalled or WaitingLong; the nudge count is not consulted.
package notifier

import (
	"fmt"

	"github.com/slack-go/slack"
)

// Notifier posts attention alerts to a Slack incoming webhook, rate
// limited per pane so a stuck session doesn't spam the channel every
// refresh cycle.
type Notifier struct {
	webhookURL  string
	cooldownSecs int64
	lastSentUnix map[string]int64
	postWebhook  func(url string, msg *slack.WebhookMessage) error
}

// New builds a Notifier posting to webhookURL, at most once every
// cooldownSecs per pane. An empty webhookURL disables sending.
func New(webhookURL string, cooldownSecs int64) *Notifier {
	return &Notifier{
		webhookURL:   webhookURL,
		cooldownSecs: cooldownSecs,
		lastSentUnix: make(map[string]int64),
		postWebhook:  slack.PostWebhook,
	}
}

// NotifyAttentionNeeded posts a message for paneID if the webhook is
// configured and the per-pane cooldown has elapsed. Returns whether a
// message was actually sent.
func (n *Notifier) NotifyAttentionNeeded(paneID, sessionName, reason string, nowUnix int64) (bool, error) {
	if n.webhookURL == "" {
		return false, nil
	}
	if last, ok := n.lastSentUnix[paneID]; ok && nowUnix-last < n.cooldownSecs {
		return false, nil
	}

	message := &slack.WebhookMessage{
		Text: fmt.Sprintf(":herd: *%s* (%s) needs attention: %s", sessionName, paneID, reason),
	}
	if err := n.postWebhook(n.webhookURL, message); err != nil {
		return false, fmt.Errorf("failed posting slack notification for %s: %w", paneID, err)
	}
	n.lastSentUnix[paneID] = nowUnix
	return true, nil
}
