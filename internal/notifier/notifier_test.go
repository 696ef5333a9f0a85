package notifier

import (
	"testing"

	"github.com/slack-go/slack"
)

func TestNotifyAttentionNeededSendsAndRespectsCooldown(t *testing.T) {
	n := New("https://hooks.slack.example/x", 60)
	var sent []string
	n.postWebhook = func(url string, msg *slack.WebhookMessage) error {
		sent = append(sent, msg.Text)
		return nil
	}

	ok, err := n.NotifyAttentionNeeded("%1", "work", "stalled past max nudges", 1000)
	if err != nil || !ok {
		t.Fatalf("expected first notify to send, got ok=%v err=%v", ok, err)
	}
	if len(sent) != 1 {
		t.Fatalf("got %d sent messages", len(sent))
	}

	ok, err = n.NotifyAttentionNeeded("%1", "work", "stalled past max nudges", 1030)
	if err != nil || ok {
		t.Fatalf("expected cooldown to suppress second notify, got ok=%v err=%v", ok, err)
	}

	ok, err = n.NotifyAttentionNeeded("%1", "work", "stalled past max nudges", 1070)
	if err != nil || !ok {
		t.Fatalf("expected notify after cooldown elapsed, got ok=%v err=%v", ok, err)
	}
}

func TestNotifyAttentionNeededDisabledWithoutWebhook(t *testing.T) {
	n := New("", 60)
	ok, err := n.NotifyAttentionNeeded("%1", "work", "reason", 1000)
	if err != nil || ok {
		t.Fatalf("expected disabled notifier to no-op, got ok=%v err=%v", ok, err)
	}
}
