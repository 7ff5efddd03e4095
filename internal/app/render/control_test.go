package render

import (
	"testing"

	"github.com/jose-valero/queue-display-bot/internal/domain"
)

func TestControlFor(t *testing.T) {
	if c := ControlFor(domain.ChannelVoice, false); c != nil {
		t.Fatalf("voice queue got control %+v", c)
	}
	if c := ControlFor(domain.ChannelText, true); c != nil {
		t.Fatalf("hidden control got %+v", c)
	}
	c := ControlFor(domain.ChannelText, false)
	if c == nil || c.CustomID != JoinLeaveID || c.Label != "Join / Leave" {
		t.Fatalf("unexpected control %+v", c)
	}
	c.Label = "mutated"
	if again := ControlFor(domain.ChannelText, false); again.Label != "Join / Leave" {
		t.Fatal("shared control was mutated")
	}
}
