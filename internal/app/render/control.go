package render

import "github.com/jose-valero/queue-display-bot/internal/domain"

// Control es el único botón que lleva un display.
type Control struct {
	CustomID string
	Label    string
}

// JoinLeaveID es el custom_id del toggle; el router lo enruta por el mensaje, no por la cola.
const JoinLeaveID = "joinLeave"

var joinLeave = Control{CustomID: JoinLeaveID, Label: "Join / Leave"}

// ControlFor: las colas de voz y las que ocultan el botón no llevan control.
func ControlFor(kind domain.ChannelKind, hide bool) *Control {
	if kind == domain.ChannelVoice || hide {
		return nil
	}
	c := joinLeave
	return &c
}
