package domain

import "time"

// UpdateMode define cómo se refresca un display: editar o reemplazar el mensaje.
type UpdateMode int

const (
	ModeEdit          UpdateMode = 1
	ModeReplaceDelete UpdateMode = 2
	ModeReplaceStrip  UpdateMode = 3
)

func (m UpdateMode) String() string {
	switch m {
	case ModeEdit:
		return "edit"
	case ModeReplaceDelete:
		return "replace"
	case ModeReplaceStrip:
		return "replace-strip"
	default:
		return "unknown"
	}
}

type TimestampMode string

const (
	TimestampsOff      TimestampMode = "off"
	TimestampsTime     TimestampMode = "time"
	TimestampsDate     TimestampMode = "date"
	TimestampsDateTime TimestampMode = "date+time"
	TimestampsRelative TimestampMode = "relative"
)

// GuildConfig: settings del servidor que afectan el render.
type GuildConfig struct {
	GuildID         string
	Mode            UpdateMode
	DisableMentions bool
	Timestamps      TimestampMode
}

// DisplayTarget vincula una cola con un mensaje remoto.
type DisplayTarget struct {
	QueueID   string
	ChannelID string
	MessageID string
	CreatedAt time.Time
}

// RankAnnotation es el rank cacheado de un miembro.
// Resolved=false significa que no tiene cuenta vinculada.
type RankAnnotation struct {
	Score    *int
	Unranked bool
	Resolved bool
}
