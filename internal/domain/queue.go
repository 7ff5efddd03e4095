package domain

import (
	"errors"
	"time"
)

var (
	// ErrNotFound: la fila pedida no existe.
	ErrNotFound = errors.New("not found")
	// ErrSurfaceGone: el canal/mensaje remoto no existe o ya no tenemos acceso (404/403).
	ErrSurfaceGone = errors.New("remote surface gone")
)

type ChannelKind int

const (
	ChannelText ChannelKind = iota
	ChannelVoice
)

// Queue es la foto de una cola al momento de renderizar.
type Queue struct {
	ID              string // id del canal de la cola
	GuildID         string
	Name            string
	Kind            ChannelKind
	Locked          bool
	MaxMembers      *int
	Color           *int
	Header          string
	TargetChannelID string
	GracePeriod     int // segundos
	HideControl     bool
}

type QueueMember struct {
	GuildID     string
	QueueID     string
	MemberID    string
	DisplayTime time.Time
	Priority    bool
	Note        string
}

// Channel es el canal remoto tal cual lo resuelve la plataforma.
type Channel struct {
	ID      string
	GuildID string
	Name    string
	Kind    ChannelKind
}

// Mention devuelve el token de mención de canal (<#id>).
func (c Channel) Mention() string { return "<#" + c.ID + ">" }
