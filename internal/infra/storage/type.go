package storage

import "time"

// Para updates parciales desde /display settings
type GuildConfigUpdate struct {
	Mode            *int
	DisableMentions *bool
	Timestamps      *string
}

// RankSetting es la fila de rank_settings: cuenta vinculada + último rank cacheado.
type RankSetting struct {
	GuildID        string
	MemberID       string
	AccountName    *string
	AccountID      *string
	CachedScore    *int
	CachedUnranked bool
	UpdatedAt      time.Time
}

// Schedule es un comando programado sobre una cola.
type Schedule struct {
	QueueID   string
	Command   string
	Cron      string
	UTCOffset int
}
