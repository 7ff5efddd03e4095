package discord

import (
	"time"

	"github.com/jose-valero/queue-display-bot/internal/infra/logger"
)

func step(log logger.Logger, label string) func() {
	start := time.Now()
	return func() { log.Debug("[trace] "+label, "dur", time.Since(start)) }
}
