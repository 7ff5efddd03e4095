package render

import (
	"strconv"
	"sync"
)

// DurationFormatter arma la frase del periodo de gracia y la memoiza por valor.
// El cache no tiene límite: los valores reales son pocos.
type DurationFormatter struct {
	cache sync.Map // int -> string
}

func NewDurationFormatter() *DurationFormatter { return &DurationFormatter{} }

// Format: 0 -> "", 65 -> "1 minute and 5 seconds".
func (f *DurationFormatter) Format(seconds int) string {
	if v, ok := f.cache.Load(seconds); ok {
		return v.(string)
	}
	out := formatGrace(seconds)
	f.cache.Store(seconds, out)
	return out
}

func formatGrace(seconds int) string {
	if seconds <= 0 {
		return ""
	}
	mins, secs := seconds/60, seconds%60

	out := ""
	if mins > 0 {
		out = plural(mins, "minute")
	}
	if mins > 0 && secs > 0 {
		out += " and "
	}
	if secs > 0 {
		out += plural(secs, "second")
	}
	return out
}

func plural(n int, unit string) string {
	s := strconv.Itoa(n) + " " + unit
	if n != 1 {
		s += "s"
	}
	return s
}
