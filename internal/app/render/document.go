package render

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/jose-valero/queue-display-bot/internal/domain"
)

// límites de Discord para embeds (en caracteres)
const (
	BlockLimit    = 1024
	DocumentLimit = 6000

	titleLimit = 256
	descLimit  = 4096
	noteLimit  = 200

	blankName = "\u200b"
)

// IconResolver devuelve el emoji renderizable de un tier, si el servidor lo tiene.
type IconResolver func(tier string) (string, bool)

// NameLookup es el resultado de resolver el nombre visible de un miembro.
// Gone=true cuando la plataforma confirmó que el miembro ya no está.
type NameLookup struct {
	Name string
	Gone bool
}

// TargetState describe el canal destino configurado en la cola.
type TargetState struct {
	Name    string
	Missing bool
}

// Input es todo lo que necesita Build; el caller resuelve ranks y nombres antes.
type Input struct {
	Queue     domain.Queue
	Guild     domain.GuildConfig
	Members   []domain.QueueMember
	Ranks     map[string]domain.RankAnnotation
	Names     map[string]NameLookup
	Target    TargetState
	Schedule  string
	Icons     IconResolver
	Durations *DurationFormatter
}

type Field struct {
	Name   string
	Value  string
	Inline bool
}

// Document es el embed ya armado, más los pedidos de limpieza que el caller debe aplicar.
type Document struct {
	Title       string
	Description string
	Color       *int
	Fields      []Field

	ClearTarget bool     // el canal destino ya no existe
	Stale       []string // miembros a sacar de la cola

	Rendered  int
	Truncated bool
}

// Len cuenta los caracteres que Discord suma contra el límite del embed.
func (d Document) Len() int {
	n := runeLen(d.Title) + runeLen(d.Description)
	for _, f := range d.Fields {
		n += runeLen(f.Name) + runeLen(f.Value)
	}
	return n
}

// Build arma el documento de una cola. Es puro: no toca la DB ni la plataforma.
func Build(in Input) Document {
	q := in.Queue
	doc := Document{Color: q.Color}

	// Title
	title := q.Name
	if q.Locked {
		title = "🔒 " + title
	}
	if q.TargetChannelID != "" {
		switch {
		case in.Target.Missing:
			doc.ClearTarget = true
		case in.Target.Name != "":
			title += "  ->  " + in.Target.Name
		}
	}
	doc.Title = clip(title, titleLimit)

	// Description
	var b strings.Builder
	switch {
	case q.Locked:
		b.WriteString("Queue is locked.")
	case q.Kind == domain.ChannelVoice:
		fmt.Fprintf(&b, "Join <#%s> to join this queue.", q.ID)
	default:
		b.WriteString("To interact, click the button or use `/join` & `/leave`.")
	}
	durations := in.Durations
	if durations == nil {
		durations = NewDurationFormatter()
	}
	if grace := durations.Format(q.GracePeriod); grace != "" {
		fmt.Fprintf(&b, "\nIf you leave, you have **%s** to rejoin to reclaim your spot.", grace)
	}
	b.WriteString(in.Schedule)
	if anyPriority(in.Members) {
		b.WriteString("\nPriority users are marked with a ⋆.")
	}

	ents := in.entries()
	doc.Stale = ents.stale
	if ents.missingIdentity {
		b.WriteString("\nIf your rank is not shown use `/rankname set <your-account-name>`.")
	}
	if q.Header != "" {
		b.WriteString("\n\n" + q.Header)
	}
	doc.Description = clip(b.String(), descLimit)

	// Header del primer bloque
	header := "Length:  " + strconv.Itoa(ents.positions)
	if q.MaxMembers != nil {
		header = fmt.Sprintf("Capacity:  %d / %d", ents.positions, *q.MaxMembers)
	}
	if diff := spread(ents.scores); diff > 0 {
		header += fmt.Sprintf(", Max Difference: %d", diff)
	}

	doc.Fields, doc.Rendered, doc.Truncated = paginate(ents.lines, runeLen(doc.Title)+runeLen(doc.Description)+runeLen(header))
	doc.Fields[0].Name = header
	return doc
}

type entries struct {
	lines           []string
	scores          []int
	stale           []string
	positions       int
	missingIdentity bool
}

func (in Input) entries() entries {
	var out entries
	style := timestampStyle(in.Guild.Timestamps)

	for _, m := range in.Members {
		name := "<@" + m.MemberID + ">"
		if in.Guild.DisableMentions {
			n := in.Names[m.MemberID]
			if n.Name == "" {
				// no consume posición
				if n.Gone {
					out.stale = append(out.stale, m.MemberID)
				}
				continue
			}
			name = "`" + strings.ReplaceAll(n.Name, "`", "'") + "`"
		}

		out.positions++
		var e strings.Builder
		e.WriteString("`" + index(out.positions) + "` ")
		if style != "" {
			fmt.Fprintf(&e, "<t:%d:%s> ", m.DisplayTime.Unix(), style)
		}
		if m.Priority {
			e.WriteString("⋆")
		}

		rank, ok := in.Ranks[m.MemberID]
		if !ok || !rank.Resolved {
			out.missingIdentity = true
		}
		if ok {
			if icon, found := in.icon(Classify(rank.Score, rank.Unranked)); found {
				e.WriteString(icon + "  ")
			}
			if rank.Score != nil {
				fmt.Fprintf(&e, "`%d`  ", *rank.Score)
				if !rank.Unranked {
					out.scores = append(out.scores, *rank.Score)
				}
			}
		}

		e.WriteString(name)
		if m.Note != "" {
			e.WriteString(" -- " + clip(flatten(m.Note), noteLimit))
		}
		e.WriteString("\n")
		out.lines = append(out.lines, e.String())
	}
	return out
}

// paginate reparte las entradas en bloques. Corta la lista (sin error) cuando el
// siguiente bloque haría pasar el embed del límite.
func paginate(lines []string, used int) ([]Field, int, bool) {
	var (
		fields    []Field
		cur       = Field{Name: blankName, Inline: true}
		curLen    int
		rendered  int
		truncated bool
	)
	for _, line := range lines {
		n := runeLen(line)
		seal := curLen > 0 && curLen+n >= BlockLimit
		cost := n
		if seal {
			cost++ // nombre del bloque nuevo
		}
		if used+cost >= DocumentLimit {
			truncated = true
			break
		}
		if seal {
			fields = append(fields, cur)
			cur = Field{Name: blankName, Inline: true}
			curLen = 0
		}
		cur.Value += line
		curLen += n
		used += cost
		rendered++
	}
	if cur.Value == "" {
		cur.Value = blankName
	}
	return append(fields, cur), rendered, truncated
}

func (in Input) icon(tier string) (string, bool) {
	if in.Icons == nil {
		return "", false
	}
	return in.Icons(tier)
}

func timestampStyle(m domain.TimestampMode) string {
	switch m {
	case domain.TimestampsTime:
		return "t"
	case domain.TimestampsDate:
		return "D"
	case domain.TimestampsDateTime:
		return "f"
	case domain.TimestampsRelative:
		return "R"
	default:
		return ""
	}
}

// index: siempre dos caracteres para alinear la columna
func index(pos int) string {
	if pos < 10 {
		return strconv.Itoa(pos) + " "
	}
	return strconv.Itoa(pos)
}

func anyPriority(ms []domain.QueueMember) bool {
	for _, m := range ms {
		if m.Priority {
			return true
		}
	}
	return false
}

func spread(scores []int) int {
	if len(scores) < 2 {
		return 0
	}
	lo, hi := scores[0], scores[0]
	for _, s := range scores[1:] {
		lo = min(lo, s)
		hi = max(hi, s)
	}
	return hi - lo
}

// una nota ocupa siempre una sola línea de la lista
var lineBreaks = strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ")

func flatten(s string) string { return lineBreaks.Replace(s) }

func runeLen(s string) int { return utf8.RuneCountInString(s) }

func clip(s string, n int) string {
	if runeLen(s) <= n {
		return s
	}
	r := []rune(s)
	return string(r[:n])
}
