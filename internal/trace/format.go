package trace

import (
	"encoding/json"
	"strings"

	"kestrel/internal/buffer"
)

// Format represents the output format for trace events.
type Format uint8

const (
	FormatAuto   Format = iota // pick by output path
	FormatText                 // human-readable text
	FormatNDJSON               // newline-delimited JSON
)

// ParseFormat converts a string to Format.
func ParseFormat(s string) Format {
	switch s {
	case "text":
		return FormatText
	case "ndjson", "json":
		return FormatNDJSON
	default:
		return FormatAuto
	}
}

// forPath resolves FormatAuto from the output file extension.
func (f Format) forPath(path string) Format {
	if f != FormatAuto {
		return f
	}
	if strings.HasSuffix(path, ".ndjson") || strings.HasSuffix(path, ".jsonl") {
		return FormatNDJSON
	}
	return FormatText
}

// FormatEvent formats an event according to the specified format.
func FormatEvent(ev *Event, format Format) []byte {
	if format == FormatNDJSON {
		return formatNDJSON(ev)
	}
	return formatText(ev)
}

type jsonEvent struct {
	Time     string            `json:"time"`
	Seq      uint64            `json:"seq"`
	Kind     string            `json:"kind"`
	Tier     string            `json:"tier"`
	SpanID   uint64            `json:"span_id,omitempty"`
	ParentID uint64            `json:"parent_id,omitempty"`
	GID      uint64            `json:"gid,omitempty"`
	Name     string            `json:"name"`
	Detail   string            `json:"detail,omitempty"`
	Extra    map[string]string `json:"extra,omitempty"`
}

func formatNDJSON(ev *Event) []byte {
	j := jsonEvent{
		Time:     ev.Time.Format("2006-01-02T15:04:05.000000Z07:00"),
		Seq:      ev.Seq,
		Kind:     ev.Kind.String(),
		Tier:     ev.Tier.String(),
		SpanID:   ev.SpanID,
		ParentID: ev.ParentID,
		GID:      ev.GID,
		Name:     ev.Name,
		Detail:   ev.Detail,
	}
	if ev.Extra != nil && ev.Extra.Len() > 0 {
		j.Extra = make(map[string]string, ev.Extra.Len())
		for k, v := range ev.Extra.All() {
			j.Extra[k] = v
		}
	}
	data, err := json.Marshal(j)
	if err != nil {
		return nil
	}
	return append(data, '\n')
}

// formatText renders: #seq [tier] →/←/• name (detail) {k=v, ...}
func formatText(ev *Event) []byte {
	b := buffer.NewSize(64)
	b.Printf("#%-5d [%-6s] ", ev.Seq, ev.Tier)
	if ev.ParentID > 0 {
		_, _ = b.WriteString("  ")
	}
	switch ev.Kind {
	case KindSpanBegin:
		_, _ = b.WriteString("→ ")
	case KindSpanEnd:
		_, _ = b.WriteString("← ")
	case KindPoint:
		_, _ = b.WriteString("• ")
	case KindHeartbeat:
		_, _ = b.WriteString("♡ ")
	}
	_, _ = b.WriteString(ev.Name)
	if ev.Detail != "" {
		b.Printf(" (%s)", ev.Detail)
	}
	if ev.Extra != nil && ev.Extra.Len() > 0 {
		_, _ = b.WriteString(" {")
		first := true
		for k, v := range ev.Extra.All() {
			if !first {
				_, _ = b.WriteString(", ")
			}
			b.Printf("%s=%s", k, v)
			first = false
		}
		b.AppendByte('}')
	}
	b.AppendByte('\n')
	return b.Bytes()
}
