package trace

import (
	"time"

	"kestrel/internal/dict"
)

// Kind represents the type of trace event.
type Kind uint8

const (
	// KindSpanBegin marks the start of a logical operation.
	KindSpanBegin Kind = iota + 1
	// KindSpanEnd marks the end of a logical operation.
	KindSpanEnd
	// KindPoint represents an instant event.
	KindPoint
	KindHeartbeat // periodic liveness signal
)

// String returns the string representation of Kind.
func (k Kind) String() string {
	switch k {
	case KindSpanBegin:
		return "begin"
	case KindSpanEnd:
		return "end"
	case KindPoint:
		return "point"
	case KindHeartbeat:
		return "heartbeat"
	default:
		return "unknown"
	}
}

// Tier indicates the granularity of an event.
// Lower values are coarser.
type Tier uint8

const (
	TierDriver Tier = iota + 1 // one CLI command
	TierPass                   // check / eval / render, bench workloads
	TierScript                 // one scope script
	TierTable                  // one scope map
)

// String returns the string representation of Tier.
func (t Tier) String() string {
	switch t {
	case TierDriver:
		return "driver"
	case TierPass:
		return "pass"
	case TierScript:
		return "script"
	case TierTable:
		return "table"
	default:
		return "unknown"
	}
}

// Event represents a single trace event.
type Event struct {
	Time     time.Time
	Seq      uint64 // global sequence number (monotonic)
	Kind     Kind
	Tier     Tier
	SpanID   uint64
	ParentID uint64 // 0 for root spans
	GID      uint64 // goroutine ID
	Name     string // e.g. "eval", "script:nested.toml", "table:main"
	Detail   string
	// Extra keeps key/value pairs in the order they were attached.
	Extra *dict.Dict[string]
}
