package trace

import (
	"bytes"
	"runtime"
	"strconv"
	"sync/atomic"
	"time"

	"kestrel/internal/dict"
	"kestrel/internal/scope"
)

var (
	globalSeq   atomic.Uint64
	globalSpans atomic.Uint64
)

// NextSeq returns a monotonically increasing sequence number.
func NextSeq() uint64 { return globalSeq.Add(1) }

// NextSpanID returns a unique span ID.
func NextSpanID() uint64 { return globalSpans.Add(1) }

// goroutineID parses the id out of the "goroutine N [running]:" stack header.
func goroutineID() uint64 {
	buf := make([]byte, 64)
	buf = buf[:runtime.Stack(buf, false)]
	const prefix = "goroutine "
	if !bytes.HasPrefix(buf, []byte(prefix)) {
		return 0
	}
	buf = buf[len(prefix):]
	end := bytes.IndexByte(buf, ' ')
	if end < 0 {
		return 0
	}
	gid, err := strconv.ParseUint(string(buf[:end]), 10, 64)
	if err != nil {
		return 0
	}
	return gid
}

// Span tracks one begin/end pair.
type Span struct {
	tracer   Tracer
	id       uint64
	parentID uint64
	gid      uint64
	tier     Tier
	name     string
	started  time.Time
	extra    *dict.Dict[string]
}

// Begin starts a new span and emits KindSpanBegin.
// parent is the parent span ID (0 if root).
func Begin(t Tracer, tier Tier, name string, parent uint64) *Span {
	if !On(t) || !t.Level().ShouldEmit(tier) {
		return &Span{tracer: Nop, started: time.Now()}
	}

	s := &Span{
		tracer:   t,
		id:       NextSpanID(),
		parentID: parent,
		gid:      goroutineID(),
		tier:     tier,
		name:     name,
		started:  time.Now(),
	}
	t.Emit(&Event{
		Time:     s.started,
		Kind:     KindSpanBegin,
		Tier:     tier,
		SpanID:   s.id,
		ParentID: parent,
		GID:      s.gid,
		Name:     name,
	})
	return s
}

// End emits KindSpanEnd and returns the span duration.
func (s *Span) End(detail string) time.Duration {
	if s == nil {
		return 0
	}
	dur := time.Since(s.started)
	if !On(s.tracer) {
		return dur
	}
	s.tracer.Emit(&Event{
		Time:     time.Now(),
		Kind:     KindSpanEnd,
		Tier:     s.tier,
		SpanID:   s.id,
		ParentID: s.parentID,
		GID:      s.gid,
		Name:     s.name,
		Detail:   detail,
		Extra:    s.extra,
	})
	return dur
}

// WithExtra attaches a key/value pair to the end event.
func (s *Span) WithExtra(key, value string) *Span {
	if s == nil || !On(s.tracer) {
		return s
	}
	if s.extra == nil {
		s.extra = dict.New[string]()
	}
	s.extra.Put(key, value)
	return s
}

// WithStats attaches the table shape of a scope map.
func (s *Span) WithStats(st scope.Stats) *Span {
	return s.WithExtra("entries", strconv.Itoa(st.Entries)).
		WithExtra("buckets", strconv.Itoa(st.Buckets)).
		WithExtra("resizes", strconv.Itoa(st.Resizes)).
		WithExtra("longest_chain", strconv.Itoa(st.LongestChain))
}

// ID returns the span ID (0 for a disabled span).
func (s *Span) ID() uint64 {
	if s == nil {
		return 0
	}
	return s.id
}

// Point emits an instant event.
func Point(t Tracer, tier Tier, name, detail string, parent uint64, extra *dict.Dict[string]) {
	if !On(t) || !t.Level().ShouldEmit(tier) {
		return
	}
	t.Emit(&Event{
		Time:     time.Now(),
		Kind:     KindPoint,
		Tier:     tier,
		ParentID: parent,
		GID:      goroutineID(),
		Name:     name,
		Detail:   detail,
		Extra:    extra,
	})
}
