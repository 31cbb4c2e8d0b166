// Package statuslog keeps the append-only batch audit trail shown in the
// UI and mirrors every entry to an external monitoring endpoint.
package statuslog

import (
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

type Severity string

const (
	SeverityInfo    Severity = "INFO"
	SeverityError   Severity = "ERROR"
	SeveritySuccess Severity = "SUCCESS"
)

// Detail carries optional structured context on an entry. Allowed value
// kinds are string, number, bool and nested Detail; anything else is
// stringified on append.
type Detail map[string]any

// Entry is one immutable log line. Insertion order is display order.
type Entry struct {
	Time     time.Time `json:"time"`
	Severity Severity  `json:"severity"`
	Message  string    `json:"message"`
	Category string    `json:"category,omitempty"`
	Detail   Detail    `json:"detail,omitempty"`
}

// Mirror receives a best-effort copy of every entry.
type Mirror interface {
	Send(e Entry) error
}

// Log is an in-memory ordered event sink. Entries are never removed or
// reordered. The mirror send is detached from the caller: it runs in its
// own goroutine and its failure is only reported locally.
type Log struct {
	mu      sync.RWMutex
	entries []Entry
	mirror  Mirror
	now     func() time.Time
}

func New(mirror Mirror) *Log {
	return &Log{mirror: mirror, now: time.Now}
}

func (l *Log) Info(category, msg string, detail Detail) {
	l.append(SeverityInfo, category, msg, detail)
}

func (l *Log) Error(category, msg string, detail Detail) {
	l.append(SeverityError, category, msg, detail)
}

func (l *Log) Success(category, msg string, detail Detail) {
	l.append(SeveritySuccess, category, msg, detail)
}

func (l *Log) append(sev Severity, category, msg string, detail Detail) {
	e := Entry{
		Time:     l.now().UTC(),
		Severity: sev,
		Message:  msg,
		Category: category,
		Detail:   sanitizeDetail(detail),
	}

	l.mu.Lock()
	l.entries = append(l.entries, e)
	l.mu.Unlock()

	evt := log.Info()
	if sev == SeverityError {
		evt = log.Error()
	}
	evt.Str("category", category).Str("severity", string(sev)).Msg(msg)

	if l.mirror != nil {
		go func() {
			if err := l.mirror.Send(e); err != nil {
				log.Warn().Err(err).Msg("status mirror send failed")
			}
		}()
	}
}

// Snapshot returns a copy of all entries in insertion order.
func (l *Log) Snapshot() []Entry {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]Entry, len(l.entries))
	copy(out, l.entries)
	return out
}

// Len reports the number of entries appended so far.
func (l *Log) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.entries)
}

func sanitizeDetail(d Detail) Detail {
	if len(d) == 0 {
		return nil
	}
	out := make(Detail, len(d))
	for k, v := range d {
		out[k] = sanitizeValue(v)
	}
	return out
}

func sanitizeValue(v any) any {
	switch t := v.(type) {
	case string, bool,
		int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64,
		float32, float64:
		return t
	case Detail:
		return sanitizeDetail(t)
	case map[string]any:
		return sanitizeDetail(Detail(t))
	default:
		return fmt.Sprint(t)
	}
}
