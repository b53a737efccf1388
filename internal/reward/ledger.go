package reward

import (
	"github.com/rs/zerolog"

	"github.com/xtding233/riskwheel/internal/event"
)

// Ledger holds the rewards won in the current session, in the order won.
// Not safe for concurrent use.
type Ledger struct {
	records []Record
	sink    event.Sink
	log     zerolog.Logger
}

// NewLedger returns an empty ledger.
func NewLedger(sink event.Sink, log zerolog.Logger) *Ledger {
	if sink == nil {
		sink = event.Discard{}
	}
	return &Ledger{sink: sink, log: log}
}

// Add appends r and emits reward-added.
func (l *Ledger) Add(r Record) {
	l.records = append(l.records, r)
	l.sink.Emit(event.Event{Name: event.RewardAdded, Payload: r})
	l.log.Info().
		Str("reward", r.DisplayText()).
		Int("total", len(l.records)).
		Msg("reward added")
}

// Clear drops every record and returns how many there were. It emits
// rewards-cleared even when the ledger was already empty.
func (l *Ledger) Clear() int {
	n := len(l.records)
	l.records = nil
	l.sink.Emit(event.Event{Name: event.RewardsCleared})
	l.log.Debug().Int("count", n).Msg("rewards cleared")
	return n
}

// Snapshot returns a copy of the records in order.
func (l *Ledger) Snapshot() []Record {
	return append([]Record(nil), l.records...)
}

// Len is the number of records held.
func (l *Ledger) Len() int { return len(l.records) }
