// Package zone tracks how far a player has progressed and how risky the current zone is.
package zone

import (
	"github.com/rs/zerolog"

	"github.com/xtding233/riskwheel/internal/event"
)

const (
	// SafeEvery is the zone interval of bomb-free silver wheels.
	SafeEvery = 5
	// SuperEvery is the zone interval of bomb-free golden wheels.
	SuperEvery = 30
)

// Tier is the risk classification of a zone.
type Tier int

const (
	Bronze Tier = iota
	Safe
	Super
)

func (t Tier) String() string {
	switch t {
	case Bronze:
		return "bronze"
	case Safe:
		return "safe"
	case Super:
		return "super"
	default:
		return "unknown"
	}
}

// HasBombs reports whether wheels of this tier carry bomb slices.
func (t Tier) HasBombs() bool { return t == Bronze }

// TierOf classifies zone. Super must be checked first since every
// multiple of 30 is also a multiple of 5.
func TierOf(zone int) Tier {
	switch {
	case zone%SuperEvery == 0:
		return Super
	case zone%SafeEvery == 0:
		return Safe
	default:
		return Bronze
	}
}

// Progression is the zone counter of one session. Not safe for concurrent use.
type Progression struct {
	current int
	sink    event.Sink
	log     zerolog.Logger
}

// NewProgression starts at zone 1 without emitting anything.
func NewProgression(sink event.Sink, log zerolog.Logger) *Progression {
	if sink == nil {
		sink = event.Discard{}
	}
	return &Progression{current: 1, sink: sink, log: log}
}

// CurrentZone returns the zone the player is on.
func (p *Progression) CurrentZone() int { return p.current }

// Tier returns the tier of the current zone.
func (p *Progression) Tier() Tier { return TierOf(p.current) }

// Advance moves to the next zone and returns it.
func (p *Progression) Advance() int {
	p.current++
	p.sink.Emit(event.Event{Name: event.ZoneChanged, Payload: p.current})

	switch TierOf(p.current) {
	case Super:
		p.sink.Emit(event.Event{Name: event.SuperZoneReached, Payload: p.current})
		p.log.Info().Int("zone", p.current).Msg("super zone reached")
	case Safe:
		p.sink.Emit(event.Event{Name: event.SafeZoneReached, Payload: p.current})
		p.log.Info().Int("zone", p.current).Msg("safe zone reached")
	default:
		p.log.Debug().Int("zone", p.current).Msg("bronze zone")
	}
	return p.current
}

// Reset puts the counter back on zone 1.
func (p *Progression) Reset() {
	p.current = 1
	p.sink.Emit(event.Event{Name: event.ZoneChanged, Payload: p.current})
	p.log.Debug().Msg("zone reset to 1")
}
