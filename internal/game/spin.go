package game

import (
	"github.com/xtding233/riskwheel/internal/event"
)

// SpinStart is the payload of spin-started.
type SpinStart struct {
	Wheel          string `json:"wheel"`
	Zone           int    `json:"zone"`
	ExtraRotations int    `json:"extra_rotations"`
}

// Outcome is the payload of spin-completed.
type Outcome struct {
	Wheel string `json:"wheel"`
	Zone  int    `json:"zone"`
	Index int    `json:"index"`
	Slice string `json:"slice"`
	Bomb  bool   `json:"bomb"`
}

// CanSpin reports whether Spin would be accepted.
func (s *Session) CanSpin() bool {
	if s.spinState != Idle || s.state != Playing || s.bomb.Pending() {
		return false
	}
	_, ok := s.selector.Current()
	return ok
}

// Spin starts a spin of the current wheel. The result is resolved by the
// scheduler after the configured delay.
func (s *Session) Spin() error {
	if !s.CanSpin() {
		s.log.Warn().
			Stringer("spin_state", s.spinState).
			Stringer("state", s.state).
			Bool("pending_decision", s.bomb.Pending()).
			Msg("cannot spin right now")
		return ErrCannotSpin
	}
	w, _ := s.selector.Current()

	s.spinState = Spinning
	s.spinSeq++
	seq := s.spinSeq

	extra := s.spinCfg.MinExtraRotations
	if s.spinCfg.MaxExtraRotations > s.spinCfg.MinExtraRotations {
		extra = s.selector.RNG().UniformInt(s.spinCfg.MinExtraRotations, s.spinCfg.MaxExtraRotations)
	}
	s.sink.Emit(event.Event{Name: event.SpinStarted, Payload: SpinStart{
		Wheel:          w.Name,
		Zone:           s.zone.CurrentZone(),
		ExtraRotations: extra,
	}})
	s.log.Debug().Str("wheel", w.Name).Int("zone", s.zone.CurrentZone()).Msg("spin started")

	s.sched.AfterFunc(s.spinCfg.Delay, func() { s.resolve(seq) })
	return nil
}

// resolve finishes spin seq. Resolutions of spins abandoned by a restart are
// dropped.
func (s *Session) resolve(seq int) {
	if seq != s.spinSeq || s.spinState != Spinning {
		s.log.Debug().Int("seq", seq).Msg("stale spin resolution dropped")
		return
	}
	w, ok := s.selector.Current()
	if !ok {
		s.log.Error().Msg("wheel unloaded during spin")
		s.finishSpin()
		return
	}
	slice, idx, err := s.selector.PickSlice(w, s.spinCfg.Mode)
	if err != nil {
		s.log.Error().Err(err).Str("wheel", w.Name).Msg("slice draw failed")
		s.finishSpin()
		return
	}

	z := s.zone.CurrentZone()
	s.spinState = Stopped
	s.sink.Emit(event.Event{Name: event.SpinCompleted, Payload: Outcome{
		Wheel: w.Name,
		Zone:  z,
		Index: idx,
		Slice: slice.Name(),
		Bomb:  slice.Bomb,
	}})

	if slice.Bomb {
		s.bomb.hit()
		return
	}

	s.ledger.Add(slice.Reward.Instantiate(s.selector.RNG()))
	next := s.zone.Advance()
	if _, err := s.selector.LoadForZone(next); err != nil {
		s.log.Error().Err(err).Int("zone", next).Msg("no wheel for next zone")
	}
	s.finishSpin()
}

func (s *Session) finishSpin() {
	s.spinState = Idle
	s.sink.Emit(event.Event{Name: event.SpinResultProcessed})
}
