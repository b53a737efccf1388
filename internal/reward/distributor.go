package reward

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/xtding233/riskwheel/internal/event"
)

// Failure is the payload of reward-failed.
type Failure struct {
	Record Record `json:"record"`
	Reason string `json:"reason"`
}

// Distributor hands out rewards after validating them.
type Distributor struct {
	sink event.Sink
	log  zerolog.Logger
}

// NewDistributor returns a distributor reporting to sink.
func NewDistributor(sink event.Sink, log zerolog.Logger) *Distributor {
	if sink == nil {
		sink = event.Discard{}
	}
	return &Distributor{sink: sink, log: log}
}

// Claim validates r and, if valid, claims it. Invalid records raise
// reward-failed and are not claimed.
func (d *Distributor) Claim(r Record) bool {
	if !r.Valid() {
		d.fail(r)
		return false
	}
	d.claimed(r)
	return true
}

// ClaimAll validates rs and hands the valid ones to commit. Notifications go
// out in record order only after commit succeeds; a commit error is returned
// and nothing is reported, so the same records can be claimed again later.
func (d *Distributor) ClaimAll(rs []Record, commit func(claimed []Record) error) ([]Record, error) {
	var claimed []Record
	for _, r := range rs {
		if r.Valid() {
			claimed = append(claimed, r)
		}
	}
	if commit != nil {
		if err := commit(claimed); err != nil {
			return nil, err
		}
	}
	for _, r := range rs {
		if r.Valid() {
			d.claimed(r)
		} else {
			d.fail(r)
		}
	}
	return claimed, nil
}

func (d *Distributor) fail(r Record) {
	reason := fmt.Sprintf("Reward validation failed: %s", r.Name)
	d.log.Warn().Str("reward", r.Name).Msg(reason)
	d.sink.Emit(event.Event{Name: event.RewardFailed, Payload: Failure{Record: r, Reason: reason}})
}

func (d *Distributor) claimed(r Record) {
	d.sink.Emit(event.Event{Name: event.RewardClaimed, Payload: r})
	d.log.Info().Str("reward", r.DisplayText()).Msg("reward claimed")
}
