// Package comm connects the control loop with the telemetry registrars.
package comm

import (
	"context"
	"time"

	fx "github.com/robotalks/robko.go/pkg/framework"
	"github.com/robotalks/robko.go/pkg/l1"
)

// DefaultStateInterval is the default interval between state snapshots.
const DefaultStateInterval = 500 * time.Millisecond

// RegistrarMux publishes to multiple Registrars.
type RegistrarMux struct {
	Registrars []l1.Registrar
}

// PublishState implements Registrar.
func (r *RegistrarMux) PublishState(ctx context.Context, t time.Time, state interface{}) error {
	var errs fx.AggregatedError
	for _, reg := range r.Registrars {
		errs.Add(reg.PublishState(ctx, t, state))
	}
	return errs.Aggregate()
}

// AddToLoop implements LoopAdder.
func (r *RegistrarMux) AddToLoop(l *fx.Loop) {
	for _, reg := range r.Registrars {
		if adder, ok := reg.(fx.LoopAdder); ok {
			l.Add(adder)
		}
	}
}

// Add adds more registrars.
func (r *RegistrarMux) Add(regs ...l1.Registrar) {
	r.Registrars = append(r.Registrars, regs...)
}

// StatePublisher publishes state snapshots from the loop at an interval.
type StatePublisher struct {
	Registrar l1.Registrar
	Source    l1.StateFunc
	Interval  time.Duration

	last      time.Time
	published bool
}

// Control implements Controller.
func (p *StatePublisher) Control(cc fx.ControlContext) error {
	now := cc.Time()
	interval := p.Interval
	if interval <= 0 {
		interval = DefaultStateInterval
	}
	if p.published && now.Sub(p.last) < interval {
		return nil
	}
	p.last, p.published = now, true
	return p.Registrar.PublishState(cc.Context(), now, p.Source())
}

// AddToLoop implements LoopAdder.
func (p *StatePublisher) AddToLoop(l *fx.Loop) {
	l.AddController(fx.PrLvPostProc, p)
}
