// Package gate reduces trigger and overlay state into the dispatch decision
// and runs the full evaluation pipeline that produces a report.
package gate

import "github.com/doublemover/activationgate/internal/model"

// Reduce is the only place gate_open, queue_state and exit_code are set.
func Reduce(triggers []model.TriggerResult, overlay model.OverlayState) model.Decision {
	active := make([]model.TriggerID, 0, len(triggers))
	for _, t := range triggers {
		if t.Fired {
			active = append(active, t.ID)
		}
	}

	d := model.Decision{
		ActiveTriggerIDs:   active,
		ActivationRequired: len(active) > 0,
		QueueState:         model.QueueIdle,
		ExitCode:           model.ExitGateClosed,
	}
	d.GateOpen = d.ActivationRequired || overlay.NewScopePublish
	if d.GateOpen {
		d.QueueState = model.QueueDispatchOpen
		d.ExitCode = model.ExitGateOpen
	}
	return d
}
