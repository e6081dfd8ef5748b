package delivery

import "fmt"

// Phase is the state of the two-step delete.
type Phase string

const (
	PhaseIdle    Phase = "idle"
	PhasePending Phase = "pending_confirmation"
)

// TargetKind names the collection a removal applies to.
type TargetKind string

const (
	TargetDate  TargetKind = "date"
	TargetRange TargetKind = "range"
)

// DeleteTarget identifies one entry of the working dates or ranges by position.
type DeleteTarget struct {
	Kind  TargetKind `json:"kind"`
	Index int        `json:"index"`
}

// Confirmation holds the phase and its target together so neither can change
// without the other. The zero value is idle.
type Confirmation struct {
	Phase  Phase         `json:"phase"`
	Target *DeleteTarget `json:"target,omitempty"`
}

// Pending returns the target awaiting confirmation, if any.
func (c Confirmation) Pending() (DeleteTarget, bool) {
	if c.Phase != PhasePending || c.Target == nil {
		return DeleteTarget{}, false
	}
	return *c.Target, true
}

// Request moves Idle -> PendingConfirmation(target).
func (c *Confirmation) Request(target DeleteTarget) error {
	if _, ok := c.Pending(); ok {
		return ErrDeletePending
	}
	if target.Kind != TargetDate && target.Kind != TargetRange {
		return fmt.Errorf("delivery: unknown delete target %q", target.Kind)
	}
	t := target
	c.Phase = PhasePending
	c.Target = &t
	return nil
}

// Confirm moves PendingConfirmation -> Idle and hands back the target to remove.
func (c *Confirmation) Confirm() (DeleteTarget, error) {
	target, ok := c.Pending()
	if !ok {
		return DeleteTarget{}, ErrNoPendingDelete
	}
	c.reset()
	return target, nil
}

// Cancel returns to Idle without a removal. Cancelling while idle is a no-op.
func (c *Confirmation) Cancel() {
	c.reset()
}

func (c *Confirmation) reset() {
	c.Phase = PhaseIdle
	c.Target = nil
}
