package capture

import "context"

// Flow is one permission → picker → result sequence. Every step carries the
// flow id and checks the flow's context; results of a cancelled or replaced
// flow are dropped.
type Flow struct {
	ID     int
	Source Source
	ctx    context.Context
	cancel context.CancelFunc
}

// Context is cancelled when the flow is cancelled or finished.
func (f *Flow) Context() context.Context {
	return f.ctx
}

// Flows tracks the single active capture flow.
type Flows struct {
	seq    int
	active *Flow
}

// Start begins a flow for source. It returns false while another flow is
// still running.
func (f *Flows) Start(source Source) (*Flow, bool) {
	if f.active != nil {
		return nil, false
	}
	f.seq++
	ctx, cancel := context.WithCancel(context.Background())
	f.active = &Flow{ID: f.seq, Source: source, ctx: ctx, cancel: cancel}
	return f.active, true
}

// Active returns the running flow, if any.
func (f *Flows) Active() *Flow {
	return f.active
}

// Current reports whether id is the running, uncancelled flow.
func (f *Flows) Current(id int) bool {
	return f.active != nil && f.active.ID == id && f.active.ctx.Err() == nil
}

// Cancel aborts the running flow.
func (f *Flows) Cancel() {
	if f.active == nil {
		return
	}
	f.active.cancel()
	f.active = nil
}

// Finish ends flow id. It returns false when id is not the running flow.
func (f *Flows) Finish(id int) bool {
	if !f.Current(id) {
		return false
	}
	f.active.cancel()
	f.active = nil
	return true
}
