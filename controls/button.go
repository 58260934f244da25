package controls

import (
	"weak"

	"github.com/zoobzio/bond"
)

// CellState is the on/off state of a button.
type CellState int

const (
	StateOff CellState = iota
	StateOn
)

// Button is a push button. Checkboxes are buttons that toggle their state
// when clicked.
type Button struct {
	title   string
	enabled bool
	state   CellState
	toggles bool
	action  Action
}

// NewButton creates an enabled push button.
func NewButton(title string) *Button {
	return &Button{title: title, enabled: true}
}

// NewCheckbox creates an enabled button that toggles on every click.
func NewCheckbox(title string) *Button {
	return &Button{title: title, enabled: true, toggles: true}
}

func (b *Button) Title() string           { return b.title }
func (b *Button) SetTitle(title string)   { b.title = title }
func (b *Button) Enabled() bool           { return b.enabled }
func (b *Button) SetEnabled(enabled bool) { b.enabled = enabled }
func (b *Button) State() CellState        { return b.state }
func (b *Button) SetState(s CellState)    { b.state = s }

// SetChecked sets the state to StateOn or StateOff.
func (b *Button) SetChecked(checked bool) {
	if checked {
		b.state = StateOn
		return
	}
	b.state = StateOff
}

// SetAction replaces the button's action.
func (b *Button) SetAction(a Action) { b.action = a }

// Click simulates the user activating the button. Disabled buttons ignore
// clicks.
func (b *Button) Click() {
	if !b.enabled {
		return
	}
	if b.toggles {
		b.SetChecked(b.state == StateOff)
	}
	b.PerformAction(b)
}

// PerformAction fires the action with an explicit sender, which may be nil.
func (b *Button) PerformAction(sender any) {
	if b.action != nil {
		b.action(sender)
	}
}

// Dynamic returns a Dynamic holding the last button that fired the action,
// or nil when it fired without a sender. It starts out nil.
func (b *Button) Dynamic() *bond.Dynamic[*Button] {
	return bond.FromControl[*Button](newButtonHelper(b))
}

// EnabledBond returns the sink driving the enabled flag.
func (b *Button) EnabledBond() *bond.Bond[bool] {
	return bond.Sink(sinks, b, TagEnabled, (*Button).SetEnabled)
}

// CheckedBond returns the sink driving the on/off state.
func (b *Button) CheckedBond() *bond.Bond[bool] {
	return bond.Sink(sinks, b, TagChecked, (*Button).SetChecked)
}

// TitleBond returns the sink driving the title.
func (b *Button) TitleBond() *bond.Bond[string] {
	return bond.Sink(sinks, b, TagTitle, (*Button).SetTitle)
}

// Dispose drops the button's action and cached sinks.
func (b *Button) Dispose() {
	b.action = nil
	bond.Release(sinks, b)
}

type buttonHelper struct {
	control  weak.Pointer[Button]
	value    *Button
	listener func(*Button)
}

func newButtonHelper(b *Button) *buttonHelper {
	h := &buttonHelper{control: weak.Make(b)}
	b.SetAction(h.activated)
	return h
}

func (h *buttonHelper) Value() *Button { return h.value }

func (h *buttonHelper) SetListener(fn func(*Button)) {
	h.listener = fn
}

func (h *buttonHelper) activated(sender any) {
	h.value, _ = sender.(*Button)
	if h.listener != nil {
		h.listener(h.value)
	}
}
