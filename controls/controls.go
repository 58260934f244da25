// Package controls provides headless stateful controls wired into the bond
// reactive core: text fields and labels, push buttons and checkboxes, and
// progress indicators.
//
// Each control follows the target-action model of a native toolkit: a single
// action is fired on every discrete user interaction. Dynamic() hands that
// action to a binding helper and returns a Dynamic mirroring the control.
// Property sinks (TextBond, EnabledBond, ...) are cached per control, so
// asking twice returns the same Bond.
package controls

import "github.com/zoobzio/bond"

// Property tags for per-control sinks.
const (
	TagText     bond.Tag = "text"
	TagEditable bond.Tag = "editable"
	TagEnabled  bond.Tag = "enabled"
	TagChecked  bond.Tag = "checked"
	TagTitle    bond.Tag = "title"
	TagProgress bond.Tag = "progress"
)

// sinks caches the designated Bonds of every control in this package.
var sinks = bond.NewRegistry()

// Action is fired by a control on user interaction. sender is the control
// that fired, or nil when the action was triggered programmatically without
// one.
type Action func(sender any)

// CachedSinks reports how many control sinks are currently cached.
func CachedSinks() int {
	return sinks.Len()
}
