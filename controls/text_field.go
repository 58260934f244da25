package controls

import (
	"weak"

	"github.com/zoobzio/bond"
)

// TextField is an editable text control. A label is a TextField with its
// editing appearance switched off.
type TextField struct {
	text            string
	selectable      bool
	editable        bool
	bordered        bool
	drawsBackground bool
	action          Action
}

// NewTextField creates an editable, bordered text field.
func NewTextField(text string) *TextField {
	f := &TextField{text: text}
	f.SetEditableAppearance(true)
	return f
}

// NewLabel creates a static, borderless text field.
func NewLabel(text string) *TextField {
	return &TextField{text: text}
}

// Text returns the current text.
func (f *TextField) Text() string { return f.text }

// SetText replaces the text without firing the action.
func (f *TextField) SetText(text string) { f.text = text }

// Editable reports whether the field accepts input.
func (f *TextField) Editable() bool { return f.editable }

// Selectable reports whether the text can be selected.
func (f *TextField) Selectable() bool { return f.selectable }

// Bordered reports whether the field draws a bezel.
func (f *TextField) Bordered() bool { return f.bordered }

// DrawsBackground reports whether the field fills its background.
func (f *TextField) DrawsBackground() bool { return f.drawsBackground }

// SetEditableAppearance switches selectable, editable, bordered and
// background drawing together.
func (f *TextField) SetEditableAppearance(on bool) {
	f.selectable = on
	f.editable = on
	f.bordered = on
	f.drawsBackground = on
}

// SetAction replaces the field's action.
func (f *TextField) SetAction(a Action) { f.action = a }

// Commit simulates the user finishing an edit: the text is replaced and the
// action fires once. Commits on a non-editable field are ignored.
func (f *TextField) Commit(text string) {
	if !f.editable {
		return
	}
	f.text = text
	if f.action != nil {
		f.action(f)
	}
}

// Dynamic returns a Dynamic mirroring the field's text, updated on every
// commit. The field keeps a single action, so the latest Dynamic replaces
// any earlier one.
func (f *TextField) Dynamic() *bond.Dynamic[string] {
	return bond.FromControl[string](newTextFieldHelper(f))
}

// TextBond returns the field's designated text sink.
func (f *TextField) TextBond() *bond.Bond[string] {
	return bond.Sink(sinks, f, TagText, (*TextField).SetText)
}

// EditableBond returns the sink driving the field's editable appearance.
func (f *TextField) EditableBond() *bond.Bond[bool] {
	return bond.Sink(sinks, f, TagEditable, (*TextField).SetEditableAppearance)
}

// Dispose drops the field's action and cached sinks.
func (f *TextField) Dispose() {
	f.action = nil
	bond.Release(sinks, f)
}

type textFieldHelper struct {
	control  weak.Pointer[TextField]
	listener func(string)
}

func newTextFieldHelper(f *TextField) *textFieldHelper {
	h := &textFieldHelper{control: weak.Make(f)}
	f.SetAction(h.textChanged)
	return h
}

func (h *textFieldHelper) Value() string {
	if f := h.control.Value(); f != nil {
		return f.Text()
	}
	return ""
}

func (h *textFieldHelper) SetListener(fn func(string)) {
	h.listener = fn
}

func (h *textFieldHelper) textChanged(any) {
	if h.listener != nil {
		h.listener(h.Value())
	}
}
