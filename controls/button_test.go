package controls

import (
	"testing"

	"github.com/zoobzio/bond"
)

func TestButton_DynamicReportsSender(t *testing.T) {
	b := NewButton("OK")
	d := b.Dynamic()
	defer d.Dispose()

	if d.Value() != nil {
		t.Fatal("expected no sender before the first click")
	}

	clicks := 0
	d.Subscribe(func(*Button) { clicks++ })
	b.Click()

	if d.Value() != b {
		t.Error("expected the clicked button as the value")
	}
	if clicks != 1 {
		t.Errorf("expected one notification, got %d", clicks)
	}
}

func TestButton_NilSender(t *testing.T) {
	b := NewButton("OK")
	d := b.Dynamic()
	defer d.Dispose()

	b.Click()
	b.PerformAction(nil)

	if d.Value() != nil {
		t.Error("expected nil after an action without sender")
	}
}

func TestButton_DisabledIgnoresClicks(t *testing.T) {
	b := NewButton("OK")
	d := b.Dynamic()
	defer d.Dispose()
	b.SetEnabled(false)

	calls := 0
	d.Subscribe(func(*Button) { calls++ })
	b.Click()

	if calls != 0 {
		t.Errorf("expected disabled button to stay silent, got %d", calls)
	}
}

func TestButton_EnabledBond(t *testing.T) {
	b := NewButton("Save")
	defer b.Dispose()

	dirty := bond.NewDynamic(false)
	b.EnabledBond().Bind(dirty)

	dirty.Set(false)
	if b.Enabled() {
		t.Error("expected button disabled")
	}
	dirty.Set(true)
	if !b.Enabled() {
		t.Error("expected button enabled")
	}
}

func TestButton_SinksAreDistinctPerTag(t *testing.T) {
	b := NewButton("")
	defer b.Dispose()

	if b.EnabledBond() != b.EnabledBond() || b.CheckedBond() != b.CheckedBond() {
		t.Error("expected cached sinks per tag")
	}

	title := bond.NewDynamic("")
	b.TitleBond().Bind(title)
	title.Set("Renamed")
	if b.Title() != "Renamed" {
		t.Errorf("expected title to follow, got %q", b.Title())
	}
}

func TestCheckbox_TogglesAndBinds(t *testing.T) {
	box := NewCheckbox("Remember me")
	defer box.Dispose()

	d := box.Dynamic()
	defer d.Dispose()
	checked := bond.Map(d, func(b *Button) bool { return b != nil && b.State() == StateOn })

	box.Click()
	if !checked.Value() {
		t.Error("expected checked after first click")
	}
	box.Click()
	if checked.Value() {
		t.Error("expected unchecked after second click")
	}

	model := bond.NewDynamic(false)
	box.CheckedBond().Bind(model)
	model.Set(true)
	if box.State() != StateOn {
		t.Error("expected model to drive the checkbox state")
	}
}
