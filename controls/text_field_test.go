package controls

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/zoobzio/bond"
)

func TestTextField_DynamicFollowsCommits(t *testing.T) {
	f := NewTextField("abc")
	d := f.Dynamic()
	defer d.Dispose()

	if d.Value() != "abc" {
		t.Fatalf("expected abc, got %q", d.Value())
	}

	var got []string
	d.Subscribe(func(s string) { got = append(got, s) })
	f.Commit("xyz")

	if d.Value() != "xyz" {
		t.Errorf("expected xyz, got %q", d.Value())
	}
	if diff := cmp.Diff([]string{"xyz"}, got); diff != "" {
		t.Errorf("unexpected deliveries (-want +got):\n%s", diff)
	}
}

func TestTextField_SetTextDoesNotNotify(t *testing.T) {
	f := NewTextField("abc")
	d := f.Dynamic()
	defer d.Dispose()

	calls := 0
	d.Subscribe(func(string) { calls++ })
	f.SetText("quiet")

	if calls != 0 || d.Value() != "abc" {
		t.Errorf("expected programmatic text to stay silent, got %d calls and %q", calls, d.Value())
	}
}

func TestTextField_LatestDynamicWins(t *testing.T) {
	f := NewTextField("")
	first := f.Dynamic()
	second := f.Dynamic()

	f.Commit("new")

	if first.Value() != "" {
		t.Errorf("expected replaced Dynamic to stay put, got %q", first.Value())
	}
	if second.Value() != "new" {
		t.Errorf("expected latest Dynamic to follow, got %q", second.Value())
	}
}

func TestTextField_DisposedDynamicDetaches(t *testing.T) {
	f := NewTextField("a")
	d := f.Dynamic()
	d.Dispose()

	f.Commit("b")

	if d.Value() != "a" {
		t.Errorf("expected disposed Dynamic to stay put, got %q", d.Value())
	}
}

func TestTextField_TextBondIsCached(t *testing.T) {
	f := NewLabel("")
	defer f.Dispose()

	if f.TextBond() != f.TextBond() {
		t.Error("expected the same text sink on repeated calls")
	}
	if NewLabel("").TextBond() == f.TextBond() {
		t.Error("expected distinct controls to get distinct sinks")
	}
}

func TestTextField_TextBondDrivesLabel(t *testing.T) {
	label := NewLabel("")
	defer label.Dispose()

	name := bond.NewDynamic("")
	label.TextBond().Bind(name)

	name.Set("hello")

	if label.Text() != "hello" {
		t.Errorf("expected label to show hello, got %q", label.Text())
	}
}

func TestTextField_EditableBond(t *testing.T) {
	f := NewTextField("")
	defer f.Dispose()

	locked := bond.NewDynamic(true)
	f.EditableBond().Bind(locked)
	locked.Set(false)

	if f.Editable() || f.Selectable() || f.Bordered() || f.DrawsBackground() {
		t.Error("expected editing appearance switched off")
	}

	f.Commit("ignored")
	if f.Text() != "" {
		t.Errorf("expected commit on non-editable field to be ignored, got %q", f.Text())
	}
}

func TestTextField_DisposeReleasesSinks(t *testing.T) {
	f := NewTextField("")
	text := f.TextBond()
	f.EditableBond()

	f.Dispose()

	text.Apply("late")
	if f.Text() != "" {
		t.Errorf("expected released sink to stop writing, got %q", f.Text())
	}
	if f.TextBond() == text {
		t.Error("expected a fresh sink after Dispose")
	}
	f.Dispose()
}

func TestTextField_TwoWayWithBond(t *testing.T) {
	f := NewTextField("")
	defer f.Dispose()
	model := bond.NewDynamic("")

	view := f.Dynamic()
	defer view.Dispose()
	f.TextBond().Bind(model)
	toModel := bond.NewBond(model.Set)
	defer toModel.Dispose()
	toModel.Bind(view)

	model.Set("from model")
	if f.Text() != "from model" {
		t.Errorf("expected field to follow model, got %q", f.Text())
	}

	f.Commit("from user")
	if model.Value() != "from user" {
		t.Errorf("expected model to follow field, got %q", model.Value())
	}
}
