package bond

import "testing"

func TestLink_SyncsBothWays(t *testing.T) {
	a := NewDynamic("")
	b := NewDynamic("")
	link := Link(a, b)
	defer link.Close()

	aCalls, bCalls := 0, 0
	a.Subscribe(func(string) { aCalls++ })
	b.Subscribe(func(string) { bCalls++ })

	a.Set("from a")
	if b.Value() != "from a" {
		t.Errorf("expected b to follow a, got %q", b.Value())
	}

	b.Set("from b")
	if a.Value() != "from b" {
		t.Errorf("expected a to follow b, got %q", a.Value())
	}

	if aCalls != 2 || bCalls != 2 {
		t.Errorf("expected exactly one notification per side per write, got a=%d b=%d", aCalls, bCalls)
	}
}

func TestLink_DoesNotCopyCurrentValue(t *testing.T) {
	a := NewDynamic(1)
	b := NewDynamic(2)
	link := Link(a, b)
	defer link.Close()

	if a.Value() != 1 || b.Value() != 2 {
		t.Errorf("expected values untouched by Link, got %d and %d", a.Value(), b.Value())
	}
}

func TestLink_Close(t *testing.T) {
	a := NewDynamic(0)
	b := NewDynamic(0)
	link := Link(a, b)

	link.Close()
	link.Close()
	a.Set(1)

	if b.Value() != 0 {
		t.Errorf("expected closed link not to forward, got %d", b.Value())
	}
	if a.Subscribers() != 0 || b.Subscribers() != 0 {
		t.Error("expected closed link to release both subscriptions")
	}
}

func TestLink_RewriteOnReceivingSideFlowsBack(t *testing.T) {
	clamp := func(d *Dynamic[int]) {
		d.Subscribe(func(v int) {
			if v > 10 {
				d.Set(10)
			}
		})
	}

	t.Run("listener after link", func(t *testing.T) {
		a, b := NewDynamic(0), NewDynamic(0)
		defer Link(a, b).Close()
		clamp(b)

		a.Set(15)
		if a.Value() != 10 || b.Value() != 10 {
			t.Errorf("expected both sides clamped to 10, got a=%d b=%d", a.Value(), b.Value())
		}
	})

	t.Run("listener before link", func(t *testing.T) {
		a, b := NewDynamic(0), NewDynamic(0)
		clamp(b)
		defer Link(a, b).Close()

		a.Set(15)
		if a.Value() != 10 || b.Value() != 10 {
			t.Errorf("expected both sides clamped to 10, got a=%d b=%d", a.Value(), b.Value())
		}
	})

	t.Run("value within range", func(t *testing.T) {
		a, b := NewDynamic(0), NewDynamic(0)
		defer Link(a, b).Close()
		clamp(b)

		calls := 0
		a.Subscribe(func(int) { calls++ })
		a.Set(7)
		if b.Value() != 7 || calls != 1 {
			t.Errorf("expected plain copy with one notification on a, got b=%d calls=%d", b.Value(), calls)
		}
	})
}
