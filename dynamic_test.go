package bond

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

// record returns a listener appending to a slice and a getter for it.
func record[T any]() (func(T), func() []T) {
	var got []T
	return func(v T) { got = append(got, v) }, func() []T { return got }
}

func TestDynamic_ValueHasNoSideEffects(t *testing.T) {
	d := NewDynamic(3)
	calls := 0
	d.Subscribe(func(int) { calls++ })

	if d.Value() != 3 || d.Value() != 3 {
		t.Fatalf("expected 3, got %d", d.Value())
	}
	if calls != 0 {
		t.Errorf("expected no notifications from reads, got %d", calls)
	}
}

func TestDynamic_SubscribeUnsubscribeScenario(t *testing.T) {
	d := NewDynamic(0)
	listener, got := record[int]()
	tok := d.Subscribe(listener)

	d.Set(5)
	d.Set(5)
	d.Unsubscribe(tok)
	d.Set(7)

	if diff := cmp.Diff([]int{5, 5}, got()); diff != "" {
		t.Errorf("unexpected deliveries (-want +got):\n%s", diff)
	}
	if d.Value() != 7 {
		t.Errorf("expected value 7, got %d", d.Value())
	}
}

func TestDynamic_SubscribeDoesNotReplayCurrentValue(t *testing.T) {
	d := NewDynamic("initial")
	listener, got := record[string]()
	d.Subscribe(listener)

	if len(got()) != 0 {
		t.Errorf("expected no replay on subscribe, got %v", got())
	}
}

func TestDynamic_NotifiesInSubscriptionOrder(t *testing.T) {
	d := NewDynamic(0)
	var order []string
	d.Subscribe(func(v int) { order = append(order, "a") })
	d.Subscribe(func(v int) { order = append(order, "b") })
	d.Subscribe(func(v int) { order = append(order, "c") })

	d.Set(1)
	d.Set(2)

	want := []string{"a", "b", "c", "a", "b", "c"}
	if diff := cmp.Diff(want, order); diff != "" {
		t.Errorf("unexpected order (-want +got):\n%s", diff)
	}
}

func TestDynamic_EveryWriteReachesEveryListenerOnce(t *testing.T) {
	d := NewDynamic(0)
	first, gotFirst := record[int]()
	second, gotSecond := record[int]()
	d.Subscribe(first)
	d.Subscribe(second)

	writes := []int{4, 8, 15, 16, 23, 42}
	for _, w := range writes {
		d.Set(w)
	}

	if diff := cmp.Diff(writes, gotFirst()); diff != "" {
		t.Errorf("first listener (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(writes, gotSecond()); diff != "" {
		t.Errorf("second listener (-want +got):\n%s", diff)
	}
}

func TestDynamic_UnsubscribeIsIdempotent(t *testing.T) {
	d := NewDynamic(0)
	tok := d.Subscribe(func(int) {})
	d.Unsubscribe(tok)
	d.Unsubscribe(tok)
	d.Unsubscribe(Token(999))

	if n := d.Subscribers(); n != 0 {
		t.Errorf("expected 0 subscribers, got %d", n)
	}
}

func TestDynamic_UnsubscribeDuringNotification(t *testing.T) {
	d := NewDynamic(0)
	var second Token
	calls := 0
	d.Subscribe(func(int) { d.Unsubscribe(second) })
	second = d.Subscribe(func(int) { calls++ })

	d.Set(1)
	d.Set(2)

	if calls != 0 {
		t.Errorf("expected listener removed mid-pass to receive nothing, got %d calls", calls)
	}
}

func TestDynamic_ReentrantSetRunsNestedPass(t *testing.T) {
	d := NewDynamic(0)
	listener, got := record[int]()
	d.Subscribe(func(v int) {
		if v == 1 {
			d.Set(2)
		}
	})
	d.Subscribe(listener)

	d.Set(1)

	// The nested write is delivered before the outer pass resumes.
	if diff := cmp.Diff([]int{2, 1}, got()); diff != "" {
		t.Errorf("unexpected deliveries (-want +got):\n%s", diff)
	}
	if d.Value() != 2 {
		t.Errorf("expected value 2, got %d", d.Value())
	}
}

func TestDynamic_Update(t *testing.T) {
	d := NewDynamic(10)
	listener, got := record[int]()
	d.Subscribe(listener)

	d.Update(func(v int) int { return v + 1 })

	if d.Value() != 11 {
		t.Errorf("expected 11, got %d", d.Value())
	}
	if diff := cmp.Diff([]int{11}, got()); diff != "" {
		t.Errorf("unexpected deliveries (-want +got):\n%s", diff)
	}
}

type closer struct{ closed bool }

func (c *closer) Close() error {
	c.closed = true
	return errors.New("ignored")
}

type disposer struct {
	order *[]string
	name  string
}

func (d disposer) Dispose() { *d.order = append(*d.order, d.name) }

func TestDynamic_DisposeReleasesRetainedHelpers(t *testing.T) {
	d := NewDynamic(0)
	var order []string
	c := &closer{}
	d.Retain(disposer{order: &order, name: "first"})
	d.Retain(c)
	d.Retain(func() { order = append(order, "hook") })
	d.Retain(disposer{order: &order, name: "last"})
	d.Retain("not releasable")

	d.Dispose()
	d.Dispose()

	if diff := cmp.Diff([]string{"last", "hook", "first"}, order); diff != "" {
		t.Errorf("unexpected release order (-want +got):\n%s", diff)
	}
	if !c.closed {
		t.Error("expected io.Closer helper to be closed")
	}
}

func TestDynamic_DisposeTearsDownSubscriptions(t *testing.T) {
	d := NewDynamic(0)
	calls := 0
	d.Subscribe(func(int) { calls++ })

	d.Dispose()
	d.Set(1)

	if calls != 0 {
		t.Errorf("expected no notifications after dispose, got %d", calls)
	}
	if !d.Disposed() {
		t.Error("expected Disposed() to be true")
	}
	if d.Value() != 1 {
		t.Errorf("expected value to still be stored, got %d", d.Value())
	}
	if tok := d.Subscribe(func(int) { calls++ }); tok != 0 {
		t.Errorf("expected zero token from disposed Dynamic, got %d", tok)
	}
	if n := d.Subscribers(); n != 0 {
		t.Errorf("expected 0 subscribers, got %d", n)
	}
}

func TestDynamic_RetainAfterDisposeReleasesImmediately(t *testing.T) {
	d := NewDynamic(0)
	d.Dispose()

	released := false
	d.Retain(func() { released = true })

	if !released {
		t.Error("expected helper to be released immediately")
	}
}
