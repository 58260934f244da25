package kubernetes

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/zoobzio/bond"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes/fake"
)

var flags = Ref{Type: ConfigMap, Namespace: "default", Name: "flags"}

func TestCenter_Read(t *testing.T) {
	client := fake.NewSimpleClientset(configMap("flags", map[string]string{"mode": "safe"}))
	center := NewCenter(client)

	v, err := center.Read(flags, "mode")
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if v != "safe" {
		t.Errorf("expected safe, got %v", v)
	}

	if _, err := center.Read(flags, "absent"); !errors.Is(err, bond.ErrPathNotFound) {
		t.Errorf("expected ErrPathNotFound, got %v", err)
	}
	if _, err := center.Read("flags", "mode"); !errors.Is(err, bond.ErrNotObservable) {
		t.Errorf("expected ErrNotObservable, got %v", err)
	}
}

func TestCenter_ObserveKeyPath(t *testing.T) {
	ctx := context.Background()
	client := fake.NewSimpleClientset(configMap("flags", map[string]string{"mode": "safe"}))
	center := NewCenter(client)
	defer center.Close()

	mode, err := bond.ObserveKeyPath[string](center, flags, "mode")
	if err != nil {
		t.Fatalf("ObserveKeyPath failed: %v", err)
	}
	defer mode.Dispose()
	if mode.Value() != "safe" {
		t.Fatalf("expected safe, got %q", mode.Value())
	}
	waitForWatch(t, client)

	_, err = client.CoreV1().ConfigMaps("default").Update(ctx,
		configMap("flags", map[string]string{"mode": "fast"}), metav1.UpdateOptions{})
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	deadline := time.Now().Add(5 * time.Second)
	for mode.Value() != "fast" && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if mode.Value() != "fast" {
		t.Errorf("expected fast, got %q", mode.Value())
	}
}

func TestCenter_DispatchesChanges(t *testing.T) {
	ctx := context.Background()
	client := fake.NewSimpleClientset(configMap("flags", map[string]string{"mode": "safe"}))
	queue := make(chan func(), 8)
	center := NewCenter(client, WithDispatcher(func(fn func()) { queue <- fn }))
	defer center.Close()

	changes := make(chan bond.Change, 8)
	token := bond.NewObservationToken()
	if _, err := center.Observe(flags, "mode", token, func(c bond.Change) { changes <- c }); err != nil {
		t.Fatalf("Observe failed: %v", err)
	}
	waitForWatch(t, client)

	next := func() bond.Change {
		t.Helper()
		var fn func()
		select {
		case fn = <-queue:
		case <-time.After(5 * time.Second):
			t.Fatal("timeout waiting for dispatch")
		}
		select {
		case <-changes:
			t.Fatal("expected delivery to wait for the dispatcher")
		default:
		}
		fn()
		return <-changes
	}

	if c := next(); c.Token != token || !c.HasNew || c.New != "safe" {
		t.Errorf("expected current value first, got %+v", c)
	}

	if err := client.CoreV1().ConfigMaps("default").Delete(ctx, "flags", metav1.DeleteOptions{}); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}

	if c := next(); c.Token != token || c.Path != "mode" || c.HasNew {
		t.Errorf("expected removal change for our token, got %+v", c)
	}
}

// writeAfterRead changes the ConfigMap right after each Read, before the
// caller gets to Observe.
type writeAfterRead struct {
	*Center
	write func()
}

func (w writeAfterRead) Read(object any, path string) (any, error) {
	v, err := w.Center.Read(object, path)
	w.write()
	return v, err
}

func TestCenter_WriteBetweenReadAndObserve(t *testing.T) {
	ctx := context.Background()
	client := fake.NewSimpleClientset(configMap("flags", map[string]string{"mode": "safe"}))
	center := NewCenter(client)
	defer center.Close()

	racing := writeAfterRead{Center: center, write: func() {
		_, err := client.CoreV1().ConfigMaps("default").Update(ctx,
			configMap("flags", map[string]string{"mode": "fast"}), metav1.UpdateOptions{})
		if err != nil {
			t.Errorf("Update failed: %v", err)
		}
	}}

	mode, err := bond.ObserveKeyPath[string](racing, flags, "mode")
	if err != nil {
		t.Fatalf("ObserveKeyPath failed: %v", err)
	}
	defer mode.Dispose()

	deadline := time.Now().Add(5 * time.Second)
	for mode.Value() != "fast" && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if mode.Value() != "fast" {
		t.Errorf("expected the write made before Observe to arrive, got %q", mode.Value())
	}
}

func TestCenter_Unobserve(t *testing.T) {
	client := fake.NewSimpleClientset(configMap("flags", map[string]string{"mode": "safe"}))
	center := NewCenter(client)

	mode, err := bond.ObserveKeyPath[string](center, flags, "mode")
	if err != nil {
		t.Fatalf("ObserveKeyPath failed: %v", err)
	}
	if center.Active() != 1 {
		t.Fatalf("expected one observation, got %d", center.Active())
	}

	mode.Dispose()
	if center.Active() != 0 {
		t.Errorf("expected observation stopped, got %d", center.Active())
	}
}

func TestCenter_ObserveMissingResource(t *testing.T) {
	center := NewCenter(fake.NewSimpleClientset())
	_, err := bond.ObserveKeyPath[string](center, flags, "mode")
	if err == nil {
		t.Fatal("expected error for missing ConfigMap")
	}
	if center.Active() != 0 {
		t.Error("expected no observation left behind")
	}
}
