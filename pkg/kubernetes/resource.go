// Package kubernetes observes Kubernetes ConfigMaps and Secrets.
//
// Watcher feeds a single data key into a bond.Source. Center exposes data
// keys as observable paths so bond.ObserveKeyPath can mirror them in a
// Dynamic.
package kubernetes

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/zoobzio/clockz"
	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/watch"
	"k8s.io/client-go/kubernetes"
)

// ResourceType selects the kind of resource holding the data.
type ResourceType int

const (
	// ConfigMap reads Data and BinaryData of a ConfigMap.
	ConfigMap ResourceType = iota
	// Secret reads Data of a Secret.
	Secret
)

func (rt ResourceType) String() string {
	if rt == Secret {
		return "Secret"
	}
	return "ConfigMap"
}

// Ref names a ConfigMap or Secret.
type Ref struct {
	Type      ResourceType
	Namespace string
	Name      string
}

func (r Ref) String() string {
	return fmt.Sprintf("%s %s/%s", r.Type, r.Namespace, r.Name)
}

// DefaultRetryInterval is the pause before re-establishing a broken watch.
const DefaultRetryInterval = time.Second

var errWatchClosed = errors.New("watch channel closed")

// snapshot is the data of a resource at one point in time. present is false
// once the resource has been deleted.
type snapshot struct {
	data    map[string][]byte
	present bool
}

func (s snapshot) value(key string) ([]byte, bool) {
	if !s.present {
		return nil, false
	}
	v, ok := s.data[key]
	return v, ok
}

// fetch reads the current data of ref along with its resource version.
func fetch(ctx context.Context, client kubernetes.Interface, ref Ref) (snapshot, string, error) {
	if ref.Type == Secret {
		s, err := client.CoreV1().Secrets(ref.Namespace).Get(ctx, ref.Name, metav1.GetOptions{})
		if err != nil {
			return snapshot{}, "", fmt.Errorf("failed to get %s: %w", ref, err)
		}
		return snapshot{data: s.Data, present: true}, s.ResourceVersion, nil
	}
	cm, err := client.CoreV1().ConfigMaps(ref.Namespace).Get(ctx, ref.Name, metav1.GetOptions{})
	if err != nil {
		return snapshot{}, "", fmt.Errorf("failed to get %s: %w", ref, err)
	}
	return snapshot{data: configMapData(cm), present: true}, cm.ResourceVersion, nil
}

func configMapData(cm *corev1.ConfigMap) map[string][]byte {
	data := make(map[string][]byte, len(cm.Data)+len(cm.BinaryData))
	for k, v := range cm.BinaryData {
		data[k] = v
	}
	for k, v := range cm.Data {
		data[k] = []byte(v)
	}
	return data
}

// extract pulls the data out of a watch event object. ok is false for
// objects that are not the resource named by ref.
func extract(ref Ref, obj any) (map[string][]byte, bool) {
	switch o := obj.(type) {
	case *corev1.ConfigMap:
		if ref.Type != ConfigMap || o.Name != ref.Name {
			return nil, false
		}
		return configMapData(o), true
	case *corev1.Secret:
		if ref.Type != Secret || o.Name != ref.Name {
			return nil, false
		}
		return o.Data, true
	}
	return nil, false
}

func open(ctx context.Context, client kubernetes.Interface, ref Ref, resourceVersion string) (watch.Interface, error) {
	opts := metav1.ListOptions{
		FieldSelector:   "metadata.name=" + ref.Name,
		ResourceVersion: resourceVersion,
	}
	if ref.Type == Secret {
		return client.CoreV1().Secrets(ref.Namespace).Watch(ctx, opts)
	}
	return client.CoreV1().ConfigMaps(ref.Namespace).Watch(ctx, opts)
}

// session runs one fetch-then-watch cycle, handing every snapshot of ref to
// emit. It returns when ctx is done or the watch breaks.
func session(ctx context.Context, client kubernetes.Interface, ref Ref, emit func(snapshot)) error {
	snap, rv, err := fetch(ctx, client, ref)
	if err != nil {
		return err
	}
	emit(snap)

	w, err := open(ctx, client, ref, rv)
	if err != nil {
		return fmt.Errorf("failed to watch %s: %w", ref, err)
	}
	defer w.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-w.ResultChan():
			if !ok {
				return errWatchClosed
			}
			switch event.Type {
			case watch.Error:
				return fmt.Errorf("watch error on %s: %v", ref, event.Object)
			case watch.Deleted:
				if _, mine := extract(ref, event.Object); mine {
					emit(snapshot{})
				}
			case watch.Added, watch.Modified:
				if data, mine := extract(ref, event.Object); mine {
					emit(snapshot{data: data, present: true})
				}
			}
		}
	}
}

// follow repeats session until ctx is done, pausing between attempts.
func follow(ctx context.Context, client kubernetes.Interface, ref Ref, clock clockz.Clock, retry time.Duration, emit func(snapshot)) {
	for {
		if err := session(ctx, client, ref, emit); err == nil || ctx.Err() != nil {
			return
		}
		timer := clock.NewTimer(retry)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C():
		}
	}
}
