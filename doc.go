// Package bond provides a small reactive core for binding values to stateful
// controls and observed objects.
//
// # Dynamic
//
// A Dynamic holds one current value and notifies its subscribers, in
// subscription order, every time the value is written:
//
//	count := bond.NewDynamic(0)
//	tok := count.Subscribe(func(v int) { fmt.Println("count:", v) })
//	count.Set(5)          // prints "count: 5"
//	count.Unsubscribe(tok)
//
// Subscribers only receive future values. Subscribe never replays the
// current value, and every constructor in this package follows that rule.
//
// # Bond
//
// A Bond is a sink. Binding it to a Dynamic applies every future value to
// an external target:
//
//	title := bond.NewBond(func(s string) { window.SetTitle(s) })
//	title.Bind(name)
//
// A Bond is bound to at most one Dynamic and never keeps it alive.
//
// # Controls
//
// Any control implementing ControlHelper can be mirrored with FromControl.
// Per-control sinks are cached in a Registry so that asking twice for the
// sink of the same property returns the same Bond. The controls package
// provides headless text fields, buttons and progress indicators built on
// these pieces.
//
// # Key path observation
//
// ObserveKeyPath bridges any ObservationCenter into a Dynamic. Each
// observation carries its own ULID token and ignores notifications for
// other tokens. Implementations live in keypath (in memory),
// pkg/kubernetes (ConfigMap and Secret keys) and pkg/redis (hash fields).
//
// # Sources
//
// A Source feeds a Dynamic from a Watcher, decoding, validating and
// piping each payload before it is written:
//
//	cfg := bond.NewDynamic(Config{})
//	src := bond.NewSource(file.New("config.yaml"), cfg).Codec(bond.YAMLCodec{})
//	_ = src.Start(ctx)
//
// # Signals
//
// Lifecycle events (disposal, binding, observation, suppressed
// notifications, Source state changes) are emitted as capitan signals.
package bond
