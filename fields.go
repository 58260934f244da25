package bond

import "github.com/zoobzio/capitan"

// Field keys for bond events.
var (
	// KeyPath is the observed key path.
	KeyPath = capitan.NewStringKey("path")

	// KeyToken is the observation disambiguation token.
	KeyToken = capitan.NewStringKey("token")

	// KeyTag is the registry property tag.
	KeyTag = capitan.NewStringKey("tag")

	// KeyType is the element type of a Dynamic or Bond.
	KeyType = capitan.NewStringKey("type")

	// KeySubscribers is the number of subscribers released on dispose.
	KeySubscribers = capitan.NewIntKey("subscribers")

	// KeyState is the current state of a Source.
	KeyState = capitan.NewStringKey("state")

	// KeyOldState is the previous state before a transition.
	KeyOldState = capitan.NewStringKey("old_state")

	// KeyNewState is the new state after a transition.
	KeyNewState = capitan.NewStringKey("new_state")

	// KeyError is the error message when an operation fails.
	KeyError = capitan.NewStringKey("error")

	// KeyDebounce is the configured debounce duration.
	KeyDebounce = capitan.NewDurationKey("debounce")
)
