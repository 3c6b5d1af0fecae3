package ports

import "home-compass-service/internal/domain"

// Transient, toast-style user messages.
type Notifier interface {
	Notify(msg string)
}

// Receives every home screen display change.
type DisplaySink interface {
	Publish(snapshot domain.LocationSnapshot)
}

// Draws compass frames (needle sweep plus bearing label).
type CompassRenderer interface {
	Render(frame domain.CompassFrame)
}
