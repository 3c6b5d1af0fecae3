package dto

// Event is the envelope pushed to every WebSocket client.
type Event struct {
	Type     string            `json:"type"` // "toast", "location" or "compass"
	Message  string            `json:"message,omitempty"`
	Location *LocationResponse `json:"location,omitempty"`
	Compass  *FrameResponse    `json:"compass,omitempty"`
	Stamp    int64             `json:"stamp"` // Unix ms
}

const (
	EventToast    = "toast"
	EventLocation = "location"
	EventCompass  = "compass"
)
