package ws

import (
	"encoding/json"
	"home-compass-service/internal/api/dto"
	"home-compass-service/internal/domain"
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

// Pusher accepts readings for one sensor kind.
type Pusher interface {
	Kind() domain.SensorKind
	Push(ev domain.SensorEvent) bool
}

// SensorFeed accepts a WebSocket on which a remote device streams orientation
// readings, and routes each reading to the sensor of the matching kind.
type SensorFeed struct {
	upgrader websocket.Upgrader
	sensors  map[domain.SensorKind]Pusher
}

func NewSensorFeed(sensors ...Pusher) *SensorFeed {
	f := &SensorFeed{
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		sensors: make(map[domain.SensorKind]Pusher, len(sensors)),
	}
	for _, s := range sensors {
		f.sensors[s.Kind()] = s
	}
	return f
}

// headingKinds is the order heading messages are offered in, matching the
// compass's own sensor preference.
var headingKinds = []domain.SensorKind{domain.SensorRotationVector, domain.SensorOrientation}

// Deliver routes one reading. Raw readings go to the sensor of their kind; a
// heading goes to the first sensor with a subscriber, converted to that sensor's
// format. It reports whether a subscriber took the reading.
func (f *SensorFeed) Deliver(msg dto.SensorMessage) bool {
	if msg.Heading != nil {
		for _, kind := range headingKinds {
			if s, ok := f.sensors[kind]; ok && s.Push(msg.HeadingEvent(kind)) {
				return true
			}
		}
		return false
	}

	ev := msg.Event()
	s, ok := f.sensors[ev.Kind]
	if !ok {
		return false
	}
	return s.Push(ev)
}

func (f *SensorFeed) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := f.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logrus.WithError(err).Warn("sensor ws upgrade failed")
		return
	}
	defer conn.Close()

	log := logrus.WithField("remote", r.RemoteAddr)
	log.Info("sensor stream connected")

	var dropped int
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			log.WithField("dropped", dropped).Info("sensor stream closed")
			return
		}
		var msg dto.SensorMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			log.WithError(err).Debug("bad sensor message")
			continue
		}
		if !f.Deliver(msg) {
			dropped++
		}
	}
}
