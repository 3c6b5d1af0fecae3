package services

import (
	"context"
	"errors"
	"fmt"
	"home-compass-service/internal/domain"
	"home-compass-service/internal/platform/obs"
	"home-compass-service/internal/ports"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
)

// Messages surfaced to the user as transient notifications.
const (
	MsgEnterAddress     = "Please enter an address to add as home."
	MsgHomeNotFound     = "Home address not found. Please try a different address."
	MsgHomeAdded        = "Home address added successfully."
	MsgAddHomeFirst     = "Add your home address first."
	MsgPermissionDenied = "Location permission denied."
	MsgNoGPSFix         = "Unable to get GPS location."
	msgFetchFailed      = "Failed to get location: "
)

// LocationDeps are the ports a LocationWorkflow talks to. Geocoder, Location and
// Permission are required; Notifier and Display may be nil.
type LocationDeps struct {
	Geocoder   ports.Geocoder
	Location   ports.LocationProvider
	Permission ports.PermissionGateway
	Notifier   ports.Notifier
	Display    ports.DisplaySink
}

// LocationWorkflow owns the home screen: the home and current points plus the text
// derived from them. Port calls happen outside the lock; results are applied only if
// no Reset happened in between.
type LocationWorkflow struct {
	geocoder   ports.Geocoder
	location   ports.LocationProvider
	permission ports.PermissionGateway
	notifier   ports.Notifier
	display    ports.DisplaySink

	mu         sync.Mutex
	state      domain.LocationState
	text       domain.Display
	generation uint64
}

// NewLocationWorkflow returns a workflow showing the placeholder texts, with no home
// and no current point.
func NewLocationWorkflow(deps LocationDeps) (*LocationWorkflow, error) {
	if deps.Geocoder == nil {
		return nil, errors.New("location workflow: geocoder is required")
	}
	if deps.Location == nil {
		return nil, errors.New("location workflow: location provider is required")
	}
	if deps.Permission == nil {
		return nil, errors.New("location workflow: permission gateway is required")
	}

	w := &LocationWorkflow{
		geocoder:   deps.Geocoder,
		location:   deps.Location,
		permission: deps.Permission,
		notifier:   deps.Notifier,
		display:    deps.Display,
		text:       domain.PlaceholderDisplay(),
	}
	if w.notifier == nil {
		w.notifier = discard{}
	}
	if w.display == nil {
		w.display = discard{}
	}
	return w, nil
}

// SetHome geocodes addressText and stores the first match as home. It never touches
// the current location and never computes a distance.
func (w *LocationWorkflow) SetHome(ctx context.Context, addressText string) (err error) {
	defer obs.Time(ctx, "location.set_home")(&err)

	query := strings.TrimSpace(addressText)
	if query == "" {
		return w.fail(domain.ErrEmptyInput, MsgEnterAddress, nil)
	}

	gen := w.currentGeneration()

	results, err := w.geocoder.Forward(ctx, query, 1)
	if err != nil {
		return w.fail(domain.ErrAddressNotFound, MsgHomeNotFound, fmt.Errorf("set home: forward geocode %q: %w", query, err))
	}
	if len(results) == 0 {
		return w.fail(domain.ErrAddressNotFound, MsgHomeNotFound, nil)
	}
	home := results[0]

	w.mu.Lock()
	if w.generation != gen {
		w.mu.Unlock()
		return w.stale(ctx, "set home", gen)
	}
	coords := home.Coordinates
	w.state.Home = &coords
	w.text.AddressInput = query
	w.text.HomeAddress = domain.HomeAddressText(home.Label)
	w.text.Distance = domain.DistanceTapHint
	snap := w.snapshotLocked()
	w.mu.Unlock()

	w.display.Publish(snap)
	w.notifier.Notify(MsgHomeAdded)
	return nil
}

// RequestDistance refreshes the GPS fix, which recomputes the distance when it lands.
func (w *LocationWorkflow) RequestDistance(ctx context.Context) error {
	w.mu.Lock()
	hasHome := w.state.Home != nil
	w.mu.Unlock()

	if !hasHome {
		return w.fail(domain.ErrHomeNotSet, MsgAddHomeFirst, nil)
	}
	return w.RefreshGPS(ctx)
}

// RefreshGPS makes sure location permission is granted, reads the last known fix,
// reverse-geocodes it and recomputes the distance line.
func (w *LocationWorkflow) RefreshGPS(ctx context.Context) (err error) {
	defer obs.Time(ctx, "location.refresh_gps")(&err)

	gen := w.currentGeneration()

	if !w.permission.Check(ctx) {
		granted, err := w.permission.Request(ctx)
		if err != nil {
			return w.fail(domain.ErrPermissionDenied, MsgPermissionDenied, fmt.Errorf("refresh gps: permission request: %w", err))
		}
		if !granted {
			return w.fail(domain.ErrPermissionDenied, MsgPermissionDenied, nil)
		}
	}

	fix, err := w.location.LastKnown(ctx)
	if err != nil {
		return w.fail(domain.ErrLocationFetchFailed, msgFetchFailed+err.Error(), fmt.Errorf("refresh gps: last known: %w", err))
	}
	if fix == nil {
		return w.fail(domain.ErrLocationFetchFailed, MsgNoGPSFix, nil)
	}
	current := *fix

	label, err := w.reverseLabel(ctx, current)
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"req_id": obs.RequestID(ctx),
			"lat":    current.Lat,
			"lon":    current.Lon,
		}).WithError(err).Info("current address unavailable")
	}

	w.mu.Lock()
	if w.generation != gen {
		w.mu.Unlock()
		return w.stale(ctx, "refresh gps", gen)
	}
	w.state.Current = &current
	w.text.LatLng = current.LatLngText()
	if label == "" {
		w.text.CurrentAddress = domain.CurrentAddressNotFound
	} else {
		w.text.CurrentAddress = domain.CurrentAddressText(label)
	}
	w.text.Distance = domain.ComputeDistanceDisplay(w.state.Home, w.state.Current)
	snap := w.snapshotLocked()
	w.mu.Unlock()

	w.display.Publish(snap)
	return nil
}

// Reset clears both points and every display field, then fetches a fresh fix.
// Results of operations started before the reset are discarded.
func (w *LocationWorkflow) Reset(ctx context.Context) error {
	w.mu.Lock()
	w.state = domain.LocationState{}
	w.text = domain.PlaceholderDisplay()
	w.generation++
	snap := w.snapshotLocked()
	w.mu.Unlock()

	w.display.Publish(snap)
	return w.RefreshGPS(ctx)
}

// Snapshot copies the current points and display texts.
func (w *LocationWorkflow) Snapshot() domain.LocationSnapshot {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.snapshotLocked()
}

// reverseLabel returns the first address line near at, or "" with the reason.
func (w *LocationWorkflow) reverseLabel(ctx context.Context, at domain.Coordinates) (string, error) {
	results, err := w.geocoder.Reverse(ctx, at, 1)
	if err != nil {
		return "", fmt.Errorf("reverse geocode: %w", err)
	}
	if len(results) == 0 || strings.TrimSpace(results[0].Label) == "" {
		return "", domain.ErrReverseGeocodeEmpty
	}
	return results[0].Label, nil
}

func (w *LocationWorkflow) currentGeneration() uint64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.generation
}

func (w *LocationWorkflow) snapshotLocked() domain.LocationSnapshot {
	snap := domain.LocationSnapshot{Display: w.text, Generation: w.generation}
	if w.state.Home != nil {
		h := *w.state.Home
		snap.State.Home = &h
	}
	if w.state.Current != nil {
		c := *w.state.Current
		snap.State.Current = &c
	}
	return snap
}

func (w *LocationWorkflow) fail(kind error, msg string, cause error) error {
	w.notifier.Notify(msg)
	return domain.NewUserError(kind, msg, cause)
}

func (w *LocationWorkflow) stale(ctx context.Context, op string, gen uint64) error {
	logrus.WithFields(logrus.Fields{
		"req_id":     obs.RequestID(ctx),
		"op":         op,
		"generation": gen,
	}).Debug("discarding result from before reset")
	return fmt.Errorf("%s: %w", op, domain.ErrStaleResult)
}

type discard struct{}

func (discard) Notify(string) {}
func (discard) Publish(domain.LocationSnapshot) {}
func (discard) Render(domain.CompassFrame) {}
