package location

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"home-compass-service/internal/domain"
	"io"
	"math"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"go.bug.st/serial"
)

// NMEAProvider reads NMEA 0183 sentences from a UART GPS in the background and
// serves the newest valid RMC fix as the device's last known location.
type NMEAProvider struct {
	portPath string
	baudRate int
	open     func() (io.ReadCloser, error)

	mu   sync.Mutex
	port io.ReadCloser
	done chan struct{} // closed when the reader for port exits
	last *domain.Coordinates
}

// NMEAConfig holds configuration for the NMEA GPS provider.
type NMEAConfig struct {
	PortPath string
	BaudRate int
}

func NewNMEA(cfg NMEAConfig) *NMEAProvider {
	if cfg.BaudRate == 0 {
		cfg.BaudRate = 9600 // Standard NMEA default
	}
	n := &NMEAProvider{
		portPath: cfg.PortPath,
		baudRate: cfg.BaudRate,
	}
	n.open = n.openSerial
	return n
}

func (n *NMEAProvider) openSerial() (io.ReadCloser, error) {
	mode := &serial.Mode{
		BaudRate: n.baudRate,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}
	port, err := serial.Open(n.portPath, mode)
	if err != nil {
		return nil, fmt.Errorf("gps: open %s: %w", n.portPath, err)
	}
	if err := port.SetReadTimeout(200 * time.Millisecond); err != nil {
		port.Close()
		return nil, fmt.Errorf("gps: set read timeout on %s: %w", n.portPath, err)
	}
	logrus.WithFields(logrus.Fields{"port": n.portPath, "baud": n.baudRate}).Info("gps connected")
	return port, nil
}

// Connect opens the serial port and starts reading it if that is not happening yet.
func (n *NMEAProvider) Connect() error {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.connectLocked()
}

func (n *NMEAProvider) connectLocked() error {
	if n.port != nil {
		return nil
	}
	port, err := n.open()
	if err != nil {
		return err
	}
	n.port = port
	n.done = make(chan struct{})
	go n.read(port, n.done)
	return nil
}

// Close stops the reader and releases the port. The last fix is kept.
func (n *NMEAProvider) Close() error {
	n.mu.Lock()
	port, done := n.port, n.done
	n.port, n.done = nil, nil
	n.mu.Unlock()

	if port == nil {
		return nil
	}
	err := port.Close()
	<-done
	return err
}

// LastKnown returns the newest valid fix seen so far, or nil if the receiver has
// not produced one. It never waits on the port; a closed or failed port is
// reopened here.
func (n *NMEAProvider) LastKnown(ctx context.Context) (*domain.Coordinates, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	n.mu.Lock()
	defer n.mu.Unlock()

	if err := n.connectLocked(); err != nil {
		return nil, err
	}
	if n.last == nil {
		return nil, nil
	}
	fix := *n.last
	return &fix, nil
}

// read consumes sentences until port fails or is closed.
func (n *NMEAProvider) read(port io.ReadCloser, done chan struct{}) {
	defer close(done)

	for {
		scanner := bufio.NewScanner(port)
		for scanner.Scan() {
			n.consume(scanner.Text())
		}
		err := scanner.Err()
		if errors.Is(err, io.ErrNoProgress) {
			// Read timeouts on a silent receiver.
			continue
		}

		n.mu.Lock()
		owned := n.port == port
		if owned {
			n.port, n.done = nil, nil
		}
		n.mu.Unlock()

		if owned {
			// Reopened by the next LastKnown.
			port.Close()
			if err != nil {
				logrus.WithError(err).WithField("port", n.portPath).Warn("gps read failed")
			}
		}
		return
	}
}

func (n *NMEAProvider) consume(raw string) {
	line := strings.TrimSpace(raw)
	if !strings.HasPrefix(line, "$") || !validateNMEAChecksum(line) {
		return
	}
	if !strings.HasPrefix(line, "$GPRMC") && !strings.HasPrefix(line, "$GNRMC") {
		return
	}
	fix, ok := parseRMC(line)
	if !ok {
		return
	}

	n.mu.Lock()
	n.last = &fix
	n.mu.Unlock()
}

// parseRMC extracts a valid position from
// $GPRMC,hhmmss.ss,A,llll.ll,a,yyyyy.yy,a,x.x,x.x,ddmmyy,x.x,a*hh
func parseRMC(line string) (domain.Coordinates, bool) {
	parts := splitNMEA(line)
	if len(parts) < 10 || parts[2] != "A" {
		return domain.Coordinates{}, false
	}

	lat, ok := parseNMEACoord(parts[3], parts[4])
	if !ok {
		return domain.Coordinates{}, false
	}
	lon, ok := parseNMEACoord(parts[5], parts[6])
	if !ok {
		return domain.Coordinates{}, false
	}
	return domain.Coordinates{Lat: lat, Lon: lon}, true
}

// splitNMEA splits a sentence and strips the checksum suffix.
func splitNMEA(line string) []string {
	if idx := strings.Index(line, "*"); idx >= 0 {
		line = line[:idx]
	}
	line = strings.TrimPrefix(line, "$")
	return strings.Split(line, ",")
}

// parseNMEACoord converts NMEA ddmm.mmmm format to decimal degrees.
func parseNMEACoord(raw, dir string) (float64, bool) {
	if raw == "" || dir == "" {
		return 0, false
	}
	val, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, false
	}
	deg := math.Floor(val / 100)
	min := val - deg*100
	result := deg + min/60

	if dir == "S" || dir == "W" {
		result = -result
	}
	return result, true
}

// validateNMEAChecksum checks the XOR checksum after *.
func validateNMEAChecksum(line string) bool {
	idx := strings.Index(line, "*")
	if idx < 0 || idx+3 > len(line) {
		return false
	}
	body := line[1:idx]
	var calc byte
	for i := 0; i < len(body); i++ {
		calc ^= body[i]
	}
	expected, err := strconv.ParseUint(line[idx+1:idx+3], 16, 8)
	if err != nil {
		return false
	}
	return byte(expected) == calc
}
