package transport

import (
	"errors"
	"fmt"
	"io"
	"sync/atomic"
	"time"

	"go.bug.st/serial"
	"go.bug.st/serial/enumerator"
)

// ErrIdle is returned by Serial.Read when no byte arrived within the idle
// timeout.
var ErrIdle = errors.New("transport: no data within idle timeout")

type SerialConfig struct {
	Port string
	Baud int
	// ReadTimeout bounds each read from the device. A read that times out
	// is retried, so it only sets how often Close and the idle check are
	// noticed.
	ReadTimeout time.Duration
	// IdleTimeout ends the stream when no byte arrived for this long.
	// Zero waits forever.
	IdleTimeout time.Duration
}

// Serial is a serial port as a blocking io.ReadCloser.
type Serial struct {
	port   serial.Port
	cfg    SerialConfig
	closed atomic.Bool
}

func OpenSerial(cfg SerialConfig) (*Serial, error) {
	if cfg.Port == "" {
		return nil, errors.New("transport: no serial port given")
	}
	if cfg.ReadTimeout <= 0 {
		cfg.ReadTimeout = 100 * time.Millisecond
	}

	port, err := serial.Open(cfg.Port, &serial.Mode{BaudRate: cfg.Baud})
	if err != nil {
		return nil, fmt.Errorf("transport: open %s: %w", cfg.Port, err)
	}
	if err := port.SetReadTimeout(cfg.ReadTimeout); err != nil {
		port.Close()
		return nil, fmt.Errorf("transport: set read timeout on %s: %w", cfg.Port, err)
	}
	// drop whatever the OS buffered before we connected
	if err := port.ResetInputBuffer(); err != nil {
		port.Close()
		return nil, fmt.Errorf("transport: reset %s: %w", cfg.Port, err)
	}
	return &Serial{port: port, cfg: cfg}, nil
}

func (s *Serial) Name() string { return s.cfg.Port }

func (s *Serial) Read(p []byte) (int, error) {
	start := time.Now()
	for {
		n, err := s.port.Read(p)
		if s.closed.Load() {
			return 0, io.ErrClosedPipe
		}
		if err != nil || n > 0 {
			return n, err
		}
		// n == 0 and no error: the read timed out
		if s.cfg.IdleTimeout > 0 && time.Since(start) >= s.cfg.IdleTimeout {
			return 0, ErrIdle
		}
	}
}

func (s *Serial) Close() error {
	if s.closed.Swap(true) {
		return nil
	}
	return s.port.Close()
}

// PortInfo describes a serial port found on the system.
type PortInfo struct {
	Name         string
	USB          bool
	VID, PID     string
	SerialNumber string
	Product      string
}

// ListPorts returns the serial ports available, with USB details where the
// platform reports them.
func ListPorts() ([]PortInfo, error) {
	details, err := enumerator.GetDetailedPortsList()
	if err == nil {
		ports := make([]PortInfo, 0, len(details))
		for _, d := range details {
			ports = append(ports, PortInfo{
				Name:         d.Name,
				USB:          d.IsUSB,
				VID:          d.VID,
				PID:          d.PID,
				SerialNumber: d.SerialNumber,
				Product:      d.Product,
			})
		}
		return ports, nil
	}

	names, err := serial.GetPortsList()
	if err != nil {
		return nil, fmt.Errorf("transport: list ports: %w", err)
	}
	ports := make([]PortInfo, len(names))
	for i, n := range names {
		ports[i] = PortInfo{Name: n}
	}
	return ports, nil
}
