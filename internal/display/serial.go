package display

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/tarm/serial"
)

// clearScreen is the form feed most serial character-LCD backpacks treat
// as clear-and-home.
const clearScreen = 0x0c

// Serial drives a line-oriented serial text display: each ShowText clears
// the screen and writes the line.
type Serial struct {
	port  io.WriteCloser
	width int
}

// SerialConfig configures a serial display.
type SerialConfig struct {
	Device string
	Baud   int
	// Width truncates lines to the display's column count. Zero disables.
	Width int
}

// OpenSerial opens the serial port for a display.
func OpenSerial(cfg SerialConfig) (*Serial, error) {
	if cfg.Device == "" {
		return nil, fmt.Errorf("display: serial device not set")
	}
	baud := cfg.Baud
	if baud == 0 {
		baud = 9600
	}
	port, err := serial.OpenPort(&serial.Config{
		Name:        cfg.Device,
		Baud:        baud,
		ReadTimeout: 100 * time.Millisecond,
	})
	if err != nil {
		return nil, fmt.Errorf("display: open serial port %s: %w", cfg.Device, err)
	}
	return newSerial(port, cfg.Width), nil
}

func newSerial(port io.WriteCloser, width int) *Serial {
	return &Serial{port: port, width: width}
}

// ShowText clears the display and writes line.
func (s *Serial) ShowText(line string) error {
	line = strings.Map(printable, line)
	if s.width > 0 && len(line) > s.width {
		line = line[:s.width]
	}
	buf := make([]byte, 0, len(line)+1)
	buf = append(buf, clearScreen)
	buf = append(buf, line...)
	if _, err := s.port.Write(buf); err != nil {
		return fmt.Errorf("display: serial write: %w", err)
	}
	return nil
}

// Close closes the serial port.
func (s *Serial) Close() error {
	return s.port.Close()
}

// printable drops control characters and anything outside ASCII, which
// character displays cannot render.
func printable(r rune) rune {
	if r < 0x20 || r > 0x7e {
		return -1
	}
	return r
}
