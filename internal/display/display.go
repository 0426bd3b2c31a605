// Package display is the one-line text display boundary. The pipeline only
// ever asks for a line of text to be shown; drawing it is up to the
// implementation.
package display

// Display shows a single line of text, replacing whatever was shown before.
type Display interface {
	ShowText(line string) error
}

// Closer is implemented by displays that hold a device.
type Closer interface {
	Display
	Close() error
}
