package display

// Fake records every line shown, for test assertions.
type Fake struct {
	// Lines contains every ShowText argument in call order.
	Lines []string

	// ShowError, if set, will be returned by ShowText (the line is still recorded).
	ShowError error

	// Closed tracks if Close was called.
	Closed bool
}

// NewFake creates a Fake display.
func NewFake() *Fake {
	return &Fake{}
}

// ShowText records line.
func (f *Fake) ShowText(line string) error {
	f.Lines = append(f.Lines, line)
	return f.ShowError
}

// Last returns the most recent line, or "" if none.
func (f *Fake) Last() string {
	if len(f.Lines) == 0 {
		return ""
	}
	return f.Lines[len(f.Lines)-1]
}

// Close marks the display as closed.
func (f *Fake) Close() error {
	f.Closed = true
	return nil
}

// Reset clears recorded lines.
func (f *Fake) Reset() {
	f.Lines = nil
	f.ShowError = nil
	f.Closed = false
}
