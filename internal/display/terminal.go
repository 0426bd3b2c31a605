package display

import (
	"fmt"
	"sync"

	"github.com/gdamore/tcell/v2"
)

// Terminal renders the display line in a bordered box on the controlling
// terminal. Useful on a development host with no display attached.
//
// The screen puts the tty in raw mode, so Ctrl-C arrives as a key event
// rather than a signal. The event loop hands it to the interrupt callback.
type Terminal struct {
	mu        sync.Mutex
	screen    tcell.Screen
	title     string
	line      string
	interrupt func()
	done      chan struct{}
}

// OpenTerminal takes over the terminal. interrupt is called when Ctrl-C is
// pressed; nil ignores it.
func OpenTerminal(title string, interrupt func()) (*Terminal, error) {
	screen, err := tcell.NewScreen()
	if err != nil {
		return nil, fmt.Errorf("display: new terminal screen: %w", err)
	}
	return newTerminal(screen, title, interrupt)
}

func newTerminal(screen tcell.Screen, title string, interrupt func()) (*Terminal, error) {
	if err := screen.Init(); err != nil {
		return nil, fmt.Errorf("display: init terminal screen: %w", err)
	}
	screen.HideCursor()
	screen.Clear()
	t := &Terminal{screen: screen, title: title, interrupt: interrupt, done: make(chan struct{})}
	go t.poll()
	return t, nil
}

// poll drains screen events until the screen is finalized.
func (t *Terminal) poll() {
	defer close(t.done)
	for {
		switch ev := t.screen.PollEvent().(type) {
		case nil:
			return
		case *tcell.EventKey:
			if ev.Key() == tcell.KeyCtrlC && t.interrupt != nil {
				t.interrupt()
			}
		case *tcell.EventResize:
			t.mu.Lock()
			t.draw()
			t.screen.Sync()
			t.mu.Unlock()
		}
	}
}

// ShowText redraws the box with line inside it.
func (t *Terminal) ShowText(line string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.line = line
	t.draw()
	t.screen.Show()
	return nil
}

func (t *Terminal) draw() {
	s := t.screen
	s.Clear()

	line := t.line
	width := len(line)
	if len(t.title) > width {
		width = len(t.title)
	}
	width += 4

	border := tcell.StyleDefault.Foreground(tcell.ColorGray)
	text := tcell.StyleDefault.Bold(true)

	for x := 0; x < width; x++ {
		s.SetContent(x, 0, tcell.RuneHLine, nil, border)
		s.SetContent(x, 2, tcell.RuneHLine, nil, border)
	}
	s.SetContent(0, 0, tcell.RuneULCorner, nil, border)
	s.SetContent(width-1, 0, tcell.RuneURCorner, nil, border)
	s.SetContent(0, 2, tcell.RuneLLCorner, nil, border)
	s.SetContent(width-1, 2, tcell.RuneLRCorner, nil, border)
	s.SetContent(0, 1, tcell.RuneVLine, nil, border)
	s.SetContent(width-1, 1, tcell.RuneVLine, nil, border)

	drawString(s, 2, 0, t.title, border)
	drawString(s, 2, 1, line, text)
}

func drawString(s tcell.Screen, x, y int, str string, style tcell.Style) {
	for _, r := range str {
		s.SetContent(x, y, r, nil, style)
		x++
	}
}

// Close restores the terminal and waits for the event loop to exit.
func (t *Terminal) Close() error {
	t.mu.Lock()
	t.screen.Fini()
	t.mu.Unlock()
	<-t.done
	return nil
}
