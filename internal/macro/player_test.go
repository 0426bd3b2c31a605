package macro

import (
	"errors"
	"testing"
	"time"

	"github.com/sweeney/macropad/internal/hid"
	"github.com/sweeney/macropad/internal/keycode"
)

var (
	keyA = keycode.Of(keycode.A)
	keyB = keycode.Of(keycode.B)
	keyC = keycode.Of(keycode.C)
	t0   = time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
)

func at(ms int) time.Time {
	return t0.Add(time.Duration(ms) * time.Millisecond)
}

func TestTapDelayTap(t *testing.T) {
	out := hid.NewFake()
	p := NewPlayer(out, Options{})
	m := Macro{Name: "ab", Steps: []Step{Tap(keyA), Delay(150 * time.Millisecond), Tap(keyB)}}

	if err := p.Start(m, 0, at(0)); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if !p.Busy() {
		t.Fatal("player should be busy after Start")
	}

	finished, err := p.Tick(at(0))
	if err != nil || finished {
		t.Fatalf("tick 0: finished=%v err=%v", finished, err)
	}
	if taps := out.Taps(); len(taps) != 1 || taps[0] != keyA {
		t.Fatalf("tick 0: expected tap A immediately, got %v", out.Events)
	}

	// Ticks before the delay has elapsed emit nothing
	for ms := 1; ms < 150; ms++ {
		if finished, _ := p.Tick(at(ms)); finished {
			t.Fatalf("finished early at %dms", ms)
		}
	}
	if len(out.Events) != 2 {
		t.Fatalf("expected only A's events before 150ms, got %v", out.Events)
	}

	finished, err = p.Tick(at(150))
	if err != nil || !finished {
		t.Fatalf("tick 150: finished=%v err=%v", finished, err)
	}
	want := []hid.Event{{Type: hid.Down, Combo: keyA}, {Type: hid.Up, Combo: keyA}, {Type: hid.Down, Combo: keyB}, {Type: hid.Up, Combo: keyB}}
	assertEvents(t, out, want)
	if p.Busy() {
		t.Error("player should be free after the last step")
	}
}

func TestDelayIsMinimumUnderJitter(t *testing.T) {
	out := hid.NewFake()
	p := NewPlayer(out, Options{})
	m := Macro{Steps: []Step{
		Tap(keyA), Delay(150 * time.Millisecond),
		Tap(keyB), Delay(250 * time.Millisecond),
		Tap(keyC),
	}}
	p.Start(m, 0, at(0))

	// Irregular tick spacing
	ticks := []int{0, 7, 90, 149, 163, 170, 300, 412, 413, 420, 1000}
	emitted := map[keycode.Combo]int{}
	for _, ms := range ticks {
		before := len(out.Events)
		p.Tick(at(ms))
		for _, e := range out.Events[before:] {
			if e.Type == hid.Down {
				emitted[e.Combo] = ms
			}
		}
	}

	if emitted[keyA] != 0 {
		t.Errorf("A at %dms, want 0", emitted[keyA])
	}
	if emitted[keyB] != 163 {
		t.Errorf("B at %dms, want first tick >= 150 (163)", emitted[keyB])
	}
	if emitted[keyC] != 413 {
		t.Errorf("C at %dms, want first tick >= 163+250 (413)", emitted[keyC])
	}
	if got := out.Taps(); len(got) != 3 || got[0] != keyA || got[1] != keyB || got[2] != keyC {
		t.Errorf("step order not preserved: %v", got)
	}
}

func TestStartWhileBusyIsRejected(t *testing.T) {
	out := hid.NewFake()
	p := NewPlayer(out, Options{})
	first := Macro{Name: "first", Steps: []Step{Tap(keyA), Delay(100 * time.Millisecond), Tap(keyB)}}
	second := Macro{Name: "second", Steps: []Step{Tap(keyC)}}

	p.Start(first, 0, at(0))
	p.Tick(at(0))

	if err := p.Start(second, 1, at(10)); !errors.Is(err, ErrBusy) {
		t.Fatalf("expected ErrBusy, got %v", err)
	}
	// The same key re-triggering is rejected too
	if err := p.Start(first, 0, at(20)); !errors.Is(err, ErrBusy) {
		t.Fatalf("expected ErrBusy for same source, got %v", err)
	}

	name, source, ok := p.Running()
	if !ok || name != "first" || source != 0 {
		t.Errorf("Running: got (%q, %d, %v)", name, source, ok)
	}

	for ms := 10; ms <= 100; ms += 10 {
		p.Tick(at(ms))
	}
	assertEvents(t, out, []hid.Event{{Type: hid.Down, Combo: keyA}, {Type: hid.Up, Combo: keyA}, {Type: hid.Down, Combo: keyB}, {Type: hid.Up, Combo: keyB}})

	// Free again
	if err := p.Start(second, 1, at(200)); err != nil {
		t.Fatalf("Start after completion: %v", err)
	}
}

func TestPressReleaseSteps(t *testing.T) {
	out := hid.NewFake()
	p := NewPlayer(out, Options{})
	shift := keycode.Of(keycode.LeftShift)
	p.Start(Macro{Steps: []Step{Press(shift), Tap(keyA), Release(shift)}}, 0, at(0))

	finished, _ := p.Tick(at(0))
	if !finished {
		t.Fatal("macro without delays should finish in one tick")
	}
	assertEvents(t, out, []hid.Event{{Type: hid.Down, Combo: shift}, {Type: hid.Down, Combo: keyA}, {Type: hid.Up, Combo: keyA}, {Type: hid.Up, Combo: shift}})
}

func TestMinTapWidth(t *testing.T) {
	out := hid.NewFake()
	p := NewPlayer(out, Options{MinTapWidth: 10 * time.Millisecond})
	p.Start(Macro{Steps: []Step{Tap(keyA), Tap(keyB)}}, 0, at(0))

	p.Tick(at(0))
	assertEvents(t, out, []hid.Event{{Type: hid.Down, Combo: keyA}})

	p.Tick(at(5))
	assertEvents(t, out, []hid.Event{{Type: hid.Down, Combo: keyA}})

	p.Tick(at(10))
	assertEvents(t, out, []hid.Event{{Type: hid.Down, Combo: keyA}, {Type: hid.Up, Combo: keyA}, {Type: hid.Down, Combo: keyB}})

	finished, _ := p.Tick(at(20))
	if !finished {
		t.Fatal("expected finish after B's tap width")
	}
	assertEvents(t, out, []hid.Event{{Type: hid.Down, Combo: keyA}, {Type: hid.Up, Combo: keyA}, {Type: hid.Down, Combo: keyB}, {Type: hid.Up, Combo: keyB}})
}

func TestEmptyMacroFinishesOnNextTick(t *testing.T) {
	p := NewPlayer(hid.NewFake(), Options{})
	p.Start(Macro{Name: "empty"}, 3, at(0))
	finished, err := p.Tick(at(0))
	if !finished || err != nil {
		t.Errorf("finished=%v err=%v", finished, err)
	}
	if p.Busy() {
		t.Error("player should be free")
	}
}

func TestOutputErrorsDoNotStopMacro(t *testing.T) {
	out := hid.NewFake()
	out.PressError = errors.New("host not reading")
	p := NewPlayer(out, Options{})
	p.Start(Macro{Steps: []Step{Tap(keyA), Tap(keyB)}}, 0, at(0))

	finished, err := p.Tick(at(0))
	if !finished {
		t.Error("macro should run to completion despite output errors")
	}
	if err == nil {
		t.Error("expected output errors to be returned")
	}
	if len(out.Events) != 4 {
		t.Errorf("expected all 4 events attempted, got %d", len(out.Events))
	}
}

func TestIdleTick(t *testing.T) {
	p := NewPlayer(hid.NewFake(), Options{})
	finished, err := p.Tick(at(0))
	if finished || err != nil {
		t.Errorf("idle tick: finished=%v err=%v", finished, err)
	}
	if _, _, ok := p.Running(); ok {
		t.Error("idle player should report nothing running")
	}
}

func TestMacroDuration(t *testing.T) {
	m := Macro{Steps: []Step{Tap(keyA), Delay(150 * time.Millisecond), Tap(keyB), Delay(250 * time.Millisecond)}}
	if m.Duration() != 400*time.Millisecond {
		t.Errorf("Duration: got %v, want 400ms", m.Duration())
	}
}

func assertEvents(t *testing.T, out *hid.Fake, want []hid.Event) {
	t.Helper()
	if len(out.Events) != len(want) {
		t.Fatalf("expected %d events, got %d:\n%s", len(want), len(out.Events), out)
	}
	for i := range want {
		if out.Events[i] != want[i] {
			t.Errorf("event %d: got %v, want %v", i, out.Events[i], want[i])
		}
	}
}
