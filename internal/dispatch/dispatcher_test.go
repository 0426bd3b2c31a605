package dispatch

import (
	"errors"
	"testing"
	"time"

	"github.com/sweeney/macropad/internal/hid"
	"github.com/sweeney/macropad/internal/keycode"
	"github.com/sweeney/macropad/internal/keymap"
	"github.com/sweeney/macropad/internal/macro"
)

var t0 = time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

var (
	headphones = keycode.Of(keycode.H)
	speakers   = keycode.Of(keycode.S)
)

type fixture struct {
	out    *hid.Fake
	player *macro.Player
	stack  *keymap.Stack
	d      *Dispatcher
}

func setupDispatcher(t *testing.T) *fixture {
	t.Helper()
	stack, err := keymap.NewStack(1, []keymap.Layer{
		{Name: "zero", Actions: []keymap.Action{keymap.NoOp{}}},
		{Name: "one", Actions: []keymap.Action{keymap.NoOp{}}},
	})
	if err != nil {
		t.Fatalf("NewStack: %v", err)
	}
	out := hid.NewFake()
	player := macro.NewPlayer(out, macro.Options{})
	d := New(Config{
		Stack:  stack,
		Player: player,
		Output: out,
		Macros: map[string]macro.Macro{
			"ab": {Name: "ab", Steps: []macro.Step{
				macro.Tap(keycode.Of(keycode.A)),
				macro.Delay(100 * time.Millisecond),
				macro.Tap(keycode.Of(keycode.B)),
			}},
		},
		Toggles: []Toggle{{
			ID:      "toggle_output",
			Initial: true,
			WhenOn:  []macro.Step{macro.Tap(headphones)},
			WhenOff: []macro.Step{macro.Tap(speakers)},
		}},
	})
	return &fixture{out: out, player: player, stack: stack, d: d}
}

// drain ticks the player until the running macro finishes.
func (f *fixture) drain(t *testing.T, from time.Time) {
	t.Helper()
	for i := 0; i < 1000; i++ {
		if finished, _ := f.player.Tick(from.Add(time.Duration(i) * time.Millisecond)); finished {
			return
		}
	}
	t.Fatal("macro did not finish")
}

func TestDispatchSimpleKeyTaps(t *testing.T) {
	f := setupDispatcher(t)
	if err := f.d.Dispatch(keymap.SimpleKey{Key: keycode.PlayPause}, 0, t0); err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	want := []hid.Event{{Type: hid.Down, Combo: keycode.Of(keycode.PlayPause)}, {Type: hid.Up, Combo: keycode.Of(keycode.PlayPause)}}
	if len(f.out.Events) != 2 || f.out.Events[0] != want[0] || f.out.Events[1] != want[1] {
		t.Errorf("got %v", f.out.Events)
	}
}

func TestDispatchModifiedKeyTapsCombo(t *testing.T) {
	f := setupDispatcher(t)
	f.d.Dispatch(keymap.ModifiedKey{Key: keycode.Slash, Mods: keycode.LCtrl}, 0, t0)

	taps := f.out.Taps()
	want := keycode.Combo{Key: keycode.Slash, Mods: keycode.LCtrl}
	if len(taps) != 1 || taps[0] != want {
		t.Errorf("expected tap of %v, got %v", want, f.out.Events)
	}
}

func TestDispatchLayerSelect(t *testing.T) {
	f := setupDispatcher(t)
	if err := f.d.Dispatch(keymap.LayerSelect{Index: 1}, 0, t0); err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if f.stack.ActiveIndex() != 1 {
		t.Errorf("active layer: got %d, want 1", f.stack.ActiveIndex())
	}

	err := f.d.Dispatch(keymap.LayerSelect{Index: 5}, 0, t0)
	if !errors.Is(err, keymap.ErrLayerOutOfRange) {
		t.Errorf("expected ErrLayerOutOfRange, got %v", err)
	}
	if f.stack.ActiveIndex() != 1 {
		t.Error("rejected select must not change the active layer")
	}
	if len(f.out.Events) != 0 {
		t.Errorf("layer select should emit no HID events, got %v", f.out.Events)
	}
}

func TestDispatchNoOp(t *testing.T) {
	f := setupDispatcher(t)
	if err := f.d.Dispatch(keymap.NoOp{}, 0, t0); err != nil {
		t.Errorf("NoOp: %v", err)
	}
	if len(f.out.Events) != 0 || f.player.Busy() {
		t.Error("NoOp should do nothing")
	}
}

func TestDispatchMacroStartsPlayer(t *testing.T) {
	f := setupDispatcher(t)
	if err := f.d.Dispatch(keymap.MacroRef{ID: "ab"}, 4, t0); err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	name, source, ok := f.player.Running()
	if !ok || name != "ab" || source != 4 {
		t.Errorf("Running: got (%q, %d, %v)", name, source, ok)
	}
	if len(f.out.Events) != 0 {
		t.Error("macro steps run on Tick, not on Dispatch")
	}
}

func TestDispatchMacroWhileBusy(t *testing.T) {
	f := setupDispatcher(t)
	f.d.Dispatch(keymap.MacroRef{ID: "ab"}, 0, t0)

	err := f.d.Dispatch(keymap.MacroRef{ID: "ab"}, 1, t0.Add(10*time.Millisecond))
	if !errors.Is(err, macro.ErrBusy) {
		t.Fatalf("expected wrapped ErrBusy, got %v", err)
	}
	if _, source, _ := f.player.Running(); source != 0 {
		t.Errorf("in-flight macro should be untouched, source now %d", source)
	}
}

func TestDispatchUnknownMacro(t *testing.T) {
	f := setupDispatcher(t)
	err := f.d.Dispatch(keymap.MacroRef{ID: "nope"}, 0, t0)
	if !errors.Is(err, ErrUnknownMacro) {
		t.Errorf("expected ErrUnknownMacro, got %v", err)
	}
}

func TestToggleAlternates(t *testing.T) {
	f := setupDispatcher(t)
	toggle := keymap.MacroRef{ID: "toggle_output"}

	if on, ok := f.d.State("toggle_output"); !ok || !on {
		t.Fatalf("initial state: got (%v, %v), want (true, true)", on, ok)
	}

	now := t0
	var got []keycode.Combo
	for i := 0; i < 3; i++ {
		if err := f.d.Dispatch(toggle, 2, now); err != nil {
			t.Fatalf("press %d: %v", i, err)
		}
		f.drain(t, now)
		got = append(got, f.out.Taps()...)
		f.out.Reset()
		now = now.Add(time.Second)
	}

	want := []keycode.Combo{headphones, speakers, headphones}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("press %d: got %v, want %v", i, got[i], want[i])
		}
	}
	if on, _ := f.d.State("toggle_output"); on {
		t.Error("state should be false after three flips")
	}
}

func TestToggleDoesNotFlipWhenBusy(t *testing.T) {
	f := setupDispatcher(t)
	f.d.Dispatch(keymap.MacroRef{ID: "ab"}, 0, t0)

	err := f.d.Dispatch(keymap.MacroRef{ID: "toggle_output"}, 1, t0)
	if !errors.Is(err, macro.ErrBusy) {
		t.Fatalf("expected ErrBusy, got %v", err)
	}
	if on, _ := f.d.State("toggle_output"); !on {
		t.Error("a rejected toggle must not flip its state")
	}
}

func TestToggleBuildOrder(t *testing.T) {
	prefix := macro.Tap(keycode.Of(keycode.LeftGUI))
	suffix := macro.Tap(keycode.Of(keycode.Escape))
	tg := Toggle{
		ID:      "t",
		Prefix:  []macro.Step{prefix},
		WhenOn:  []macro.Step{macro.Tap(headphones)},
		WhenOff: []macro.Step{macro.Tap(speakers)},
		Suffix:  []macro.Step{suffix},
	}

	on := tg.build(true)
	if len(on.Steps) != 3 || on.Steps[0] != prefix || on.Steps[1].Combo != headphones || on.Steps[2] != suffix {
		t.Errorf("on branch: got %v", on.Steps)
	}
	off := tg.build(false)
	if off.Steps[1].Combo != speakers {
		t.Errorf("off branch: got %v", off.Steps)
	}
	if on.Name != "t" {
		t.Errorf("name: got %q", on.Name)
	}
}

func TestMacroIDs(t *testing.T) {
	f := setupDispatcher(t)
	ids := f.d.MacroIDs()
	if len(ids) != 2 || ids[0] != "ab" || ids[1] != "toggle_output" {
		t.Errorf("MacroIDs: got %v", ids)
	}
	if !f.d.Known("toggle_output") || f.d.Known("nope") {
		t.Error("Known mismatch")
	}
	if tg := f.d.Toggles(); len(tg) != 1 || !tg["toggle_output"] {
		t.Errorf("Toggles: got %v", tg)
	}
}
