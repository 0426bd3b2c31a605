package gpio

import (
	"errors"
	"testing"
)

func keys(levels ...bool) Sample {
	return Sample{Keys: levels}
}

func TestFakeReaderRead(t *testing.T) {
	samples := []Sample{
		keys(true, false),
		keys(false, true),
		{Keys: []bool{true, true}, EncA: true, EncButton: true},
	}

	f := NewFakeReader(samples)

	for i, want := range samples {
		got, err := f.Read()
		if err != nil {
			t.Fatalf("sample %d: unexpected error: %v", i, err)
		}
		if !equalSample(got, want) {
			t.Errorf("sample %d: expected %+v, got %+v", i, want, got)
		}
	}

	// Further reads repeat the last sample
	got, err := f.Read()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !equalSample(got, samples[2]) {
		t.Errorf("repeat: expected %+v, got %+v", samples[2], got)
	}
}

func TestFakeReaderNoSamples(t *testing.T) {
	f := NewFakeReader(nil)

	_, err := f.Read()
	if err == nil {
		t.Error("expected error with no samples")
	}
}

func TestFakeReaderError(t *testing.T) {
	f := NewFakeReader([]Sample{keys(true)})
	f.ReadError = errors.New("simulated error")

	_, err := f.Read()
	if err == nil {
		t.Fatal("expected error to be returned")
	}
	if err.Error() != "simulated error" {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestFakeReaderClose(t *testing.T) {
	f := NewFakeReader([]Sample{keys(true)})

	if f.Closed {
		t.Error("should not be closed initially")
	}
	if err := f.Close(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if !f.Closed {
		t.Error("should be closed after Close()")
	}
}

func TestFakeReaderReset(t *testing.T) {
	f := NewFakeReader([]Sample{keys(true, false), keys(false, true)})

	f.Read()
	f.Reset()

	got, _ := f.Read()
	if !got.Keys[0] || got.Keys[1] {
		t.Errorf("after reset: expected first sample, got %+v", got)
	}
}

func TestPinsOffsetsAndSample(t *testing.T) {
	p := Pins{Keys: []int{29, 0, 1}, EncA: 4, EncB: NoPin, EncButton: 3}

	offsets := p.offsets()
	want := []int{29, 0, 1, 4, 3}
	if len(offsets) != len(want) {
		t.Fatalf("offsets: got %v, want %v", offsets, want)
	}
	for i := range want {
		if offsets[i] != want[i] {
			t.Errorf("offset %d: got %d, want %d", i, offsets[i], want[i])
		}
	}

	s := p.sampleFrom([]int{1, 0, 1, 1, 1})
	if !s.Keys[0] || s.Keys[1] || !s.Keys[2] {
		t.Errorf("keys: got %v", s.Keys)
	}
	if !s.EncA || s.EncB || !s.EncButton {
		t.Errorf("encoder: got A=%v B=%v button=%v", s.EncA, s.EncB, s.EncButton)
	}
}

func TestDefaultPins(t *testing.T) {
	if len(DefaultPins.Keys) != 6 {
		t.Errorf("expected 6 key pins, got %d", len(DefaultPins.Keys))
	}
	if got := len(DefaultPins.offsets()); got != 9 {
		t.Errorf("expected 9 lines, got %d", got)
	}
}

func equalSample(a, b Sample) bool {
	if len(a.Keys) != len(b.Keys) {
		return false
	}
	for i := range a.Keys {
		if a.Keys[i] != b.Keys[i] {
			return false
		}
	}
	return a.EncA == b.EncA && a.EncB == b.EncB && a.EncButton == b.EncButton
}
