package engine

import (
	"errors"
	"sync"
	"testing"

	"github.com/agusx1211/ambience/internal/soundscape"
)

type fakeDevice struct {
	mix       func(samples int) []float64
	resumes   int
	suspends  int
	closed    bool
	startRate int
}

func (d *fakeDevice) Start(mix func(samples int) []float64) { d.mix = mix }
func (d *fakeDevice) Resume()                               { d.resumes++ }
func (d *fakeDevice) Suspend()                              { d.suspends++ }
func (d *fakeDevice) Close() error                          { d.closed = true; return nil }

func newTestEngine(t *testing.T) (*Engine, *fakeDevice) {
	t.Helper()
	dev := &fakeDevice{}
	e := New(Options{
		SampleRate:    8000,
		BufferSeconds: 0.1,
		Open: func(rate int) (Device, error) {
			dev.startRate = rate
			return dev, nil
		},
	})
	t.Cleanup(func() { e.Close() })
	return e, dev
}

// attached reports the nodes currently fed into the master bus and the
// total number of live nodes besides the bus itself.
func attached(e *Engine) (busInputs, live int) {
	ctx := e.ctx.Load()
	if ctx == nil {
		return 0, 0
	}
	return ctx.InputCount(e.bus), ctx.LiveNodes() - 1
}

func TestFreshEngine(t *testing.T) {
	e, _ := newTestEngine(t)
	if id, ok := e.Active(); ok {
		t.Errorf("Active() = %q, want none", id)
	}
	if v := e.Volume(); v != DefaultVolume {
		t.Errorf("Volume() = %v, want %v", v, DefaultVolume)
	}
	if e.ctx.Load() != nil {
		t.Error("context created before first Play")
	}
	if n := len(e.Definitions()); n != 6 {
		t.Errorf("Definitions() has %d entries, want 6", n)
	}
}

func TestPlayStopEverySoundscape(t *testing.T) {
	e, dev := newTestEngine(t)
	for _, info := range soundscape.List() {
		t.Run(info.ID, func(t *testing.T) {
			if err := e.Play(info.ID); err != nil {
				t.Fatal(err)
			}
			if id, ok := e.Active(); !ok || id != info.ID {
				t.Errorf("Active() = %q, %v; want %q", id, ok, info.ID)
			}
			def, _ := soundscape.Lookup(info.ID)
			if in, _ := attached(e); in != len(def.Layers) {
				t.Errorf("bus inputs = %d, want %d", in, len(def.Layers))
			}

			e.Stop()
			if id, ok := e.Active(); ok {
				t.Errorf("Active() after Stop = %q", id)
			}
			if in, live := attached(e); in != 0 || live != 0 {
				t.Errorf("after Stop: bus inputs = %d, live nodes = %d; want 0, 0", in, live)
			}
		})
	}
	if dev.startRate != 8000 {
		t.Errorf("device opened at %d Hz, want 8000", dev.startRate)
	}
}

func TestPlaySwitchesWithoutOverlap(t *testing.T) {
	e, _ := newTestEngine(t)
	if err := e.Play("rain"); err != nil {
		t.Fatal(err)
	}
	if err := e.Play("cafe"); err != nil {
		t.Fatal(err)
	}

	cafe, _ := soundscape.Lookup("cafe")
	if in, _ := attached(e); in != len(cafe.Layers) {
		t.Errorf("bus inputs = %d, want only cafe's %d layers", in, len(cafe.Layers))
	}
	if _, live := attached(e); live != e.active.Nodes() {
		t.Errorf("live nodes = %d, want %d", live, e.active.Nodes())
	}
	if id, _ := e.Active(); id != "cafe" {
		t.Errorf("Active() = %q, want cafe", id)
	}
}

func TestUnknownSoundscapeKeepsPlayback(t *testing.T) {
	e, _ := newTestEngine(t)
	if err := e.Play("rain"); err != nil {
		t.Fatal(err)
	}
	err := e.Play("thunderstorm")
	if !errors.Is(err, ErrUnknownSoundscape) {
		t.Errorf("Play(thunderstorm) error = %v, want %v", err, ErrUnknownSoundscape)
	}
	if id, _ := e.Active(); id != "rain" {
		t.Errorf("Active() = %q, want rain", id)
	}
}

func TestStopIsIdempotent(t *testing.T) {
	e, dev := newTestEngine(t)
	e.Stop()
	if err := e.Play("wind"); err != nil {
		t.Fatal(err)
	}
	e.Stop()
	e.Stop()
	if dev.suspends != 1 {
		t.Errorf("device suspended %d times, want 1", dev.suspends)
	}
}

func TestReplayRebuildsCleanly(t *testing.T) {
	e, _ := newTestEngine(t)
	if err := e.Play("rain"); err != nil {
		t.Fatal(err)
	}
	_, first := attached(e)
	e.Stop()
	if err := e.Play("rain"); err != nil {
		t.Fatal(err)
	}
	if _, second := attached(e); second != first {
		t.Errorf("live nodes after replay = %d, want %d", second, first)
	}
}

func TestSetVolumeClamps(t *testing.T) {
	tests := []struct {
		a, b float64
		want float64
	}{
		{-1, 0, 0},
		{2, 1, 1},
		{0.5, 0.5, 0.5},
	}

	e, _ := newTestEngine(t)
	if err := e.Play("ocean"); err != nil {
		t.Fatal(err)
	}
	for _, tt := range tests {
		e.SetVolume(tt.a)
		ga := e.bus.Level.Value()
		e.SetVolume(tt.b)
		gb := e.bus.Level.Value()
		if ga != gb || ga != tt.want {
			t.Errorf("SetVolume(%v) -> %v, SetVolume(%v) -> %v; want both %v", tt.a, ga, tt.b, gb, tt.want)
		}
		if v := e.Volume(); v != tt.want {
			t.Errorf("Volume() = %v, want %v", v, tt.want)
		}
	}
}

func TestSetVolumeBeforePlay(t *testing.T) {
	e, _ := newTestEngine(t)
	e.SetVolume(0.8)
	if err := e.Play("whitenoise"); err != nil {
		t.Fatal(err)
	}
	if v := e.bus.Level.Value(); v != 0.8 {
		t.Errorf("bus level = %v, want 0.8", v)
	}
	if id, _ := e.Active(); id != "whitenoise" {
		t.Errorf("SetVolume changed the active soundscape to %q", id)
	}
}

func TestMixProducesStereo(t *testing.T) {
	e, dev := newTestEngine(t)
	if out := e.Mix(16); len(out) != 32 {
		t.Fatalf("Mix(16) len = %d, want 32", len(out))
	}
	if err := e.Play("fireplace"); err != nil {
		t.Fatal(err)
	}
	if dev.resumes != 1 {
		t.Errorf("device resumed %d times, want 1", dev.resumes)
	}

	out := dev.mix(512)
	var nonzero bool
	for i := 0; i < len(out); i += 2 {
		if out[i] != out[i+1] {
			t.Fatalf("frame %d: L %v != R %v", i/2, out[i], out[i+1])
		}
		if out[i] < -1 || out[i] > 1 {
			t.Fatalf("frame %d out of range: %v", i/2, out[i])
		}
		if out[i] != 0 {
			nonzero = true
		}
	}
	if !nonzero {
		t.Error("mix is silent while playing")
	}
}

func TestDeviceUnavailable(t *testing.T) {
	opens := 0
	e := New(Options{
		SampleRate: 8000,
		Open: func(int) (Device, error) {
			opens++
			return nil, errors.New("no sound card")
		},
	})

	for i := 0; i < 2; i++ {
		if err := e.Play("rain"); !errors.Is(err, ErrDeviceUnavailable) {
			t.Errorf("Play error = %v, want %v", err, ErrDeviceUnavailable)
		}
	}
	if opens != 1 {
		t.Errorf("device opened %d times, want 1", opens)
	}
	e.Stop()
	e.SetVolume(0.5)
	if v := e.Volume(); v != 0.5 {
		t.Errorf("Volume() = %v, want 0.5", v)
	}
	if _, ok := e.Active(); ok {
		t.Error("Active() reports playback without a device")
	}
	if err := e.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
}

func TestClose(t *testing.T) {
	e, dev := newTestEngine(t)
	if err := e.Play("rain"); err != nil {
		t.Fatal(err)
	}
	if err := e.Close(); err != nil {
		t.Fatal(err)
	}
	if !dev.closed {
		t.Error("device not closed")
	}
	if n := e.ctx.Load().LiveNodes(); n != 0 {
		t.Errorf("LiveNodes after Close = %d, want 0", n)
	}
	if err := e.Play("rain"); !errors.Is(err, ErrClosed) {
		t.Errorf("Play after Close error = %v, want %v", err, ErrClosed)
	}
	if err := e.Close(); err != nil {
		t.Errorf("second Close() error = %v", err)
	}
	if err := e.Play("thunderstorm"); !errors.Is(err, ErrClosed) {
		t.Errorf("Play(thunderstorm) after Close error = %v, want %v", err, ErrClosed)
	}
}

func TestFailedBuildSuspendsDevice(t *testing.T) {
	e, dev := newTestEngine(t)
	if err := e.Play("rain"); err != nil {
		t.Fatal(err)
	}
	e.ctx.Load().Release(e.bus)

	if err := e.Play("cafe"); err == nil {
		t.Fatal("Play into a released bus succeeded")
	}
	if _, ok := e.Active(); ok {
		t.Error("Active() reports playback after a failed Play")
	}
	if dev.suspends != 1 {
		t.Errorf("device suspended %d times, want 1", dev.suspends)
	}
	if n := e.ctx.Load().LiveNodes(); n != 0 {
		t.Errorf("LiveNodes = %d, want 0", n)
	}
}

func TestPlayWhileRendering(t *testing.T) {
	e, dev := newTestEngine(t)
	if err := e.Play("rain"); err != nil {
		t.Fatal(err)
	}

	done := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-done:
				return
			default:
			}
			for _, s := range dev.mix(256) {
				if s < -1 || s > 1 {
					t.Errorf("sample out of range: %v", s)
					return
				}
			}
		}
	}()

	roster := soundscape.List()
	for i := 0; i < 60; i++ {
		info := roster[i%len(roster)]
		e.SetVolume(float64(i%10) / 10)
		if err := e.Play(info.ID); err != nil {
			t.Errorf("Play(%s): %v", info.ID, err)
		}
		if i%7 == 0 {
			e.Reseed(int64(i))
		}
		if i%3 == 0 {
			e.Stop()
		}
	}
	e.Stop()
	close(done)
	wg.Wait()

	if in, live := attached(e); in != 0 || live != 0 {
		t.Errorf("after Stop: bus inputs = %d, live nodes = %d; want 0, 0", in, live)
	}
}
