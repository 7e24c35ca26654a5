package mqtt

import (
	"testing"

	"github.com/agusx1211/ambience/internal/control"
	"github.com/agusx1211/ambience/internal/soundscape"
)

type fakeState struct {
	active string
	volume float64
}

func (s fakeState) Active() (string, bool) { return s.active, s.active != "" }
func (s fakeState) Volume() float64        { return s.volume }

func TestSoundCommand(t *testing.T) {
	c := &Client{roster: soundscape.List()}

	tests := []struct {
		payload string
		want    control.Command
		ok      bool
	}{
		{"Rain", control.Command{Action: control.Play, Sound: "rain"}, true},
		{" White Noise\n", control.Command{Action: control.Play, Sound: "whitenoise"}, true},
		{"ocean", control.Command{Action: control.Play, Sound: "ocean"}, true},
		{"Off", control.Command{Action: control.Stop}, true},
		{"off", control.Command{Action: control.Stop}, true},
		{"Thunder", control.Command{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.payload, func(t *testing.T) {
			got, ok := c.soundCommand(tt.payload)
			if ok != tt.ok || got != tt.want {
				t.Errorf("soundCommand(%q) = %+v, %v; want %+v, %v", tt.payload, got, ok, tt.want, tt.ok)
			}
		})
	}
}

func TestVolumeCommand(t *testing.T) {
	got, ok := volumeCommand("40")
	if !ok || got.Action != control.SetVolume || got.Value != 0.4 {
		t.Errorf("volumeCommand(40) = %+v, %v", got, ok)
	}
	if _, ok := volumeCommand("loud"); ok {
		t.Error("volumeCommand accepted a non-number")
	}
}

func TestSnapshot(t *testing.T) {
	c := &Client{roster: soundscape.List(), state: fakeState{active: "cafe", volume: 0.3}}
	s := c.snapshot()
	if !s.Playing || s.Sound != "Café" || s.Volume != 0.3 {
		t.Errorf("snapshot = %+v", s)
	}

	c.state = fakeState{volume: 1}
	s = c.snapshot()
	if s.Playing || s.Sound != OffOption || s.Volume != 1 {
		t.Errorf("idle snapshot = %+v", s)
	}
}

func TestSendCommandDropsWhenFull(t *testing.T) {
	ch := make(chan control.Command, 1)
	c := &Client{commandChan: ch}
	c.sendCommand(control.Command{Action: control.Stop})
	c.sendCommand(control.Command{Action: control.Play, Sound: "rain"})
	if len(ch) != 1 {
		t.Fatalf("channel holds %d commands, want 1", len(ch))
	}
	if cmd := <-ch; cmd.Action != control.Stop {
		t.Errorf("first command = %+v, want stop", cmd)
	}
}
