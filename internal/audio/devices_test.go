package audio

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/gordonklaus/portaudio"
)

func mockDevices(t *testing.T, devices []*portaudio.DeviceInfo, err error) {
	t.Helper()
	orig := paDevicesFunc
	t.Cleanup(func() { paDevicesFunc = orig })
	paDevicesFunc = func() ([]*portaudio.DeviceInfo, error) {
		return devices, err
	}
}

func dev(name string, in, out int) *portaudio.DeviceInfo {
	return &portaudio.DeviceInfo{
		Name:              name,
		MaxInputChannels:  in,
		MaxOutputChannels: out,
		DefaultSampleRate: 48000,
		HostApi:           &portaudio.HostApiInfo{Name: "ALSA"},
	}
}

func TestInitializeTerminate_Errors(t *testing.T) {
	origInit, origTerm := paLibInitialize, paLibTerminate
	defer func() { paLibInitialize, paLibTerminate = origInit, origTerm }()

	paLibInitialize = func() error { return fmt.Errorf("no backend") }
	paLibTerminate = func() error { return fmt.Errorf("not initialized") }

	if err := Initialize(); err == nil || !strings.Contains(err.Error(), "no backend") {
		t.Errorf("Initialize() = %v, want wrapped backend error", err)
	}
	if err := Terminate(); err == nil || !strings.Contains(err.Error(), "not initialized") {
		t.Errorf("Terminate() = %v, want wrapped error", err)
	}
}

func TestHostDevices(t *testing.T) {
	mockDevices(t, []*portaudio.DeviceInfo{
		dev("hw:0,0", 2, 0),
		dev("pulse", 32, 32),
		dev("HDMI", 0, 8),
	}, nil)

	devices, err := HostDevices()
	if err != nil {
		t.Fatalf("HostDevices error: %v", err)
	}
	if len(devices) != 3 {
		t.Fatalf("got %d devices, want 3", len(devices))
	}
	for i, d := range devices {
		if d.ID != i {
			t.Errorf("Device ID mismatch: got %d, want %d", d.ID, i)
		}
		if d.HostAPI != "ALSA" {
			t.Errorf("Device %d host api = %q", i, d.HostAPI)
		}
	}
	if !devices[1].Preferred || devices[0].Preferred {
		t.Error("only the pulse device should be marked preferred")
	}

	wantDir := []string{"Input", "Input/Output", "Output"}
	for i, want := range wantDir {
		if got := devices[i].Direction(); got != want {
			t.Errorf("device %d direction = %q, want %q", i, got, want)
		}
	}
}

func TestHostDevices_paDevicesError(t *testing.T) {
	mockDevices(t, nil, fmt.Errorf("mock error"))

	_, err := HostDevices()
	if err == nil || !strings.Contains(err.Error(), "mock error") {
		t.Errorf("expected mock error, got %v", err)
	}
}

func TestListDevices(t *testing.T) {
	mockDevices(t, []*portaudio.DeviceInfo{dev("default", 2, 2), dev("USB Mic", 1, 0)}, nil)

	var buf bytes.Buffer
	if err := ListDevices(&buf); err != nil {
		t.Fatalf("ListDevices: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"[0] default (Input/Output) *", "[1] USB Mic (Input)", "48000 Hz"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestSelectDevices(t *testing.T) {
	tests := []struct {
		name            string
		devices         []*portaudio.DeviceInfo
		inputID         int
		outputID        int
		wantIn, wantOut string
		wantErr         error
	}{
		{
			name:    "preferred names win over earlier devices",
			devices: []*portaudio.DeviceInfo{dev("hw:0,0", 2, 2), dev("PipeWire Sound Server", 64, 64)},
			inputID: -1, outputID: -1,
			wantIn: "PipeWire Sound Server", wantOut: "PipeWire Sound Server",
		},
		{
			name:    "preferred direction is checked per side",
			devices: []*portaudio.DeviceInfo{dev("USB Mic", 1, 0), dev("pulse-monitor", 2, 0), dev("default", 0, 2)},
			inputID: -1, outputID: -1,
			wantIn: "pulse-monitor", wantOut: "default",
		},
		{
			name:    "falls back to first capable device",
			devices: []*portaudio.DeviceInfo{dev("HDMI", 0, 8), dev("USB Mic", 1, 0), dev("Speakers", 0, 2)},
			inputID: -1, outputID: -1,
			wantIn: "USB Mic", wantOut: "HDMI",
		},
		{
			name:    "explicit ids",
			devices: []*portaudio.DeviceInfo{dev("default", 2, 2), dev("USB Mic", 1, 0), dev("Speakers", 0, 2)},
			inputID: 1, outputID: 2,
			wantIn: "USB Mic", wantOut: "Speakers",
		},
		{
			name:    "no input",
			devices: []*portaudio.DeviceInfo{dev("Speakers", 0, 2)},
			inputID: -1, outputID: -1,
			wantErr: ErrNoInputDevice,
		},
		{
			name:    "no output",
			devices: []*portaudio.DeviceInfo{dev("USB Mic", 1, 0)},
			inputID: -1, outputID: -1,
			wantErr: ErrNoOutputDevice,
		},
		{
			name:    "explicit id out of range",
			devices: []*portaudio.DeviceInfo{dev("default", 2, 2)},
			inputID: 4, outputID: -1,
			wantErr: ErrInvalidDevice,
		},
		{
			name:    "explicit id wrong direction",
			devices: []*portaudio.DeviceInfo{dev("Speakers", 0, 2), dev("default", 2, 2)},
			inputID: 0, outputID: -1,
			wantErr: ErrInvalidDevice,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in, out, err := SelectDevices(tt.devices, tt.inputID, tt.outputID)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("err = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if in.Name != tt.wantIn || out.Name != tt.wantOut {
				t.Errorf("selected %q/%q, want %q/%q", in.Name, out.Name, tt.wantIn, tt.wantOut)
			}
		})
	}
}

func TestOpenDevices_UsesHostList(t *testing.T) {
	mockDevices(t, []*portaudio.DeviceInfo{dev("hw:1,0", 1, 1), dev("pulse", 2, 2)}, nil)

	in, out, err := OpenDevices(-1, 0)
	if err != nil {
		t.Fatalf("OpenDevices: %v", err)
	}
	if in.Name != "pulse" || out.Name != "hw:1,0" {
		t.Errorf("selected %q/%q", in.Name, out.Name)
	}
}
