package audio

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/gordonklaus/portaudio"
)

var (
	ErrNoInputDevice  = errors.New("audio: no input device available")
	ErrNoOutputDevice = errors.New("audio: no output device available")
	ErrInvalidDevice  = errors.New("audio: invalid device")
)

// Seams over the PortAudio library, replaced in tests.
var (
	paLibInitialize = portaudio.Initialize
	paLibTerminate  = portaudio.Terminate
	paDevicesFunc   = portaudio.Devices
)

// preferredDeviceNames are substrings of endpoints that route through the
// system mixer and tend to open reliably at any rate.
var preferredDeviceNames = []string{"pipewire", "pulse", "default"}

// Initialize sets up the PortAudio subsystem.
// This must be called before any audio operations and paired with a Terminate() call.
func Initialize() error {
	if err := paLibInitialize(); err != nil {
		return fmt.Errorf("failed to initialize PortAudio: %w", err)
	}
	return nil
}

// Terminate cleanly shuts down the PortAudio subsystem.
func Terminate() error {
	if err := paLibTerminate(); err != nil {
		return fmt.Errorf("failed to terminate PortAudio: %w", err)
	}
	return nil
}

// Device is a host endpoint as presented to users.
type Device struct {
	ID                int
	Name              string
	HostAPI           string
	MaxInputChannels  int
	MaxOutputChannels int
	DefaultSampleRate float64
	LowInputLatency   time.Duration
	LowOutputLatency  time.Duration
	Preferred         bool
}

// Direction describes which way audio can flow through the device.
func (d Device) Direction() string {
	switch {
	case d.MaxInputChannels > 0 && d.MaxOutputChannels > 0:
		return "Input/Output"
	case d.MaxInputChannels > 0:
		return "Input"
	case d.MaxOutputChannels > 0:
		return "Output"
	default:
		return "None"
	}
}

// HostDevices returns every device PortAudio reports. IDs are indices into
// that list and are what the configuration refers to.
func HostDevices() ([]Device, error) {
	infos, err := paDevicesFunc()
	if err != nil {
		return nil, fmt.Errorf("enumerate devices: %w", err)
	}

	devices := make([]Device, len(infos))
	for i, info := range infos {
		d := Device{
			ID:                i,
			Name:              info.Name,
			MaxInputChannels:  info.MaxInputChannels,
			MaxOutputChannels: info.MaxOutputChannels,
			DefaultSampleRate: info.DefaultSampleRate,
			LowInputLatency:   info.DefaultLowInputLatency,
			LowOutputLatency:  info.DefaultLowOutputLatency,
			Preferred:         isPreferred(info.Name),
		}
		if info.HostApi != nil {
			d.HostAPI = info.HostApi.Name
		}
		devices[i] = d
	}
	return devices, nil
}

// ListDevices writes a human readable device table to w.
func ListDevices(w io.Writer) error {
	devices, err := HostDevices()
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "\nAvailable Audio Devices\n\n")
	for _, d := range devices {
		marker := ""
		if d.Preferred {
			marker = " *"
		}
		fmt.Fprintf(w, "[%d] %s (%s)%s\n", d.ID, d.Name, d.Direction(), marker)
		fmt.Fprintf(w, "    Host API: %s\n", d.HostAPI)
		fmt.Fprintf(w, "    Input channels: %d, Output channels: %d\n", d.MaxInputChannels, d.MaxOutputChannels)
		fmt.Fprintf(w, "    Default sample rate: %.0f Hz\n", d.DefaultSampleRate)
		fmt.Fprintf(w, "    Low latency: In=%.2fms, Out=%.2fms\n\n",
			d.LowInputLatency.Seconds()*1000,
			d.LowOutputLatency.Seconds()*1000)
	}
	fmt.Fprintf(w, "* preferred when no device is configured\n")
	return nil
}

// OpenDevices enumerates the host devices and applies SelectDevices.
func OpenDevices(inputID, outputID int) (input, output *portaudio.DeviceInfo, err error) {
	infos, err := paDevicesFunc()
	if err != nil {
		return nil, nil, fmt.Errorf("enumerate devices: %w", err)
	}
	return SelectDevices(infos, inputID, outputID)
}

// SelectDevices picks the input and output endpoints. A non-negative ID
// selects that device and must support the direction. Otherwise the first
// device whose name contains a preferred mixer name wins, then the first
// device with any channel in the required direction.
func SelectDevices(devices []*portaudio.DeviceInfo, inputID, outputID int) (input, output *portaudio.DeviceInfo, err error) {
	hasInput := func(d *portaudio.DeviceInfo) bool { return d.MaxInputChannels > 0 }
	hasOutput := func(d *portaudio.DeviceInfo) bool { return d.MaxOutputChannels > 0 }

	input, err = selectDevice(devices, inputID, hasInput, ErrNoInputDevice)
	if err != nil {
		return nil, nil, err
	}
	output, err = selectDevice(devices, outputID, hasOutput, ErrNoOutputDevice)
	if err != nil {
		return nil, nil, err
	}
	return input, output, nil
}

func selectDevice(devices []*portaudio.DeviceInfo, id int, usable func(*portaudio.DeviceInfo) bool, none error) (*portaudio.DeviceInfo, error) {
	if id >= 0 {
		if id >= len(devices) || devices[id] == nil {
			return nil, fmt.Errorf("%w: id %d out of range", ErrInvalidDevice, id)
		}
		if !usable(devices[id]) {
			return nil, fmt.Errorf("%w: %q (id %d) lacks the required channels", ErrInvalidDevice, devices[id].Name, id)
		}
		return devices[id], nil
	}

	for _, d := range devices {
		if d != nil && usable(d) && isPreferred(d.Name) {
			return d, nil
		}
	}
	for _, d := range devices {
		if d != nil && usable(d) {
			return d, nil
		}
	}
	return nil, none
}

func isPreferred(name string) bool {
	name = strings.ToLower(name)
	for _, p := range preferredDeviceNames {
		if strings.Contains(name, p) {
			return true
		}
	}
	return false
}
