package tui

import (
	"errors"
	"testing"

	"hush/internal/audio"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testDevices() ([]audio.Device, error) {
	return []audio.Device{
		{ID: 0, Name: "hw:0,0", MaxInputChannels: 2},
		{ID: 1, Name: "pulse", MaxInputChannels: 32, MaxOutputChannels: 32, DefaultSampleRate: 48000, Preferred: true},
	}, nil
}

func loadedModel(t *testing.T) DeviceListModel {
	t.Helper()
	m := NewDeviceListModel(testDevices)
	msg := m.Init()()

	next, _ := m.Update(tea.WindowSizeMsg{Width: 80, Height: 24})
	next, _ = next.Update(msg)
	return next.(DeviceListModel)
}

func TestDeviceListNavigation(t *testing.T) {
	m := loadedModel(t)
	assert.Contains(t, m.View(), "pulse (Input/Output) *")

	d, ok := m.Selected()
	require.True(t, ok)
	assert.Equal(t, "hw:0,0", d.Name)

	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyDown})
	next, _ = next.Update(tea.KeyMsg{Type: tea.KeyDown}) // stays on last
	m = next.(DeviceListModel)
	d, _ = m.Selected()
	assert.Equal(t, "pulse", d.Name)

	next, _ = m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = next.(DeviceListModel)
	assert.Equal(t, DetailScreen, m.screen)
	assert.Contains(t, m.View(), "Picked automatically")

	next, _ = m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	assert.Equal(t, ListScreen, next.(DeviceListModel).screen)
}

func TestDeviceListError(t *testing.T) {
	m := NewDeviceListModel(func() ([]audio.Device, error) { return nil, errors.New("no backend") })
	msg := m.Init()()

	next, _ := m.Update(tea.WindowSizeMsg{Width: 80, Height: 24})
	next, _ = next.Update(msg)
	assert.Contains(t, next.View(), "no backend")

	_, ok := next.(DeviceListModel).Selected()
	assert.False(t, ok)
}

func TestDeviceListEmpty(t *testing.T) {
	m := NewDeviceListModel(func() ([]audio.Device, error) { return nil, nil })
	msg := m.Init()()

	next, _ := m.Update(tea.WindowSizeMsg{Width: 80, Height: 24})
	next, _ = next.Update(msg)
	next, _ = next.Update(tea.KeyMsg{Type: tea.KeyDown})
	next, _ = next.Update(tea.KeyMsg{Type: tea.KeyEnter})

	m = next.(DeviceListModel)
	assert.Equal(t, ListScreen, m.screen)
	assert.Contains(t, m.View(), "No audio devices found.")
	_, ok := m.Selected()
	assert.False(t, ok)
}
