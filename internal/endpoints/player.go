package endpoints

import (
	"net/http"

	"github.com/spotifyweb/spotify-cli/internal/api"
)

// PausePlayback pauses playback on the active device, or on DeviceID when set.
type PausePlayback struct {
	api.EndpointDefaults
	DeviceID string
}

func (PausePlayback) Method() string { return http.MethodPut }
func (PausePlayback) Path() string   { return "me/player/pause" }

func (e PausePlayback) Parameters() *api.QueryParams {
	return pushDevice(api.NewQueryParams(), e.DeviceID)
}

// SetPlaybackVolume sets the volume of the playing device. VolumePercent is
// clamped to 0..100.
type SetPlaybackVolume struct {
	api.EndpointDefaults
	VolumePercent int
	DeviceID      string
}

func (SetPlaybackVolume) Method() string { return http.MethodPut }
func (SetPlaybackVolume) Path() string   { return "me/player/volume" }

func (e SetPlaybackVolume) Parameters() *api.QueryParams {
	return pushDevice(api.NewQueryParams(), e.DeviceID).
		Push("volume_percent", min(max(e.VolumePercent, 0), 100))
}

// GetAvailableDevices lists the devices the user can play on.
type GetAvailableDevices struct {
	api.EndpointDefaults
}

func (GetAvailableDevices) Method() string { return http.MethodGet }
func (GetAvailableDevices) Path() string   { return "me/player/devices" }

func pushDevice(p *api.QueryParams, deviceID string) *api.QueryParams {
	if deviceID != "" {
		p.Push("device_id", deviceID)
	}
	return p
}

var (
	_ api.Endpoint = PausePlayback{}
	_ api.Endpoint = SetPlaybackVolume{}
	_ api.Endpoint = GetAvailableDevices{}
)
