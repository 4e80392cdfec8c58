package model

type Device struct {
	ID               *string `json:"id"`
	IsActive         bool    `json:"is_active"`
	IsPrivateSession bool    `json:"is_private_session"`
	// IsRestricted devices accept no Web API commands.
	IsRestricted   bool   `json:"is_restricted"`
	Name           string `json:"name"`
	Type           string `json:"type"`
	VolumePercent  *int   `json:"volume_percent"`
	SupportsVolume bool   `json:"supports_volume"`
}

type Devices struct {
	Devices []Device `json:"devices"`
}
