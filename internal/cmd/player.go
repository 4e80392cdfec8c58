package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/spotifyweb/spotify-cli/internal/api"
	"github.com/spotifyweb/spotify-cli/internal/endpoints"
	"github.com/spotifyweb/spotify-cli/internal/model"
)

func newPlayerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "player",
		Aliases: []string{"play"},
		Short:   "Control playback",
		Long:    "Control playback on your devices. Requires a Premium account and the user-modify-playback-state scope.",
	}

	cmd.AddCommand(newPlayerDevicesCmd())
	cmd.AddCommand(newPlayerPauseCmd())
	cmd.AddCommand(newPlayerVolumeCmd())

	return cmd
}

var deviceTable = listTable[model.Device]{
	headers: []string{"ID", "NAME", "TYPE", "ACTIVE", "VOLUME"},
	row: func(d model.Device) []string {
		id, volume := "-", "-"
		if d.ID != nil {
			id = *d.ID
		}
		if d.VolumePercent != nil {
			volume = fmt.Sprintf("%d%%", *d.VolumePercent)
		}
		active := ""
		if d.IsActive {
			active = "*"
		}
		return []string{id, d.Name, d.Type, active, volume}
	},
	empty: "No devices available. Open Spotify on a device first.",
}

func newPlayerDevicesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "devices",
		Short: "List available devices",
		Args:  cobra.NoArgs,
		RunE: RunE(func(cmd *cobra.Command, _ []string) error {
			ctx := cmdContext(cmd)
			client, err := getClient(ctx)
			if err != nil {
				return err
			}
			devices, err := api.Query[model.Devices](ctx, endpoints.GetAvailableDevices{}, client)
			if err != nil {
				return err
			}
			if isJSON(cmd) {
				if devices.Devices == nil {
					devices.Devices = []model.Device{}
				}
				return printJSON(cmd, devices.Devices)
			}

			f := newFormatter(cmd)
			if len(devices.Devices) == 0 {
				f.Empty(deviceTable.empty)
				return nil
			}
			f.StartTable(deviceTable.headers)
			for _, d := range devices.Devices {
				f.Row(deviceTable.row(d)...)
			}
			return f.EndTable()
		}),
	}
}

func newPlayerPauseCmd() *cobra.Command {
	var deviceID string

	cmd := &cobra.Command{
		Use:   "pause",
		Short: "Pause playback",
		Example: strings.TrimSpace(`
  spotify player pause
  spotify player pause --device 0d1841b0976bae2a3a310dd74c0f3df354899bc8
`),
		Args: cobra.NoArgs,
		RunE: RunE(func(cmd *cobra.Command, _ []string) error {
			ctx := cmdContext(cmd)
			client, err := getClient(ctx)
			if err != nil {
				return err
			}
			ep := endpoints.PausePlayback{DeviceID: deviceID}
			if stop, err := previewWrite(cmd, client, "pause", "playback", ep); stop {
				return err
			}
			if err := api.Ignore(ctx, ep, client); err != nil {
				return err
			}
			if isJSON(cmd) {
				return printJSON(cmd, map[string]any{"paused": true})
			}
			printAction(cmd, "Playback paused")
			return nil
		}),
	}

	cmd.Flags().StringVar(&deviceID, "device", "", "Device ID (default: the active device)")
	return cmd
}

func newPlayerVolumeCmd() *cobra.Command {
	var deviceID string

	cmd := &cobra.Command{
		Use:   "volume <percent>",
		Short: "Set the playback volume",
		Example: strings.TrimSpace(`
  spotify player volume 40
`),
		Args: cobra.ExactArgs(1),
		RunE: RunE(func(cmd *cobra.Command, args []string) error {
			percent, err := strconv.Atoi(strings.TrimSuffix(strings.TrimSpace(args[0]), "%"))
			if err != nil || percent < 0 || percent > 100 {
				return fmt.Errorf("invalid volume %q: must be between 0 and 100", args[0])
			}
			ctx := cmdContext(cmd)
			client, err := getClient(ctx)
			if err != nil {
				return err
			}
			ep := endpoints.SetPlaybackVolume{VolumePercent: percent, DeviceID: deviceID}
			if stop, err := previewWrite(cmd, client, "set", fmt.Sprintf("volume to %d%%", percent), ep); stop {
				return err
			}
			if err := api.Ignore(ctx, ep, client); err != nil {
				return err
			}
			if isJSON(cmd) {
				return printJSON(cmd, map[string]any{"volume_percent": percent})
			}
			printAction(cmd, "Volume set to %d%%", percent)
			return nil
		}),
	}

	cmd.Flags().StringVar(&deviceID, "device", "", "Device ID (default: the active device)")
	return cmd
}
