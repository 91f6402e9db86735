package main

import (
	"fmt"

	"github.com/dusk-indust/mergeframes/internal/host"
	"github.com/dusk-indust/mergeframes/internal/settings"
	"github.com/spf13/cobra"
)

func (a *app) newTriggerCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "trigger <run|settings|toggle> [flag] [on|off]",
		Short: "Send a plugin event through the development host",
		Long: `Ask the development host to send an event to every attached plugin, as if
the user had pressed a button or flipped a toggle.

Examples:
  mergeframes trigger run
  mergeframes trigger settings
  mergeframes trigger toggle align_coordinates on`,
		Args: cobra.RangeArgs(1, 3),
		RunE: func(cmd *cobra.Command, args []string) error {
			ev, err := parseTriggerArgs(args)
			if err != nil {
				return err
			}
			client := host.NewClient(a.cfg.HostURL, host.WithTimeout(a.cfg.RequestTimeout))
			if err := client.Trigger(cmd.Context(), ev); err != nil {
				return err
			}
			fmt.Fprintf(a.out, "sent %s\n", ev.Kind)
			return nil
		},
	}
}

func parseTriggerArgs(args []string) (host.Event, error) {
	switch args[0] {
	case "run":
		if len(args) != 1 {
			return host.Event{}, fmt.Errorf("run takes no arguments")
		}
		return host.Event{Kind: host.EventKindRun}, nil
	case "settings":
		if len(args) != 1 {
			return host.Event{}, fmt.Errorf("settings takes no arguments")
		}
		return host.Event{Kind: host.EventKindAdvancedSettings}, nil
	case "toggle":
		if len(args) != 3 {
			return host.Event{}, fmt.Errorf("usage: toggle <flag> <on|off>")
		}
		flag := settings.Flag(args[1])
		if flag != settings.FlagAlignCoordinates && flag != settings.FlagDeleteOriginals {
			return host.Event{}, fmt.Errorf("unknown flag %q", args[1])
		}
		var value bool
		switch args[2] {
		case "on":
			value = true
		case "off":
		default:
			return host.Event{}, fmt.Errorf("toggle value must be on or off, got %q", args[2])
		}
		return host.Event{
			Kind:   host.EventKindSettingsToggled,
			Toggle: &settings.ToggleEvent{Flag: flag, Value: value},
		}, nil
	default:
		return host.Event{}, fmt.Errorf("unknown event %q", args[0])
	}
}
