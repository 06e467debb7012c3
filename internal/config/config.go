// Package config defines the CLI structure and configuration for FlightBridge.
package config

import (
	"github.com/flightbridge/flightbridge/internal/cmd"
)

type Log struct {
	Level   string `help:"Log level: trace, debug, info, warn, error" default:"info" env:"FLIGHTBRIDGE_LOG_LEVEL"`
	File    string `help:"Log file path (default: none; logs only to console)" env:"FLIGHTBRIDGE_LOG_FILE"`
	RawFile string `help:"Raw report log file path (default: none)" env:"FLIGHTBRIDGE_LOG_RAW_FILE"`
}

// CLI is the root command structure for Kong CLI parsing.
type CLI struct {
	Log `embed:"" prefix:"log."`

	Serve     cmd.Serve         `cmd:"" help:"Start the FlightBridge capture server"`
	Devices   cmd.Devices       `cmd:"" help:"List HID devices visible to the capture backend"`
	Monitor   cmd.Monitor       `cmd:"" help:"Follow live capture events from a running server"`
	Profile   cmd.Profile       `cmd:"" help:"Inspect and edit device mapping profiles"`
	Config    cmd.ConfigCommand `cmd:"" help:"Configuration file helpers"`
	Install   cmd.Install       `cmd:"" help:"Set up FlightBridge to start automatically"`
	Uninstall cmd.Uninstall     `cmd:"" help:"Remove the FlightBridge autostart configuration"`
}
