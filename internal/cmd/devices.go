package cmd

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/flightbridge/flightbridge/hid/hidraw"
)

type Devices struct {
	JSON bool `help:"Print the device list as JSON"`
}

// Run enumerates HID devices through the local capture backend.
func (d *Devices) Run(logger *slog.Logger) error {
	backend := hidraw.New(logger)
	infos, err := backend.Enumerate()
	if err != nil {
		return fmt.Errorf("failed to enumerate devices: %w", err)
	}

	if d.JSON {
		data, err := json.MarshalIndent(infos, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(data))
		return nil
	}

	if len(infos) == 0 {
		fmt.Println("no HID devices found")
		return nil
	}
	fmt.Printf("%-20s %-9s %-28s %s\n", "PATH", "ID", "PRODUCT", "SERIAL")
	for _, info := range infos {
		fmt.Printf("%-20s %04x:%04x %-28s %s\n", info.Path, info.VendorID, info.ProductID, info.Product, info.SerialNumber)
	}
	return nil
}
