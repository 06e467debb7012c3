// Package hidraw implements the hid backend on Linux via the kernel's hidraw
// interface: devices are enumerated from /sys/class/hidraw and read from
// /dev/hidraw* nodes.
package hidraw

import (
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/flightbridge/flightbridge/hid"
)

// scan walks a hidraw sysfs class directory and resolves each node's device
// identity from its uevent file, plus the top-level usage pair from the raw
// report descriptor. The roots are parameters so tests can point at a fixture
// tree.
//
// The hid uevent carries no separate manufacturer string (HID_NAME is the
// kernel's combined vendor+product label), so Manufacturer stays empty here.
func scan(sysfsRoot, devRoot string) ([]hid.DeviceInfo, error) {
	entries, err := os.ReadDir(sysfsRoot)
	if err != nil {
		return nil, err
	}

	var devices []hid.DeviceInfo
	for _, entry := range entries {
		name := entry.Name()
		if !strings.HasPrefix(name, "hidraw") {
			continue
		}
		deviceDir := filepath.Join(sysfsRoot, name, "device")
		data, err := os.ReadFile(filepath.Join(deviceDir, "uevent"))
		if err != nil {
			continue
		}
		info, ok := parseUevent(string(data))
		if !ok {
			continue
		}
		info.Path = filepath.Join(devRoot, name)
		if desc, err := os.ReadFile(filepath.Join(deviceDir, "report_descriptor")); err == nil {
			info.UsagePage, info.Usage = descriptorUsage(desc)
		}
		devices = append(devices, info)
	}
	sort.Slice(devices, func(i, j int) bool { return devices[i].Path < devices[j].Path })
	return devices, nil
}

// parseUevent pulls the device identity out of a HID uevent block:
//
//	HID_ID=0003:0000044F:0000B10A
//	HID_NAME=Thrustmaster T.16000M
//	HID_PHYS=usb-0000:00:14.0-1/input0
//	HID_UNIQ=TM0000127
//
// HID_UNIQ is the per-unit serial and may be absent or empty. HID_PHYS ends
// in the USB interface number; transports without interfaces (bluetooth
// phys is the adapter address) leave Interface at -1.
func parseUevent(content string) (hid.DeviceInfo, bool) {
	info := hid.DeviceInfo{Interface: -1}
	var haveID bool
	for _, line := range strings.Split(content, "\n") {
		key, value, found := strings.Cut(strings.TrimSpace(line), "=")
		if !found {
			continue
		}
		switch key {
		case "HID_ID":
			parts := strings.Split(value, ":")
			if len(parts) != 3 {
				continue
			}
			vid, errV := strconv.ParseUint(parts[1], 16, 32)
			pid, errP := strconv.ParseUint(parts[2], 16, 32)
			if errV != nil || errP != nil {
				continue
			}
			info.VendorID = uint16(vid)
			info.ProductID = uint16(pid)
			haveID = true
		case "HID_NAME":
			info.Product = value
		case "HID_UNIQ":
			info.SerialNumber = value
		case "HID_PHYS":
			info.Interface = physInterface(value)
		}
	}
	return info, haveID
}

// physInterface extracts the interface number from a phys string's trailing
// "/input<N>", or -1 when there is none.
func physInterface(phys string) int {
	idx := strings.LastIndex(phys, "/input")
	if idx < 0 {
		return -1
	}
	n, err := strconv.Atoi(phys[idx+len("/input"):])
	if err != nil || n < 0 {
		return -1
	}
	return n
}

// descriptorUsage reads the top-level usage pair from the leading items of a
// report descriptor. sysfs exposes the raw descriptor bytes, not the parsed
// usage, so this walks short items until the first Collection: the Usage Page
// and Usage seen before it name what the device is (0x01/0x04 joystick,
// 0x01/0x05 gamepad). Returns zeros for absent or malformed descriptors.
func descriptorUsage(desc []byte) (page, usage uint16) {
	for i := 0; i < len(desc); {
		prefix := desc[i]
		size := int(prefix & 0x03)
		if size == 3 {
			size = 4
		}
		i++
		if i+size > len(desc) {
			return page, usage
		}
		var value uint32
		for b := 0; b < size; b++ {
			value |= uint32(desc[i+b]) << (8 * b)
		}
		i += size
		switch prefix & 0xfc {
		case 0x04: // global Usage Page
			if page == 0 {
				page = uint16(value)
			}
		case 0x08: // local Usage
			if usage == 0 {
				usage = uint16(value)
			}
		case 0xa0: // Collection ends the top-level preamble
			return page, usage
		}
	}
	return page, usage
}
