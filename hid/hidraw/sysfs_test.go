package hidraw

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func writeNode(t *testing.T, sysfs, node, uevent string) {
	t.Helper()
	dir := filepath.Join(sysfs, node, "device")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir %s: %v", dir, err)
	}
	if uevent == "" {
		return
	}
	if err := os.WriteFile(filepath.Join(dir, "uevent"), []byte(uevent), 0o644); err != nil {
		t.Fatalf("write uevent: %v", err)
	}
}

func writeDescriptor(t *testing.T, sysfs, node string, desc []byte) {
	t.Helper()
	path := filepath.Join(sysfs, node, "device", "report_descriptor")
	if err := os.WriteFile(path, desc, 0o644); err != nil {
		t.Fatalf("write report_descriptor: %v", err)
	}
}

func TestScan(t *testing.T) {
	sysfs := t.TempDir()

	writeNode(t, sysfs, "hidraw0",
		"DRIVER=hid-generic\nHID_ID=0003:0000044F:0000B10A\nHID_NAME=Thrustmaster T.16000M\nHID_PHYS=usb-0000:00:14.0-1/input0\nHID_UNIQ=TM0000127\n")
	writeDescriptor(t, sysfs, "hidraw0",
		[]byte{0x05, 0x01, 0x09, 0x04, 0xa1, 0x01, 0x05, 0x09, 0x19, 0x01})
	writeNode(t, sysfs, "hidraw3",
		"HID_ID=0003:0000231D:00000200\nHID_NAME=VKBsim Gladiator NXT\n")
	// No uevent at all: skipped.
	writeNode(t, sysfs, "hidraw1", "")
	// Unparseable identity: skipped.
	writeNode(t, sysfs, "hidraw2", "DRIVER=hid-generic\n")
	// Unrelated entries are ignored.
	if err := os.MkdirAll(filepath.Join(sysfs, "by-id"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	devices, err := scan(sysfs, "/dev")
	if !assert.NoError(t, err) {
		return
	}
	if !assert.Len(t, devices, 2) {
		return
	}
	assert.Equal(t, "/dev/hidraw0", devices[0].Path)
	assert.Equal(t, uint16(0x044F), devices[0].VendorID)
	assert.Equal(t, uint16(0xB10A), devices[0].ProductID)
	assert.Equal(t, "Thrustmaster T.16000M", devices[0].Product)
	assert.Equal(t, "TM0000127", devices[0].SerialNumber)
	assert.Equal(t, 0, devices[0].Interface)
	assert.Equal(t, uint16(0x01), devices[0].UsagePage)
	assert.Equal(t, uint16(0x04), devices[0].Usage)
	assert.Equal(t, "/dev/hidraw3", devices[1].Path)
	assert.Equal(t, "VKBsim Gladiator NXT", devices[1].Product)
	// hidraw3 has no HID_UNIQ, HID_PHYS, or descriptor.
	assert.Empty(t, devices[1].SerialNumber)
	assert.Equal(t, -1, devices[1].Interface)
	assert.Zero(t, devices[1].UsagePage)
	assert.Zero(t, devices[1].Usage)
}

func TestScanMissingRoot(t *testing.T) {
	_, err := scan(filepath.Join(t.TempDir(), "nope"), "/dev")
	assert.Error(t, err)
}

func TestParseUevent(t *testing.T) {
	type testCase struct {
		name        string
		content     string
		wantOK      bool
		wantVendor  uint16
		wantProduct uint16
		wantName    string
		wantSerial  string
		wantIface   int
	}

	testCases := []testCase{
		{
			name:        "usb joystick",
			content:     "DRIVER=hid-generic\nHID_ID=0003:0000044F:0000B108\nHID_NAME=T.Flight Hotas X\n",
			wantOK:      true,
			wantVendor:  0x044F,
			wantProduct: 0xB108,
			wantName:    "T.Flight Hotas X",
			wantIface:   -1,
		},
		{
			name:        "usb with serial and interface",
			content:     "HID_ID=0003:0000231D:00000200\nHID_NAME=VKBsim Gladiator NXT\nHID_PHYS=usb-0000:00:14.0-2/input2\nHID_UNIQ=128E5A21\n",
			wantOK:      true,
			wantVendor:  0x231D,
			wantProduct: 0x0200,
			wantName:    "VKBsim Gladiator NXT",
			wantSerial:  "128E5A21",
			wantIface:   2,
		},
		{
			name:        "bluetooth device",
			content:     "HID_ID=0005:0000054C:00000CE6\nHID_NAME=Wireless Controller\nHID_PHYS=e4:5f:01:8a:2b:c3\nHID_UNIQ=7c:66:ef:4a:12:34\n",
			wantOK:      true,
			wantVendor:  0x054C,
			wantProduct: 0x0CE6,
			wantName:    "Wireless Controller",
			wantSerial:  "7c:66:ef:4a:12:34",
			wantIface:   -1,
		},
		{
			name:        "name containing equals sign",
			content:     "HID_ID=0003:00000001:00000002\nHID_NAME=Odd=Name\n",
			wantOK:      true,
			wantVendor:  1,
			wantProduct: 2,
			wantName:    "Odd=Name",
			wantIface:   -1,
		},
		{
			name:        "empty serial stays empty",
			content:     "HID_ID=0003:00000001:00000002\nHID_NAME=Generic\nHID_UNIQ=\n",
			wantOK:      true,
			wantVendor:  1,
			wantProduct: 2,
			wantName:    "Generic",
			wantIface:   -1,
		},
		{
			name:    "missing id",
			content: "DRIVER=hid-generic\nHID_NAME=Nameless\n",
			wantOK:  false,
		},
		{
			name:    "truncated id",
			content: "HID_ID=0003:0000044F\n",
			wantOK:  false,
		},
		{
			name:    "unparseable id",
			content: "HID_ID=0003:zzzz:0000\n",
			wantOK:  false,
		},
		{
			name:    "empty",
			content: "",
			wantOK:  false,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			info, ok := parseUevent(tc.content)
			assert.Equal(t, tc.wantOK, ok)
			if !tc.wantOK {
				return
			}
			assert.Equal(t, tc.wantVendor, info.VendorID)
			assert.Equal(t, tc.wantProduct, info.ProductID)
			assert.Equal(t, tc.wantName, info.Product)
			assert.Equal(t, tc.wantSerial, info.SerialNumber)
			assert.Equal(t, tc.wantIface, info.Interface)
		})
	}
}

func TestPhysInterface(t *testing.T) {
	type testCase struct {
		name string
		phys string
		want int
	}

	testCases := []testCase{
		{name: "usb interface zero", phys: "usb-0000:00:14.0-1/input0", want: 0},
		{name: "usb interface three", phys: "usb-0000:02:00.0-4.1/input3", want: 3},
		{name: "bluetooth address", phys: "e4:5f:01:8a:2b:c3", want: -1},
		{name: "trailing junk", phys: "usb-0000:00:14.0-1/inputX", want: -1},
		{name: "empty", phys: "", want: -1},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, physInterface(tc.phys))
		})
	}
}

func TestDescriptorUsage(t *testing.T) {
	type testCase struct {
		name      string
		desc      []byte
		wantPage  uint16
		wantUsage uint16
	}

	testCases := []testCase{
		{
			name:      "joystick",
			desc:      []byte{0x05, 0x01, 0x09, 0x04, 0xa1, 0x01},
			wantPage:  0x01,
			wantUsage: 0x04,
		},
		{
			name:      "gamepad",
			desc:      []byte{0x05, 0x01, 0x09, 0x05, 0xa1, 0x01},
			wantPage:  0x01,
			wantUsage: 0x05,
		},
		{
			name:      "vendor page two byte",
			desc:      []byte{0x06, 0x00, 0xff, 0x09, 0x01, 0xa1, 0x01},
			wantPage:  0xff00,
			wantUsage: 0x01,
		},
		{
			// Items inside the collection must not override the top-level pair.
			name:      "stops at first collection",
			desc:      []byte{0x05, 0x01, 0x09, 0x04, 0xa1, 0x01, 0x05, 0x09, 0x09, 0x20},
			wantPage:  0x01,
			wantUsage: 0x04,
		},
		{
			name:     "page without usage",
			desc:     []byte{0x05, 0x01, 0xa1, 0x01},
			wantPage: 0x01,
		},
		{
			name: "empty",
			desc: nil,
		},
		{
			name: "truncated item",
			desc: []byte{0x05},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			page, usage := descriptorUsage(tc.desc)
			assert.Equal(t, tc.wantPage, page)
			assert.Equal(t, tc.wantUsage, usage)
		})
	}
}
