package cmd

import (
	"fmt"
	"strconv"
	"strings"

	toml "github.com/pelletier/go-toml"
)

// Profile groups profile management subcommands, all served by a running
// FlightBridge server.
type Profile struct {
	List   ProfileList   `cmd:"" help:"List stored mapping profiles"`
	Show   ProfileShow   `cmd:"" help:"Print one profile as TOML"`
	Reset  ProfileReset  `cmd:"" help:"Replace a device profile with builtin defaults"`
	Delete ProfileDelete `cmd:"" help:"Delete a stored profile"`
}

type ProfileList struct {
	apiClientFlags `embed:""`
}

func (p *ProfileList) Run() error {
	res, err := p.client().Profiles()
	if err != nil {
		return err
	}
	if len(res.Profiles) == 0 {
		fmt.Println("no profiles stored")
		return nil
	}
	fmt.Printf("%-9s %-16s %-24s %s\n", "KEY", "GAME", "DEVICE", "MAPPINGS")
	for _, s := range res.Profiles {
		game := s.GameID
		if game == "" {
			game = "-"
		}
		fmt.Printf("%-9s %-16s %-24s %d axes, %d buttons\n", s.Key, game, s.DeviceName, s.Axes, s.Buttons)
	}
	return nil
}

type ProfileShow struct {
	apiClientFlags `embed:""`

	Vid  string `arg:"" help:"Vendor id (hex, e.g. 044f)"`
	Pid  string `arg:"" help:"Product id (hex, e.g. b10a)"`
	Game string `help:"Game scope; empty shows the device default"`
}

func (p *ProfileShow) Run() error {
	vid, pid, err := parseDeviceIDs(p.Vid, p.Pid)
	if err != nil {
		return err
	}
	prof, err := p.client().Profile(vid, pid, p.Game)
	if err != nil {
		return err
	}
	data, err := toml.Marshal(prof)
	if err != nil {
		return err
	}
	fmt.Print(string(data))
	return nil
}

type ProfileReset struct {
	apiClientFlags `embed:""`

	Vid string `arg:"" help:"Vendor id (hex)"`
	Pid string `arg:"" help:"Product id (hex)"`
}

func (p *ProfileReset) Run() error {
	vid, pid, err := parseDeviceIDs(p.Vid, p.Pid)
	if err != nil {
		return err
	}
	prof, err := p.client().ProfileReset(vid, pid)
	if err != nil {
		return err
	}
	fmt.Printf("profile %s reset to defaults (%d axes, %d buttons)\n", prof.Key(), len(prof.Axes), len(prof.Buttons))
	return nil
}

type ProfileDelete struct {
	apiClientFlags `embed:""`

	Vid  string `arg:"" help:"Vendor id (hex)"`
	Pid  string `arg:"" help:"Product id (hex)"`
	Game string `help:"Game scope; empty deletes the device default"`
}

func (p *ProfileDelete) Run() error {
	vid, pid, err := parseDeviceIDs(p.Vid, p.Pid)
	if err != nil {
		return err
	}
	res, err := p.client().ProfileDelete(vid, pid, p.Game)
	if err != nil {
		return err
	}
	if res.GameID != "" {
		fmt.Printf("deleted profile %s for game %s\n", res.Key, res.GameID)
	} else {
		fmt.Printf("deleted profile %s\n", res.Key)
	}
	return nil
}

func parseDeviceIDs(vid, pid string) (uint16, uint16, error) {
	v, err := parseHexID(vid, "vendor id")
	if err != nil {
		return 0, 0, err
	}
	p, err := parseHexID(pid, "product id")
	if err != nil {
		return 0, 0, err
	}
	return v, p, nil
}

func parseHexID(s, name string) (uint16, error) {
	trimmed := strings.TrimPrefix(strings.ToLower(s), "0x")
	v, err := strconv.ParseUint(trimmed, 16, 16)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: expected a hex id like 044f", name, s)
	}
	return uint16(v), nil
}
