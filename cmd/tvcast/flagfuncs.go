package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"net/url"
	"os"
	"runtime"

	"github.com/pkg/errors"
	"tvcast.app/tvcast/devices"
	"tvcast.app/tvcast/internal/config"
)

type flagResults struct {
	cfg    *config.Config
	target string
	exit   bool
}

// listAllowed are the flags that may accompany -l.
var listAllowed = map[string]bool{"l": true, "c": true, "debug": true}

var (
	loadSSDPservices = devices.LoadSSDPservices
	loadCastDevices  = devices.LoadCastDevices
)

func listFlagFunction(w io.Writer, cfg *config.Config, setFlags []string) error {
	for _, name := range setFlags {
		if !listAllowed[name] {
			return ErrNoCombi
		}
	}

	var deviceList []devices.Device

	dialDevices, dialErr := loadSSDPservices(cfg.DIAL.SearchDelay)
	deviceList = append(deviceList, dialDevices...)

	castDevices, castErr := loadCastDevices(context.Background(), cfg.Cast.Timeout)
	deviceList = append(deviceList, castDevices...)

	if dialErr != nil && castErr != nil {
		return ErrFailtoList
	}

	printDevices(w, deviceList)

	return nil
}

func printDevices(w io.Writer, deviceList []devices.Device) {
	boldStart := ""
	boldEnd := ""

	if runtime.GOOS == "linux" {
		boldStart = "\033[1m"
		boldEnd = "\033[0m"
	}

	fmt.Fprintln(w)

	for q, d := range deviceList {
		kind := d.Type
		if d.IsAudioOnly {
			kind += " (audio only)"
		}

		fmt.Fprintf(w, "%sDevice %v%s\n", boldStart, q+1, boldEnd)
		fmt.Fprintf(w, "%s--------%s\n", boldStart, boldEnd)
		fmt.Fprintf(w, "%sModel:%s %s\n", boldStart, boldEnd, d.Name)
		fmt.Fprintf(w, "%sType:%s  %s\n", boldStart, boldEnd, kind)
		fmt.Fprintf(w, "%sURL:%s   %s\n", boldStart, boldEnd, d.Addr)
		fmt.Fprintln(w)
	}
}

func processflags() (*flagResults, error) {
	res := &flagResults{}

	if checkVerflag() {
		res.exit = true
		return res, nil
	}

	cfg, err := config.Load(*configPtr)
	if err != nil {
		return nil, errors.Wrap(err, "checkflags error")
	}
	res.cfg = cfg

	if *tvPtr != "" {
		cfg.TV.Host = *tvPtr
	}

	if err := checkModeflags(); err != nil {
		return nil, errors.Wrap(err, "checkflags error")
	}

	if err := checkVolflag(flagIsSet("vol")); err != nil {
		return nil, errors.Wrap(err, "checkflags error")
	}

	if err := checkTflag(res); err != nil {
		return nil, errors.Wrap(err, "checkflags error")
	}

	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "checkflags config error")
	}

	list, err := checkLflag(cfg)
	if err != nil {
		return nil, errors.Wrap(err, "checkflags error")
	}

	if list {
		res.exit = true
		return res, nil
	}

	return res, nil
}

func checkModeflags() error {
	modes := 0
	for _, on := range []bool{*powerPtr, *volPtr >= 0, *listenPtr, *interactivePtr} {
		if on {
			modes++
		}
	}

	if modes > 1 {
		return ErrModeCombi
	}

	return nil
}

func flagIsSet(name string) bool {
	set := false
	flag.Visit(func(f *flag.Flag) {
		if f.Name == name {
			set = true
		}
	})
	return set
}

// checkVolflag validates -vol. volSet tells an explicit -vol -1 apart from
// the unset default.
func checkVolflag(volSet bool) error {
	if (volSet && *volPtr < 0) || *volPtr > 100 {
		return errors.Errorf("checkVolflag error: volume %d out of range 0-100", *volPtr)
	}

	return nil
}

func checkTflag(res *flagResults) error {
	if *targetPtr != "" {
		// Validate URL before proceeding.
		if _, err := url.ParseRequestURI(*targetPtr); err != nil {
			return errors.Wrap(err, "checkTflag parse error")
		}

		res.cfg.DIAL.Descriptor = *targetPtr
		res.target = *targetPtr
		return nil
	}

	if res.cfg.DIAL.Descriptor != "" || *listPtr || res.cfg.Receiver.Backend == config.BackendCast {
		res.target = res.cfg.DIAL.Descriptor
		return nil
	}

	deviceList, err := loadSSDPservices(res.cfg.DIAL.SearchDelay)
	if err != nil {
		return errors.Wrap(err, "checkTflag service loading error")
	}

	res.target, err = devices.DevicePicker(deviceList, 1)
	if err != nil {
		return errors.Wrap(err, "checkTflag device picker error")
	}
	res.cfg.DIAL.Descriptor = res.target

	return nil
}

func checkLflag(cfg *config.Config) (bool, error) {
	if *listPtr {
		var setFlags []string
		flag.Visit(func(f *flag.Flag) {
			setFlags = append(setFlags, f.Name)
		})

		if err := listFlagFunction(os.Stdout, cfg, setFlags); err != nil {
			return false, errors.Wrap(err, "checkLflag error")
		}
		return true, nil
	}

	return false, nil
}

func checkVerflag() bool {
	if *versionPtr {
		fmt.Printf("tvcast Version: %s", version)
		return true
	}
	return false
}
