package state

import (
	"path/filepath"
	"sync"

	"github.com/hashicorp/hcl"
	"github.com/juju/errors"
	"github.com/temoto/gcalc/hardware/pins"
	"github.com/temoto/gcalc/helpers"
	ui_config "github.com/temoto/gcalc/internal/ui/config"
	"github.com/temoto/gcalc/log2"
)

const (
	DriverGpioCdev      = "gpio-cdev"
	DriverPeriph        = "periph"
	DriverMock          = "mock"
	KeypadMatrix        = "matrix"
	KeypadButton        = "button"
	KeypadDevInputEvent = "dev-input-event"
)

type Config struct {
	// includeSeen contains absolute paths to prevent include loops
	includeSeen map[string]struct{}
	// only used for Unmarshal, do not access
	XXX_Include []ConfigSource `hcl:"include"`

	Hardware struct {
		PinChip    string `hcl:"pin_chip"`
		DisplayBus struct { //nolint:maligned
			Driver          string      `hcl:"driver"`
			ClockHz         int         `hcl:"clock_hz"`
			SubmitTimeoutMs int         `hcl:"submit_timeout_ms"`
			LogDebug        bool        `hcl:"log_debug"`
			Pinmap          pins.PinMap `hcl:"pinmap"`
		} `hcl:"display_bus"`
		Display struct {
			Enable     bool   `hcl:"enable"`
			Codepage   string `hcl:"codepage"`
			MemorySize int    `hcl:"memory_size"`
		} `hcl:"display"`
		Keypad struct { //nolint:maligned
			Driver     string   `hcl:"driver"`
			PollMs     int      `hcl:"poll_ms"`
			QueueSize  int      `hcl:"queue_size"`
			Rows       []string `hcl:"rows"`
			Cols       []string `hcl:"cols"`
			ButtonPin  string   `hcl:"button_pin"`
			ButtonCode int      `hcl:"button_code"`
			Device     string   `hcl:"device"`
			LogDebug   bool     `hcl:"log_debug"`
		} `hcl:"keypad"`
	} `hcl:"hardware"`

	UI ui_config.Config `hcl:"ui"`

	_copy_guard sync.Mutex //nolint:unused
}

type ConfigSource struct {
	Name     string `hcl:"name,key"`
	Optional bool   `hcl:"optional"`
}

func (c *Config) read(log *log2.Log, fs FullReader, source ConfigSource, errs *[]error) {
	norm := fs.Normalize(source.Name)
	if _, ok := c.includeSeen[norm]; ok {
		log.Fatalf("config duplicate source=%s", source.Name)
	} else {
		log.Debugf("config reading source='%s' path=%s", source.Name, norm)
	}
	c.includeSeen[source.Name] = struct{}{}
	c.includeSeen[norm] = struct{}{}

	bs, err := fs.ReadAll(norm)
	if bs == nil && err == nil {
		if !source.Optional {
			err = errors.NotFoundf("config required name=%s path=%s", source.Name, norm)
			*errs = append(*errs, err)
		}
		return
	}
	if err != nil {
		*errs = append(*errs, errors.Annotatef(err, "config source=%s", source.Name))
		return
	}

	err = hcl.Unmarshal(bs, c)
	if err != nil {
		err = errors.Annotatef(err, "config unmarshal source=%s content='%s'", source.Name, string(bs))
		*errs = append(*errs, err)
		return
	}

	var includes []ConfigSource
	includes, c.XXX_Include = c.XXX_Include, nil
	for _, include := range includes {
		includeNorm := fs.Normalize(include.Name)
		if _, ok := c.includeSeen[includeNorm]; ok {
			err = errors.Errorf("config include loop: from=%s include=%s", source.Name, include.Name)
			*errs = append(*errs, err)
			continue
		}
		c.read(log, fs, include, errs)
	}
}

// Validate checks enum fields and value ranges, empty driver is accepted
// and means default.
func (c *Config) Validate() error {
	errs := make([]error, 0, 4)
	hw := &c.Hardware
	switch hw.DisplayBus.Driver {
	case "", DriverGpioCdev, DriverPeriph, DriverMock:
	default:
		errs = append(errs, errors.NotValidf("config: hardware.display_bus.driver=%s valid: %s, %s, %s",
			hw.DisplayBus.Driver, DriverGpioCdev, DriverPeriph, DriverMock))
	}
	if hw.DisplayBus.ClockHz < 0 {
		errs = append(errs, errors.NotValidf("config: hardware.display_bus.clock_hz=%d", hw.DisplayBus.ClockHz))
	}
	switch hw.Keypad.Driver {
	case "", KeypadMatrix, KeypadButton, KeypadDevInputEvent, DriverMock:
	default:
		errs = append(errs, errors.NotValidf("config: hardware.keypad.driver=%s valid: %s, %s, %s, %s",
			hw.Keypad.Driver, KeypadMatrix, KeypadButton, KeypadDevInputEvent, DriverMock))
	}
	if hw.Keypad.ButtonCode < 0 || hw.Keypad.ButtonCode > 0xff {
		errs = append(errs, errors.NotValidf("config: hardware.keypad.button_code=%d", hw.Keypad.ButtonCode))
	}
	if c.UI.Window.XMin > c.UI.Window.XMax || c.UI.Window.YMin > c.UI.Window.YMax {
		errs = append(errs, errors.NotValidf("config: ui.window min > max"))
	}
	return helpers.FoldErrors(errs)
}

func ReadConfig(log *log2.Log, fs FullReader, names ...string) (*Config, error) {
	if len(names) == 0 {
		log.Fatal("code error [Must]ReadConfig() without names")
	}

	if osfs, ok := fs.(*OsFullReader); ok {
		dir, name := filepath.Split(names[0])
		osfs.SetBase(dir)
		names[0] = name
	}
	c := &Config{
		includeSeen: make(map[string]struct{}),
	}
	errs := make([]error, 0, 8)
	for _, name := range names {
		c.read(log, fs, ConfigSource{Name: name}, &errs)
	}
	return c, helpers.FoldErrors(errs)
}

func MustReadConfig(log *log2.Log, fs FullReader, names ...string) *Config {
	c, err := ReadConfig(log, fs, names...)
	if err != nil {
		log.Fatal(errors.ErrorStack(err))
	}
	return c
}
