//go:build !(rp2040 || rp2350)

package setups

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"pdbridge-go/errcode"
	"pdbridge-go/services/bmc/internal/halcore"
)

// File is the on-disk form of a ResourcePlan.
type File struct {
	Name  string     `yaml:"name"`
	I2C   []I2CPlan  `yaml:"i2c"`
	UART  []UARTPlan `yaml:"uart"`
	Ports []PortFile `yaml:"ports"`
}

type PortFile struct {
	I2C      string       `yaml:"i2c"`
	Addr     uint16       `yaml:"addr"`
	UART     string       `yaml:"uart"`
	Upstream UpstreamPlan `yaml:"upstream"`
	Pins     []PinFile    `yaml:"pins"`
}

// PinFile is one pin record. Records are enabled unless disabled is set.
type PinFile struct {
	Role     halcore.Role `yaml:"role"`
	Pin      int          `yaml:"pin"`
	Out      bool         `yaml:"out"`
	Pull     string       `yaml:"pull"` // "up", "down" or empty
	Initial  bool         `yaml:"initial"`
	Disabled bool         `yaml:"disabled"`
}

// Decode reads a YAML board file, then normalises and validates it.
func Decode(r io.Reader) (ResourcePlan, error) {
	var f File
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		return ResourcePlan{}, &errcode.E{C: errcode.InvalidParams, Op: "setups.Decode", Err: err}
	}
	plan, err := f.Plan()
	if err != nil {
		return ResourcePlan{}, err
	}
	plan.Normalize()
	if err := plan.Validate(); err != nil {
		return ResourcePlan{}, err
	}
	return plan, nil
}

// Load decodes the board file at path.
func Load(path string) (ResourcePlan, error) {
	fh, err := os.Open(path)
	if err != nil {
		return ResourcePlan{}, err
	}
	defer fh.Close()
	return Decode(fh)
}

// Plan converts the file form.
func (f *File) Plan() (ResourcePlan, error) {
	p := ResourcePlan{Name: f.Name, I2C: f.I2C, UART: f.UART}
	for i, pf := range f.Ports {
		port := PortPlan{I2C: pf.I2C, Addr: pf.Addr, UART: pf.UART, Upstream: pf.Upstream}
		for _, pin := range pf.Pins {
			spec := halcore.PinSpec{
				Role:    pin.Role,
				Pin:     pin.Pin,
				Initial: pin.Initial,
				Enabled: !pin.Disabled,
			}
			if pin.Out {
				spec.Dir = halcore.DirOut
			}
			switch pin.Pull {
			case "":
			case "up":
				spec.Pull = halcore.PullUp
			case "down":
				spec.Pull = halcore.PullDown
			default:
				return ResourcePlan{}, &errcode.E{
					C:   errcode.InvalidParams,
					Op:  "setups.Plan",
					Msg: fmt.Sprintf("port %d pin %s: bad pull %q", i, pin.Role, pin.Pull),
				}
			}
			port.Pins = append(port.Pins, spec)
		}
		p.Ports = append(p.Ports, port)
	}
	return p, nil
}
