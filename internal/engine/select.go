package engine

import (
	"fmt"
	"strings"

	"github.com/Brownie44l1/quorum-sorter/internal/errs"
	"github.com/shirou/gopsutil/cpu"
)

// Selection is the engine chosen for a run and the device behind it, if any.
type Selection struct {
	Engine Engine
	Device *Device
}

// Select honours an explicit engine name and probes for an accelerator when
// preference is "auto" or empty.
func Select(preference string, prober *Prober) (Selection, error) {
	pref := strings.ToLower(strings.TrimSpace(preference))
	if pref != "" && pref != "auto" {
		e, err := Parse(pref)
		if err != nil {
			return Selection{}, errs.Configuration("engine", err)
		}
		return Selection{Engine: e}, nil
	}
	if prober != nil {
		if d := prober.Probe(); d != nil {
			return Selection{Engine: d.Engine, Device: d}, nil
		}
	}
	return Selection{Engine: DNN}, nil
}

// Describe names the hardware the selection runs on.
func (s Selection) Describe() string {
	if s.Device != nil {
		return s.Device.Name
	}
	if s.Engine != DNN {
		return s.Engine.Accelerator()
	}
	return HostCPU()
}

// HostCPU returns the model name of the first CPU, or "cpu" when unknown.
func HostCPU() string {
	infos, err := cpu.Info()
	if err != nil || len(infos) == 0 || infos[0].ModelName == "" {
		return "cpu"
	}
	counts, err := cpu.Counts(true)
	if err != nil || counts == 0 {
		return infos[0].ModelName
	}
	return fmt.Sprintf("%s (%d threads)", infos[0].ModelName, counts)
}
