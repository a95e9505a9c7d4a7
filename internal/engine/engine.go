// Package engine selects the execution backend predictors are loaded onto:
// the generic CPU engine or an accelerator-backed one.
package engine

import (
	"fmt"
	"strings"

	"github.com/Brownie44l1/quorum-sorter/internal/errs"
)

type Engine int

const (
	// DNN runs inference on the CPU.
	DNN Engine = iota
	// DNNOpenVINO runs inference on an Intel Myriad VPU through OpenVINO.
	DNNOpenVINO
	// DNNCUDA runs inference on an NVIDIA GPU.
	DNNCUDA
)

func (e Engine) String() string {
	switch e {
	case DNN:
		return "dnn"
	case DNNOpenVINO:
		return "dnn_openvino"
	case DNNCUDA:
		return "dnn_cuda"
	default:
		return fmt.Sprintf("engine(%d)", int(e))
	}
}

// Accelerator names the device class the engine targets.
func (e Engine) Accelerator() string {
	switch e {
	case DNNOpenVINO:
		return "myriad"
	case DNNCUDA:
		return "nvidia"
	default:
		return "default"
	}
}

func Parse(s string) (Engine, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "dnn", "cpu":
		return DNN, nil
	case "dnn_openvino", "openvino":
		return DNNOpenVINO, nil
	case "dnn_cuda", "cuda":
		return DNNCUDA, nil
	default:
		return DNN, fmt.Errorf("%w: %q", errs.ErrUnsupportedEngine, s)
	}
}
