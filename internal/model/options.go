package model

import (
	"fmt"

	"github.com/Brownie44l1/quorum-sorter/internal/engine"
	"github.com/Brownie44l1/quorum-sorter/internal/errs"
	ort "github.com/yalue/onnxruntime_go"
)

// openVINOOptions targets the Myriad VPU of the Neural Compute Sticks.
var openVINOOptions = map[string]string{
	"device_type": "MYRIAD_FP16",
}

// sessionOptions maps an engine to ONNX Runtime execution providers. The CPU
// engine uses the runtime defaults and returns nil options.
func sessionOptions(eng engine.Engine) (*ort.SessionOptions, error) {
	switch eng {
	case engine.DNN:
		return nil, nil
	case engine.DNNOpenVINO, engine.DNNCUDA:
	default:
		return nil, fmt.Errorf("%w: %s", errs.ErrUnsupportedEngine, eng)
	}

	options, err := ort.NewSessionOptions()
	if err != nil {
		return nil, fmt.Errorf("failed to create session options: %w", err)
	}

	if eng == engine.DNNOpenVINO {
		if err := options.AppendExecutionProviderOpenVINO(openVINOOptions); err != nil {
			options.Destroy()
			return nil, fmt.Errorf("failed to enable OpenVINO provider: %w", err)
		}
		return options, nil
	}

	cudaOptions, err := ort.NewCUDAProviderOptions()
	if err != nil {
		options.Destroy()
		return nil, fmt.Errorf("failed to create CUDA provider options: %w", err)
	}
	defer cudaOptions.Destroy()
	if err := options.AppendExecutionProviderCUDA(cudaOptions); err != nil {
		options.Destroy()
		return nil, fmt.Errorf("failed to enable CUDA provider: %w", err)
	}
	return options, nil
}
