// Package device provides limit profiles for GPU targets.
//
// A profile is a named set of gpuverify constraints. WebGPU adapters are
// described with [FromLimits] from their gputypes.Limits; native targets
// use fixed tables of their documented per-block maxima.
package device

import (
	"github.com/gogpu/gputypes"

	"github.com/gogpu/gpuverify"
)

// Profile is a named set of constraints for one target.
type Profile struct {
	Name        string
	Description string
	Constraints gpuverify.Constraints
}

// Limits returns the profile's resolved limits.
func (p Profile) Limits() gpuverify.Limits {
	return gpuverify.ResolveLimits(p.Constraints)
}

// FromLimits builds a profile from WebGPU adapter limits.
//
// Workgroup invocations map to threads per block, workgroup size per
// dimension to the per-axis limits and workgroup storage to shared memory.
// WebGPU has no per-invocation memory limit, so local memory is unbounded.
func FromLimits(name string, l gputypes.Limits) Profile {
	return Profile{
		Name:        name,
		Description: "WebGPU adapter limits",
		Constraints: gpuverify.Constraints{
			gpuverify.KeyMaxThreadPerBlock:       int64(l.MaxComputeInvocationsPerWorkgroup),
			gpuverify.KeyMaxThreadX:              int64(l.MaxComputeWorkgroupSizeX),
			gpuverify.KeyMaxThreadY:              int64(l.MaxComputeWorkgroupSizeY),
			gpuverify.KeyMaxThreadZ:              int64(l.MaxComputeWorkgroupSizeZ),
			gpuverify.KeyMaxSharedMemoryPerBlock: int64(l.MaxComputeWorkgroupStorageSize),
		},
	}
}

func init() {
	Register(FromLimits("webgpu", gputypes.DefaultLimits()))

	// Compute capability 5.0 and later.
	Register(Profile{
		Name:        "cuda",
		Description: "NVIDIA CUDA, compute capability 5.0+",
		Constraints: gpuverify.Constraints{
			gpuverify.KeyMaxThreadPerBlock:       1024,
			gpuverify.KeyMaxThreadX:              1024,
			gpuverify.KeyMaxThreadY:              1024,
			gpuverify.KeyMaxThreadZ:              64,
			gpuverify.KeyMaxSharedMemoryPerBlock: 48 << 10,
			gpuverify.KeyMaxLocalMemoryPerBlock:  512 << 10,
		},
	})
	Register(Profile{
		Name:        "rocm",
		Description: "AMD ROCm, GCN and RDNA",
		Constraints: gpuverify.Constraints{
			gpuverify.KeyMaxThreadPerBlock:       1024,
			gpuverify.KeyMaxThreadX:              1024,
			gpuverify.KeyMaxThreadY:              1024,
			gpuverify.KeyMaxThreadZ:              1024,
			gpuverify.KeyMaxSharedMemoryPerBlock: 64 << 10,
		},
	})
	Register(Profile{
		Name:        "metal",
		Description: "Apple Metal, Apple7 GPU family",
		Constraints: gpuverify.Constraints{
			gpuverify.KeyMaxThreadPerBlock:       1024,
			gpuverify.KeyMaxThreadX:              1024,
			gpuverify.KeyMaxThreadY:              1024,
			gpuverify.KeyMaxThreadZ:              1024,
			gpuverify.KeyMaxSharedMemoryPerBlock: 32 << 10,
		},
	})
	Register(Profile{
		Name:        "unbounded",
		Description: "no limits",
		Constraints: gpuverify.Constraints{},
	})
}
