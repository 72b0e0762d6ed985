// Package gpuverify checks that lowered GPU kernels fit a device's
// per-block resource limits before code generation.
//
// # Overview
//
// [Verify] walks an [ir.Stmt] tree once. Every outermost producer
// [ir.KernelRegion] opens a fresh accounting scope; inside it the verifier
// multiplies the extents of the threadIdx.x/y/z axes into a thread count and
// sums the byte size of constant-size allocations whose buffers carry a
// "local" or "shared" storage_scope attribute. When the scope closes the
// totals are compared with the limits, and every result is folded into a
// single boolean.
//
// # Quick Start
//
//	import "github.com/gogpu/gpuverify"
//
//	ok := gpuverify.Verify(kernel, gpuverify.Constraints{
//	    gpuverify.KeyMaxThreadPerBlock:       1024,
//	    gpuverify.KeyMaxSharedMemoryPerBlock: 48 << 10,
//	})
//	if !ok {
//	    // try another lowering
//	}
//
// Limits that are not set are unbounded. Device tables live in the device
// package; WGSL compute shaders can be lowered to the tree with the shader
// package.
//
// # Limitations
//
// Allocations whose size is not a compile-time constant contribute nothing.
// The verdict does not say which kernel or which limit failed; enable debug
// logging with [SetLogger] to see the per-kernel counters.
//
// # Architecture
//
//   - gpuverify: the pass, constraint resolution, logging
//   - ir: the statement tree
//   - irtext: YAML form of the tree
//   - shader: WGSL (via gogpu/naga) to tree
//   - device: device limit profiles (via gogpu/gputypes)
//   - history: verdict log in ClickHouse
//   - cmd/gpuverify: command line tool
package gpuverify

// Version information
const (
	// Version is the current version of the module
	Version = "0.1.0"
)
