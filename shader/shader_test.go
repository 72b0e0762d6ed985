package shader

import (
	"errors"
	"os"
	"testing"

	nagair "github.com/gogpu/naga/ir"

	"github.com/gogpu/gpuverify"
	"github.com/gogpu/gpuverify/ir"
)

func readFixture(t *testing.T, name string) string {
	t.Helper()
	data, err := os.ReadFile("testdata/" + name)
	if err != nil {
		t.Fatalf("read fixture: %v", err)
	}
	return string(data)
}

func TestFromWGSLReduce(t *testing.T) {
	tree, err := FromWGSL(readFixture(t, "reduce.wgsl"))
	if err != nil {
		t.Fatalf("FromWGSL() error: %v", err)
	}
	if n := ir.CountKernels(tree); n != 1 {
		t.Fatalf("CountKernels() = %d, want 1", n)
	}

	// 16x16x1 invocations, tile 1024 B + partial 1024 B shared, acc 64 B local.
	tests := []struct {
		name string
		c    gpuverify.Constraints
		want bool
	}{
		{"threads at limit", gpuverify.Constraints{gpuverify.KeyMaxThreadPerBlock: 256}, true},
		{"threads over limit", gpuverify.Constraints{gpuverify.KeyMaxThreadPerBlock: 255}, false},
		{"x over limit", gpuverify.Constraints{gpuverify.KeyMaxThreadX: 8}, false},
		{"shared at limit", gpuverify.Constraints{gpuverify.KeyMaxSharedMemoryPerBlock: 2048}, true},
		{"shared over limit", gpuverify.Constraints{gpuverify.KeyMaxSharedMemoryPerBlock: 2047}, false},
		{"local at limit", gpuverify.Constraints{gpuverify.KeyMaxLocalMemoryPerBlock: 64}, true},
		{"local over limit", gpuverify.Constraints{gpuverify.KeyMaxLocalMemoryPerBlock: 63}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := gpuverify.Verify(tree, tt.c); got != tt.want {
				t.Errorf("Verify() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFromWGSLNoComputeEntryPoints(t *testing.T) {
	tree, err := FromWGSL(readFixture(t, "blit.wgsl"))
	if err != nil {
		t.Fatalf("FromWGSL() error: %v", err)
	}
	if n := ir.CountKernels(tree); n != 0 {
		t.Errorf("CountKernels() = %d, want 0", n)
	}
}

func TestFromWGSLSyntaxError(t *testing.T) {
	if _, err := FromWGSL("@compute fn main( {"); err == nil {
		t.Error("FromWGSL() accepted malformed source")
	}
}

func TestFromModuleNil(t *testing.T) {
	if _, err := FromModule(nil); !errors.Is(err, ErrInvalidModule) {
		t.Errorf("FromModule(nil) error = %v, want ErrInvalidModule", err)
	}
}

func TestFromModuleInvalid(t *testing.T) {
	m := &nagair.Module{
		GlobalVariables: []nagair.GlobalVariable{
			{Name: "bad", Space: nagair.SpaceWorkGroup, Type: nagair.TypeHandle(999)},
		},
	}
	if _, err := FromModule(m); !errors.Is(err, ErrInvalidModule) {
		t.Errorf("FromModule() error = %v, want ErrInvalidModule", err)
	}
}

// computeModule returns a module with one compute entry point "main" over
// the given types and globals.
func computeModule(types []nagair.Type, globals []nagair.GlobalVariable, wg [3]uint32) *nagair.Module {
	return &nagair.Module{
		Types:           types,
		GlobalVariables: globals,
		Functions:       []nagair.Function{{Name: "main"}},
		EntryPoints: []nagair.EntryPoint{
			{Name: "main", Stage: nagair.StageCompute, Workgroup: wg},
		},
	}
}

var (
	f32  = nagair.ScalarType{Kind: nagair.ScalarFloat, Width: 4}
	u32  = nagair.ScalarType{Kind: nagair.ScalarUint, Width: 4}
	vec3 = nagair.VectorType{Size: nagair.Vec3, Scalar: f32}
)

func constSize(n uint32) nagair.ArraySize { return nagair.ArraySize{Constant: &n} }

// allocations collects the scoped allocations of the first kernel.
func allocations(t *testing.T, tree ir.Stmt) map[string]*ir.Allocate {
	t.Helper()
	out := make(map[string]*ir.Allocate)
	ir.Inspect(tree, func(s ir.Stmt) bool {
		if a, ok := s.(*ir.Allocate); ok {
			out[a.Buffer.Name] = a
		}
		return true
	})
	return out
}

func TestFromModuleShapes(t *testing.T) {
	types := []nagair.Type{
		{Inner: f32},  // 0
		{Inner: vec3}, // 1
		{Inner: nagair.ArrayType{Base: 0, Size: constSize(128), Stride: 4}},  // 2
		{Inner: nagair.ArrayType{Base: 1, Size: constSize(4), Stride: 16}},   // 3
		{Inner: nagair.MatrixType{Columns: nagair.Vec4, Rows: nagair.Vec4, Scalar: f32}}, // 4
		{Name: "Pair", Inner: nagair.StructType{
			Members: []nagair.StructMember{
				{Name: "a", Type: 0, Offset: 0},
				{Name: "b", Type: 1, Offset: 16},
			},
			Span: 32,
		}}, // 5
		{Inner: nagair.ArrayType{Base: 2, Size: constSize(2), Stride: 512}}, // 6
		{Inner: nagair.AtomicType{Scalar: u32}},                              // 7
	}
	globals := []nagair.GlobalVariable{
		{Name: "floats", Space: nagair.SpaceWorkGroup, Type: 2},
		{Name: "padded", Space: nagair.SpaceWorkGroup, Type: 3},
		{Name: "m", Space: nagair.SpacePrivate, Type: 4},
		{Name: "pair", Space: nagair.SpaceWorkGroup, Type: 5},
		{Name: "grid", Space: nagair.SpaceWorkGroup, Type: 6},
		{Name: "counter", Space: nagair.SpaceWorkGroup, Type: 7},
	}

	tree, err := FromModule(computeModule(types, globals, [3]uint32{64, 1, 1}))
	if err != nil {
		t.Fatalf("FromModule() error: %v", err)
	}
	allocs := allocations(t, tree)

	tests := []struct {
		name  string
		dtype string
		bytes int64
	}{
		{"floats", "float32", 512},
		{"padded", "uint8", 64},
		{"m", "uint8", 64},
		{"pair", "uint8", 32},
		{"grid", "float32", 1024},
		{"counter", "uint32", 4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, ok := allocs[tt.name]
			if !ok {
				t.Fatalf("no allocation for %s", tt.name)
			}
			if got := a.Type.String(); got != tt.dtype {
				t.Errorf("Type = %s, want %s", got, tt.dtype)
			}
			n, ok := a.ConstantSize()
			if !ok {
				t.Fatalf("ConstantSize() not constant for %s", tt.name)
			}
			if got := int64(n) * a.Type.Bytes(); got != tt.bytes {
				t.Errorf("bytes = %d, want %d", got, tt.bytes)
			}
		})
	}

	// Shared: 512 + 64 + 32 + 1024 + 4.
	if !gpuverify.Verify(tree, gpuverify.Constraints{gpuverify.KeyMaxSharedMemoryPerBlock: 1636}) {
		t.Error("Verify(shared=1636) = false, want true")
	}
	if gpuverify.Verify(tree, gpuverify.Constraints{gpuverify.KeyMaxSharedMemoryPerBlock: 1635}) {
		t.Error("Verify(shared=1635) = true, want false")
	}
}

func TestFromModuleRuntimeArrayNotCounted(t *testing.T) {
	types := []nagair.Type{
		{Inner: f32},
		{Inner: nagair.ArrayType{Base: 0, Stride: 4}},
	}
	globals := []nagair.GlobalVariable{
		{Name: "tail", Space: nagair.SpacePrivate, Type: 1},
	}
	tree, err := FromModule(computeModule(types, globals, [3]uint32{1, 1, 1}))
	if err != nil {
		t.Fatalf("FromModule() error: %v", err)
	}
	a := allocations(t, tree)["tail"]
	if a == nil {
		t.Fatal("no allocation for runtime-sized array")
	}
	if _, ok := a.ConstantSize(); ok {
		t.Error("runtime-sized array has a constant size")
	}
	if !gpuverify.Verify(tree, gpuverify.Constraints{gpuverify.KeyMaxLocalMemoryPerBlock: 0}) {
		t.Error("runtime-sized array was charged to local memory")
	}
}

func TestFromModuleSkipsOtherSpaces(t *testing.T) {
	types := []nagair.Type{
		{Inner: f32},
		{Inner: nagair.ArrayType{Base: 0, Size: constSize(1 << 20), Stride: 4}},
	}
	globals := []nagair.GlobalVariable{
		{Name: "buf", Space: nagair.SpaceStorage, Type: 1, Binding: &nagair.ResourceBinding{Group: 0, Binding: 0}},
		{Name: "params", Space: nagair.SpaceUniform, Type: 0, Binding: &nagair.ResourceBinding{Group: 0, Binding: 1}},
	}
	tree, err := FromModule(computeModule(types, globals, [3]uint32{8, 8, 1}))
	if err != nil {
		t.Fatalf("FromModule() error: %v", err)
	}
	if n := len(allocations(t, tree)); n != 0 {
		t.Errorf("allocations = %d, want 0", n)
	}
}

func TestFromModuleWorkgroupAxes(t *testing.T) {
	tree, err := FromModule(computeModule(nil, nil, [3]uint32{8, 4, 2}))
	if err != nil {
		t.Fatalf("FromModule() error: %v", err)
	}

	extents := make(map[string]int64)
	ir.Inspect(tree, func(s ir.Stmt) bool {
		if a, ok := s.(*ir.AttrStmt); ok && a.Key == ir.AttrThreadExtent {
			extents[a.Node.(*ir.IterVar).AxisName()] = int64(a.Value.(ir.IntImm))
		}
		return true
	})
	want := map[string]int64{ir.ThreadIdxX: 8, ir.ThreadIdxY: 4, ir.ThreadIdxZ: 2}
	for axis, n := range want {
		if extents[axis] != n {
			t.Errorf("%s extent = %d, want %d", axis, extents[axis], n)
		}
	}
	if !gpuverify.Verify(tree, gpuverify.Constraints{gpuverify.KeyMaxThreadPerBlock: 64}) {
		t.Error("Verify(64 threads) = false, want true")
	}
	if gpuverify.Verify(tree, gpuverify.Constraints{gpuverify.KeyMaxThreadZ: 1}) {
		t.Error("Verify(max_thread_z=1) = true, want false")
	}
}
