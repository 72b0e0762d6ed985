package shader

import (
	nagair "github.com/gogpu/naga/ir"

	"github.com/gogpu/gpuverify/ir"
)

// shape returns the element type and extents of an allocation holding a
// value of type h. Arrays whose elements are packed keep their element type
// with one extent per array level; anything else becomes a byte array.
// Runtime-sized arrays get a symbolic outer extent named after the variable.
func (l *lowerer) shape(h nagair.TypeHandle, name string) (ir.DataType, []ir.Expr, bool) {
	inner, ok := l.inner(h)
	if !ok {
		return ir.DataType{}, nil, false
	}

	switch t := inner.(type) {
	case nagair.ScalarType:
		return scalarType(t), nil, true
	case nagair.VectorType:
		return scalarType(t.Scalar).WithLanes(uint16(t.Size)), nil, true
	case nagair.AtomicType:
		return scalarType(t.Scalar), nil, true
	case nagair.ArrayType:
		return l.arrayShape(t, name)
	}

	size, ok := l.sizeOf(h)
	if !ok {
		return ir.DataType{}, nil, false
	}
	return ir.UInt(8), []ir.Expr{ir.IntImm(size)}, true
}

func (l *lowerer) arrayShape(t nagair.ArrayType, name string) (ir.DataType, []ir.Expr, bool) {
	var outer ir.Expr = ir.NewVar(name + ".length")
	if t.Size.Constant != nil {
		outer = ir.IntImm(*t.Size.Constant)
	}

	stride, ok := l.stride(t)
	if !ok {
		return ir.DataType{}, nil, false
	}

	dt, extents, ok := l.shape(t.Base, name)
	if ok && packed(dt, extents, stride) {
		return dt, append([]ir.Expr{outer}, extents...), true
	}
	return ir.UInt(8), []ir.Expr{outer, ir.IntImm(stride)}, true
}

// packed reports whether an element of the given shape fills stride
// exactly, leaving no padding between array elements.
func packed(dt ir.DataType, extents []ir.Expr, stride uint64) bool {
	elems := int64(1)
	for _, e := range extents {
		n, ok := e.(ir.IntImm)
		if !ok {
			return false
		}
		elems *= int64(n)
	}
	return uint64(elems*dt.Bytes()) == stride
}

// stride returns the distance between array elements, computing it from
// the element layout when the module leaves it unset.
func (l *lowerer) stride(t nagair.ArrayType) (uint64, bool) {
	if t.Stride != 0 {
		return uint64(t.Stride), true
	}
	size, ok := l.sizeOf(t.Base)
	if !ok {
		return 0, false
	}
	return roundUp(size, l.alignOf(t.Base)), true
}

// sizeOf returns the byte size of h under WGSL layout rules.
func (l *lowerer) sizeOf(h nagair.TypeHandle) (uint64, bool) {
	inner, ok := l.inner(h)
	if !ok {
		return 0, false
	}

	switch t := inner.(type) {
	case nagair.ScalarType:
		return uint64(t.Width), true
	case nagair.AtomicType:
		return uint64(t.Scalar.Width), true
	case nagair.VectorType:
		return uint64(t.Size) * uint64(t.Scalar.Width), true
	case nagair.MatrixType:
		col := vectorAlign(uint64(t.Rows), uint64(t.Scalar.Width))
		return uint64(t.Columns) * col, true
	case nagair.ArrayType:
		if t.Size.Constant == nil {
			return 0, false
		}
		stride, ok := l.stride(t)
		if !ok {
			return 0, false
		}
		return uint64(*t.Size.Constant) * stride, true
	case nagair.StructType:
		return uint64(t.Span), true
	}
	return 0, false
}

// alignOf returns the alignment of h under WGSL layout rules.
func (l *lowerer) alignOf(h nagair.TypeHandle) uint64 {
	inner, ok := l.inner(h)
	if !ok {
		return 1
	}

	switch t := inner.(type) {
	case nagair.ScalarType:
		return uint64(t.Width)
	case nagair.AtomicType:
		return uint64(t.Scalar.Width)
	case nagair.VectorType:
		return vectorAlign(uint64(t.Size), uint64(t.Scalar.Width))
	case nagair.MatrixType:
		return vectorAlign(uint64(t.Rows), uint64(t.Scalar.Width))
	case nagair.ArrayType:
		return l.alignOf(t.Base)
	case nagair.StructType:
		align := uint64(1)
		for _, m := range t.Members {
			align = max(align, l.alignOf(m.Type))
		}
		return align
	}
	return 1
}

func (l *lowerer) inner(h nagair.TypeHandle) (nagair.TypeInner, bool) {
	if int(h) >= len(l.module.Types) {
		return nil, false
	}
	inner := l.module.Types[h].Inner
	return inner, inner != nil
}

// vectorAlign is the alignment of an n-component vector: vec3 aligns
// like vec4.
func vectorAlign(n, width uint64) uint64 {
	if n == 3 {
		n = 4
	}
	return n * width
}

func roundUp(n, align uint64) uint64 {
	if align <= 1 {
		return n
	}
	return (n + align - 1) / align * align
}

func scalarType(s nagair.ScalarType) ir.DataType {
	bits := s.Width * 8
	switch s.Kind {
	case nagair.ScalarSint:
		return ir.Int(bits)
	case nagair.ScalarUint:
		return ir.UInt(bits)
	case nagair.ScalarFloat:
		return ir.Float(bits)
	case nagair.ScalarBool:
		return ir.Bool()
	}
	return ir.UInt(bits)
}
