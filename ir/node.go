package ir

import (
	"math"
	"math/bits"
	"strconv"
)

// Attribute keys interpreted by the verifier.
const (
	// AttrStorageScope binds a buffer variable to a memory space.
	// Its value is a StringImm naming the scope.
	AttrStorageScope = "storage_scope"

	// AttrThreadExtent launches a thread or block axis.
	// Its node is an IterVar and its value an IntImm extent.
	AttrThreadExtent = "thread_extent"
)

// Storage scopes.
const (
	ScopeLocal  = "local"
	ScopeShared = "shared"
	ScopeGlobal = "global"
)

// Thread axis names.
const (
	ThreadIdxX = "threadIdx.x"
	ThreadIdxY = "threadIdx.y"
	ThreadIdxZ = "threadIdx.z"
	BlockIdxX  = "blockIdx.x"
	BlockIdxY  = "blockIdx.y"
	BlockIdxZ  = "blockIdx.z"
)

// Var is a named variable. Its identity is the pointer.
type Var struct {
	Name string
}

// NewVar returns a fresh variable.
func NewVar(name string) *Var { return &Var{Name: name} }

func (v *Var) String() string { return v.Name }

func (*Var) exprNode() {}
func (*Var) attrNode() {}

// IterVar is an iteration variable bound to a thread axis.
// Tag is the axis name ("threadIdx.x") when the variable is a thread index.
type IterVar struct {
	Var *Var
	Tag string
}

// NewIterVar returns an iteration variable over v tagged with tag.
func NewIterVar(v *Var, tag string) *IterVar { return &IterVar{Var: v, Tag: tag} }

// ThreadAxis returns an iteration variable named after the axis it launches.
func ThreadAxis(axis string) *IterVar { return &IterVar{Var: NewVar(axis), Tag: axis} }

// AxisName returns the name the verifier matches against thread axes.
func (iv *IterVar) AxisName() string {
	if iv.Var != nil {
		return iv.Var.Name
	}
	return iv.Tag
}

func (iv *IterVar) String() string { return iv.AxisName() }

func (*IterVar) attrNode() {}

// Expr is a value expression.
// Implementations: IntImm, StringImm, *Var.
type Expr interface {
	exprNode()
}

// IntImm is a constant integer.
type IntImm int64

func (IntImm) exprNode() {}

func (i IntImm) String() string { return strconv.FormatInt(int64(i), 10) }

// StringImm is a constant string.
type StringImm string

func (StringImm) exprNode() {}

func (s StringImm) String() string { return strconv.Quote(string(s)) }

// Node is the entity an attribute is attached to.
// Implementations: *Var, *IterVar.
type Node interface {
	attrNode()
}

// Stmt is a statement in the tree.
// Implementations: *KernelRegion, *Allocate, *AttrStmt, *Seq, *Opaque.
type Stmt interface {
	stmtNode()
}

// KernelRegion marks a device kernel body when IsProducer is set, and a
// non-kernel marker otherwise.
type KernelRegion struct {
	Name       string
	IsProducer bool
	Body       Stmt
}

// Allocate declares Buffer with the given element type and shape.
// The buffer is live within Body.
type Allocate struct {
	Buffer  *Var
	Type    DataType
	Extents []Expr
	Body    Stmt
}

// ConstantSize returns the element count when every extent is an IntImm.
// A zero-dimensional allocation holds one element. Extents are read as
// unsigned and the product saturates at math.MaxUint64.
func (a *Allocate) ConstantSize() (uint64, bool) {
	size := uint64(1)
	for _, e := range a.Extents {
		n, ok := e.(IntImm)
		if !ok {
			return 0, false
		}
		hi, lo := bits.Mul64(size, uint64(n))
		if hi != 0 {
			lo = math.MaxUint64
		}
		size = lo
	}
	return size, true
}

// AttrStmt annotates Body with Key on Node.
type AttrStmt struct {
	Key   string
	Node  Node
	Value Expr
	Body  Stmt
}

// Seq evaluates statements in order.
type Seq struct {
	Stmts []Stmt
}

// Opaque is any statement kind the verifier does not interpret.
// Kind is a free-form label ("for", "store", ...).
type Opaque struct {
	Kind     string
	Children []Stmt
}

func (*KernelRegion) stmtNode() {}
func (*Allocate) stmtNode()     {}
func (*AttrStmt) stmtNode()     {}
func (*Seq) stmtNode()          {}
func (*Opaque) stmtNode()       {}
