package gpuverify

import (
	"log/slog"
	"math"
	"math/bits"

	"github.com/gogpu/gpuverify/ir"
)

// Verify reports whether every kernel in the tree rooted at root fits the
// given constraints: thread count per block, extent of each thread axis, and
// local and shared memory per block. All kernels are checked; the result is
// the conjunction of every check.
//
// Verify panics with a *PreconditionError if a thread_extent attribute does
// not carry a constant integer extent on an iteration variable, or a
// storage_scope attribute does not carry a string. See AsPrecondition.
//
// Verify does not modify the tree and is safe for concurrent use.
func Verify(root ir.Stmt, constraints Constraints) bool {
	v := &verifier{
		limits: ResolveLimits(constraints),
		scope:  newScopeAccount(),
		valid:  true,
		log:    Logger(),
	}
	v.visit(root)
	return v.valid
}

// scopeAccount is the resource usage of one kernel scope. A fresh account
// is created on entry to each outermost kernel region.
type scopeAccount struct {
	localBuffers  map[*ir.Var]struct{}
	sharedBuffers map[*ir.Var]struct{}
	localBytes    uint64
	sharedBytes   uint64

	threadAxes map[string]struct{}
	threads    uint64
}

func newScopeAccount() *scopeAccount {
	return &scopeAccount{
		localBuffers:  make(map[*ir.Var]struct{}),
		sharedBuffers: make(map[*ir.Var]struct{}),
		threadAxes:    make(map[string]struct{}, 3),
		threads:       1,
	}
}

type verifier struct {
	limits Limits
	scope  *scopeAccount
	depth  int    // open producer regions
	kernel string // name of the outermost open region
	valid  bool
	log    *slog.Logger
}

// check folds one result into the verdict. Once false it stays false.
func (v *verifier) check(ok bool) {
	v.valid = v.valid && ok
}

func (v *verifier) visit(s ir.Stmt) {
	switch n := s.(type) {
	case nil:
	case *ir.KernelRegion:
		v.visitKernel(n)
	case *ir.Allocate:
		v.visitAllocate(n)
	case *ir.AttrStmt:
		v.visitAttr(n)
	default:
		for _, c := range ir.Children(s) {
			v.visit(c)
		}
	}
}

func (v *verifier) visitKernel(k *ir.KernelRegion) {
	if v.depth == 0 {
		v.scope = newScopeAccount()
		v.kernel = k.Name
	}

	if k.IsProducer {
		v.depth++
		v.visit(k.Body)
		v.depth--
	} else {
		v.visit(k.Body)
	}

	if v.depth == 0 {
		v.closeScope()
	}
}

// closeScope checks the finished kernel against the per-block limits.
// Limits are compared as unsigned values, so a negative limit admits
// everything.
func (v *verifier) closeScope() {
	s := v.scope
	threadsOK := s.threads <= uint64(v.limits.MaxThreadPerBlock)
	localOK := s.localBytes <= uint64(v.limits.MaxLocalMemoryPerBlock)
	sharedOK := s.sharedBytes <= uint64(v.limits.MaxSharedMemoryPerBlock)

	v.check(threadsOK)
	v.check(localOK)
	v.check(sharedOK)

	v.log.Debug("gpuverify: kernel scope closed",
		"kernel", v.kernel,
		"threads", s.threads,
		"local_bytes", s.localBytes,
		"shared_bytes", s.sharedBytes,
		"ok", threadsOK && localOK && sharedOK)
}

func (v *verifier) visitAllocate(a *ir.Allocate) {
	v.visit(a.Body)

	s := v.scope
	count, _ := a.ConstantSize() // zero when not constant
	bytes := mulSat(count, uint64(a.Type.Bytes()))

	if _, ok := s.localBuffers[a.Buffer]; ok {
		s.localBytes = addSat(s.localBytes, bytes)
	} else if _, ok := s.sharedBuffers[a.Buffer]; ok {
		s.sharedBytes = addSat(s.sharedBytes, bytes)
	}
}

func (v *verifier) visitAttr(a *ir.AttrStmt) {
	switch a.Key {
	case ir.AttrStorageScope:
		v.recordStorageScope(a)
	case ir.AttrThreadExtent:
		v.recordThreadExtent(a)
	}
	v.visit(a.Body)
}

func (v *verifier) recordStorageScope(a *ir.AttrStmt) {
	scope, ok := a.Value.(ir.StringImm)
	if !ok {
		panic(&PreconditionError{Key: a.Key, Entity: nodeName(a.Node), Err: ErrMalformedAttr})
	}
	buf, ok := a.Node.(*ir.Var)
	if !ok || buf == nil {
		return
	}

	switch string(scope) {
	case ir.ScopeLocal:
		v.scope.localBuffers[buf] = struct{}{}
	case ir.ScopeShared:
		v.scope.sharedBuffers[buf] = struct{}{}
	}
}

func (v *verifier) recordThreadExtent(a *ir.AttrStmt) {
	iv, ok := a.Node.(*ir.IterVar)
	if !ok || iv == nil {
		panic(&PreconditionError{Key: a.Key, Entity: nodeName(a.Node), Err: ErrMalformedAttr})
	}
	extent, ok := a.Value.(ir.IntImm)
	if !ok {
		panic(&PreconditionError{Key: a.Key, Entity: iv.AxisName(), Err: ErrNonConstantExtent})
	}

	name := iv.AxisName()
	var limit int64
	switch name {
	case ir.ThreadIdxX:
		limit = v.limits.MaxThreadX
	case ir.ThreadIdxY:
		limit = v.limits.MaxThreadY
	case ir.ThreadIdxZ:
		limit = v.limits.MaxThreadZ
	default:
		return
	}

	s := v.scope
	if _, seen := s.threadAxes[name]; seen {
		return
	}
	s.threadAxes[name] = struct{}{}

	length := uint64(extent)
	s.threads = mulSat(s.threads, length)
	v.check(length <= uint64(limit))
}

func nodeName(n ir.Node) string {
	switch n := n.(type) {
	case *ir.Var:
		if n != nil {
			return n.Name
		}
	case *ir.IterVar:
		if n != nil {
			return n.AxisName()
		}
	}
	return ""
}

// maxCount is the ceiling of every counter. It equals Unbounded, so a
// saturated counter fails every finite limit and passes an absent one.
const maxCount = uint64(math.MaxInt64)

func mulSat(a, b uint64) uint64 {
	hi, lo := bits.Mul64(a, b)
	if hi != 0 || lo > maxCount {
		return maxCount
	}
	return lo
}

func addSat(a, b uint64) uint64 {
	sum, carry := bits.Add64(a, b, 0)
	if carry != 0 || sum > maxCount {
		return maxCount
	}
	return sum
}
