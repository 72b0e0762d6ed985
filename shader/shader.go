// Package shader lowers WGSL compute shaders into the gpuverify IR.
//
// Parsing and semantic lowering are done by gogpu/naga. Each @compute entry
// point becomes one producer kernel region that launches its
// @workgroup_size as threadIdx.x/y/z and allocates every module-scope
// var<workgroup> as shared memory and every var<private> as local memory:
//
//	tree, err := shader.FromWGSL(src)
//	if err != nil {
//	    return err
//	}
//	ok := gpuverify.Verify(tree, profile.Constraints)
//
// Module-scope variables are charged to every compute entry point of the
// module whether or not the entry point references them.
package shader

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/gogpu/naga"
	nagair "github.com/gogpu/naga/ir"
	"github.com/gogpu/naga/wgsl"

	"github.com/gogpu/gpuverify"
	"github.com/gogpu/gpuverify/ir"
)

// ErrInvalidModule is returned when naga rejects the module.
var ErrInvalidModule = errors.New("shader: invalid module")

// FromWGSL parses, lowers and validates WGSL source and returns the
// verifier tree for its compute entry points.
func FromWGSL(source string) (ir.Stmt, error) {
	ast, err := naga.Parse(source)
	if err != nil {
		return nil, fmt.Errorf("shader: parse: %w", err)
	}
	module, err := wgsl.LowerWithSource(ast, source)
	if err != nil {
		return nil, fmt.Errorf("shader: lower: %w", err)
	}
	return FromModule(module)
}

// FromModule validates a naga IR module and returns a Seq holding one
// kernel region per compute entry point, in declaration order.
func FromModule(m *nagair.Module) (ir.Stmt, error) {
	if m == nil {
		return nil, fmt.Errorf("%w: module is nil", ErrInvalidModule)
	}

	verrs, err := nagair.Validate(m)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidModule, err)
	}
	if len(verrs) > 0 {
		errs := make([]error, len(verrs))
		for i, e := range verrs {
			errs[i] = e
		}
		return nil, fmt.Errorf("%w: %w", ErrInvalidModule, errors.Join(errs...))
	}

	l := &lowerer{module: m, log: gpuverify.Logger()}
	globals := l.lowerGlobals()

	kernels := make([]ir.Stmt, 0, len(m.EntryPoints))
	for _, ep := range m.EntryPoints {
		if ep.Stage != nagair.StageCompute {
			l.log.Debug("shader: skipping non-compute entry point", "entry", ep.Name)
			continue
		}
		kernels = append(kernels, l.kernel(ep.Name, ep.Workgroup, globals))
	}
	return &ir.Seq{Stmts: kernels}, nil
}

// global is a module-scope variable lowered to a scoped allocation.
type global struct {
	scope string
	alloc ir.Allocate
}

type lowerer struct {
	module *nagair.Module
	log    *slog.Logger
}

func (l *lowerer) lowerGlobals() []global {
	var out []global
	for _, gv := range l.module.GlobalVariables {
		var scope string
		switch gv.Space {
		case nagair.SpaceWorkGroup:
			scope = ir.ScopeShared
		case nagair.SpacePrivate:
			scope = ir.ScopeLocal
		default:
			continue
		}

		dt, extents, ok := l.shape(gv.Type, gv.Name)
		if !ok {
			l.log.Warn("shader: variable has no known size", "var", gv.Name, "scope", scope)
			continue
		}
		out = append(out, global{
			scope: scope,
			alloc: ir.Allocate{Buffer: ir.NewVar(gv.Name), Type: dt, Extents: extents},
		})
	}
	return out
}

// kernel wraps the module's scoped allocations in the thread launches of
// one entry point. The innermost statement stands for the entry point body.
func (l *lowerer) kernel(name string, workgroup [3]uint32, globals []global) ir.Stmt {
	var body ir.Stmt = &ir.Opaque{Kind: "call " + name}

	for i := len(globals) - 1; i >= 0; i-- {
		g := globals[i]
		alloc := g.alloc
		alloc.Body = body
		body = &ir.AttrStmt{
			Key:   ir.AttrStorageScope,
			Node:  alloc.Buffer,
			Value: ir.StringImm(g.scope),
			Body:  &alloc,
		}
	}

	axes := [3]string{ir.ThreadIdxX, ir.ThreadIdxY, ir.ThreadIdxZ}
	for i := 2; i >= 0; i-- {
		body = &ir.AttrStmt{
			Key:   ir.AttrThreadExtent,
			Node:  ir.ThreadAxis(axes[i]),
			Value: ir.IntImm(workgroup[i]),
			Body:  body,
		}
	}

	l.log.Debug("shader: lowered compute entry point",
		"entry", name, "workgroup", workgroup, "globals", len(globals))
	return &ir.KernelRegion{Name: name, IsProducer: true, Body: body}
}
