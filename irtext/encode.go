package irtext

import (
	"bytes"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/gogpu/gpuverify/ir"
)

// Encode writes s to w in the format read by Decode. Distinct variables
// that share a name are given "#n" suffixes so that identity survives a
// round trip.
func Encode(w io.Writer, s ir.Stmt) error {
	e := &encoder{names: make(map[*ir.Var]string), taken: make(map[string]int)}
	doc, err := e.stmt(s)
	if err != nil {
		return err
	}
	if doc == nil {
		doc = &stmtDoc{Kind: KindSeq}
	}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("irtext: encode: %w", err)
	}
	return enc.Close()
}

// Marshal returns the YAML encoding of s.
func Marshal(s ir.Stmt) ([]byte, error) {
	var buf bytes.Buffer
	if err := Encode(&buf, s); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

type encoder struct {
	names map[*ir.Var]string
	taken map[string]int
}

func (e *encoder) name(v *ir.Var) string {
	if n, ok := e.names[v]; ok {
		return n
	}
	n := v.Name
	if c := e.taken[v.Name]; c > 0 {
		n = fmt.Sprintf("%s#%d", v.Name, c+1)
	}
	e.taken[v.Name]++
	e.names[v] = n
	return n
}

func (e *encoder) stmt(s ir.Stmt) (*stmtDoc, error) {
	switch s := s.(type) {
	case nil:
		return nil, nil

	case *ir.Seq:
		stmts, err := e.stmts(s.Stmts)
		if err != nil {
			return nil, err
		}
		return &stmtDoc{Kind: KindSeq, Stmts: stmts}, nil

	case *ir.KernelRegion:
		body, err := e.stmt(s.Body)
		if err != nil {
			return nil, err
		}
		d := &stmtDoc{Kind: KindKernel, Name: s.Name, Body: body}
		if !s.IsProducer {
			producer := false
			d.Producer = &producer
		}
		return d, nil

	case *ir.Allocate:
		if s.Buffer == nil {
			return nil, fmt.Errorf("irtext: allocate without buffer")
		}
		extents := make([]exprDoc, len(s.Extents))
		for i, x := range s.Extents {
			d, err := e.expr(x)
			if err != nil {
				return nil, err
			}
			extents[i] = *d
		}
		body, err := e.stmt(s.Body)
		if err != nil {
			return nil, err
		}
		return &stmtDoc{
			Kind:    KindAllocate,
			Buffer:  e.name(s.Buffer),
			DType:   s.Type.String(),
			Extents: extents,
			Body:    body,
		}, nil

	case *ir.AttrStmt:
		d := &stmtDoc{Kind: KindAttr, Key: s.Key}
		switch n := s.Node.(type) {
		case *ir.Var:
			d.Var = e.name(n)
		case *ir.IterVar:
			if n.Var != nil {
				d.IterVar = e.name(n.Var)
			} else {
				d.IterVar = n.Tag
			}
		default:
			return nil, fmt.Errorf("irtext: attr %s has no node", s.Key)
		}
		value, err := e.expr(s.Value)
		if err != nil {
			return nil, err
		}
		d.Value = value
		if d.Body, err = e.stmt(s.Body); err != nil {
			return nil, err
		}
		return d, nil

	case *ir.Opaque:
		children, err := e.stmts(s.Children)
		if err != nil {
			return nil, err
		}
		return &stmtDoc{Kind: s.Kind, Children: children}, nil
	}
	return nil, fmt.Errorf("irtext: unsupported statement %T", s)
}

func (e *encoder) stmts(in []ir.Stmt) ([]*stmtDoc, error) {
	out := make([]*stmtDoc, 0, len(in))
	for _, s := range in {
		d, err := e.stmt(s)
		if err != nil {
			return nil, err
		}
		if d != nil {
			out = append(out, d)
		}
	}
	return out, nil
}

func (e *encoder) expr(x ir.Expr) (*exprDoc, error) {
	switch x := x.(type) {
	case ir.IntImm:
		return &exprDoc{expr: int64(x)}, nil
	case ir.StringImm:
		return &exprDoc{expr: string(x)}, nil
	case *ir.Var:
		return &exprDoc{expr: varRef{Var: e.name(x)}}, nil
	}
	return nil, fmt.Errorf("irtext: unsupported expression %T", x)
}
