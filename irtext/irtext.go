// Package irtext reads and writes ir trees as YAML.
//
// Every statement is a mapping with a kind:
//
//	kind: seq
//	stmts:
//	  - kind: kernel
//	    name: matmul
//	    body:
//	      kind: attr
//	      key: thread_extent
//	      iter_var: threadIdx.x
//	      value: 32
//	      body:
//	        kind: attr
//	        key: storage_scope
//	        var: A.shared
//	        value: shared
//	        body:
//	          kind: allocate
//	          buffer: A.shared
//	          dtype: float32
//	          extents: [256]
//
// Kernels are producers unless "producer: false" is given. Expressions are
// YAML integers, strings, or {var: name} references. Within one document a
// name always denotes the same variable. Any other kind is read as an
// opaque statement whose "body" and "children" are traversed, body first.
//
// Decoding is strict: a field the statement's kind does not define is an
// error, and so is a second document in the stream.
package irtext

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"

	"gopkg.in/yaml.v3"

	"github.com/gogpu/gpuverify/ir"
)

// Statement kinds.
const (
	KindSeq      = "seq"
	KindKernel   = "kernel"
	KindAllocate = "allocate"
	KindAttr     = "attr"
)

// ErrSyntax is wrapped by every decoding error.
var ErrSyntax = errors.New("irtext: syntax error")

// SyntaxError reports a malformed statement or expression.
type SyntaxError struct {
	Line int
	Msg  string
}

func (e *SyntaxError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("irtext: line %d: %s", e.Line, e.Msg)
	}
	return "irtext: " + e.Msg
}

func (e *SyntaxError) Unwrap() error { return ErrSyntax }

func syntaxErrorf(line int, format string, args ...any) error {
	return &SyntaxError{Line: line, Msg: fmt.Sprintf(format, args...)}
}

// stmtDoc is the YAML form of a statement.
type stmtDoc struct {
	Kind     string     `yaml:"kind"`
	Name     string     `yaml:"name,omitempty"`
	Producer *bool      `yaml:"producer,omitempty"`
	Buffer   string     `yaml:"buffer,omitempty"`
	DType    string     `yaml:"dtype,omitempty"`
	Extents  []exprDoc  `yaml:"extents,omitempty,flow"`
	Key      string     `yaml:"key,omitempty"`
	Var      string     `yaml:"var,omitempty"`
	IterVar  string     `yaml:"iter_var,omitempty"`
	Value    *exprDoc   `yaml:"value,omitempty"`
	Body     *stmtDoc   `yaml:"body,omitempty"`
	Stmts    []*stmtDoc `yaml:"stmts,omitempty"`
	Children []*stmtDoc `yaml:"children,omitempty"`

	line   int
	fields []*yaml.Node // mapping keys in document order
}

// kindFields lists the fields each kind accepts besides "kind".
var kindFields = map[string][]string{
	KindSeq:      {"stmts"},
	KindKernel:   {"name", "producer", "body"},
	KindAllocate: {"buffer", "dtype", "extents", "body"},
	KindAttr:     {"key", "var", "iter_var", "value", "body"},
}

var opaqueFields = []string{"body", "children"}

func (d *stmtDoc) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.MappingNode {
		return syntaxErrorf(value.Line, "statement must be a mapping")
	}
	type plain stmtDoc
	if err := value.Decode((*plain)(d)); err != nil {
		return err
	}
	d.line = value.Line
	for i := 0; i < len(value.Content); i += 2 {
		d.fields = append(d.fields, value.Content[i])
	}
	return nil
}

// checkFields rejects fields the statement's kind does not define.
func (d *stmtDoc) checkFields() error {
	allowed, ok := kindFields[d.Kind]
	if !ok {
		allowed = opaqueFields
	}
	for _, f := range d.fields {
		if f.Value != "kind" && !slices.Contains(allowed, f.Value) {
			return syntaxErrorf(f.Line, "%s statement has no field %q", d.Kind, f.Value)
		}
	}
	return nil
}

// exprDoc is the YAML form of an expression. Decoding keeps the node and
// defers interpretation to the builder.
type exprDoc struct {
	node yaml.Node
	expr any // int64, string or varRef when encoding
}

type varRef struct {
	Var string `yaml:"var"`
}

func (e *exprDoc) UnmarshalYAML(value *yaml.Node) error {
	e.node = *value
	return nil
}

func (e exprDoc) MarshalYAML() (any, error) {
	return e.expr, nil
}

// Unmarshal decodes a single YAML document into a statement tree.
func Unmarshal(data []byte) (ir.Stmt, error) {
	return Decode(bytes.NewReader(data))
}

// Decode reads a statement tree from r, which must hold exactly one YAML
// document.
func Decode(r io.Reader) (ir.Stmt, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var doc stmtDoc
	if err := dec.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, &SyntaxError{Msg: "empty document"}
		}
		return nil, decodeError(err)
	}

	var extra yaml.Node
	switch err := dec.Decode(&extra); {
	case err == nil:
		return nil, syntaxErrorf(extra.Line, "unexpected second document")
	case !errors.Is(err, io.EOF):
		return nil, decodeError(err)
	}

	return newBuilder().stmt(&doc)
}

func decodeError(err error) error {
	var se *SyntaxError
	if errors.As(err, &se) {
		return se
	}
	return fmt.Errorf("%w: %v", ErrSyntax, err)
}

// DecodeFile reads a statement tree from the named file.
func DecodeFile(path string) (ir.Stmt, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	s, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}

type builder struct {
	vars map[string]*ir.Var
}

func newBuilder() *builder {
	return &builder{vars: make(map[string]*ir.Var)}
}

func (b *builder) variable(name string) *ir.Var {
	v, ok := b.vars[name]
	if !ok {
		v = ir.NewVar(name)
		b.vars[name] = v
	}
	return v
}

func (b *builder) stmt(d *stmtDoc) (ir.Stmt, error) {
	if d == nil {
		return nil, nil
	}

	if d.Kind == "" {
		return nil, syntaxErrorf(d.line, "statement has no kind")
	}
	if err := d.checkFields(); err != nil {
		return nil, err
	}

	switch d.Kind {
	case KindSeq:
		stmts, err := b.stmts(d.Stmts)
		if err != nil {
			return nil, err
		}
		return &ir.Seq{Stmts: stmts}, nil

	case KindKernel:
		body, err := b.stmt(d.Body)
		if err != nil {
			return nil, err
		}
		producer := d.Producer == nil || *d.Producer
		return &ir.KernelRegion{Name: d.Name, IsProducer: producer, Body: body}, nil

	case KindAllocate:
		return b.allocate(d)

	case KindAttr:
		return b.attr(d)

	default:
		docs := d.Children
		if d.Body != nil {
			docs = append([]*stmtDoc{d.Body}, docs...)
		}
		children, err := b.stmts(docs)
		if err != nil {
			return nil, err
		}
		return &ir.Opaque{Kind: d.Kind, Children: children}, nil
	}
}

func (b *builder) stmts(docs []*stmtDoc) ([]ir.Stmt, error) {
	out := make([]ir.Stmt, 0, len(docs))
	for _, d := range docs {
		s, err := b.stmt(d)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

func (b *builder) allocate(d *stmtDoc) (ir.Stmt, error) {
	if d.Buffer == "" {
		return nil, syntaxErrorf(d.line, "allocate without buffer")
	}
	dt, err := ir.ParseDataType(d.DType)
	if err != nil {
		return nil, syntaxErrorf(d.line, "allocate %s: %v", d.Buffer, err)
	}

	extents := make([]ir.Expr, len(d.Extents))
	for i := range d.Extents {
		if extents[i], err = b.expr(&d.Extents[i]); err != nil {
			return nil, err
		}
	}

	body, err := b.stmt(d.Body)
	if err != nil {
		return nil, err
	}
	return &ir.Allocate{Buffer: b.variable(d.Buffer), Type: dt, Extents: extents, Body: body}, nil
}

func (b *builder) attr(d *stmtDoc) (ir.Stmt, error) {
	if d.Key == "" {
		return nil, syntaxErrorf(d.line, "attr without key")
	}

	var node ir.Node
	switch {
	case d.Var != "" && d.IterVar != "":
		return nil, syntaxErrorf(d.line, "attr %s has both var and iter_var", d.Key)
	case d.Var != "":
		node = b.variable(d.Var)
	case d.IterVar != "":
		node = ir.NewIterVar(b.variable(d.IterVar), d.IterVar)
	default:
		return nil, syntaxErrorf(d.line, "attr %s needs var or iter_var", d.Key)
	}

	if d.Value == nil {
		return nil, syntaxErrorf(d.line, "attr %s without value", d.Key)
	}
	value, err := b.expr(d.Value)
	if err != nil {
		return nil, err
	}

	body, err := b.stmt(d.Body)
	if err != nil {
		return nil, err
	}
	return &ir.AttrStmt{Key: d.Key, Node: node, Value: value, Body: body}, nil
}

func (b *builder) expr(e *exprDoc) (ir.Expr, error) {
	n := &e.node
	switch n.Kind {
	case yaml.ScalarNode:
		switch n.ShortTag() {
		case "!!int":
			var v int64
			if err := n.Decode(&v); err != nil {
				return nil, syntaxErrorf(n.Line, "integer %q: %v", n.Value, err)
			}
			return ir.IntImm(v), nil
		case "!!str":
			return ir.StringImm(n.Value), nil
		}
		return nil, syntaxErrorf(n.Line, "unsupported expression %q", n.Value)

	case yaml.MappingNode:
		if len(n.Content) != 2 {
			return nil, syntaxErrorf(n.Line, "expression mapping must be {var: name}")
		}
		var ref varRef
		if err := n.Decode(&ref); err != nil || ref.Var == "" {
			return nil, syntaxErrorf(n.Line, "expression mapping must be {var: name}")
		}
		return b.variable(ref.Var), nil
	}
	return nil, syntaxErrorf(n.Line, "unsupported expression")
}
