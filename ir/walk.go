package ir

// Children returns the direct child statements of s, skipping nil bodies.
func Children(s Stmt) []Stmt {
	switch n := s.(type) {
	case *KernelRegion:
		return single(n.Body)
	case *Allocate:
		return single(n.Body)
	case *AttrStmt:
		return single(n.Body)
	case *Seq:
		return nonNil(n.Stmts)
	case *Opaque:
		return nonNil(n.Children)
	default:
		return nil
	}
}

func single(s Stmt) []Stmt {
	if s == nil {
		return nil
	}
	return []Stmt{s}
}

func nonNil(stmts []Stmt) []Stmt {
	for _, s := range stmts {
		if s == nil {
			out := make([]Stmt, 0, len(stmts))
			for _, s := range stmts {
				if s != nil {
					out = append(out, s)
				}
			}
			return out
		}
	}
	return stmts
}

// Inspect walks the tree in depth-first pre-order, calling f for each node.
// If f returns false, the children of that node are skipped.
func Inspect(s Stmt, f func(Stmt) bool) {
	if s == nil || !f(s) {
		return
	}
	for _, c := range Children(s) {
		Inspect(c, f)
	}
}

// CountKernels returns the number of outermost producer kernel regions.
func CountKernels(s Stmt) int {
	n := 0
	Inspect(s, func(s Stmt) bool {
		if k, ok := s.(*KernelRegion); ok && k.IsProducer {
			n++
			return false
		}
		return true
	})
	return n
}
