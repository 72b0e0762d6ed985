// Package ir defines the statement tree consumed by the gpuverify pass.
//
// The tree is a closed set of node kinds. Statements that the verifier
// interprets have their own types ([KernelRegion], [Allocate], [AttrStmt]);
// structural nodes are [Seq], and everything else lowered upstream (loops,
// stores, calls, ...) is carried as an [Opaque] node whose children are
// still traversed.
//
// # Identity
//
// A buffer or loop variable is identified by its *[Var] pointer, not by its
// name. Two distinct variables may share a name:
//
//	a := ir.NewVar("A")
//	b := ir.NewVar("A") // a != b
//
// # Building a kernel
//
//	buf := ir.NewVar("smem")
//	kernel := &ir.KernelRegion{
//	    Name:       "matmul",
//	    IsProducer: true,
//	    Body: &ir.AttrStmt{
//	        Key:   ir.AttrThreadExtent,
//	        Node:  ir.ThreadAxis(ir.ThreadIdxX),
//	        Value: ir.IntImm(32),
//	        Body: &ir.AttrStmt{
//	            Key:   ir.AttrStorageScope,
//	            Node:  buf,
//	            Value: ir.StringImm(ir.ScopeShared),
//	            Body: &ir.Allocate{
//	                Buffer:  buf,
//	                Type:    ir.Float(32),
//	                Extents: []ir.Expr{ir.IntImm(256)},
//	            },
//	        },
//	    },
//	}
package ir
