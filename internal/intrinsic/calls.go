package intrinsic

import (
	"ilwasm/internal/diag"
	"ilwasm/internal/ir"
	"ilwasm/internal/types"
)

type handler func(rw *rewriter, e *ir.Expr, call *ir.CallData) (*ir.Expr, error)

var handlers = map[string]handler{
	ir.TypeMath + "::Sqrt":    mathOp("f64.sqrt", 1),
	ir.TypeMath + "::Floor":   mathOp("f64.floor", 1),
	ir.TypeMath + "::Ceiling": mathOp("f64.ceil", 1),
	ir.TypeMath + "::Abs":     mathOp("f64.abs", 1),
	ir.TypeMath + "::Min":     mathOp("f64.min", 2),
	ir.TypeMath + "::Max":     mathOp("f64.max", 2),

	ir.TypeHeapI32 + "::get_Item": heapGet(4),
	ir.TypeHeapU8 + "::get_Item":  heapGet(1),
	ir.TypeHeapI32 + "::set_Item": heapSet(4),
	ir.TypeHeapU8 + "::set_Item":  heapSet(1),

	ir.TypeString + "::get_Chars":  stringChar,
	ir.TypeString + "::get_Length": stringLength,

	ir.TypeHeap + "::SetHeapSize": setHeapSize,

	ir.TypeTest + "::Invoke":           invoke,
	ir.TypeTest + "::AssertEq":         assertCall(ir.ExprAssertEq),
	ir.TypeTest + "::AssertReturn":     assertCall(ir.ExprAssertReturn),
	ir.TypeTest + "::AssertHeapEq":     assertHeapEq,
	ir.TypeTest + "::AssertHeapEqFile": assertHeapEqFile,
	ir.TypeTest + "::Printf":           printf,
	ir.TypeTest + "::SetStdout":        harnessCall(ir.HarnessStdoutOpen, 1),
	ir.TypeTest + "::Write":            harnessCall(ir.HarnessStdoutWrite, 2),
}

func badArity(e *ir.Expr, call *ir.CallData) error {
	return diag.Errorf(diag.RwBadArity, e.Span, "%s called with %d arguments", call.Target, len(call.Args))
}

// removed stands in for a call that produces no code.
func (rw *rewriter) removed(e *ir.Expr) *ir.Expr {
	return &ir.Expr{Kind: ir.ExprComma, Type: rw.builtins.Void, Span: e.Span, Data: &ir.CommaData{}}
}

// mathOp maps a System.Math overload on doubles to a float instruction.
// Overloads on other types stay generic calls.
func mathOp(op string, arity int) handler {
	return func(rw *rewriter, e *ir.Expr, call *ir.CallData) (*ir.Expr, error) {
		if len(call.Args) != arity {
			return e, nil
		}
		for i, a := range call.Args {
			t := a.Type
			if i < len(call.ParamTypes) {
				t = call.ParamTypes[i]
			}
			if t != rw.builtins.Float64 {
				return e, nil
			}
		}
		return &ir.Expr{
			Kind: ir.ExprIntrinsic,
			Type: rw.builtins.Float64,
			Span: e.Span,
			Data: &ir.IntrinsicData{Op: op, Args: call.Args},
		}, nil
	}
}

// heapGet lowers HeapU8/HeapI32 indexer reads. Two indices address
// base+offset; the i32 view scales the element index to bytes.
func heapGet(scale int64) handler {
	return func(rw *rewriter, e *ir.Expr, call *ir.CallData) (*ir.Expr, error) {
		if len(call.Args) != 1 && len(call.Args) != 2 {
			return nil, badArity(e, call)
		}
		addr := rw.address(call.Args, scale)
		return &ir.Expr{
			Kind: ir.ExprGetMemory,
			Type: e.Type,
			Span: e.Span,
			Data: &ir.MemoryData{Target: rw.viewType(scale), Address: addr},
		}, nil
	}
}

func heapSet(scale int64) handler {
	return func(rw *rewriter, e *ir.Expr, call *ir.CallData) (*ir.Expr, error) {
		if len(call.Args) != 2 && len(call.Args) != 3 {
			return nil, badArity(e, call)
		}
		n := len(call.Args)
		addr := rw.address(call.Args[:n-1], scale)
		return &ir.Expr{
			Kind: ir.ExprSetMemory,
			Type: rw.builtins.Void,
			Span: e.Span,
			Data: &ir.MemoryData{Target: rw.viewType(scale), Address: addr, Value: call.Args[n-1]},
		}, nil
	}
}

func (rw *rewriter) viewType(scale int64) types.TypeID {
	if scale == 1 {
		return rw.builtins.Uint8
	}
	return rw.builtins.Int32
}

func (rw *rewriter) address(idx []*ir.Expr, scale int64) *ir.Expr {
	addr := idx[0]
	if len(idx) == 2 {
		addr = rw.add(idx[0], idx[1])
	}
	if scale != 1 {
		addr = rw.mul(addr, rw.intLit(scale, addr))
	}
	return addr
}

// stringChar lowers s[i] to a byte load at s+i; a string value is the address
// of its first character.
func stringChar(rw *rewriter, e *ir.Expr, call *ir.CallData) (*ir.Expr, error) {
	if len(call.Args) != 1 || call.Receiver == nil {
		return nil, badArity(e, call)
	}
	return &ir.Expr{
		Kind: ir.ExprGetMemory,
		Type: e.Type,
		Span: e.Span,
		Data: &ir.MemoryData{Target: rw.builtins.Uint8, Address: rw.add(call.Receiver, call.Args[0])},
	}, nil
}

func stringLength(rw *rewriter, e *ir.Expr, call *ir.CallData) (*ir.Expr, error) {
	if len(call.Args) != 0 || call.Receiver == nil {
		return nil, badArity(e, call)
	}
	return &ir.Expr{
		Kind: ir.ExprStringLength,
		Type: rw.builtins.Int32,
		Span: e.Span,
		Data: &ir.StringLengthData{String: call.Receiver},
	}, nil
}

func setHeapSize(rw *rewriter, e *ir.Expr, call *ir.CallData) (*ir.Expr, error) {
	if len(call.Args) != 1 {
		return nil, badArity(e, call)
	}
	if err := rw.setHeapSize(e, call.Args[0]); err != nil {
		return nil, err
	}
	return rw.removed(e), nil
}

func printf(rw *rewriter, e *ir.Expr, _ *ir.CallData) (*ir.Expr, error) {
	return rw.removed(e), nil
}

func invoke(rw *rewriter, e *ir.Expr, call *ir.CallData) (*ir.Expr, error) {
	if len(call.Args) != 2 {
		return nil, badArity(e, call)
	}
	name, err := exportName(call.Args[0])
	if err != nil {
		return nil, err
	}
	args, err := rw.unpackArgs(call.Args[1])
	if err != nil {
		return nil, err
	}
	return &ir.Expr{
		Kind: ir.ExprInvoke,
		Type: rw.builtins.Void,
		Span: e.Span,
		Data: &ir.InvokeData{Export: name, Args: args},
	}, nil
}

func assertCall(kind ir.ExprKind) handler {
	return func(rw *rewriter, e *ir.Expr, call *ir.CallData) (*ir.Expr, error) {
		if len(call.Args) != 3 {
			return nil, badArity(e, call)
		}
		name, err := exportName(call.Args[1])
		if err != nil {
			return nil, err
		}
		args, err := rw.unpackArgs(call.Args[2])
		if err != nil {
			return nil, err
		}
		return &ir.Expr{
			Kind: kind,
			Type: rw.builtins.Void,
			Span: e.Span,
			Data: &ir.AssertData{Expected: rw.unbox(call.Args[0]), Export: name, Args: args},
		}, nil
	}
}

// assertHeapEq accepts (offset, expected) or (offset, count, expected) where
// count must equal the expected string's length.
func assertHeapEq(rw *rewriter, e *ir.Expr, call *ir.CallData) (*ir.Expr, error) {
	if len(call.Args) != 2 && len(call.Args) != 3 {
		return nil, badArity(e, call)
	}
	offset, ok := call.Args[0].IntConstant()
	if !ok {
		return nil, diag.Errorf(diag.RwBadHarnessArgs, e.Span, "expected offset as arg0 of AssertHeapEq")
	}
	expected, ok := call.Args[len(call.Args)-1].StringConstant()
	if !ok {
		return nil, diag.Errorf(diag.RwBadHarnessArgs, e.Span, "expected string literal as last arg of AssertHeapEq")
	}
	count := int64(len(expected))
	if len(call.Args) == 3 {
		c, ok := call.Args[1].IntConstant()
		if !ok || c != count {
			return nil, diag.Errorf(diag.RwBadHarnessArgs, e.Span,
				"AssertHeapEq count must be a literal equal to the expected length %d", count)
		}
	}
	return &ir.Expr{
		Kind: ir.ExprAssertHeapEq,
		Type: rw.builtins.Void,
		Span: e.Span,
		Data: &ir.AssertHeapData{Offset: offset, Count: count, Expected: expected},
	}, nil
}

// assertHeapEqFile compares count heap bytes against the start of a file.
func assertHeapEqFile(rw *rewriter, e *ir.Expr, call *ir.CallData) (*ir.Expr, error) {
	if len(call.Args) != 3 {
		return nil, badArity(e, call)
	}
	offset, ok1 := call.Args[0].IntConstant()
	count, ok2 := call.Args[1].IntConstant()
	path, ok3 := call.Args[2].StringConstant()
	if !ok1 || !ok2 || !ok3 || count < 0 {
		return nil, diag.Errorf(diag.RwBadHarnessArgs, e.Span, "AssertHeapEqFile needs literal offset, count and path")
	}
	return &ir.Expr{
		Kind: ir.ExprAssertHeapEq,
		Type: rw.builtins.Void,
		Span: e.Span,
		Data: &ir.AssertHeapData{Offset: offset, Count: count, Expected: path, FromFile: true},
	}, nil
}

func harnessCall(op ir.HarnessOp, arity int) handler {
	return func(rw *rewriter, e *ir.Expr, call *ir.CallData) (*ir.Expr, error) {
		if len(call.Args) != arity {
			return nil, badArity(e, call)
		}
		rw.imports[op] = struct{}{}
		return &ir.Expr{
			Kind: ir.ExprHarnessCall,
			Type: rw.builtins.Void,
			Span: e.Span,
			Data: &ir.HarnessCallData{Op: op, Args: call.Args},
		}, nil
	}
}
