package interp

import (
	"github.com/pkg/errors"

	"gocore/pkg/ir"
)

func unary(op ir.Op, x Value) (Value, error) {
	switch op {
	case ir.OpPlus:
		return x, nil
	case ir.OpNeg:
		switch x := x.(type) {
		case int64:
			return -x, nil
		case float64:
			return -x, nil
		case complex128:
			return -x, nil
		}
	case ir.OpCom:
		if x, ok := x.(int64); ok {
			return ^x, nil
		}
	case ir.OpNot:
		if x, ok := x.(bool); ok {
			return !x, nil
		}
	}
	return nil, errors.Errorf("interp: invalid operation %v%T", op, x)
}

func binary(op ir.Op, x, y Value) (Value, error) {
	switch op {
	case ir.OpEq:
		return equal(x, y), nil
	case ir.OpNe:
		return !equal(x, y), nil
	}

	switch x := x.(type) {
	case int64:
		if y, ok := y.(int64); ok {
			return intOp(op, x, y)
		}
	case float64:
		if y, ok := y.(float64); ok {
			return floatOp(op, x, y)
		}
	case string:
		if y, ok := y.(string); ok {
			return stringOp(op, x, y)
		}
	}
	return nil, errors.Errorf("interp: invalid operation %T %v %T", x, op, y)
}

func intOp(op ir.Op, x, y int64) (Value, error) {
	switch op {
	case ir.OpAdd:
		return x + y, nil
	case ir.OpSub:
		return x - y, nil
	case ir.OpMul:
		return x * y, nil
	case ir.OpDiv, ir.OpMod:
		if y == 0 {
			return nil, &PanicError{Msg: "integer divide by zero"}
		}
		if op == ir.OpDiv {
			return x / y, nil
		}
		return x % y, nil
	case ir.OpAnd:
		return x & y, nil
	case ir.OpOr:
		return x | y, nil
	case ir.OpXor:
		return x ^ y, nil
	case ir.OpAndNot:
		return x &^ y, nil
	case ir.OpLsh:
		return x << uint64(y), nil
	case ir.OpRsh:
		return x >> uint64(y), nil
	case ir.OpLt:
		return x < y, nil
	case ir.OpLe:
		return x <= y, nil
	case ir.OpGt:
		return x > y, nil
	case ir.OpGe:
		return x >= y, nil
	}
	return nil, errors.Errorf("interp: invalid integer operation %v", op)
}

func floatOp(op ir.Op, x, y float64) (Value, error) {
	switch op {
	case ir.OpAdd:
		return x + y, nil
	case ir.OpSub:
		return x - y, nil
	case ir.OpMul:
		return x * y, nil
	case ir.OpDiv:
		return x / y, nil
	case ir.OpLt:
		return x < y, nil
	case ir.OpLe:
		return x <= y, nil
	case ir.OpGt:
		return x > y, nil
	case ir.OpGe:
		return x >= y, nil
	}
	return nil, errors.Errorf("interp: invalid float operation %v", op)
}

func stringOp(op ir.Op, x, y string) (Value, error) {
	switch op {
	case ir.OpAdd:
		return x + y, nil
	case ir.OpLt:
		return x < y, nil
	case ir.OpLe:
		return x <= y, nil
	case ir.OpGt:
		return x > y, nil
	case ir.OpGe:
		return x >= y, nil
	}
	return nil, errors.Errorf("interp: invalid string operation %v", op)
}

// equal compares values the way == does. Pointers are equal when they
// address the same storage.
func equal(x, y Value) bool {
	switch x := x.(type) {
	case nil:
		return isNil(y)
	case *Pointer:
		if x == nil {
			return isNil(y)
		}
		p, ok := y.(*Pointer)
		return ok && p != nil && p.Elem == x.Elem
	case *Iface:
		if x == nil {
			return isNil(y)
		}
		i, ok := y.(*Iface)
		return ok && i != nil && x.T == i.T && equal(x.V, i.V)
	case *Struct:
		s, ok := y.(*Struct)
		if !ok || len(s.Fields) != len(x.Fields) {
			return false
		}
		for i := range x.Fields {
			if !equal(x.Fields[i], s.Fields[i]) {
				return false
			}
		}
		return true
	}
	return x == y
}

func isNil(v Value) bool {
	switch v := v.(type) {
	case nil:
		return true
	case *Pointer:
		return v == nil
	case *Iface:
		return v == nil
	}
	return false
}
