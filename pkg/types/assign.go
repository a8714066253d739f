package types

import "fmt"

// Op is the conversion a value needs on assignment or explicit conversion.
// The zero Op means the operation is not allowed.
type Op uint8

const (
	OpNone         Op = iota
	OpConvNop         // same representation
	OpConvIface       // box into an interface
	OpConv            // numeric conversion
	OpRuneStr         // integer to string
	OpArrayByteStr    // []byte to string
	OpArrayRuneStr    // []rune to string
	OpStrArrayByte    // string to []byte
	OpStrArrayRune    // string to []rune
)

var opNames = [...]string{
	OpNone:         "NONE",
	OpConvNop:      "CONVNOP",
	OpConvIface:    "CONVIFACE",
	OpConv:         "CONV",
	OpRuneStr:      "RUNESTR",
	OpArrayByteStr: "ARRAYBYTESTR",
	OpArrayRuneStr: "ARRAYRUNESTR",
	OpStrArrayByte: "STRARRAYBYTE",
	OpStrArrayRune: "STRARRAYRUNE",
}

func (op Op) String() string {
	if int(op) < len(opNames) {
		return opNames[op]
	}
	return fmt.Sprintf("Op(%d)", uint8(op))
}

// AssignOp reports whether a value of type src can be assigned to dst.
// When it cannot, why explains the first mismatch found, with a leading
// colon, or is empty.
func (u *Universe) AssignOp(src, dst *Type) (Op, string) {
	if src == nil || dst == nil || src.Kind == Forward || dst.Kind == Forward {
		return OpNone, ""
	}
	if src.Orig == nil || dst.Orig == nil {
		return OpNone, ""
	}

	// 1. identical
	if src == dst {
		return OpConvNop, ""
	}
	if Identical(src, dst) {
		return OpConvNop, ""
	}

	// 2. same underlying type, at least one side unnamed or src an
	// interface being assigned to an identical interface.
	if Identical(src.Orig, dst.Orig) && (src.Sym == nil || dst.Sym == nil || src.Kind == Interface) {
		return OpConvNop, ""
	}

	// 3. dst is an interface src implements
	if dst.Kind == Interface && src.Kind != Nil {
		ok, missing, have, ptr := u.Implements(src, dst)
		if ok {
			return OpConvIface, ""
		}
		var why string
		switch {
		case src.IsPtrTo(Interface):
			why = fmt.Sprintf(":\n\t%v is pointer to interface, not interface", src)
		case have != nil && have.Sym == missing.Sym:
			why = fmt.Sprintf(":\n\t%v does not implement %v (wrong type for %s method)\n"+
				"\t\thave %s%s\n\t\twant %s%s", src, dst, missing.Sym,
				have.Sym, Signature(have.Type), missing.Sym, Signature(missing.Type))
		case ptr:
			why = fmt.Sprintf(":\n\t%v does not implement %v (%s method requires pointer receiver)", src, dst, missing.Sym)
		case have != nil:
			why = fmt.Sprintf(":\n\t%v does not implement %v (missing %s method)\n"+
				"\t\thave %s%s\n\t\twant %s%s", src, dst, missing.Sym,
				have.Sym, Signature(have.Type), missing.Sym, Signature(missing.Type))
		default:
			why = fmt.Sprintf(":\n\t%v does not implement %v (missing %s method)", src, dst, missing.Sym)
		}
		return OpNone, why
	}

	if dst.IsPtrTo(Interface) {
		return OpNone, fmt.Sprintf(":\n\t%v is pointer to interface, not interface", dst)
	}

	if src.Kind == Interface && dst.Kind != Blank {
		if ok, _, _, _ := u.Implements(dst, src); ok {
			return OpNone, ": need type assertion"
		}
		return OpNone, ""
	}

	// 4. bidirectional channel to a narrower direction, same element type
	if src.Kind == Chan && src.Dir == Cboth && dst.Kind == Chan {
		if Identical(src.Elem, dst.Elem) && (src.Sym == nil || dst.Sym == nil) {
			return OpConvNop, ""
		}
	}

	// 5. nil
	if src.Kind == Nil {
		switch dst.Kind {
		case Ptr, Func, Map, Chan, Interface, UnsafePointer:
			return OpConvNop, ""
		case Array:
			if dst.Bound < 0 {
				return OpConvNop, ""
			}
		}
	}

	// 6. blank
	if dst.Kind == Blank {
		return OpConvNop, ""
	}
	return OpNone, ""
}

// ConvertOp reports whether a value of type src can be converted to dst
// explicitly.
func (u *Universe) ConvertOp(src, dst *Type) (Op, string) {
	if src == dst {
		return OpConvNop, ""
	}
	if src == nil || dst == nil {
		return OpNone, ""
	}

	if op, _ := u.AssignOp(src, dst); op != OpNone {
		return op, ""
	}

	// the rules below do not apply to interfaces, and the assignability
	// explanation is the better message.
	if src.Kind == Interface || dst.Kind == Interface {
		_, why := u.AssignOp(src, dst)
		return OpNone, why
	}

	// same underlying type
	if Identical(src.Orig, dst.Orig) {
		return OpConvNop, ""
	}

	// unnamed pointers with the same underlying base type
	if src.IsPtr() && dst.IsPtr() && src.Sym == nil && dst.Sym == nil {
		if Identical(src.Elem.Orig, dst.Elem.Orig) {
			return OpConvNop, ""
		}
	}

	// numeric
	if (src.Kind.IsInteger() || src.Kind.IsFloat()) && (dst.Kind.IsInteger() || dst.Kind.IsFloat()) {
		if u.Simtype(src.Kind) == u.Simtype(dst.Kind) {
			return OpConvNop, ""
		}
		return OpConv, ""
	}
	if src.Kind.IsComplex() && dst.Kind.IsComplex() {
		if u.Simtype(src.Kind) == u.Simtype(dst.Kind) {
			return OpConvNop, ""
		}
		return OpConv, ""
	}

	// string conversions
	if src.Kind.IsInteger() && dst.Kind == String {
		return OpRuneStr, ""
	}
	if src.IsSlice() && dst.Kind == String && src.Sym == nil {
		switch src.Elem {
		case u.basic[Uint8]:
			return OpArrayByteStr, ""
		case u.basic[Int32], u.basic[Int]:
			return OpArrayRuneStr, ""
		}
	}
	if src.Kind == String && dst.IsSlice() && dst.Sym == nil {
		switch dst.Elem {
		case u.basic[Uint8]:
			return OpStrArrayByte, ""
		case u.basic[Int32], u.basic[Int]:
			return OpStrArrayRune, ""
		}
	}

	// pointer and uintptr to unsafe.Pointer and back
	if (src.IsPtr() || src.Kind == Uintptr) && dst.Kind == UnsafePointer {
		return OpConvNop, ""
	}
	if src.Kind == UnsafePointer && (dst.IsPtr() || dst.Kind == Uintptr) {
		return OpConvNop, ""
	}
	return OpNone, ""
}
