package types

type typePair struct{ a, b int32 }

// Identical reports whether t1 and t2 are the same type. Named types are
// identical only to themselves; unnamed types compare structurally.
func Identical(t1, t2 *Type) bool {
	return identical(t1, t2, make(map[typePair]bool))
}

func identical(t1, t2 *Type, seen map[typePair]bool) bool {
	if t1 == t2 {
		return true
	}
	if t1 == nil || t2 == nil || t1.Kind != t2.Kind || t1.Sym != nil || t2.Sym != nil {
		return false
	}
	// an unnamed cycle can only be closed through a pair already under
	// comparison, which is identical unless proven otherwise.
	k := typePair{t1.ID, t2.ID}
	if seen[k] {
		return true
	}
	seen[k] = true

	switch t1.Kind {
	case Interface, Struct:
		if t1.Funarg != t2.Funarg {
			return false
		}
		if t1.Funarg {
			return identicalTuple(t1, t2, seen)
		}
		if len(t1.Fields) != len(t2.Fields) {
			return false
		}
		for i, f1 := range t1.Fields {
			f2 := t2.Fields[i]
			if f1.Sym != f2.Sym || f1.Embedded != f2.Embedded || !identical(f1.Type, f2.Type, seen) {
				return false
			}
			if !sameNote(f1.Note, f2.Note) {
				return false
			}
		}
		return true

	case Func:
		// receiver, parameters, results; names do not matter.
		return identicalTuple(t1.Recv, t2.Recv, seen) &&
			identicalTuple(t1.Params, t2.Params, seen) &&
			identicalTuple(t1.Results, t2.Results, seen)

	case Array:
		if t1.Bound != t2.Bound {
			return false
		}

	case Chan:
		if t1.Dir != t2.Dir {
			return false
		}

	case Map:
		if !identical(t1.Key, t2.Key, seen) {
			return false
		}
	}
	return identical(t1.Elem, t2.Elem, seen)
}

func identicalTuple(t1, t2 *Type, seen map[typePair]bool) bool {
	if len(t1.Fields) != len(t2.Fields) {
		return false
	}
	for i, f1 := range t1.Fields {
		f2 := t2.Fields[i]
		if f1.IsDDD != f2.IsDDD || !identical(f1.Type, f2.Type, seen) {
			return false
		}
	}
	return true
}

func sameNote(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

// IdenticalIgnoreNames compares two struct or funarg types by field types
// only. Field names and tags are ignored.
func IdenticalIgnoreNames(t1, t2 *Type) bool {
	if t1 == nil || t2 == nil || t1.Kind != Struct || t2.Kind != Struct {
		return false
	}
	if len(t1.Fields) != len(t2.Fields) {
		return false
	}
	for i, f1 := range t1.Fields {
		if !Identical(f1.Type, t2.Fields[i].Type) {
			return false
		}
	}
	return true
}
