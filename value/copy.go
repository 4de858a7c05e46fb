package value

// Copy returns an independent clone of v for the compound kinds (List,
// Tuple, Map) that spec.md §3 requires to be copy-on-read; every other
// kind is either already immutable (Number, Boolean, String, Nil, Regex,
// Function) or an opaque handle that must keep its identity (Stream,
// Module) and is returned unchanged.
func Copy(v Value) Value {
	switch x := v.(type) {
	case *List:
		elems := make([]Value, len(x.Elements))
		for i, e := range x.Elements {
			elems[i] = Copy(e)
		}
		return &List{Elements: elems}
	case *Tuple:
		elems := make([]Value, len(x.Elements))
		for i, e := range x.Elements {
			elems[i] = Copy(e)
		}
		return &Tuple{Elements: elems}
	case *Map:
		return x.Copy()
	default:
		return v
	}
}
