package value

// #region kind
// Kind is the closed set of shapes a document node can take.
type Kind int

const (
	KindNull Kind = iota
	KindBool
	KindInt
	KindFloat
	KindString
	KindList
	KindMap
	KindInvalid
)

var kindNames = [...]string{
	KindNull:    "null",
	KindBool:    "bool",
	KindInt:     "int",
	KindFloat:   "float",
	KindString:  "string",
	KindList:    "list",
	KindMap:     "map",
	KindInvalid: "invalid",
}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return "invalid"
	}
	return kindNames[k]
}

// IsScalar reports whether nodes of this kind have no children.
func (k Kind) IsScalar() bool {
	return k != KindList && k != KindMap && k != KindInvalid
}

// #endregion kind

// #region kind-of
// KindOf reports the kind of a document node. Go values outside the document
// model report KindInvalid.
func KindOf(v any) Kind {
	switch v.(type) {
	case nil:
		return KindNull
	case bool:
		return KindBool
	case int64, int:
		return KindInt
	case float64:
		return KindFloat
	case string:
		return KindString
	case []any:
		return KindList
	case *Map:
		return KindMap
	default:
		return KindInvalid
	}
}

// AsInt returns v as an int64 when it is an integer node.
func AsInt(v any) (int64, bool) {
	switch n := v.(type) {
	case int64:
		return n, true
	case int:
		return int64(n), true
	}
	return 0, false
}

// AsFloat returns v as a float64 when it is a float node.
func AsFloat(v any) (float64, bool) {
	f, ok := v.(float64)
	return f, ok
}

// #endregion kind-of
