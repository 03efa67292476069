package value

import (
	"fmt"
	"math"
	"slices"

	"google.golang.org/protobuf/types/known/structpb"
)

// #region to-proto
// ToProto converts a document node to a protobuf Value. Protobuf structs do
// not keep key order and store every number as a double.
func ToProto(v any) (*structpb.Value, error) {
	switch x := v.(type) {
	case nil:
		return structpb.NewNullValue(), nil
	case bool:
		return structpb.NewBoolValue(x), nil
	case int64:
		return structpb.NewNumberValue(float64(x)), nil
	case int:
		return structpb.NewNumberValue(float64(x)), nil
	case float64:
		return structpb.NewNumberValue(x), nil
	case string:
		return structpb.NewStringValue(x), nil
	case []any:
		list := &structpb.ListValue{Values: make([]*structpb.Value, len(x))}
		for i, item := range x {
			pv, err := ToProto(item)
			if err != nil {
				return nil, fmt.Errorf("index %d: %w", i, err)
			}
			list.Values[i] = pv
		}
		return structpb.NewListValue(list), nil
	case *Map:
		st := &structpb.Struct{Fields: make(map[string]*structpb.Value, x.Len())}
		for k, item := range x.All() {
			pv, err := ToProto(item)
			if err != nil {
				return nil, fmt.Errorf("key %q: %w", k, err)
			}
			st.Fields[k] = pv
		}
		return structpb.NewStructValue(st), nil
	default:
		return nil, &UnsupportedValueError{Value: v}
	}
}

// #endregion to-proto

// #region from-proto
// FromProto converts a protobuf Value into a document node. Numbers come back
// as float64; struct keys are sorted because protobuf does not keep order.
func FromProto(pv *structpb.Value) any {
	return FromProtoAs(pv, KindFloat)
}

// FromProtoAs converts like FromProto, but an integral number becomes an Int
// node when hint is KindInt. Use the kind of the node being replaced as hint.
func FromProtoAs(pv *structpb.Value, hint Kind) any {
	switch k := pv.GetKind().(type) {
	case *structpb.Value_BoolValue:
		return k.BoolValue
	case *structpb.Value_NumberValue:
		f := k.NumberValue
		if hint == KindInt && f == math.Trunc(f) && math.Abs(f) < 1<<53 {
			return int64(f)
		}
		return f
	case *structpb.Value_StringValue:
		return k.StringValue
	case *structpb.Value_ListValue:
		vals := k.ListValue.GetValues()
		out := make([]any, len(vals))
		for i, item := range vals {
			out[i] = FromProtoAs(item, hint)
		}
		return out
	case *structpb.Value_StructValue:
		fields := k.StructValue.GetFields()
		keys := make([]string, 0, len(fields))
		for key := range fields {
			keys = append(keys, key)
		}
		slices.Sort(keys)
		m := NewMap()
		for _, key := range keys {
			m.Set(key, FromProtoAs(fields[key], hint))
		}
		return m
	default:
		return nil
	}
}

// #endregion from-proto
