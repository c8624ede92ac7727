package candid

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
	"math/big"
	"slices"
	"strings"

	"github.com/peridotvault/icrc3-explorer/types"
)

var magic = []byte("DIDL")

// Marshal encodes values as a Candid message with the given argument types.
//
// Accepted Go values per type: nat and int take *big.Int or any Go integer,
// fixed width numbers take the matching Go type (or any Go integer in range),
// text takes string, opt takes nil for none, vec takes []any (and []byte for
// vec nat8), record takes Record, variant takes Variant, func takes FuncRef,
// principal and service take types.Principal.
func Marshal(argTypes []*Type, values []any) ([]byte, error) {
	if len(argTypes) != len(values) {
		return nil, fmt.Errorf("got %d values for %d argument types", len(values), len(argTypes))
	}
	tt := &typeTable{index: map[*Type]int64{}}
	refs := make([]int64, len(argTypes))
	for i, t := range argTypes {
		ref, err := tt.ref(t)
		if err != nil {
			return nil, fmt.Errorf("argument %d type: %w", i, err)
		}
		refs[i] = ref
	}

	buf := bytes.NewBuffer(slices.Clone(magic))
	writeULEB128(buf, uint64(len(tt.entries)))
	for _, e := range tt.entries {
		buf.Write(e)
	}
	writeULEB128(buf, uint64(len(refs)))
	for _, ref := range refs {
		writeSLEB128(buf, ref)
	}
	for i, t := range argTypes {
		if err := encodeValue(buf, t, values[i], 0); err != nil {
			return nil, fmt.Errorf("argument %d: %w", i, err)
		}
	}
	return buf.Bytes(), nil
}

type typeTable struct {
	index   map[*Type]int64
	entries [][]byte
}

// ref returns the reference to the type, adding composite types to the table.
func (tt *typeTable) ref(t *Type) (int64, error) {
	if t == nil {
		return 0, fmt.Errorf("nil type")
	}
	if t.Kind.primitive() {
		return int64(t.Kind), nil
	}
	if !t.Kind.composite() {
		return 0, fmt.Errorf("unknown type kind %d", t.Kind)
	}
	if idx, ok := tt.index[t]; ok {
		return idx, nil
	}
	idx := int64(len(tt.entries))
	tt.index[t] = idx
	// reserve the slot so that recursive references resolve to it
	tt.entries = append(tt.entries, nil)

	buf := &bytes.Buffer{}
	writeSLEB128(buf, int64(t.Kind))
	switch t.Kind {
	case KindOpt, KindVec:
		ref, err := tt.ref(t.Elem)
		if err != nil {
			return 0, fmt.Errorf("%s element: %w", t.Kind, err)
		}
		writeSLEB128(buf, ref)
	case KindRecord, KindVariant:
		fields, err := sortedFields(t.Fields)
		if err != nil {
			return 0, err
		}
		writeULEB128(buf, uint64(len(fields)))
		for _, f := range fields {
			ref, err := tt.ref(f.Type)
			if err != nil {
				return 0, fmt.Errorf("field %s: %w", f, err)
			}
			writeULEB128(buf, uint64(f.ID))
			writeSLEB128(buf, ref)
		}
	case KindFunc:
		if err := tt.refList(buf, t.Args); err != nil {
			return 0, fmt.Errorf("func arguments: %w", err)
		}
		if err := tt.refList(buf, t.Results); err != nil {
			return 0, fmt.Errorf("func results: %w", err)
		}
		writeULEB128(buf, uint64(len(t.Modes)))
		buf.Write(t.Modes)
	case KindService:
		methods := slices.Clone(t.Methods)
		slices.SortFunc(methods, func(a, b Method) int { return strings.Compare(a.Name, b.Name) })
		writeULEB128(buf, uint64(len(methods)))
		for _, m := range methods {
			if m.Type == nil || m.Type.Kind != KindFunc {
				return 0, fmt.Errorf("service method %q must have func type", m.Name)
			}
			ref, err := tt.ref(m.Type)
			if err != nil {
				return 0, fmt.Errorf("service method %q: %w", m.Name, err)
			}
			writeULEB128(buf, uint64(len(m.Name)))
			buf.WriteString(m.Name)
			writeSLEB128(buf, ref)
		}
	}
	tt.entries[idx] = buf.Bytes()
	return idx, nil
}

func (tt *typeTable) refList(buf *bytes.Buffer, list []*Type) error {
	writeULEB128(buf, uint64(len(list)))
	for i, t := range list {
		ref, err := tt.ref(t)
		if err != nil {
			return fmt.Errorf("type %d: %w", i, err)
		}
		writeSLEB128(buf, ref)
	}
	return nil
}

func sortedFields(fields []Field) ([]Field, error) {
	sorted := slices.Clone(fields)
	slices.SortFunc(sorted, func(a, b Field) int {
		switch {
		case a.ID < b.ID:
			return -1
		case a.ID > b.ID:
			return 1
		}
		return 0
	})
	for i := 1; i < len(sorted); i++ {
		if sorted[i].ID == sorted[i-1].ID {
			return nil, fmt.Errorf("fields %s and %s have the same id %d", sorted[i-1], sorted[i], sorted[i].ID)
		}
	}
	return sorted, nil
}

func encodeValue(buf *bytes.Buffer, t *Type, v any, depth int) error {
	if depth > MaxDepth {
		return ErrMaxDepth
	}
	switch t.Kind {
	case KindNull, KindReserved:
		return nil
	case KindEmpty:
		return fmt.Errorf("values of type empty can not be encoded")
	case KindBool:
		b, ok := v.(bool)
		if !ok {
			return typeMismatch(t, v)
		}
		if b {
			buf.WriteByte(1)
		} else {
			buf.WriteByte(0)
		}
	case KindNat:
		n, err := toBigInt(v)
		if err != nil {
			return fmt.Errorf("nat: %w", err)
		}
		if n.Sign() < 0 {
			return fmt.Errorf("nat can not be negative: %s", n)
		}
		writeBigULEB128(buf, n)
	case KindInt:
		n, err := toBigInt(v)
		if err != nil {
			return fmt.Errorf("int: %w", err)
		}
		writeBigSLEB128(buf, n)
	case KindNat8, KindNat16, KindNat32, KindNat64:
		return encodeFixedNat(buf, t.Kind, v)
	case KindInt8, KindInt16, KindInt32, KindInt64:
		return encodeFixedInt(buf, t.Kind, v)
	case KindFloat32:
		f, ok := v.(float32)
		if !ok {
			return typeMismatch(t, v)
		}
		buf.Write(binary.LittleEndian.AppendUint32(nil, math.Float32bits(f)))
	case KindFloat64:
		f, ok := v.(float64)
		if !ok {
			return typeMismatch(t, v)
		}
		buf.Write(binary.LittleEndian.AppendUint64(nil, math.Float64bits(f)))
	case KindText:
		s, ok := v.(string)
		if !ok {
			return typeMismatch(t, v)
		}
		writeULEB128(buf, uint64(len(s)))
		buf.WriteString(s)
	case KindPrincipal, KindService:
		p, ok := v.(types.Principal)
		if !ok {
			return typeMismatch(t, v)
		}
		writePrincipal(buf, p)
	case KindFunc:
		f, ok := v.(FuncRef)
		if !ok {
			return typeMismatch(t, v)
		}
		buf.WriteByte(1)
		writePrincipal(buf, f.Principal)
		writeULEB128(buf, uint64(len(f.Method)))
		buf.WriteString(f.Method)
	case KindOpt:
		if v == nil {
			buf.WriteByte(0)
			return nil
		}
		buf.WriteByte(1)
		return encodeValue(buf, t.Elem, v, depth+1)
	case KindVec:
		if b, ok := v.([]byte); ok && t.Elem.Kind == KindNat8 {
			writeULEB128(buf, uint64(len(b)))
			buf.Write(b)
			return nil
		}
		items, ok := v.([]any)
		if !ok && v != nil {
			return typeMismatch(t, v)
		}
		writeULEB128(buf, uint64(len(items)))
		for i, item := range items {
			if err := encodeValue(buf, t.Elem, item, depth+1); err != nil {
				return fmt.Errorf("vec item %d: %w", i, err)
			}
		}
	case KindRecord:
		rec, ok := v.(Record)
		if !ok {
			return typeMismatch(t, v)
		}
		fields, err := sortedFields(t.Fields)
		if err != nil {
			return err
		}
		for _, f := range fields {
			fv, ok := rec[f.ID]
			if !ok && !optional(f.Type) {
				return fmt.Errorf("record field %s is missing", f)
			}
			if err := encodeValue(buf, f.Type, fv, depth+1); err != nil {
				return fmt.Errorf("record field %s: %w", f, err)
			}
		}
	case KindVariant:
		vv, ok := v.(Variant)
		if !ok {
			return typeMismatch(t, v)
		}
		fields, err := sortedFields(t.Fields)
		if err != nil {
			return err
		}
		idx := slices.IndexFunc(fields, func(f Field) bool { return f.ID == vv.ID })
		if idx < 0 {
			return fmt.Errorf("variant has no case with id %d", vv.ID)
		}
		writeULEB128(buf, uint64(idx))
		if err := encodeValue(buf, fields[idx].Type, vv.Value, depth+1); err != nil {
			return fmt.Errorf("variant case %s: %w", fields[idx], err)
		}
	default:
		return fmt.Errorf("unknown type kind %d", t.Kind)
	}
	return nil
}

// optional types may be left out of a record value.
func optional(t *Type) bool {
	return t.Kind == KindOpt || t.Kind == KindNull || t.Kind == KindReserved
}

func writePrincipal(buf *bytes.Buffer, p types.Principal) {
	buf.WriteByte(1)
	writeULEB128(buf, uint64(len(p)))
	buf.Write(p)
}

func encodeFixedNat(buf *bytes.Buffer, kind Kind, v any) error {
	n, err := toBigInt(v)
	if err != nil {
		return fmt.Errorf("%s: %w", kind, err)
	}
	size := fixedSize(kind)
	if n.Sign() < 0 || n.BitLen() > size*8 {
		return fmt.Errorf("value %s out of range for %s", n, kind)
	}
	buf.Write(binary.LittleEndian.AppendUint64(nil, n.Uint64())[:size])
	return nil
}

func encodeFixedInt(buf *bytes.Buffer, kind Kind, v any) error {
	n, err := toBigInt(v)
	if err != nil {
		return fmt.Errorf("%s: %w", kind, err)
	}
	size := fixedSize(kind)
	limit := new(big.Int).Lsh(big.NewInt(1), uint(size*8-1))
	if n.Cmp(limit) >= 0 || n.Cmp(new(big.Int).Neg(limit)) < 0 {
		return fmt.Errorf("value %s out of range for %s", n, kind)
	}
	buf.Write(binary.LittleEndian.AppendUint64(nil, uint64(n.Int64()))[:size])
	return nil
}

func fixedSize(kind Kind) int {
	switch kind {
	case KindNat8, KindInt8:
		return 1
	case KindNat16, KindInt16:
		return 2
	case KindNat32, KindInt32, KindFloat32:
		return 4
	default:
		return 8
	}
}

func toBigInt(v any) (*big.Int, error) {
	switch n := v.(type) {
	case *big.Int:
		if n == nil {
			return nil, fmt.Errorf("nil *big.Int")
		}
		return n, nil
	case int:
		return big.NewInt(int64(n)), nil
	case int8:
		return big.NewInt(int64(n)), nil
	case int16:
		return big.NewInt(int64(n)), nil
	case int32:
		return big.NewInt(int64(n)), nil
	case int64:
		return big.NewInt(n), nil
	case uint:
		return new(big.Int).SetUint64(uint64(n)), nil
	case uint8:
		return new(big.Int).SetUint64(uint64(n)), nil
	case uint16:
		return new(big.Int).SetUint64(uint64(n)), nil
	case uint32:
		return new(big.Int).SetUint64(uint64(n)), nil
	case uint64:
		return new(big.Int).SetUint64(n), nil
	default:
		return nil, fmt.Errorf("expected integer, got %T", v)
	}
}

func typeMismatch(t *Type, v any) error {
	return fmt.Errorf("can not encode %T as %s", v, t)
}
