package candid

import (
	"fmt"
	"strconv"
)

// Kind is the type opcode as it appears on the wire.
type Kind int64

const (
	KindNull      Kind = -1
	KindBool      Kind = -2
	KindNat       Kind = -3
	KindInt       Kind = -4
	KindNat8      Kind = -5
	KindNat16     Kind = -6
	KindNat32     Kind = -7
	KindNat64     Kind = -8
	KindInt8      Kind = -9
	KindInt16     Kind = -10
	KindInt32     Kind = -11
	KindInt64     Kind = -12
	KindFloat32   Kind = -13
	KindFloat64   Kind = -14
	KindText      Kind = -15
	KindReserved  Kind = -16
	KindEmpty     Kind = -17
	KindOpt       Kind = -18
	KindVec       Kind = -19
	KindRecord    Kind = -20
	KindVariant   Kind = -21
	KindFunc      Kind = -22
	KindService   Kind = -23
	KindPrincipal Kind = -24
)

// func annotations
const (
	ModeQuery          byte = 1
	ModeOneway         byte = 2
	ModeCompositeQuery byte = 3
)

var kindNames = map[Kind]string{
	KindNull:      "null",
	KindBool:      "bool",
	KindNat:       "nat",
	KindInt:       "int",
	KindNat8:      "nat8",
	KindNat16:     "nat16",
	KindNat32:     "nat32",
	KindNat64:     "nat64",
	KindInt8:      "int8",
	KindInt16:     "int16",
	KindInt32:     "int32",
	KindInt64:     "int64",
	KindFloat32:   "float32",
	KindFloat64:   "float64",
	KindText:      "text",
	KindReserved:  "reserved",
	KindEmpty:     "empty",
	KindOpt:       "opt",
	KindVec:       "vec",
	KindRecord:    "record",
	KindVariant:   "variant",
	KindFunc:      "func",
	KindService:   "service",
	KindPrincipal: "principal",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return "Kind(" + strconv.FormatInt(int64(k), 10) + ")"
}

// primitive types are referenced by their opcode, everything else goes
// into the type table.
func (k Kind) primitive() bool {
	return (k <= KindNull && k >= KindEmpty) || k == KindPrincipal
}

func (k Kind) composite() bool {
	return k <= KindOpt && k >= KindService
}

type (
	// Type describes a Candid type. Recursive types are built by
	// allocating the Type first and filling it in afterwards:
	//
	//	list := &candid.Type{}
	//	*list = *candid.Opt(candid.RecordType(candid.Named("head", candid.Nat), candid.Named("tail", list)))
	Type struct {
		Kind Kind
		// element type of opt and vec
		Elem *Type
		// fields of record and variant
		Fields []Field
		// func signature
		Args    []*Type
		Results []*Type
		Modes   []byte
		// service methods, must reference func types
		Methods []Method
	}

	Field struct {
		ID   uint32
		Name string
		Type *Type
	}

	Method struct {
		Name string
		Type *Type
	}
)

var (
	Null      = &Type{Kind: KindNull}
	Bool      = &Type{Kind: KindBool}
	Nat       = &Type{Kind: KindNat}
	Int       = &Type{Kind: KindInt}
	Nat8      = &Type{Kind: KindNat8}
	Nat16     = &Type{Kind: KindNat16}
	Nat32     = &Type{Kind: KindNat32}
	Nat64     = &Type{Kind: KindNat64}
	Int8      = &Type{Kind: KindInt8}
	Int16     = &Type{Kind: KindInt16}
	Int32     = &Type{Kind: KindInt32}
	Int64     = &Type{Kind: KindInt64}
	Float32   = &Type{Kind: KindFloat32}
	Float64   = &Type{Kind: KindFloat64}
	Text      = &Type{Kind: KindText}
	Reserved  = &Type{Kind: KindReserved}
	Empty     = &Type{Kind: KindEmpty}
	Principal = &Type{Kind: KindPrincipal}
)

var primitives = map[Kind]*Type{
	KindNull:      Null,
	KindBool:      Bool,
	KindNat:       Nat,
	KindInt:       Int,
	KindNat8:      Nat8,
	KindNat16:     Nat16,
	KindNat32:     Nat32,
	KindNat64:     Nat64,
	KindInt8:      Int8,
	KindInt16:     Int16,
	KindInt32:     Int32,
	KindInt64:     Int64,
	KindFloat32:   Float32,
	KindFloat64:   Float64,
	KindText:      Text,
	KindReserved:  Reserved,
	KindEmpty:     Empty,
	KindPrincipal: Principal,
}

func Opt(t *Type) *Type {
	return &Type{Kind: KindOpt, Elem: t}
}

func Vec(t *Type) *Type {
	return &Type{Kind: KindVec, Elem: t}
}

func RecordType(fields ...Field) *Type {
	return &Type{Kind: KindRecord, Fields: fields}
}

// Tuple is a record whose fields are labeled by their position.
func Tuple(types ...*Type) *Type {
	fields := make([]Field, len(types))
	for i, t := range types {
		fields[i] = Indexed(uint32(i), t)
	}
	return RecordType(fields...)
}

func VariantType(fields ...Field) *Type {
	return &Type{Kind: KindVariant, Fields: fields}
}

func Func(args, results []*Type, modes ...byte) *Type {
	return &Type{Kind: KindFunc, Args: args, Results: results, Modes: modes}
}

func Service(methods ...Method) *Type {
	return &Type{Kind: KindService, Methods: methods}
}

// Named returns a field labeled with name, its id is the hash of the name.
func Named(name string, t *Type) Field {
	return Field{ID: Hash(name), Name: name, Type: t}
}

func Indexed(id uint32, t *Type) Field {
	return Field{ID: id, Type: t}
}

func (f Field) String() string {
	if f.Name != "" {
		return f.Name
	}
	return strconv.FormatUint(uint64(f.ID), 10)
}

func (t *Type) String() string {
	if t == nil {
		return "<nil>"
	}
	switch t.Kind {
	case KindOpt, KindVec:
		if t.Elem != nil {
			return fmt.Sprintf("%s %s", t.Kind, t.Elem.Kind)
		}
		return t.Kind.String()
	default:
		return t.Kind.String()
	}
}

// Hash returns the id of a field label.
func Hash(name string) uint32 {
	var h uint32
	for i := 0; i < len(name); i++ {
		h = h*223 + uint32(name[i])
	}
	return h
}
