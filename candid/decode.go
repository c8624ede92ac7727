package candid

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"unicode/utf8"

	"github.com/peridotvault/icrc3-explorer/types"
)

const (
	// MaxDepth limits the nesting of values.
	MaxDepth = 128
	// MaxVecLength limits the number of elements of a (non blob) vector.
	MaxVecLength = 1 << 20
	// MaxTableSize limits the number of entries in the type table.
	MaxTableSize = 1 << 12
)

var (
	ErrInvalidMagic = errors.New("message does not start with DIDL")
	ErrMaxDepth     = errors.New("value nesting exceeds maximum depth")
)

// Unmarshal decodes a Candid message. Values are decoded using the types
// of the message itself:
//
//	null, reserved, opt none   nil
//	bool                       bool
//	nat, int                   *big.Int
//	natN, intN                 uintN, intN
//	floatN                     floatN
//	text                       string
//	vec nat8                   []byte
//	vec                        []any
//	record                     Record
//	variant                    Variant
//	func                       FuncRef
//	principal, service         types.Principal
func Unmarshal(data []byte) ([]any, error) {
	if !bytes.HasPrefix(data, magic) {
		return nil, ErrInvalidMagic
	}
	d := &decoder{r: bytes.NewReader(data[len(magic):])}
	if err := d.readTypeTable(); err != nil {
		return nil, fmt.Errorf("reading type table: %w", err)
	}
	argc, err := d.readLength()
	if err != nil {
		return nil, fmt.Errorf("reading argument count: %w", err)
	}
	argTypes := make([]*Type, 0, min(argc, MaxTableSize))
	for i := uint64(0); i < argc; i++ {
		t, err := d.readTypeRef()
		if err != nil {
			return nil, fmt.Errorf("reading argument %d type: %w", i, err)
		}
		argTypes = append(argTypes, t)
	}
	values := make([]any, len(argTypes))
	for i, t := range argTypes {
		if values[i], err = d.value(t, 0); err != nil {
			return nil, fmt.Errorf("decoding argument %d: %w", i, err)
		}
	}
	if d.r.Len() > 0 {
		return nil, fmt.Errorf("%d unexpected trailing bytes", d.r.Len())
	}
	return values, nil
}

type decoder struct {
	r     *bytes.Reader
	table []*Type
}

func (d *decoder) readTypeTable() error {
	n, err := readULEB128(d.r)
	if err != nil {
		return err
	}
	if n > MaxTableSize {
		return fmt.Errorf("type table has %d entries, maximum is %d", n, MaxTableSize)
	}
	// allocate all entries first, entries may reference any other entry
	d.table = make([]*Type, n)
	for i := range d.table {
		d.table[i] = &Type{}
	}
	for i, t := range d.table {
		if err := d.readTypeEntry(t); err != nil {
			return fmt.Errorf("entry %d: %w", i, err)
		}
	}
	return nil
}

func (d *decoder) readTypeEntry(t *Type) error {
	op, err := readSLEB128(d.r)
	if err != nil {
		return err
	}
	t.Kind = Kind(op)
	switch t.Kind {
	case KindOpt, KindVec:
		if t.Elem, err = d.readTypeRef(); err != nil {
			return err
		}
	case KindRecord, KindVariant:
		n, err := d.readLength()
		if err != nil {
			return err
		}
		for i := uint64(0); i < n; i++ {
			id, err := readULEB128(d.r)
			if err != nil {
				return err
			}
			if id > math.MaxUint32 {
				return fmt.Errorf("field id %d out of range", id)
			}
			if len(t.Fields) > 0 && uint32(id) <= t.Fields[len(t.Fields)-1].ID {
				return fmt.Errorf("field ids must be strictly increasing, got %d after %d", id, t.Fields[len(t.Fields)-1].ID)
			}
			ft, err := d.readTypeRef()
			if err != nil {
				return err
			}
			t.Fields = append(t.Fields, Indexed(uint32(id), ft))
		}
	case KindFunc:
		if t.Args, err = d.readTypeRefs(); err != nil {
			return fmt.Errorf("func arguments: %w", err)
		}
		if t.Results, err = d.readTypeRefs(); err != nil {
			return fmt.Errorf("func results: %w", err)
		}
		n, err := d.readLength()
		if err != nil {
			return err
		}
		if t.Modes, err = d.readBytes(n); err != nil {
			return err
		}
	case KindService:
		n, err := d.readLength()
		if err != nil {
			return err
		}
		for i := uint64(0); i < n; i++ {
			name, err := d.readText()
			if err != nil {
				return err
			}
			mt, err := d.readTypeRef()
			if err != nil {
				return err
			}
			t.Methods = append(t.Methods, Method{Name: name, Type: mt})
		}
	default:
		return fmt.Errorf("unsupported type table opcode %d", op)
	}
	return nil
}

func (d *decoder) readTypeRefs() ([]*Type, error) {
	n, err := d.readLength()
	if err != nil {
		return nil, err
	}
	var res []*Type
	for i := uint64(0); i < n; i++ {
		t, err := d.readTypeRef()
		if err != nil {
			return nil, err
		}
		res = append(res, t)
	}
	return res, nil
}

func (d *decoder) readTypeRef() (*Type, error) {
	ref, err := readSLEB128(d.r)
	if err != nil {
		return nil, err
	}
	if ref >= 0 {
		if ref >= int64(len(d.table)) {
			return nil, fmt.Errorf("type reference %d out of table bounds %d", ref, len(d.table))
		}
		return d.table[ref], nil
	}
	if t, ok := primitives[Kind(ref)]; ok {
		return t, nil
	}
	return nil, fmt.Errorf("unknown primitive type opcode %d", ref)
}

// readLength reads a length prefix and checks that it does not exceed
// the remaining input.
func (d *decoder) readLength() (uint64, error) {
	n, err := readULEB128(d.r)
	if err != nil {
		return 0, err
	}
	if n > uint64(d.r.Len()) {
		return 0, fmt.Errorf("length %d exceeds remaining input of %d bytes: %w", n, d.r.Len(), io.ErrUnexpectedEOF)
	}
	return n, nil
}

func (d *decoder) readBytes(n uint64) ([]byte, error) {
	if n > uint64(d.r.Len()) {
		return nil, io.ErrUnexpectedEOF
	}
	b := make([]byte, n)
	if _, err := io.ReadFull(d.r, b); err != nil {
		return nil, unexpectedEOF(err)
	}
	return b, nil
}

func (d *decoder) readText() (string, error) {
	n, err := d.readLength()
	if err != nil {
		return "", err
	}
	b, err := d.readBytes(n)
	if err != nil {
		return "", err
	}
	if !utf8.Valid(b) {
		return "", fmt.Errorf("text is not valid UTF-8")
	}
	return string(b), nil
}

func (d *decoder) readPrincipal() (types.Principal, error) {
	flag, err := d.r.ReadByte()
	if err != nil {
		return nil, unexpectedEOF(err)
	}
	if flag != 1 {
		return nil, fmt.Errorf("opaque references are not supported")
	}
	n, err := d.readLength()
	if err != nil {
		return nil, err
	}
	if n > types.MaxPrincipalLength {
		return nil, fmt.Errorf("principal length %d exceeds %d bytes", n, types.MaxPrincipalLength)
	}
	return d.readBytes(n)
}

func (d *decoder) readFixed(size int) ([]byte, error) {
	return d.readBytes(uint64(size))
}

func (d *decoder) value(t *Type, depth int) (any, error) {
	if depth > MaxDepth {
		return nil, ErrMaxDepth
	}
	switch t.Kind {
	case KindNull, KindReserved:
		return nil, nil
	case KindEmpty:
		return nil, fmt.Errorf("message contains a value of type empty")
	case KindBool:
		b, err := d.r.ReadByte()
		if err != nil {
			return nil, unexpectedEOF(err)
		}
		switch b {
		case 0:
			return false, nil
		case 1:
			return true, nil
		}
		return nil, fmt.Errorf("invalid bool value %d", b)
	case KindNat:
		return readBigULEB128(d.r)
	case KindInt:
		return readBigSLEB128(d.r)
	case KindNat8:
		b, err := d.readFixed(1)
		if err != nil {
			return nil, err
		}
		return b[0], nil
	case KindNat16:
		b, err := d.readFixed(2)
		if err != nil {
			return nil, err
		}
		return binary.LittleEndian.Uint16(b), nil
	case KindNat32:
		b, err := d.readFixed(4)
		if err != nil {
			return nil, err
		}
		return binary.LittleEndian.Uint32(b), nil
	case KindNat64:
		b, err := d.readFixed(8)
		if err != nil {
			return nil, err
		}
		return binary.LittleEndian.Uint64(b), nil
	case KindInt8:
		b, err := d.readFixed(1)
		if err != nil {
			return nil, err
		}
		return int8(b[0]), nil
	case KindInt16:
		b, err := d.readFixed(2)
		if err != nil {
			return nil, err
		}
		return int16(binary.LittleEndian.Uint16(b)), nil
	case KindInt32:
		b, err := d.readFixed(4)
		if err != nil {
			return nil, err
		}
		return int32(binary.LittleEndian.Uint32(b)), nil
	case KindInt64:
		b, err := d.readFixed(8)
		if err != nil {
			return nil, err
		}
		return int64(binary.LittleEndian.Uint64(b)), nil
	case KindFloat32:
		b, err := d.readFixed(4)
		if err != nil {
			return nil, err
		}
		return math.Float32frombits(binary.LittleEndian.Uint32(b)), nil
	case KindFloat64:
		b, err := d.readFixed(8)
		if err != nil {
			return nil, err
		}
		return math.Float64frombits(binary.LittleEndian.Uint64(b)), nil
	case KindText:
		return d.readText()
	case KindPrincipal, KindService:
		return d.readPrincipal()
	case KindFunc:
		flag, err := d.r.ReadByte()
		if err != nil {
			return nil, unexpectedEOF(err)
		}
		if flag != 1 {
			return nil, fmt.Errorf("opaque func references are not supported")
		}
		p, err := d.readPrincipal()
		if err != nil {
			return nil, fmt.Errorf("func service: %w", err)
		}
		method, err := d.readText()
		if err != nil {
			return nil, fmt.Errorf("func method: %w", err)
		}
		return FuncRef{Principal: p, Method: method}, nil
	case KindOpt:
		flag, err := d.r.ReadByte()
		if err != nil {
			return nil, unexpectedEOF(err)
		}
		switch flag {
		case 0:
			return nil, nil
		case 1:
			return d.value(t.Elem, depth+1)
		}
		return nil, fmt.Errorf("invalid opt flag %d", flag)
	case KindVec:
		n, err := readULEB128(d.r)
		if err != nil {
			return nil, err
		}
		if t.Elem.Kind == KindNat8 {
			return d.readBytes(n)
		}
		if n > MaxVecLength {
			return nil, fmt.Errorf("vec length %d exceeds maximum %d", n, MaxVecLength)
		}
		items := make([]any, 0, min(n, uint64(d.r.Len())))
		for i := uint64(0); i < n; i++ {
			item, err := d.value(t.Elem, depth+1)
			if err != nil {
				return nil, fmt.Errorf("vec item %d: %w", i, err)
			}
			items = append(items, item)
		}
		return items, nil
	case KindRecord:
		rec := make(Record, len(t.Fields))
		for _, f := range t.Fields {
			v, err := d.value(f.Type, depth+1)
			if err != nil {
				return nil, fmt.Errorf("record field %d: %w", f.ID, err)
			}
			rec[f.ID] = v
		}
		return rec, nil
	case KindVariant:
		idx, err := readULEB128(d.r)
		if err != nil {
			return nil, err
		}
		if idx >= uint64(len(t.Fields)) {
			return nil, fmt.Errorf("variant index %d out of range, variant has %d cases", idx, len(t.Fields))
		}
		f := t.Fields[idx]
		v, err := d.value(f.Type, depth+1)
		if err != nil {
			return nil, fmt.Errorf("variant case %d: %w", f.ID, err)
		}
		return Variant{ID: f.ID, Value: v}, nil
	default:
		return nil, fmt.Errorf("unknown type kind %d", t.Kind)
	}
}
