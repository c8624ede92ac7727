package explorer

import (
	"strconv"
	"strings"

	"golang.org/x/text/encoding/unicode"

	"github.com/peridotvault/icrc3-explorer/types"
)

type ExtractKind int

const (
	Empty ExtractKind = iota
	Integer
	Text
	Pairs
	Sequence
)

func (k ExtractKind) String() string {
	switch k {
	case Empty:
		return "empty"
	case Integer:
		return "integer"
	case Text:
		return "text"
	case Pairs:
		return "pairs"
	case Sequence:
		return "sequence"
	default:
		return "ExtractKind(" + strconv.Itoa(int(k)) + ")"
	}
}

/*
Extracted is the display form of a Value. Scalar is set for Integer and Text,
Pairs for Pairs and Items for Sequence.
*/
type Extracted struct {
	Kind   ExtractKind
	Scalar string
	Pairs  types.Map
	Items  []Extracted
}

// Extract converts v into its display form, absent value is Empty.
func Extract(v types.Value) Extracted {
	switch v := v.(type) {
	case types.Int:
		if v.V == nil {
			return Extracted{Kind: Empty}
		}
		return Extracted{Kind: Integer, Scalar: v.V.String()}
	case types.Nat:
		if v.V == nil {
			return Extracted{Kind: Empty}
		}
		return Extracted{Kind: Integer, Scalar: v.V.String()}
	case types.Nat64:
		return Extracted{Kind: Integer, Scalar: strconv.FormatUint(uint64(v), 10)}
	case types.Text:
		return Extracted{Kind: Text, Scalar: string(v)}
	case types.Blob:
		return Extracted{Kind: Text, Scalar: DecodeText(v)}
	case types.Map:
		return Extracted{Kind: Pairs, Pairs: v}
	case types.Array:
		items := make([]Extracted, len(v))
		for i, item := range v {
			items[i] = Extract(item)
		}
		return Extracted{Kind: Sequence, Items: items}
	default:
		return Extracted{Kind: Empty}
	}
}

/*
Lookup returns the value of the first field called name. The second return
value is false when v is not a Map or it has no such field, a field which is
present may still hold absent (nil) value.
*/
func Lookup(v types.Value, name string) (types.Value, bool) {
	m, ok := v.(types.Map)
	if !ok {
		return nil, false
	}
	return m.Get(name)
}

// DecodeText decodes b as UTF-8, invalid sequences are replaced with U+FFFD
// and leading byte order mark is dropped.
func DecodeText(b []byte) string {
	s, err := unicode.UTF8BOM.NewDecoder().Bytes(b)
	if err != nil {
		return strings.ToValidUTF8(string(b), "�")
	}
	return string(s)
}

/*
DecodeAccount returns the textual principal when b is a valid principal,
otherwise b decoded as text.
*/
func DecodeAccount(b []byte) string {
	if p := types.Principal(b); p.Valid() {
		return p.String()
	}
	return DecodeText(b)
}
