package candid

import (
	"github.com/peridotvault/icrc3-explorer/types"
)

type (
	// Record is the generic form of record values, fields are keyed by id.
	Record map[uint32]any

	// Variant is the generic form of variant values.
	Variant struct {
		ID    uint32
		Value any
	}

	// FuncRef is a reference to a public method of a canister.
	FuncRef struct {
		Principal types.Principal
		Method    string
	}
)

// Get returns the value of the field labeled with name.
func (r Record) Get(name string) (any, bool) {
	v, ok := r[Hash(name)]
	return v, ok
}

// Tuple returns the value of the i-th field of a tuple record.
func (r Record) Tuple(i uint32) (any, bool) {
	v, ok := r[i]
	return v, ok
}

func NewVariant(name string, value any) Variant {
	return Variant{ID: Hash(name), Value: value}
}

// Is reports whether the variant holds the case labeled with name.
func (v Variant) Is(name string) bool {
	return v.ID == Hash(name)
}
