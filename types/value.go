package types

import (
	"math/big"
)

type (
	// Value is the ICRC-3 self-describing value. It is implemented by
	// Int, Nat, Nat64, Text, Blob, Map and Array. A nil Value is the
	// "absent" case.
	Value interface {
		icrc3Value()
	}

	// Int is an arbitrary-precision signed integer.
	Int struct{ V *big.Int }

	// Nat is an arbitrary-precision unsigned integer.
	Nat struct{ V *big.Int }

	// Nat64 only appears in the legacy block format.
	Nat64 uint64

	Text string

	Blob []byte

	// Map keeps its entries in the order they were received, names are
	// not required to be unique.
	Map []MapEntry

	MapEntry struct {
		Key   string
		Value Value
	}

	Array []Value
)

func (Int) icrc3Value()   {}
func (Nat) icrc3Value()   {}
func (Nat64) icrc3Value() {}
func (Text) icrc3Value()  {}
func (Blob) icrc3Value()  {}
func (Map) icrc3Value()   {}
func (Array) icrc3Value() {}

func NewNat(v uint64) Nat {
	return Nat{V: new(big.Int).SetUint64(v)}
}

func NewInt(v int64) Int {
	return Int{V: big.NewInt(v)}
}

// Get returns the value of the first entry with the given name.
func (m Map) Get(name string) (Value, bool) {
	for _, e := range m {
		if e.Key == name {
			return e.Value, true
		}
	}
	return nil, false
}
