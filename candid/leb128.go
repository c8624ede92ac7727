package candid

import (
	"bytes"
	"errors"
	"io"
	"math/big"
)

var (
	errLEB128Overflow = errors.New("leb128 value overflows 64 bits")

	big0x7f = big.NewInt(0x7f)
)

func writeULEB128(buf *bytes.Buffer, v uint64) {
	for {
		b := byte(v & 0x7f)
		v >>= 7
		if v == 0 {
			buf.WriteByte(b)
			return
		}
		buf.WriteByte(b | 0x80)
	}
}

func writeSLEB128(buf *bytes.Buffer, v int64) {
	for {
		b := byte(v & 0x7f)
		v >>= 7
		if (v == 0 && b&0x40 == 0) || (v == -1 && b&0x40 != 0) {
			buf.WriteByte(b)
			return
		}
		buf.WriteByte(b | 0x80)
	}
}

// writeBigULEB128 expects v to be non-negative.
func writeBigULEB128(buf *bytes.Buffer, v *big.Int) {
	n := new(big.Int).Set(v)
	low := new(big.Int)
	for {
		b := byte(low.And(n, big0x7f).Uint64())
		n.Rsh(n, 7)
		if n.Sign() == 0 {
			buf.WriteByte(b)
			return
		}
		buf.WriteByte(b | 0x80)
	}
}

// writeBigSLEB128 relies on big.Int And and Rsh having two's complement
// semantics for negative values.
func writeBigSLEB128(buf *bytes.Buffer, v *big.Int) {
	n := new(big.Int).Set(v)
	low := new(big.Int)
	for {
		b := byte(low.And(n, big0x7f).Uint64())
		n.Rsh(n, 7)
		if (n.Sign() == 0 && b&0x40 == 0) || (n.IsInt64() && n.Int64() == -1 && b&0x40 != 0) {
			buf.WriteByte(b)
			return
		}
		buf.WriteByte(b | 0x80)
	}
}

func readULEB128(r io.ByteReader) (uint64, error) {
	var v uint64
	for shift := uint(0); ; shift += 7 {
		b, err := r.ReadByte()
		if err != nil {
			return 0, unexpectedEOF(err)
		}
		if shift == 63 && b > 1 {
			return 0, errLEB128Overflow
		}
		v |= uint64(b&0x7f) << shift
		if b&0x80 == 0 {
			return v, nil
		}
		if shift >= 63 {
			return 0, errLEB128Overflow
		}
	}
}

func readSLEB128(r io.ByteReader) (int64, error) {
	var v int64
	var shift uint
	for {
		b, err := r.ReadByte()
		if err != nil {
			return 0, unexpectedEOF(err)
		}
		if shift >= 63 && b != 0 && b != 0x7f {
			return 0, errLEB128Overflow
		}
		v |= int64(b&0x7f) << shift
		shift += 7
		if b&0x80 == 0 {
			if shift < 64 && b&0x40 != 0 {
				v |= -1 << shift
			}
			return v, nil
		}
	}
}

// readLEB128Groups returns the 7 bit groups of a LEB128 number, least
// significant first.
func readLEB128Groups(r io.ByteReader) ([]byte, error) {
	var groups []byte
	for {
		b, err := r.ReadByte()
		if err != nil {
			return nil, unexpectedEOF(err)
		}
		groups = append(groups, b&0x7f)
		if b&0x80 == 0 {
			return groups, nil
		}
	}
}

func readBigULEB128(r io.ByteReader) (*big.Int, error) {
	groups, err := readLEB128Groups(r)
	if err != nil {
		return nil, err
	}
	v := new(big.Int)
	for i := len(groups) - 1; i >= 0; i-- {
		v.Lsh(v, 7)
		v.Or(v, big.NewInt(int64(groups[i])))
	}
	return v, nil
}

func readBigSLEB128(r io.ByteReader) (*big.Int, error) {
	groups, err := readLEB128Groups(r)
	if err != nil {
		return nil, err
	}
	v := new(big.Int)
	for i := len(groups) - 1; i >= 0; i-- {
		v.Lsh(v, 7)
		v.Or(v, big.NewInt(int64(groups[i])))
	}
	if groups[len(groups)-1]&0x40 != 0 {
		v.Sub(v, new(big.Int).Lsh(big.NewInt(1), uint(7*len(groups))))
	}
	return v, nil
}

func unexpectedEOF(err error) error {
	if errors.Is(err, io.EOF) {
		return io.ErrUnexpectedEOF
	}
	return err
}
