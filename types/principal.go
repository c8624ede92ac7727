package types

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"hash/crc32"
	"strings"

	b32 "github.com/multiformats/go-base32"
)

// MaxPrincipalLength is the maximum length of the raw principal bytes.
const MaxPrincipalLength = 29

var (
	ErrInvalidPrincipal = errors.New("invalid principal")

	// AnonymousPrincipal is the identity of unauthenticated callers.
	AnonymousPrincipal = Principal{0x04}

	principalEncoding = b32.NewEncodingCI("abcdefghijklmnopqrstuvwxyz234567").WithPadding(b32.NoPadding)
)

// Principal is the raw (binary) form of an Internet Computer identity or
// canister id.
type Principal []byte

// PrincipalFromText parses the textual form of a principal, ie
// "ryjl3-tyaaa-aaaaa-aaaba-cai". Only canonical text is accepted.
func PrincipalFromText(s string) (Principal, error) {
	if s == "" {
		return nil, fmt.Errorf("%w: empty string", ErrInvalidPrincipal)
	}
	raw, err := principalEncoding.DecodeString(strings.ReplaceAll(s, "-", ""))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidPrincipal, err)
	}
	if len(raw) < crc32.Size {
		return nil, fmt.Errorf("%w: too short", ErrInvalidPrincipal)
	}
	p := Principal(raw[crc32.Size:])
	if len(p) > MaxPrincipalLength {
		return nil, fmt.Errorf("%w: length %d exceeds %d bytes", ErrInvalidPrincipal, len(p), MaxPrincipalLength)
	}
	if !bytes.Equal(raw[:crc32.Size], p.checksum()) {
		return nil, fmt.Errorf("%w: checksum mismatch", ErrInvalidPrincipal)
	}
	if p.String() != s {
		return nil, fmt.Errorf("%w: %q is not in canonical form", ErrInvalidPrincipal, s)
	}
	return p, nil
}

// Valid reports whether p can be a principal, ie has 1 to MaxPrincipalLength bytes.
func (p Principal) Valid() bool {
	return len(p) > 0 && len(p) <= MaxPrincipalLength
}

func (p Principal) checksum() []byte {
	return binary.BigEndian.AppendUint32(nil, crc32.ChecksumIEEE(p))
}

// String returns the textual form of the principal: base32 encoded
// checksum and bytes, grouped by five characters.
func (p Principal) String() string {
	enc := principalEncoding.EncodeToString(append(p.checksum(), p...))
	var sb strings.Builder
	for i := 0; i < len(enc); i += 5 {
		if i > 0 {
			sb.WriteByte('-')
		}
		sb.WriteString(enc[i:min(i+5, len(enc))])
	}
	return sb.String()
}

func (p Principal) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

func (p *Principal) UnmarshalText(src []byte) error {
	res, err := PrincipalFromText(string(src))
	if err != nil {
		return err
	}
	*p = res
	return nil
}
