package test

import (
	"crypto/rand"
	"math/big"
)

// RandomBytes returns slice of given length filled with random data.
func RandomBytes(len int) []byte {
	bytes := make([]byte, len)
	if _, err := rand.Read(bytes); err != nil {
		panic(err)
	}
	return bytes
}

// RandomInt returns random integer in the range [0, max).
func RandomInt(max int) int {
	n, err := rand.Int(rand.Reader, big.NewInt(int64(max)))
	if err != nil {
		panic(err)
	}
	return int(n.Int64())
}
