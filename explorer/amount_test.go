package explorer

import (
	"math/big"
	"math/rand"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFormatAmount(t *testing.T) {
	var tests = []struct {
		amount   string
		decimals uint
		want     string
	}{
		{amount: "0", decimals: 8, want: "0"},
		{amount: "100000000", decimals: 8, want: "1"},
		{amount: "123456789", decimals: 8, want: "1.23456789"},
		{amount: "1", decimals: 8, want: "0.00000001"},
		{amount: "10", decimals: 8, want: "0.0000001"},
		{amount: "1050000000", decimals: 8, want: "10.5"},
		{amount: "123", decimals: 0, want: "123"},
		{amount: "0", decimals: 0, want: "0"},
		{amount: "1000000", decimals: 6, want: "1"},
		{amount: "1000000000000000001", decimals: 18, want: "1.000000000000000001"},
		{amount: "340282366920938463463374607431768211455", decimals: 8, want: "3402823669209384634633746074317.68211455"},
	}
	for _, tt := range tests {
		n, ok := new(big.Int).SetString(tt.amount, 10)
		require.True(t, ok)
		require.Equal(t, tt.want, FormatAmount(n, tt.decimals), "%s with %d decimals", tt.amount, tt.decimals)
	}

	require.Equal(t, "-", FormatAmount(nil, 8))
}

func TestFormatAmount_DecimalsOutOfRange(t *testing.T) {
	five := big.NewInt(5)
	require.Equal(t, "0."+strings.Repeat("0", MaxDecimals-1)+"5", FormatAmount(five, MaxDecimals))
	require.Equal(t, "-", FormatAmount(five, MaxDecimals+1))
	require.Equal(t, "-", FormatAmount(five, 1<<31))
	require.Equal(t, "-", FormatAmount(five, ^uint(0)))
}

func TestFormatAmount_MatchesPaddedSplit(t *testing.T) {
	rnd := rand.New(rand.NewSource(42))
	for i := 0; i < 1000; i++ {
		n := new(big.Int).Rand(rnd, new(big.Int).Lsh(big.NewInt(1), uint(rnd.Intn(128)+1)))
		d := uint(rnd.Intn(20))
		got := FormatAmount(n, d)
		require.Equal(t, paddedSplit(n, d), got, "%s with %d decimals", n, d)

		intPart, frac, hasFrac := strings.Cut(got, ".")
		if hasFrac {
			require.NotEmpty(t, frac)
			require.False(t, strings.HasSuffix(frac, "0"), got)
		}
		require.True(t, intPart == "0" || !strings.HasPrefix(intPart, "0"), got)
	}
}

// paddedSplit pads the digits with zeros so that there is at least one
// integer digit, splits off the fraction and strips its trailing zeros.
func paddedSplit(n *big.Int, decimals uint) string {
	raw := n.String()
	if pad := int(decimals) + 1 - len(raw); pad > 0 {
		raw = strings.Repeat("0", pad) + raw
	}
	intPart := raw[:len(raw)-int(decimals)]
	frac := strings.TrimRight(raw[len(raw)-int(decimals):], "0")
	if frac == "" {
		return intPart
	}
	return intPart + "." + frac
}
