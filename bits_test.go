package ordermap

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMatchByte(t *testing.T) {
	tests := []struct {
		name string
		word uint64
		h2   uint8
		want bitset
	}{
		{"no match", 0x0102030405060708, 0x09, 0},
		{"match first byte", 0x0102030405060708, 0x01, 0x8000000000000000},
		{"match last byte", 0x0102030405060708, 0x08, 0x0000000000000080},
		{"all zero h2 matches all zero bytes", 0x0000000000000000, 0x00, bitsetMSB},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, matchByte(tt.word, tt.h2))
		})
	}
}

func TestMatchEmptyWord(t *testing.T) {
	tests := []struct {
		name string
		word uint64
		want bitset
	}{
		{"all empty", 0x8080808080808080, 0x8080808080808080},
		{"all deleted", 0xFEFEFEFEFEFEFEFE, 0},
		{"all full", 0x0101010101010101, 0},
		{"mixed", 0x80FE0080FE0080FE, 0x8000008000008000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, matchEmptyWord(tt.word))
		})
	}
}

func TestMatchEmptyOrDeletedWord(t *testing.T) {
	tests := []struct {
		name string
		word uint64
		want bitset
	}{
		{"all empty", 0x8080808080808080, 0x8080808080808080},
		{"all deleted", 0xFEFEFEFEFEFEFEFE, 0x8080808080808080},
		{"all full", 0x0101010101010101, 0},
		{"mixed", 0x80FE0080FE0080FE, 0x8080008080008080},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, matchEmptyOrDeletedWord(tt.word))
		})
	}
}

func TestBitsetFirstAndRemoveFirst(t *testing.T) {
	b := bitset(0x0080008000800080)

	var seen []uintptr
	for b != 0 {
		seen = append(seen, b.first())
		b = b.removeFirst()
	}

	require.Equal(t, []uintptr{0, 2, 4, 6}, seen)
}

func TestGroupMask(t *testing.T) {
	lo := uint64(0x8000000000000080) // slots 0 and 7 empty
	hi := uint64(0x0000008000000000) // slot 12 empty (8 + 4)

	m := matchEmpty(lo, hi)
	require.False(t, m.empty())

	var seen []uintptr
	for !m.empty() {
		seen = append(seen, m.first())
		m = m.removeFirst()
	}

	require.Equal(t, []uintptr{0, 7, 12}, seen)
}

func TestGroupMaskEmpty(t *testing.T) {
	m := matchEmpty(0x0101010101010101, 0x0101010101010101)
	require.True(t, m.empty())
}
