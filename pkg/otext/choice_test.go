package otext

import (
	"testing"

	"github.com/bits-and-blooms/bitset"
	"github.com/optable/otext/internal/util"
)

func TestChoiceBitsFromBitSet(t *testing.T) {
	b := bitset.New(10)
	b.Set(1).Set(8)
	c := ChoiceBitsFromBitSet(b, 10)

	// later changes to b do not leak in
	b.Set(2)
	for i := 0; i < 10; i++ {
		if want := i == 1 || i == 8; c.Bit(i) != want {
			t.Fatalf("bit %d: got %v, want %v", i, c.Bit(i), want)
		}
	}

	// bits past the set's length read as zero
	if c = ChoiceBitsFromBitSet(b, 100); c.Len() != 100 || c.Bit(99) {
		t.Fatalf("unexpected tail: len %d, bit 99 %v", c.Len(), c.Bit(99))
	}
}

func TestChoiceBitsFromNilBitSet(t *testing.T) {
	c := ChoiceBitsFromBitSet(nil, 70)
	if c.Len() != 70 {
		t.Fatalf("expected 70 choice bits, got %d", c.Len())
	}
	for i := 0; i < c.Len(); i++ {
		if c.Bit(i) {
			t.Fatalf("bit %d set in choice bits from a nil set", i)
		}
	}
}

func TestChoiceBitsExtend(t *testing.T) {
	c := NewChoiceBits([]bool{true, false, true, true})
	w, err := c.extend(512)
	if err != nil {
		t.Fatal(err)
	}
	if len(w) != 8 {
		t.Fatalf("expected 8 words, got %d", len(w))
	}
	for i, want := range []bool{true, false, true, true} {
		if util.TestBit(w, i) != want {
			t.Fatalf("bit %d: got %v, want %v", i, util.TestBit(w, i), want)
		}
	}
}
