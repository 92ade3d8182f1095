package otext

import (
	"fmt"
)

// MessagePair is the pair of messages of one OT; a receiver with
// choice bit b learns MessagePair[b].
type MessagePair [2][]byte

// SenderInput is what the sender feeds into one extension. Build it
// with RandomInput, CorrelatedInput or ChosenInput to match the
// session's variant.
type SenderInput struct {
	variant Variant
	delta   []byte
	pairs   []MessagePair
}

// RandomInput is the empty input of random OT.
func RandomInput() SenderInput {
	return SenderInput{variant: Random}
}

// CorrelatedInput fixes the correlation delta: every pair satisfies
// m1 = m0 XOR delta.
func CorrelatedInput(delta []byte) SenderInput {
	return SenderInput{variant: Correlated, delta: append([]byte(nil), delta...)}
}

// ChosenInput transfers pairs.
func ChosenInput(pairs []MessagePair) SenderInput {
	cp := make([]MessagePair, len(pairs))
	for i, p := range pairs {
		cp[i] = MessagePair{append([]byte(nil), p[0]...), append([]byte(nil), p[1]...)}
	}
	return SenderInput{variant: Chosen, pairs: cp}
}

func (in SenderInput) validate(cfg Config, n int) error {
	if in.variant != cfg.Variant {
		return &ConfigError{Field: "Variant", Err: fmt.Errorf("%w: %v input for a %v session", ErrInvalidConfig, in.variant, cfg.Variant)}
	}

	switch in.variant {
	case Correlated:
		if len(in.delta) != cfg.MessageLen {
			return &ConfigError{Field: "Delta", Err: fmt.Errorf("%w: want %d bytes, got %d", ErrInvalidConfig, cfg.MessageLen, len(in.delta))}
		}
	case Chosen:
		if len(in.pairs) != n {
			return &ConfigError{Field: "Pairs", Err: fmt.Errorf("%w: want %d pairs, got %d", ErrInvalidConfig, n, len(in.pairs))}
		}
		for i, p := range in.pairs {
			if len(p[0]) != cfg.MessageLen || len(p[1]) != cfg.MessageLen {
				return &ConfigError{Field: "Pairs", Err: fmt.Errorf("%w: pair %d is not %d bytes", ErrInvalidConfig, i, cfg.MessageLen)}
			}
		}
	}
	return nil
}
