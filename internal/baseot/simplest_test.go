package baseot

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/optable/otext/internal/crypto"
)

const baseCount = 128

func expandSeed(t *testing.T, s crypto.Seed) []byte {
	t.Helper()
	out := make([]byte, 32)
	if err := crypto.NewBlake3PRG([]byte("test")).Expand(out, s, 0); err != nil {
		t.Fatal(err)
	}
	return out
}

func TestSimplest(t *testing.T) {
	for _, g := range []Group{GroupRistretto, GroupRistretto255} {
		start := time.Now()

		sender, err := NewSender(g)
		if err != nil {
			t.Fatal(err)
		}
		receiver, err := NewReceiver(g)
		if err != nil {
			t.Fatal(err)
		}

		params, err := sender.Setup()
		if err != nil {
			t.Fatal(err)
		}
		resp, err := receiver.Setup(params, baseCount)
		if err != nil {
			t.Fatal(err)
		}
		pairs, err := sender.Send(resp, baseCount)
		if err != nil {
			t.Fatal(err)
		}
		seeds, choices, err := receiver.Receive()
		if err != nil {
			t.Fatal(err)
		}

		if len(pairs) != baseCount || len(seeds) != baseCount {
			t.Fatalf("%s: got %d pairs and %d seeds", g, len(pairs), len(seeds))
		}

		for i := range seeds {
			bit := 0
			if choices.Test(uint(i)) {
				bit = 1
			}
			got := expandSeed(t, seeds[i])
			if !bytes.Equal(got, expandSeed(t, pairs[i][bit])) {
				t.Fatalf("%s: base OT %d, receiver seed does not match sender seed %d", g, i, bit)
			}
			if bytes.Equal(got, expandSeed(t, pairs[i][1-bit])) {
				t.Fatalf("%s: base OT %d, receiver learned both seeds", g, i)
			}
		}

		t.Logf("Time taken for %s base OT of %d OTs is: %v\n", g, baseCount, time.Since(start))
	}
}

func TestSimplestRejectsMalformedPoints(t *testing.T) {
	for _, g := range []Group{GroupRistretto, GroupRistretto255} {
		receiver, _ := NewReceiver(g)

		// the identity encodes as all zeros
		if _, err := receiver.Setup(&PublicParams{}, baseCount); !errors.Is(err, ErrMalformedPoint) {
			t.Fatalf("%s: expected ErrMalformedPoint for the identity, got %v", g, err)
		}

		var bad [EncodedLen]byte
		for i := range bad {
			bad[i] = 0xff
		}
		if _, err := receiver.Setup(&PublicParams{Point: bad}, baseCount); !errors.Is(err, ErrMalformedPoint) {
			t.Fatalf("%s: expected ErrMalformedPoint for a non canonical encoding, got %v", g, err)
		}

		sender, _ := NewSender(g)
		if _, err := sender.Setup(); err != nil {
			t.Fatal(err)
		}
		resp := &Response{Points: make([][EncodedLen]byte, baseCount)}
		if _, err := sender.Send(resp, baseCount); !errors.Is(err, ErrMalformedPoint) {
			t.Fatalf("%s: expected ErrMalformedPoint in the response, got %v", g, err)
		}
	}
}

func TestSimplestInvalidParams(t *testing.T) {
	sender, _ := NewSender(GroupRistretto)
	if _, err := sender.Send(&Response{}, baseCount); err != ErrNotReady {
		t.Fatalf("expected ErrNotReady, got %v", err)
	}
	if _, err := sender.Setup(); err != nil {
		t.Fatal(err)
	}
	if _, err := sender.Send(&Response{Points: make([][EncodedLen]byte, 3)}, baseCount); err != ErrInvalidParams {
		t.Fatalf("expected ErrInvalidParams, got %v", err)
	}

	receiver, _ := NewReceiver(GroupRistretto)
	if _, _, err := receiver.Receive(); err != ErrNotReady {
		t.Fatalf("expected ErrNotReady, got %v", err)
	}

	if _, err := NewSender(Group(9)); !errors.Is(err, ErrInvalidParams) {
		t.Fatalf("expected ErrInvalidParams for an unknown group, got %v", err)
	}
}
