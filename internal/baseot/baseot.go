// Package baseot implements the base oblivious transfers that seed the
// extension: kappa random OTs whose outputs are 128 bit PRG seeds.
package baseot

import (
	"errors"
	"fmt"

	"github.com/bits-and-blooms/bitset"
	"github.com/optable/otext/internal/crypto"
)

// EncodedLen is the length of an encoded group element.
const EncodedLen = 32

var (
	ErrMalformedPoint = errors.New("malformed or identity group element")
	ErrInvalidParams  = errors.New("invalid base OT parameters")
	ErrNotReady       = errors.New("base OT receiver has not been set up")
)

// Group selects the prime order group the base OT runs in.
type Group uint8

const (
	// GroupRistretto is ristretto255 from github.com/bwesterb/go-ristretto.
	GroupRistretto Group = iota
	// GroupRistretto255 is ristretto255 from github.com/gtank/ristretto255.
	GroupRistretto255
)

func (g Group) String() string {
	switch g {
	case GroupRistretto:
		return "ristretto"
	case GroupRistretto255:
		return "ristretto255"
	default:
		return "undefined"
	}
}

// PublicParams is the first message of the base OT sender.
type PublicParams struct {
	Point [EncodedLen]byte
}

// Response carries one point per base OT; each point hides the
// receiver's choice bit.
type Response struct {
	Points [][EncodedLen]byte
}

// Sender ends the base OT phase holding kappa seed pairs.
type Sender interface {
	Setup() (*PublicParams, error)
	Send(resp *Response, kappa int) ([]crypto.SeedPair, error)
}

// Receiver ends the base OT phase holding kappa seeds, one per pair,
// selected by random choice bits it samples itself.
type Receiver interface {
	Setup(params *PublicParams, kappa int) (*Response, error)
	Receive() ([]crypto.Seed, *bitset.BitSet, error)
}

// NewSender returns a base OT sender over g.
func NewSender(g Group) (Sender, error) {
	grp, err := newGroup(g)
	if err != nil {
		return nil, err
	}
	return &simplestSender{g: grp}, nil
}

// NewReceiver returns a base OT receiver over g.
func NewReceiver(g Group) (Receiver, error) {
	grp, err := newGroup(g)
	if err != nil {
		return nil, err
	}
	return &simplestReceiver{g: grp}, nil
}

func newGroup(g Group) (group, error) {
	switch g {
	case GroupRistretto:
		return grGroup{}, nil
	case GroupRistretto255:
		return r255Group{}, nil
	default:
		return nil, fmt.Errorf("%w: group %d not supported", ErrInvalidParams, g)
	}
}
