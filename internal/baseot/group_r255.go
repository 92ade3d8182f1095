package baseot

import (
	"crypto/rand"

	r255 "github.com/gtank/ristretto255"
)

// "github.com/gtank/ristretto255"
type r255Group struct{}

type r255Secret struct {
	x *r255.Scalar
	X *r255.Element
}

func decodeR255(enc [EncodedLen]byte) (*r255.Element, error) {
	p := r255.NewElement()
	if err := p.Decode(enc[:]); err != nil {
		return nil, ErrMalformedPoint
	}
	if p.Equal(r255.NewElement().Zero()) == 1 {
		return nil, ErrMalformedPoint
	}
	return p, nil
}

func encodeR255(p *r255.Element) (out [EncodedLen]byte) {
	copy(out[:], p.Encode(nil))
	return
}

func (r255Group) random() (secret, error) {
	var uniformBytes = make([]byte, 64)
	if _, err := rand.Read(uniformBytes); err != nil {
		return nil, err
	}

	x := r255.NewScalar()
	x.FromUniformBytes(uniformBytes)
	return &r255Secret{x: x, X: r255.NewElement().ScalarBaseMult(x)}, nil
}

func (r255Group) add(p, q [EncodedLen]byte) (out [EncodedLen]byte, err error) {
	P, err := decodeR255(p)
	if err != nil {
		return out, err
	}
	Q, err := decodeR255(q)
	if err != nil {
		return out, err
	}
	return encodeR255(r255.NewElement().Add(P, Q)), nil
}

func (r255Group) sub(p, q [EncodedLen]byte) (out [EncodedLen]byte, err error) {
	P, err := decodeR255(p)
	if err != nil {
		return out, err
	}
	Q, err := decodeR255(q)
	if err != nil {
		return out, err
	}
	return encodeR255(r255.NewElement().Subtract(P, Q)), nil
}

func (r255Group) validate(p [EncodedLen]byte) error {
	_, err := decodeR255(p)
	return err
}

func (s *r255Secret) public() [EncodedLen]byte {
	return encodeR255(s.X)
}

func (s *r255Secret) mult(p [EncodedLen]byte) (out [EncodedLen]byte, err error) {
	P, err := decodeR255(p)
	if err != nil {
		return out, err
	}
	return encodeR255(r255.NewElement().ScalarMult(s.x, P)), nil
}
