package baseot

// group is the slice of prime order group arithmetic the simplest OT
// needs, expressed over encoded elements. Decoding rejects malformed
// encodings and the identity with ErrMalformedPoint.
type group interface {
	random() (secret, error)
	add(p, q [EncodedLen]byte) ([EncodedLen]byte, error)
	sub(p, q [EncodedLen]byte) ([EncodedLen]byte, error)
	validate(p [EncodedLen]byte) error
}

// secret is a scalar x together with its public point xG.
type secret interface {
	public() [EncodedLen]byte
	mult(p [EncodedLen]byte) ([EncodedLen]byte, error)
}
