// Package message defines the versioned, self-describing messages
// exchanged by the two parties of an OT extension session, and their
// binary encoding.
package message

import (
	"fmt"
)

// Version is the wire format version written in every message header.
const Version = 1

// Type tags the kind of message on the wire.
type Type uint8

const (
	TypeBaseOtSetup Type = iota + 1
	TypeBaseOtResponse
	TypeExtensionMatrixCommit
	TypeExtensionChallenge
	TypeExtensionCheckResponse
	TypeExtensionPayload
	TypeAbort
)

func (t Type) String() string {
	switch t {
	case TypeBaseOtSetup:
		return "BaseOtSetup"
	case TypeBaseOtResponse:
		return "BaseOtResponse"
	case TypeExtensionMatrixCommit:
		return "ExtensionMatrixCommit"
	case TypeExtensionChallenge:
		return "ExtensionChallenge"
	case TypeExtensionCheckResponse:
		return "ExtensionCheckResponse"
	case TypeExtensionPayload:
		return "ExtensionPayload"
	case TypeAbort:
		return "Abort"
	default:
		return fmt.Sprintf("Type(%d)", uint8(t))
	}
}

// Message is implemented by every wire message of this package.
type Message interface {
	Type() Type
	encode(e *encoder)
	decode(d *decoder)
}

// Params are the session parameters both peers must agree on.
type Params struct {
	Kappa        uint32
	Variant      uint8
	BatchSize    uint64
	MessageLen   uint32
	StatSecurity uint32
	Group        uint8
	Hash         uint8
	PRG          uint8
}

// BaseOtSetup opens a session: the base OT sender's public point,
// the proposed parameters and a fresh nonce.
type BaseOtSetup struct {
	Params Params
	Nonce  []byte
	Point  []byte
}

// BaseOtResponse carries one point per base OT, each encoding a
// hidden base choice bit, and the responder's nonce.
type BaseOtResponse struct {
	Nonce  []byte
	Points [][]byte
}

// ExtensionMatrixCommit commits the receiver to its corrected
// extension matrix, one row per base OT.
type ExtensionMatrixCommit struct {
	BatchSize uint64
	Rows      [][]byte
}

// ExtensionChallenge carries the combiner seed, sent only after the
// matrix commitment was received.
type ExtensionChallenge struct {
	CombinerSeed []byte
}

// ExtensionCheckResponse carries the combined values of the
// consistency check: X over the choice bits, T over the matrix rows.
type ExtensionCheckResponse struct {
	X []byte
	T []byte
}

// ExtensionPayload carries the sender's masked messages once the
// consistency check passed. It is empty for random OT.
type ExtensionPayload struct {
	Masks [][]byte
}

// Abort reasons.
const (
	AbortProtocol uint8 = iota + 1
	AbortConsistencyCheck
	AbortCancelled
)

// Abort tells the peer the session is over.
type Abort struct {
	Reason uint8
}

func (*BaseOtSetup) Type() Type            { return TypeBaseOtSetup }
func (*BaseOtResponse) Type() Type         { return TypeBaseOtResponse }
func (*ExtensionMatrixCommit) Type() Type  { return TypeExtensionMatrixCommit }
func (*ExtensionChallenge) Type() Type     { return TypeExtensionChallenge }
func (*ExtensionCheckResponse) Type() Type { return TypeExtensionCheckResponse }
func (*ExtensionPayload) Type() Type       { return TypeExtensionPayload }
func (*Abort) Type() Type                  { return TypeAbort }

func newMessage(t Type) (Message, error) {
	switch t {
	case TypeBaseOtSetup:
		return &BaseOtSetup{}, nil
	case TypeBaseOtResponse:
		return &BaseOtResponse{}, nil
	case TypeExtensionMatrixCommit:
		return &ExtensionMatrixCommit{}, nil
	case TypeExtensionChallenge:
		return &ExtensionChallenge{}, nil
	case TypeExtensionCheckResponse:
		return &ExtensionCheckResponse{}, nil
	case TypeExtensionPayload:
		return &ExtensionPayload{}, nil
	case TypeAbort:
		return &Abort{}, nil
	default:
		return nil, fmt.Errorf("%w: %v", ErrUnknownType, t)
	}
}

func (p *Params) encode(e *encoder) {
	e.uint(uint64(p.Kappa))
	e.uint(uint64(p.Variant))
	e.uint(p.BatchSize)
	e.uint(uint64(p.MessageLen))
	e.uint(uint64(p.StatSecurity))
	e.uint(uint64(p.Group))
	e.uint(uint64(p.Hash))
	e.uint(uint64(p.PRG))
}

func (p *Params) decode(d *decoder) {
	p.Kappa = d.uint32()
	p.Variant = d.uint8()
	p.BatchSize = d.uint()
	p.MessageLen = d.uint32()
	p.StatSecurity = d.uint32()
	p.Group = d.uint8()
	p.Hash = d.uint8()
	p.PRG = d.uint8()
}

func (m *BaseOtSetup) encode(e *encoder) {
	m.Params.encode(e)
	e.bytes(m.Nonce)
	e.bytes(m.Point)
}

func (m *BaseOtSetup) decode(d *decoder) {
	m.Params.decode(d)
	m.Nonce = d.bytes()
	m.Point = d.bytes()
}

func (m *BaseOtResponse) encode(e *encoder) {
	e.bytes(m.Nonce)
	e.list(m.Points)
}

func (m *BaseOtResponse) decode(d *decoder) {
	m.Nonce = d.bytes()
	m.Points = d.list()
}

func (m *ExtensionMatrixCommit) encode(e *encoder) {
	e.uint(m.BatchSize)
	e.list(m.Rows)
}

func (m *ExtensionMatrixCommit) decode(d *decoder) {
	m.BatchSize = d.uint()
	m.Rows = d.list()
}

func (m *ExtensionChallenge) encode(e *encoder) {
	e.bytes(m.CombinerSeed)
}

func (m *ExtensionChallenge) decode(d *decoder) {
	m.CombinerSeed = d.bytes()
}

func (m *ExtensionCheckResponse) encode(e *encoder) {
	e.bytes(m.X)
	e.bytes(m.T)
}

func (m *ExtensionCheckResponse) decode(d *decoder) {
	m.X = d.bytes()
	m.T = d.bytes()
}

func (m *ExtensionPayload) encode(e *encoder) {
	e.list(m.Masks)
}

func (m *ExtensionPayload) decode(d *decoder) {
	m.Masks = d.list()
}

func (m *Abort) encode(e *encoder) {
	e.uint(uint64(m.Reason))
}

func (m *Abort) decode(d *decoder) {
	m.Reason = d.uint8()
}
