package otext

import (
	"bytes"
	"context"
	"crypto/rand"
	"errors"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/optable/otext/pkg/channel"
	"github.com/optable/otext/pkg/message"
)

var batchSizes = []int{1, 63, 64, 65, 1024}

// tamper hands every outgoing message to f before sending it.
type tamper struct {
	channel.Channel
	f func(message.Message)
}

func (t *tamper) Send(ctx context.Context, m message.Message) error {
	t.f(m)
	return t.Channel.Send(ctx, m)
}

type testSession struct {
	sender      *Sender
	receiver    *Receiver
	senderOut   []MessagePair
	senderErr   error
	receiverOut [][]byte
	receiverErr error
}

// runSession runs both parties of one session over an in-memory pipe.
// wrap, if set, decorates the sender's (0) or the receiver's (1) end.
func runSession(t *testing.T, scfg, rcfg Config, input SenderInput, choices ChoiceBits, n int, wrap func(role int, ch channel.Channel) channel.Channel) *testSession {
	t.Helper()

	sch, rch := channel.Pipe()
	if wrap != nil {
		sch, rch = wrap(0, sch), wrap(1, rch)
	}
	return runOver(t, scfg, rcfg, input, choices, n, sch, rch)
}

func runOver(t *testing.T, scfg, rcfg Config, input SenderInput, choices ChoiceBits, n int, sch, rch channel.Channel) *testSession {
	t.Helper()

	var s testSession
	var err error
	if s.sender, err = NewSender(scfg); err != nil {
		t.Fatal(err)
	}
	if s.receiver, err = NewReceiver(rcfg); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	var wg sync.WaitGroup
	wg.Add(2)

	// sender
	go func() {
		defer wg.Done()
		if s.senderErr = s.sender.BaseSetup(ctx, sch); s.senderErr != nil {
			return
		}
		s.senderOut, s.senderErr = s.sender.Extend(ctx, sch, input, n)
	}()

	// receiver
	go func() {
		defer wg.Done()
		if s.receiverErr = s.receiver.BaseSetup(ctx, rch); s.receiverErr != nil {
			return
		}
		s.receiverOut, s.receiverErr = s.receiver.Extend(ctx, rch, choices, n)
	}()

	wg.Wait()
	return &s
}

func variantConfig(v Variant) Config {
	cfg := DefaultConfig()
	cfg.Variant = v
	return cfg
}

func randomBytes(t *testing.T, n int) []byte {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		t.Fatal(err)
	}
	return b
}

func randomPairs(t *testing.T, n, msgLen int) []MessagePair {
	pairs := make([]MessagePair, n)
	for i := range pairs {
		pairs[i] = MessagePair{randomBytes(t, msgLen), randomBytes(t, msgLen)}
	}
	return pairs
}

func randomChoices(t *testing.T, n int) ChoiceBits {
	c, err := RandomChoiceBits(n)
	if err != nil {
		t.Fatal(err)
	}
	return c
}

func inputFor(t *testing.T, cfg Config, n int) SenderInput {
	switch cfg.Variant {
	case Correlated:
		return CorrelatedInput(randomBytes(t, cfg.MessageLen))
	case Chosen:
		return ChosenInput(randomPairs(t, n, cfg.MessageLen))
	default:
		return RandomInput()
	}
}

// checkOutputs verifies that the receiver got m_b for every OT.
func checkOutputs(t *testing.T, s *testSession, choices ChoiceBits, n int) {
	t.Helper()

	if s.senderErr != nil {
		t.Fatalf("sender: %v", s.senderErr)
	}
	if s.receiverErr != nil {
		t.Fatalf("receiver: %v", s.receiverErr)
	}
	if s.sender.State() != StateOutputsReady || s.receiver.State() != StateOutputsReady {
		t.Fatalf("expected both sides in OutputsReady, got %v and %v", s.sender.State(), s.receiver.State())
	}
	if len(s.senderOut) != n || len(s.receiverOut) != n {
		t.Fatalf("expected %d outputs, got %d and %d", n, len(s.senderOut), len(s.receiverOut))
	}

	for i := 0; i < n; i++ {
		bit := 0
		if choices.Bit(i) {
			bit = 1
		}
		if !bytes.Equal(s.receiverOut[i], s.senderOut[i][bit]) {
			t.Fatalf("OT %d failed got: %x, want %x", i, s.receiverOut[i], s.senderOut[i][bit])
		}
		if bytes.Equal(s.receiverOut[i], s.senderOut[i][1-bit]) {
			t.Fatalf("OT %d: receiver output equals the other message", i)
		}
	}
}

func TestExtend(t *testing.T) {
	for _, v := range []Variant{Random, Correlated, Chosen} {
		for _, n := range batchSizes {
			cfg := variantConfig(v)
			choices := randomChoices(t, n)
			input := inputFor(t, cfg, n)

			start := time.Now()
			s := runSession(t, cfg, cfg, input, choices, n, nil)
			checkOutputs(t, s, choices, n)

			if v == Chosen {
				for i, p := range input.pairs {
					if !bytes.Equal(s.senderOut[i][0], p[0]) || !bytes.Equal(s.senderOut[i][1], p[1]) {
						t.Fatalf("chosen OT %d: sender outputs differ from its input", i)
					}
				}
			}
			t.Logf("Time taken for %v OT extension of %d OTs is: %v\n", v, n, time.Since(start))
		}
	}
}

func TestCorrelatedEndToEnd(t *testing.T) {
	const n = 1000
	cfg := variantConfig(Correlated)
	cfg.Kappa = 128
	cfg.BatchSize = n

	delta := bytes.Repeat([]byte{0x5a}, cfg.MessageLen)
	choices := randomChoices(t, n)
	s := runSession(t, cfg, cfg, CorrelatedInput(delta), choices, n, nil)
	checkOutputs(t, s, choices, n)

	for i, p := range s.senderOut {
		d := make([]byte, len(p[0]))
		for k := range d {
			d[k] = p[0][k] ^ p[1][k]
		}
		if !bytes.Equal(d, delta) {
			t.Fatalf("OT %d: out1 XOR out0 = %x, want %x", i, d, delta)
		}
	}
}

func TestAlternatePrimitives(t *testing.T) {
	cfg := variantConfig(Chosen)
	cfg.Kappa = 256
	cfg.MessageLen = 33
	cfg.Group = GroupRistretto255
	cfg.Hash = HashFixedKeyAES
	cfg.PRG = PRGAESCTR
	cfg.Workers = 1

	const n = 300
	choices := randomChoices(t, n)
	s := runSession(t, cfg, cfg, inputFor(t, cfg, n), choices, n, nil)
	checkOutputs(t, s, choices, n)
}

func TestStreamTransport(t *testing.T) {
	c1, c2 := net.Pipe()
	sch, rch := channel.NewStream(c1), channel.NewStream(c2)
	defer sch.Close()
	defer rch.Close()

	cfg := variantConfig(Random)
	const n = 500
	choices := randomChoices(t, n)
	s := runOver(t, cfg, cfg, RandomInput(), choices, n, sch, rch)
	checkOutputs(t, s, choices, n)
}

// assertAborted checks that both sides ended in Aborted for reason
// and that no output accessor succeeds.
func assertAborted(t *testing.T, s *testSession, reason AbortReason, sentinel error) {
	t.Helper()

	for _, side := range []struct {
		name  string
		err   error
		state State
		why   AbortReason
	}{
		{"sender", s.senderErr, s.sender.State(), s.sender.Reason()},
		{"receiver", s.receiverErr, s.receiver.State(), s.receiver.Reason()},
	} {
		if side.state != StateAborted || side.why != reason {
			t.Fatalf("%s: expected Aborted{%v}, got %v{%v}", side.name, reason, side.state, side.why)
		}
		if !errors.Is(side.err, sentinel) {
			t.Fatalf("%s: expected %v, got %v", side.name, sentinel, side.err)
		}
		var perr *ProtocolError
		if !errors.As(side.err, &perr) || perr.Reason != reason {
			t.Fatalf("%s: expected a ProtocolError for %v, got %v", side.name, reason, side.err)
		}
	}

	if s.senderOut != nil || s.receiverOut != nil {
		t.Fatalf("outputs were released by an aborted session")
	}
	if _, err := s.sender.Outputs(); err != ErrOutputsUnavailable {
		t.Fatalf("sender outputs: expected ErrOutputsUnavailable, got %v", err)
	}
	if _, err := s.receiver.Outputs(); err != ErrOutputsUnavailable {
		t.Fatalf("receiver outputs: expected ErrOutputsUnavailable, got %v", err)
	}
}

func TestTamperedCommitment(t *testing.T) {
	for _, v := range []Variant{Random, Correlated, Chosen} {
		cfg := variantConfig(v)
		const n = 100

		wrap := func(role int, ch channel.Channel) channel.Channel {
			if role == 0 {
				return ch
			}
			return &tamper{Channel: ch, f: func(m message.Message) {
				if c, ok := m.(*message.ExtensionMatrixCommit); ok {
					// one bit of one row, after the receiver committed to it
					c.Rows[17][3] ^= 0x10
				}
			}}
		}

		s := runSession(t, cfg, cfg, inputFor(t, cfg, n), randomChoices(t, n), n, wrap)
		assertAborted(t, s, ReasonConsistencyCheckFailed, ErrConsistencyCheckFailed)
	}
}

func TestCorruptedCheckResponse(t *testing.T) {
	for _, field := range []string{"X", "T"} {
		field := field
		cfg := variantConfig(Correlated)
		const n = 64

		wrap := func(role int, ch channel.Channel) channel.Channel {
			if role == 0 {
				return ch
			}
			return &tamper{Channel: ch, f: func(m message.Message) {
				if c, ok := m.(*message.ExtensionCheckResponse); ok {
					if field == "X" {
						c.X[0] ^= 1
					} else {
						c.T[5] ^= 0x80
					}
				}
			}}
		}

		s := runSession(t, cfg, cfg, inputFor(t, cfg, n), randomChoices(t, n), n, wrap)
		assertAborted(t, s, ReasonConsistencyCheckFailed, ErrConsistencyCheckFailed)
	}
}

func TestParameterMismatch(t *testing.T) {
	scfg := variantConfig(Correlated)
	rcfg := variantConfig(Random)
	const n = 10

	s := runSession(t, scfg, rcfg, inputFor(t, scfg, n), randomChoices(t, n), n, nil)
	if s.sender.State() != StateAborted || s.sender.Reason() != ReasonAbortedByPeer {
		t.Fatalf("sender: expected Aborted{AbortedByPeer}, got %v{%v}", s.sender.State(), s.sender.Reason())
	}
	if !errors.Is(s.receiverErr, ErrAbortedByPeer) {
		t.Fatalf("receiver: expected ErrAbortedByPeer, got %v", s.receiverErr)
	}
}

func TestSeedNonReuse(t *testing.T) {
	cfg := variantConfig(Random)
	const n = 65
	choices := randomChoices(t, n)
	s := runSession(t, cfg, cfg, RandomInput(), choices, n, nil)
	checkOutputs(t, s, choices, n)

	// a second extension on the same session fails before any I/O
	sch, rch := channel.Pipe()
	defer sch.Close()
	if _, err := s.sender.Extend(context.Background(), sch, RandomInput(), n); err != ErrSeedsConsumed {
		t.Fatalf("sender: expected ErrSeedsConsumed, got %v", err)
	}
	if _, err := s.receiver.Extend(context.Background(), rch, choices, n); err != ErrSeedsConsumed {
		t.Fatalf("receiver: expected ErrSeedsConsumed, got %v", err)
	}

	// the first outputs stay available
	if _, err := s.receiver.Outputs(); err != nil {
		t.Fatal(err)
	}
}

func TestInsecureSecurityParameter(t *testing.T) {
	for _, kappa := range []int{0, 64, 127, 192} {
		cfg := DefaultConfig()
		cfg.Kappa = kappa

		_, serr := NewSender(cfg)
		_, rerr := NewReceiver(cfg)
		for _, err := range []error{serr, rerr} {
			var cerr *ConfigError
			if !errors.As(err, &cerr) || cerr.Field != "Kappa" || !errors.Is(err, ErrInsecureSecurityParameter) {
				t.Fatalf("kappa %d: expected InsecureSecurityParameter config error, got %v", kappa, err)
			}
		}
	}

	cfg := DefaultConfig()
	cfg.StatSecurity = 20
	if _, err := NewSender(cfg); !errors.Is(err, ErrInsecureSecurityParameter) {
		t.Fatalf("expected ErrInsecureSecurityParameter for a weak statistical parameter, got %v", err)
	}
}

func TestCancelled(t *testing.T) {
	cfg := variantConfig(Random)
	const n = 10

	// the receiver hangs up right after the base OT phase
	wrap := func(role int, ch channel.Channel) channel.Channel {
		if role == 0 {
			return ch
		}
		return &tamper{Channel: ch, f: func(m message.Message) {
			if _, ok := m.(*message.ExtensionMatrixCommit); ok {
				ch.Close()
			}
		}}
	}

	s := runSession(t, cfg, cfg, RandomInput(), randomChoices(t, n), n, wrap)
	assertAborted(t, s, ReasonCancelled, ErrCancelled)
}

func BenchmarkExtend(b *testing.B) {
	const n = 1 << 16
	cfg := variantConfig(Correlated)
	delta := make([]byte, cfg.MessageLen)
	choices, err := RandomChoiceBits(n)
	if err != nil {
		b.Fatal(err)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		sch, rch := channel.Pipe()
		sender, _ := NewSender(cfg)
		receiver, _ := NewReceiver(cfg)
		errs := make(chan error, 1)

		go func() {
			if err := sender.BaseSetup(context.Background(), sch); err != nil {
				errs <- err
				return
			}
			_, err := sender.Extend(context.Background(), sch, CorrelatedInput(delta), n)
			errs <- err
		}()

		if err := receiver.BaseSetup(context.Background(), rch); err != nil {
			b.Fatal(err)
		}
		if _, err := receiver.Extend(context.Background(), rch, choices, n); err != nil {
			b.Fatal(err)
		}
		if err := <-errs; err != nil {
			b.Fatal(err)
		}
	}
}
