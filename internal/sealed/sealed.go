package sealed

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"sync"

	"go.dedis.ch/kyber/v3"
	"go.dedis.ch/kyber/v3/suites"
)

// suite is the Kyber suite used for sealing amounts.
var suite = suites.MustFind("Ed25519")

var (
	// ErrComputeTimeout is returned when a comparison does not complete
	// within the caller's deadline.
	ErrComputeTimeout = errors.New("confidential compute timed out")

	// ErrStillSealed is returned when a reveal is requested before the
	// amount has been released.
	ErrStillSealed = errors.New("amount is still sealed")
)

// Amount is an ElGamal-encrypted monetary amount. The holder of an Amount
// can pass it around and store it, but only the Keeper that sealed it can
// compare or reveal it. Raw amounts never leave the Keeper before release.
type Amount struct {
	k        kyber.Point // ephemeral g^r
	c        kyber.Point // amount point blinded with the shared secret
	released bool
}

// Keeper owns the keypair under which amounts are sealed. Comparisons
// decrypt internally and expose only a boolean; Reveal is refused until the
// amount has been explicitly released.
type Keeper struct {
	mu   sync.Mutex
	priv kyber.Scalar
	pub  kyber.Point
}

// NewKeeper creates a keeper with a fresh keypair.
func NewKeeper() *Keeper {
	priv := suite.Scalar().Pick(suite.RandomStream())
	pub := suite.Point().Mul(priv, nil)
	return &Keeper{priv: priv, pub: pub}
}

// Seal ElGamal-encrypts the amount to produce the pair (K, C).
func (kp *Keeper) Seal(amount uint64) *Amount {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], amount)

	r := suite.Scalar().Pick(suite.RandomStream())
	K := suite.Point().Mul(r, nil)

	// S: ephemeral DH shared secret
	S := suite.Point().Mul(r, kp.pub)

	M := suite.Point().Embed(buf[:], suite.RandomStream())
	C := suite.Point().Add(S, M)

	return &Amount{k: K, c: C}
}

// GreaterThan reports whether a > b without revealing either amount.
// The computation is bounded by the context deadline.
func (kp *Keeper) GreaterThan(ctx context.Context, a, b *Amount) (bool, error) {
	va, err := kp.decryptBounded(ctx, a)
	if err != nil {
		return false, err
	}
	vb, err := kp.decryptBounded(ctx, b)
	if err != nil {
		return false, err
	}
	return va > vb, nil
}

// AtLeast reports whether a >= threshold without revealing a.
func (kp *Keeper) AtLeast(ctx context.Context, a *Amount, threshold uint64) (bool, error) {
	va, err := kp.decryptBounded(ctx, a)
	if err != nil {
		return false, err
	}
	return va >= threshold, nil
}

// Release marks the amount as revealable. Called once the reveal condition
// (auction end) has been met.
func (kp *Keeper) Release(a *Amount) {
	kp.mu.Lock()
	defer kp.mu.Unlock()
	a.released = true
}

// Reveal decrypts a released amount. Revealing a still-sealed amount fails.
func (kp *Keeper) Reveal(ctx context.Context, a *Amount) (uint64, error) {
	kp.mu.Lock()
	released := a.released
	kp.mu.Unlock()
	if !released {
		return 0, ErrStillSealed
	}
	return kp.decryptBounded(ctx, a)
}

// decryptBounded runs the decryption in its own goroutine so the caller's
// deadline is honored even though the local computation is fast.
func (kp *Keeper) decryptBounded(ctx context.Context, a *Amount) (uint64, error) {
	if ctx.Err() != nil {
		return 0, ErrComputeTimeout
	}

	type result struct {
		value uint64
		err   error
	}
	ch := make(chan result, 1)
	go func() {
		v, err := kp.decrypt(a)
		ch <- result{value: v, err: err}
	}()

	select {
	case res := <-ch:
		return res.value, res.err
	case <-ctx.Done():
		return 0, ErrComputeTimeout
	}
}

func (kp *Keeper) decrypt(a *Amount) (uint64, error) {
	kp.mu.Lock()
	S := suite.Point().Mul(kp.priv, a.k)
	kp.mu.Unlock()

	M := suite.Point().Sub(a.c, S)
	data, err := M.Data()
	if err != nil {
		return 0, fmt.Errorf("failed to extract amount point data: %v", err)
	}
	if len(data) != 8 {
		return 0, fmt.Errorf("unexpected sealed payload length %d", len(data))
	}
	return binary.BigEndian.Uint64(data), nil
}
