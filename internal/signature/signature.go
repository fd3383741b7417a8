package signature

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/feral-file/ff-marketplace/internal/adapter"
)

const (
	// HEADER_SIGNATURE carries "sha256=<hex hmac>"
	HEADER_SIGNATURE = "X-Signature"
	// HEADER_TIMESTAMP carries the unix time the request was signed at
	HEADER_TIMESTAMP = "X-Signature-Timestamp"

	SIGNATURE_PREFIX = "sha256="

	// MAX_CLOCK_SKEW bounds how old or how far in the future a signed request may be
	MAX_CLOCK_SKEW = 5 * time.Minute
)

var (
	ErrMissingSignature = errors.New("missing signature")
	ErrInvalidSignature = errors.New("invalid signature")
	ErrStaleSignature   = errors.New("signature timestamp outside allowed window")
)

// Signer signs and verifies service to service request bodies with a shared secret.
//
// The signed payload is "{timestamp}.{canonical body}" where the body is
// canonicalised with JCS, so re-encoding the JSON on either side does not
// break verification.
type Signer struct {
	secret []byte
	jcs    adapter.JCS
	clock  adapter.Clock
}

// NewSigner creates a signer for secret
func NewSigner(secret string, jcs adapter.JCS, clock adapter.Clock) *Signer {
	return &Signer{
		secret: []byte(secret),
		jcs:    jcs,
		clock:  clock,
	}
}

// Sign returns the signature header value and the timestamp for body
func (s *Signer) Sign(body []byte) (signature string, timestamp int64, err error) {
	timestamp = s.clock.Now().Unix()

	mac, err := s.mac(timestamp, body)
	if err != nil {
		return "", 0, err
	}

	return SIGNATURE_PREFIX + hex.EncodeToString(mac), timestamp, nil
}

// Verify checks the signature and timestamp header values against body
func (s *Signer) Verify(signature, timestamp string, body []byte) error {
	if signature == "" || timestamp == "" {
		return ErrMissingSignature
	}

	ts, err := strconv.ParseInt(timestamp, 10, 64)
	if err != nil {
		return fmt.Errorf("%w: bad timestamp", ErrInvalidSignature)
	}

	skew := s.clock.Now().Sub(time.Unix(ts, 0))
	if skew > MAX_CLOCK_SKEW || skew < -MAX_CLOCK_SKEW {
		return ErrStaleSignature
	}

	got, err := hex.DecodeString(strings.TrimPrefix(signature, SIGNATURE_PREFIX))
	if err != nil || !strings.HasPrefix(signature, SIGNATURE_PREFIX) {
		return ErrInvalidSignature
	}

	want, err := s.mac(ts, body)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}
	if !hmac.Equal(got, want) {
		return ErrInvalidSignature
	}

	return nil
}

func (s *Signer) mac(timestamp int64, body []byte) ([]byte, error) {
	canonical, err := s.jcs.Transform(body)
	if err != nil {
		return nil, fmt.Errorf("failed to canonicalize body: %w", err)
	}

	h := hmac.New(sha256.New, s.secret)
	h.Write([]byte(strconv.FormatInt(timestamp, 10)))
	h.Write([]byte("."))
	h.Write(canonical)

	return h.Sum(nil), nil
}
