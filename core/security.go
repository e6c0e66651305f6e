package core

import (
	"crypto/ed25519"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"strings"
	"time"
)

// DefaultReplayWindow is how far a message timestamp may drift from "now"
// before CheckReplay rejects it.
const DefaultReplayWindow = 5 * time.Second

// normalize lowercases, trims, and collapses internal whitespace so that
// semantically identical intents hash identically regardless of casing or
// spacing.
func normalize(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(strings.TrimSpace(s))), " ")
}

// SemanticHash computes H_sem = SHA256(normalize(intent) || "||" || normalize(context.Content)).
// Timestamps are deliberately excluded so identical (intent, context) pairs
// hash identically and can be memoized by InterpretationCache.
func SemanticHash(intent string, ctx Context) string {
	h := sha256.New()
	h.Write([]byte(normalize(intent)))
	h.Write([]byte("||"))
	h.Write([]byte(normalize(ctx.Content)))
	return hex.EncodeToString(h.Sum(nil))
}

// ValidateSemanticHash reports whether ctx.SemanticHash matches the hash
// recomputed from intent and ctx.Content.
func ValidateSemanticHash(intent string, ctx Context) bool {
	return SemanticHash(intent, ctx) == ctx.SemanticHash
}

// CheckReplay rejects a message whose timestamp is further than window from
// now in either direction. A zero window falls back to DefaultReplayWindow.
func CheckReplay(messageTimestamp time.Time, window time.Duration) error {
	if window <= 0 {
		window = DefaultReplayWindow
	}
	diff := time.Since(messageTimestamp)
	if diff < 0 {
		diff = -diff
	}
	if diff > window {
		return &ReplayError{Timestamp: messageTimestamp.Format(time.RFC3339)}
	}
	return nil
}

// SignRequest canonicalizes request (with its Signature field stripped) and
// signs it with an Ed25519 private key, returning the base64-encoded
// signature. The caller is responsible for assigning the result to
// request.Signature.
func SignRequest(request *Request, signingKey ed25519.PrivateKey) (string, error) {
	canonical, err := CanonicalizeRequestForSigning(request)
	if err != nil {
		return "", err
	}
	sig := ed25519.Sign(signingKey, []byte(canonical))
	return base64.StdEncoding.EncodeToString(sig), nil
}

// VerifyRequestSignature recomputes the canonical form of request (ignoring
// its current Signature) and verifies it against the stored signature using
// verifyingKey.
func VerifyRequestSignature(request *Request, verifyingKey ed25519.PublicKey) error {
	if request.Signature == nil {
		return &FrameworkError{Op: "VerifyRequestSignature", Kind: "crypto", Message: "no signature present", Err: ErrSignatureInvalid}
	}
	sigBytes, err := base64.StdEncoding.DecodeString(*request.Signature)
	if err != nil {
		return &FrameworkError{Op: "VerifyRequestSignature", Kind: "crypto", Message: "invalid base64 signature", Err: ErrSignatureInvalid}
	}

	canonical, err := CanonicalizeRequestForSigning(request)
	if err != nil {
		return err
	}

	if !ed25519.Verify(verifyingKey, []byte(canonical), sigBytes) {
		return &FrameworkError{Op: "VerifyRequestSignature", Kind: "crypto", Message: "signature does not match", Err: ErrSignatureInvalid}
	}
	return nil
}
