// Copyright (c) 2020-present Mattermost, Inc. All Rights Reserved.
// See License for license information.

package interactions

import (
	"encoding/hex"

	"golang.org/x/crypto/ed25519"
)

const (
	SignatureHeader = "X-Signature-Ed25519"
	TimestampHeader = "X-Signature-Timestamp"
)

// VerifyFunc checks that body was signed by the platform. signature and
// publicKey are hex-encoded.
type VerifyFunc func(body []byte, signature, timestamp, publicKey string) bool

// VerifyEd25519 is the default VerifyFunc: the platform signs
// timestamp+body with the application's Ed25519 key.
func VerifyEd25519(body []byte, signature, timestamp, publicKey string) bool {
	if signature == "" || timestamp == "" {
		return false
	}
	key, err := hex.DecodeString(publicKey)
	if err != nil || len(key) != ed25519.PublicKeySize {
		return false
	}
	sig, err := hex.DecodeString(signature)
	if err != nil || len(sig) != ed25519.SignatureSize {
		return false
	}

	msg := make([]byte, 0, len(timestamp)+len(body))
	msg = append(msg, timestamp...)
	msg = append(msg, body...)
	return ed25519.Verify(ed25519.PublicKey(key), msg, sig)
}

// SignEd25519 signs timestamp+body, as the platform does. Used to test
// handlers and to debug deliveries.
func SignEd25519(privateKey ed25519.PrivateKey, body []byte, timestamp string) string {
	msg := make([]byte, 0, len(timestamp)+len(body))
	msg = append(msg, timestamp...)
	msg = append(msg, body...)
	return hex.EncodeToString(ed25519.Sign(privateKey, msg))
}
