package storage

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestSignedURLRoundTrip(t *testing.T) {
	signer := NewSignedURLSigner("secret", time.Hour)

	token, expiresAt, err := signer.Generate("ev-1", "year-1/ev-1.pdf")
	require.NoError(t, err)
	require.True(t, expiresAt.After(time.Now()))

	evidenceID, relPath, _, err := signer.Parse(token)
	require.NoError(t, err)
	require.Equal(t, "ev-1", evidenceID)
	require.Equal(t, "year-1/ev-1.pdf", relPath)
}

func TestSignedURLRejectsTampering(t *testing.T) {
	signer := NewSignedURLSigner("secret", time.Hour)

	token, _, err := signer.Generate("ev-1", "year-1/ev-1.pdf")
	require.NoError(t, err)

	_, _, _, err = signer.Parse(token + "0")
	require.Error(t, err)
}

func TestSignedURLRejectsWrongSecret(t *testing.T) {
	signer := NewSignedURLSigner("secret", time.Hour)
	other := NewSignedURLSigner("different", time.Hour)

	token, _, err := signer.Generate("ev-1", "year-1/ev-1.pdf")
	require.NoError(t, err)

	_, _, _, err = other.Parse(token)
	require.Error(t, err)
}

func TestSignedURLRejectsExpired(t *testing.T) {
	signer := &SignedURLSigner{secret: []byte("secret"), ttl: -time.Minute}

	token, _, err := signer.Generate("ev-1", "year-1/ev-1.pdf")
	require.NoError(t, err)

	_, _, _, err = signer.Parse(token)
	require.Error(t, err)
}
