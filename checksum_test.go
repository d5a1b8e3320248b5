package ncl

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/grailbio/base/vcontext"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteVerifyChecksumRoundTrip(t *testing.T) {
	ctx := vcontext.Background()
	dir := t.TempDir()
	stem := filepath.Join(dir, "bundle")

	require.NoError(t, os.WriteFile(stem+".idb", []byte("some record bytes"), 0o644))

	require.NoError(t, WriteChecksum(ctx, stem))
	assert.NoError(t, VerifyChecksum(ctx, stem))
}

func TestVerifyChecksumDetectsCorruption(t *testing.T) {
	ctx := vcontext.Background()
	dir := t.TempDir()
	stem := filepath.Join(dir, "bundle")

	require.NoError(t, os.WriteFile(stem+".idb", []byte("original bytes"), 0o644))
	require.NoError(t, WriteChecksum(ctx, stem))

	require.NoError(t, os.WriteFile(stem+".idb", []byte("tampered!!!!!!"), 0o644))
	assert.ErrorIs(t, VerifyChecksum(ctx, stem), ErrShortRead)
}

func TestVerifyChecksumToleratesMissingSumFile(t *testing.T) {
	ctx := vcontext.Background()
	dir := t.TempDir()
	stem := filepath.Join(dir, "bundle")

	require.NoError(t, os.WriteFile(stem+".idb", []byte("no sidecar here"), 0o644))
	assert.NoError(t, VerifyChecksum(ctx, stem))
}
