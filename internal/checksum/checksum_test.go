package checksum

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"testing/iotest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSum_Deterministic(t *testing.T) {
	first, err := Sum(strings.NewReader("hello world"))
	require.NoError(t, err)

	second, err := Sum(strings.NewReader("hello world"))
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Len(t, first, 64) // hex-encoded SHA-256
}

func TestSum_OneByteDifferenceChangesDigest(t *testing.T) {
	a, err := Sum(strings.NewReader("hello world"))
	require.NoError(t, err)

	b, err := Sum(strings.NewReader("hello worl!"))
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
}

func TestSum_EmptyStream(t *testing.T) {
	got, err := Sum(strings.NewReader(""))
	require.NoError(t, err)
	// well-known SHA-256 of the empty string
	assert.Equal(t, "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855", got)
}

func TestSum_ReadFailure(t *testing.T) {
	boom := errors.New("boom")
	_, err := Sum(iotest.ErrReader(boom))
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
}

func TestSumFile_MatchesSumBytes(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "data.bin")
	content := []byte("file content for digesting")
	require.NoError(t, os.WriteFile(path, content, 0o640))

	fromFile, err := SumFile(path)
	require.NoError(t, err)
	assert.Equal(t, SumBytes(content), fromFile)
}

func TestSumFile_MissingFile(t *testing.T) {
	_, err := SumFile(filepath.Join(t.TempDir(), "nope.bin"))
	assert.Error(t, err)
}
