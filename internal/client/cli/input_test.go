package cli

import (
	"bufio"
	"bytes"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rdr(s string) *bufio.Reader {
	return bufio.NewReader(strings.NewReader(s))
}

func stubTerminal(t *testing.T, tty bool, pw string, pwErr error) {
	t.Helper()
	oldRead, oldTTY := readPassword, isTerminal
	t.Cleanup(func() { readPassword, isTerminal = oldRead, oldTTY })
	isTerminal = func(int) bool { return tty }
	readPassword = func(int) ([]byte, error) { return []byte(pw), pwErr }
}

func TestGetSimpleText(t *testing.T) {
	var out bytes.Buffer
	got, err := GetSimpleText(rdr("hello world\n"), "Name?", &out)
	require.NoError(t, err)
	assert.Equal(t, "hello world", got)
	assert.Equal(t, "Name?\n> ", out.String())
}

func TestGetSimpleTextEOF(t *testing.T) {
	var out bytes.Buffer
	got, err := GetSimpleText(rdr("lastline"), "Name?", &out)
	require.NoError(t, err)
	assert.Equal(t, "lastline", got)

	_, err = GetSimpleText(rdr(""), "Name?", &out)
	require.ErrorIs(t, err, io.EOF)
}

func TestGetPassword(t *testing.T) {
	t.Run("terminal", func(t *testing.T) {
		stubTerminal(t, true, "S3cret!pw", nil)
		var out bytes.Buffer
		got, err := GetPassword(rdr("not used\n"), "Password", &out)
		require.NoError(t, err)
		assert.Equal(t, "S3cret!pw", got)
		assert.Equal(t, "Password: \n", out.String())
	})

	t.Run("terminal error", func(t *testing.T) {
		stubTerminal(t, true, "", errors.New("boom"))
		var out bytes.Buffer
		_, err := GetPassword(rdr(""), "Password", &out)
		require.EqualError(t, err, "boom")
	})

	t.Run("piped input", func(t *testing.T) {
		stubTerminal(t, false, "", errors.New("must not be called"))
		var out bytes.Buffer
		got, err := GetPassword(rdr("piped\n"), "Password", &out)
		require.NoError(t, err)
		assert.Equal(t, "piped", got)
	})
}

func TestConfirm(t *testing.T) {
	tests := map[string]bool{
		"y\n":    true,
		"YES\n":  true,
		"n\n":    false,
		"\n":     false,
		"sure\n": false,
	}
	for in, want := range tests {
		var out bytes.Buffer
		got, err := Confirm(rdr(in), "Agree?", &out)
		require.NoError(t, err)
		assert.Equal(t, want, got, "input %q", in)
		assert.Contains(t, out.String(), "Agree? [y/N]")
	}
}
