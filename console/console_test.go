package console

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestPrompter(input string) (*Prompter, *bytes.Buffer) {
	out := &bytes.Buffer{}
	return New(strings.NewReader(input), out), out
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestPrompter_Ask(t *testing.T) {
	t.Run("trims the answer", func(t *testing.T) {
		p, out := newTestPrompter("  analyst \n")
		answer, err := p.Ask("username: ")
		require.NoError(t, err)
		assert.Equal(t, "analyst", answer)
		assert.Equal(t, "username: ", out.String())
	})

	t.Run("last line without newline", func(t *testing.T) {
		p, _ := newTestPrompter("yes")
		answer, err := p.Ask("? ")
		require.NoError(t, err)
		assert.Equal(t, "yes", answer)
	})

	t.Run("end of input", func(t *testing.T) {
		p, _ := newTestPrompter("")
		_, err := p.Ask("? ")
		assert.ErrorIs(t, err, io.EOF)
	})
}

func TestPrompter_AskRequired(t *testing.T) {
	p, out := newTestPrompter("\n   \n10.0.0.1\n")
	answer, err := p.AskRequired("IP: ")
	require.NoError(t, err)
	assert.Equal(t, "10.0.0.1", answer)
	assert.Equal(t, 2, strings.Count(out.String(), "Invalid input!"))
}

func TestPrompter_Menu(t *testing.T) {
	options := []Option{{Key: "1", Label: "Search by IP address"}, {Key: "0", Label: "Exit"}}

	t.Run("re-prompts on wrong selection", func(t *testing.T) {
		p, out := newTestPrompter("7\n1\n")
		choice, err := p.Menu("Select an option:", options)
		require.NoError(t, err)
		assert.Equal(t, "1", choice)
		assert.Contains(t, out.String(), "1) Search by IP address")
		assert.Contains(t, out.String(), "Wrong selection '7'")
	})

	t.Run("end of input", func(t *testing.T) {
		p, _ := newTestPrompter("")
		_, err := p.Menu("Select an option:", options)
		assert.ErrorIs(t, err, io.EOF)
	})
}

func TestPrompter_Confirm(t *testing.T) {
	testCases := []struct {
		input    string
		expected bool
	}{
		{input: "y\n", expected: true},
		{input: "Yes\n", expected: true},
		{input: "n\n", expected: false},
		{input: "\n", expected: false},
		{input: "maybe\n", expected: false},
	}
	for _, tc := range testCases {
		t.Run(strings.TrimSpace(tc.input), func(t *testing.T) {
			p, out := newTestPrompter(tc.input)
			ok, err := p.Confirm("Tag 3 assets with tag 10")
			require.NoError(t, err)
			assert.Equal(t, tc.expected, ok)
			assert.Equal(t, "Tag 3 assets with tag 10 (y/n)? ", out.String())
		})
	}
}

func TestPrompter_Password(t *testing.T) {
	t.Run("reads a line when not a terminal", func(t *testing.T) {
		p, out := newTestPrompter("s3cret\r\nnext\n")
		secret, err := p.Password("password: ")
		require.NoError(t, err)
		assert.Equal(t, []byte("s3cret"), secret)
		assert.Equal(t, "password: ", out.String())

		next, err := p.Ask("")
		require.NoError(t, err)
		assert.Equal(t, "next", next)
	})

	t.Run("end of input", func(t *testing.T) {
		p, _ := newTestPrompter("")
		_, err := p.Password("password: ")
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "failed to read password")
	})
}

func TestReadListFile(t *testing.T) {
	t.Run("valid file", func(t *testing.T) {
		path := writeFile(t, "ips.txt", "10.0.0.1\r\n10.0.0.2\n\n10.0.0.3\n")
		lines, err := ReadListFile(path)
		require.NoError(t, err)
		assert.Equal(t, []string{"10.0.0.1", "10.0.0.2", "", "10.0.0.3"}, lines)
	})

	testCases := []struct {
		name   string
		path   func(t *testing.T) string
		reason string
	}{
		{
			name:   "missing file",
			path:   func(t *testing.T) string { return filepath.Join(t.TempDir(), "nope.txt") },
			reason: "file does not exist",
		},
		{
			name:   "wrong extension",
			path:   func(t *testing.T) string { return writeFile(t, "ips.csv", "10.0.0.1\n") },
			reason: "file is not a .txt",
		},
		{
			name:   "directory",
			path:   func(t *testing.T) string { return t.TempDir() },
			reason: "path is a directory",
		},
		{
			name:   "empty file",
			path:   func(t *testing.T) string { return writeFile(t, "empty.txt", "\n\n") },
			reason: "file is empty",
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ReadListFile(tc.path(t))
			var inputErr *InputError
			require.True(t, errors.As(err, &inputErr))
			assert.Equal(t, tc.reason, inputErr.Reason)
		})
	}
}

func TestPrompter_AskListFile(t *testing.T) {
	good := writeFile(t, "ids.txt", "1\n2\n")
	bad := writeFile(t, "ids.csv", "1\n")

	p, out := newTestPrompter(bad + "\n" + good + "\n")
	path, lines, err := p.AskListFile("List file: ")
	require.NoError(t, err)
	assert.Equal(t, good, path)
	assert.Equal(t, []string{"1", "2"}, lines)
	assert.Contains(t, out.String(), "Invalid input! file is not a .txt")
}

func TestInputError(t *testing.T) {
	err := &InputError{Value: "a.csv", Reason: "file is not a .txt"}
	assert.Equal(t, "invalid input 'a.csv': file is not a .txt", err.Error())
	assert.Equal(t, "invalid input: empty", (&InputError{Reason: "empty"}).Error())
}
