package console

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/term"
)

// InputError reports a user-supplied value that cannot be used
type InputError struct {
	Value  string
	Reason string
}

func (e *InputError) Error() string {
	if e.Value == "" {
		return fmt.Sprintf("invalid input: %s", e.Reason)
	}
	return fmt.Sprintf("invalid input '%s': %s", e.Value, e.Reason)
}

// Option is one menu entry
type Option struct {
	Key   string
	Label string
}

// Prompter reads answers from in and writes prompts to out
type Prompter struct {
	in  *bufio.Reader
	out io.Writer

	// terminal file descriptor for hidden password entry, -1 when in is not a tty
	fd int
}

// New creates a Prompter
func New(in io.Reader, out io.Writer) *Prompter {
	p := &Prompter{in: bufio.NewReader(in), out: out, fd: -1}
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		p.fd = int(f.Fd())
	}
	return p
}

// Printf writes formatted text to the output
func (p *Prompter) Printf(format string, a ...interface{}) {
	fmt.Fprintf(p.out, format, a...)
}

// Writer returns the output the prompts are written to
func (p *Prompter) Writer() io.Writer {
	return p.out
}

// Println writes a line to the output
func (p *Prompter) Println(a ...interface{}) {
	fmt.Fprintln(p.out, a...)
}

// Ask prints prompt and returns the trimmed answer. io.EOF is returned once
// the input is exhausted
func (p *Prompter) Ask(prompt string) (string, error) {
	fmt.Fprint(p.out, prompt)
	line, err := p.in.ReadString('\n')
	if err != nil {
		if errors.Is(err, io.EOF) && line != "" {
			return strings.TrimSpace(line), nil
		}
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// AskRequired repeats the prompt until a non-empty answer is given
func (p *Prompter) AskRequired(prompt string) (string, error) {
	for {
		answer, err := p.Ask(prompt)
		if err != nil {
			return "", err
		}
		if answer != "" {
			return answer, nil
		}
		p.Println("Invalid input!")
	}
}

// Menu prints title and options and returns the key of the chosen option,
// repeating until a listed key is entered
func (p *Prompter) Menu(title string, options []Option) (string, error) {
	for {
		p.Println()
		p.Println(title)
		for _, o := range options {
			p.Printf("%s) %s\n", o.Key, o.Label)
		}
		answer, err := p.Ask("> ")
		if err != nil {
			return "", err
		}
		for _, o := range options {
			if o.Key == answer {
				return answer, nil
			}
		}
		p.Printf("Wrong selection '%s', please try again.\n", answer)
	}
}

// Confirm asks a y/n question; only an answer starting with 'y' confirms
func (p *Prompter) Confirm(prompt string) (bool, error) {
	answer, err := p.Ask(prompt + " (y/n)? ")
	if err != nil {
		return false, err
	}
	return strings.HasPrefix(strings.ToLower(answer), "y"), nil
}

// Password reads a secret without echo when attached to a terminal
// The caller owns the returned slice and should wipe it after use
func (p *Prompter) Password(prompt string) ([]byte, error) {
	fmt.Fprint(p.out, prompt)
	if p.fd >= 0 {
		secret, err := term.ReadPassword(p.fd)
		fmt.Fprintln(p.out)
		if err != nil {
			return nil, fmt.Errorf("failed to read password: %w", err)
		}
		return secret, nil
	}

	line, err := p.in.ReadBytes('\n')
	if err != nil && !(errors.Is(err, io.EOF) && len(line) > 0) {
		return nil, fmt.Errorf("failed to read password: %w", err)
	}
	trimmed := bytes.TrimRight(line, "\r\n")
	secret := make([]byte, len(trimmed))
	copy(secret, trimmed)
	for i := range line {
		line[i] = 0
	}
	return secret, nil
}

// AskListFile repeats the prompt until it names a readable .txt file and
// returns its lines
func (p *Prompter) AskListFile(prompt string) (string, []string, error) {
	for {
		path, err := p.AskRequired(prompt)
		if err != nil {
			return "", nil, err
		}
		lines, err := ReadListFile(path)
		if err == nil {
			return path, lines, nil
		}
		var inputErr *InputError
		if !errors.As(err, &inputErr) {
			return "", nil, err
		}
		p.Printf("\nInvalid input! %s\n", inputErr.Reason)
	}
}

// ReadListFile returns the lines of a newline-separated .txt list
// Blank lines are kept so callers can report positions; trailing CR is dropped
func ReadListFile(path string) ([]string, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &InputError{Value: path, Reason: "file does not exist"}
		}
		return nil, fmt.Errorf("failed to stat list file: %w", err)
	}
	if info.IsDir() {
		return nil, &InputError{Value: path, Reason: "path is a directory"}
	}
	if !strings.EqualFold(filepath.Ext(path), ".txt") {
		return nil, &InputError{Value: path, Reason: "file is not a .txt"}
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read list file: %w", err)
	}
	text := strings.TrimRight(string(content), "\r\n")
	if text == "" {
		return nil, &InputError{Value: path, Reason: "file is empty"}
	}
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(line, "\r")
	}
	return lines, nil
}
