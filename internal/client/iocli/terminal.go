package iocli

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// Terminal implements IO over a pair of streams. Prompts and output go to
// out; input is line-buffered from in. When in is the process tty, passwords
// are read with echo disabled; piped input falls back to a plain line read.
type Terminal struct {
	in  *bufio.Reader
	out io.Writer
	fd  int
}

// NewTerminal binds a Terminal to stdin and stdout.
func NewTerminal() *Terminal {
	return &Terminal{
		in:  bufio.NewReader(os.Stdin),
		out: os.Stdout,
		fd:  int(os.Stdin.Fd()),
	}
}

func (t *Terminal) Println(a ...any) {
	fmt.Fprintln(t.out, a...)
}

func (t *Terminal) Printf(format string, a ...any) {
	fmt.Fprintf(t.out, format, a...)
}

func (t *Terminal) Write(p []byte) (int, error) {
	return t.out.Write(p)
}

// ReadInput shows the prompt and returns one line with surrounding
// whitespace trimmed.
func (t *Terminal) ReadInput(prompt string) (string, error) {
	fmt.Fprint(t.out, prompt)
	return t.readLine()
}

// ReadPassword shows the prompt and reads a secret without echoing it. A
// non-tty input stream, such as a pipe in scripts, is read as a plain line.
func (t *Terminal) ReadPassword(prompt string) (string, error) {
	fmt.Fprint(t.out, prompt)

	if term.IsTerminal(t.fd) {
		secret, err := term.ReadPassword(t.fd)
		fmt.Fprintln(t.out)
		if err != nil {
			return "", fmt.Errorf("failed to read password: %w", err)
		}
		return string(secret), nil
	}
	return t.readLine()
}

func (t *Terminal) readLine() (string, error) {
	line, err := t.in.ReadString('\n')
	if err != nil && err != io.EOF {
		return "", err
	}
	if err == io.EOF && line == "" {
		return "", err
	}
	return strings.TrimSpace(line), nil
}
