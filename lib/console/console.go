// Package console reads short answers from an interactive terminal.
package console

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
)

// ErrNoInput is returned when the input ends before a line is read.
var ErrNoInput = errors.New("no input available")

type Console struct {
	in  *bufio.Reader
	out io.Writer
}

func New(in io.Reader, out io.Writer) *Console {
	return &Console{in: bufio.NewReader(in), out: out}
}

func (c *Console) Println(a ...any) {
	fmt.Fprintln(c.out, a...)
}

// Prompt prints `label` and returns the next line with surrounding
// whitespace removed.
func (c *Console) Prompt(label string) (string, error) {
	fmt.Fprint(c.out, label)
	line, err := c.in.ReadString('\n')
	if errors.Is(err, io.EOF) && line == "" {
		return "", ErrNoInput
	}
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// Confirm asks a yes/no question, only "y" and "yes" count as yes.
func (c *Console) Confirm(question string) (bool, error) {
	answer, err := c.Prompt(question + " (y/n): ")
	if err != nil {
		return false, err
	}
	switch strings.ToLower(answer) {
	case "y", "yes":
		return true, nil
	default:
		return false, nil
	}
}
