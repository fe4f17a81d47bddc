package console

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

const invalidIntegerMessage = "Invalid input. Please enter integers only."

var ErrInvalidInteger = errors.New("input is not an integer")

// Prompter reads line-based answers from an input stream.
type Prompter struct {
	in  *bufio.Scanner
	out io.Writer
}

func NewPrompter(in io.Reader, out io.Writer) *Prompter {
	return &Prompter{
		in:  bufio.NewScanner(in),
		out: out,
	}
}

// ReadLine prints label and returns the next line without its trailing
// newline. It returns io.EOF once input is exhausted.
func (p *Prompter) ReadLine(label string) (string, error) {
	if label != "" {
		fmt.Fprint(p.out, label)
	}
	if !p.in.Scan() {
		if err := p.in.Err(); err != nil {
			return "", fmt.Errorf("reading input: %w", err)
		}
		return "", io.EOF
	}
	return strings.TrimRight(p.in.Text(), "\r"), nil
}

// ReadInt re-prompts until the line parses as an integer.
func (p *Prompter) ReadInt(label string) (int, error) {
	for {
		n, err := p.TryReadInt(label)
		if errors.Is(err, ErrInvalidInteger) {
			continue
		}
		return n, err
	}
}

// TryReadInt reads a single line. On a parse failure it reports the problem
// to the user and returns ErrInvalidInteger.
func (p *Prompter) TryReadInt(label string) (int, error) {
	line, err := p.ReadLine(label)
	if err != nil {
		return 0, err
	}
	n, err := strconv.Atoi(strings.TrimSpace(line))
	if err != nil {
		fmt.Fprintln(p.out, invalidIntegerMessage)
		return 0, ErrInvalidInteger
	}
	return n, nil
}
