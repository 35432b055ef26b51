package ui

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// Console is the line-oriented surface the interaction loop talks to.
type Console interface {
	// ReadLine blocks for the next line of input. It returns io.EOF once
	// input is closed.
	ReadLine() (string, error)
	Println(a ...interface{})
	Printf(format string, a ...interface{})
	Clear()
}

const clearSequence = "\033[H\033[2J"

// Terminal is a Console over plain streams, normally stdin and stdout.
type Terminal struct {
	scanner *bufio.Scanner
	out     io.Writer
}

func NewTerminal(in io.Reader, out io.Writer) *Terminal {
	return &Terminal{
		scanner: bufio.NewScanner(in),
		out:     out,
	}
}

func (t *Terminal) ReadLine() (string, error) {
	if !t.scanner.Scan() {
		if err := t.scanner.Err(); err != nil {
			return "", err
		}
		return "", io.EOF
	}
	return strings.TrimRight(t.scanner.Text(), "\r"), nil
}

func (t *Terminal) Println(a ...interface{}) {
	fmt.Fprintln(t.out, a...)
}

func (t *Terminal) Printf(format string, a ...interface{}) {
	fmt.Fprintf(t.out, format, a...)
}

func (t *Terminal) Clear() {
	fmt.Fprint(t.out, clearSequence)
}
