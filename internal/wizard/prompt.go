package wizard

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
)

type readResult struct {
	line string
	err  error
}

// Prompter asks questions on a line-oriented terminal. A single goroutine
// owns the input, so an answer that arrives after a cancelled Ask is kept
// for the next one.
type Prompter struct {
	in  *bufio.Reader
	out io.Writer

	once  sync.Once
	lines chan readResult
	err   error // set once input has ended
}

// NewPrompter reads answers from r and writes questions to w.
func NewPrompter(r io.Reader, w io.Writer) *Prompter {
	return &Prompter{in: bufio.NewReader(r), out: w, lines: make(chan readResult)}
}

// Printf writes to the prompter's output.
func (p *Prompter) Printf(format string, args ...any) {
	fmt.Fprintf(p.out, format, args...)
}

func (p *Prompter) readLoop() {
	defer close(p.lines)
	for {
		line, err := p.in.ReadString('\n')
		p.lines <- readResult{line: line, err: err}
		if err != nil {
			return
		}
	}
}

// Ask prints question and returns the trimmed answer. A closed input with a
// partial line still returns that line; a closed input with nothing returns
// io.EOF.
func (p *Prompter) Ask(ctx context.Context, question string) (string, error) {
	fmt.Fprintf(p.out, "%s ", question)
	p.once.Do(func() { go p.readLoop() })

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case r, ok := <-p.lines:
		if !ok {
			return "", p.err
		}
		if r.err != nil {
			p.err = r.err
			if r.err != io.EOF || r.line == "" {
				return "", r.err
			}
		}
		return strings.TrimSpace(r.line), nil
	}
}

// Confirm asks a yes/no question; anything but an answer starting with "y"
// is no.
func (p *Prompter) Confirm(ctx context.Context, question string) (bool, error) {
	answer, err := p.Ask(ctx, question+" (y/N):")
	if err != nil {
		return false, err
	}
	return strings.HasPrefix(strings.ToLower(answer), "y"), nil
}
