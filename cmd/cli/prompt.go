package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"wiastat/ports"
)

// consolePrompter asks for vessel diameters on a terminal. An answer is two
// numbers (rest, then agonist), an empty line to accept the defaults, or "s"
// to skip this and every following pair.
type consolePrompter struct {
	in  *bufio.Reader
	out io.Writer
}

func newConsolePrompter(in *bufio.Reader, out io.Writer) *consolePrompter {
	return &consolePrompter{in: in, out: out}
}

func (p *consolePrompter) PromptDiameters(ctx context.Context, req ports.DiameterRequest) (ports.DiameterAnswer, error) {
	for {
		if err := ctx.Err(); err != nil {
			return ports.DiameterAnswer{}, err
		}
		fmt.Fprintf(p.out, "%s\nrest and agonist diameter in mm [%s %s], s to skip all: ",
			req.Message, formatDefault(req.RestDefault), formatDefault(req.AgonistDefault))

		line, err := p.in.ReadString('\n')
		if err == io.EOF && line == "" {
			// Input closed, stop asking.
			return ports.DiameterAnswer{SkipAll: true}, nil
		}
		if err != nil && err != io.EOF {
			return ports.DiameterAnswer{}, err
		}

		answer, ok := parseDiameters(strings.TrimSpace(line), req)
		if ok {
			return answer, nil
		}
		fmt.Fprintln(p.out, "please enter two positive numbers")
	}
}

func parseDiameters(line string, req ports.DiameterRequest) (ports.DiameterAnswer, bool) {
	switch strings.ToLower(line) {
	case "s", "skip":
		return ports.DiameterAnswer{SkipAll: true}, true
	case "":
		return ports.DiameterAnswer{Rest: req.RestDefault, Agonist: req.AgonistDefault}, true
	}

	fields := strings.FieldsFunc(line, func(r rune) bool { return r == ' ' || r == ',' || r == '\t' })
	if len(fields) != 2 {
		return ports.DiameterAnswer{}, false
	}
	values := make([]*float64, 2)
	for i, f := range fields {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil || v <= 0 {
			return ports.DiameterAnswer{}, false
		}
		values[i] = &v
	}
	return ports.DiameterAnswer{Rest: values[0], Agonist: values[1]}, true
}

func formatDefault(v *float64) string {
	if v == nil {
		return "-"
	}
	return strconv.FormatFloat(*v, 'g', -1, 64)
}

// consoleConfirmer asks before a report file is replaced. With force set it
// approves without asking.
type consoleConfirmer struct {
	in    *bufio.Reader
	out   io.Writer
	force bool
}

func newConsoleConfirmer(in *bufio.Reader, out io.Writer, force bool) *consoleConfirmer {
	return &consoleConfirmer{in: in, out: out, force: force}
}

func (c *consoleConfirmer) ConfirmOverwrite(path string) bool {
	if c.force {
		return true
	}
	fmt.Fprintf(c.out, "%s exists, overwrite? [y/N] ", path)
	line, _ := c.in.ReadString('\n')
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true
	}
	return false
}
