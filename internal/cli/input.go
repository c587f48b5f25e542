package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"golang.org/x/term"
)

var ErrInvalidChoice = errors.New("invalid choice")

// isTerminal is a test seam for term.IsTerminal.
var isTerminal = term.IsTerminal

// stdoutIsTerminal reports whether ANSI colours should be used.
func stdoutIsTerminal() bool {
	return isTerminal(int(os.Stdout.Fd()))
}

// GetSimpleText prints a prompt to w and reads a single line of input from reader.
// The trailing newline is trimmed. If EOF occurs after some input was read,
// the partial line is returned.
//
// Example prompt format:
//
//	Prompt text
//	> _
func GetSimpleText(reader *bufio.Reader, prompt string, w io.Writer) (string, error) {
	if _, err := fmt.Fprint(w, prompt+"\n> "); err != nil {
		return "", err
	}
	line, err := reader.ReadString('\n')
	if err != nil {
		if errors.Is(err, io.EOF) && len(line) > 0 {
			return strings.TrimSpace(line), nil
		}
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// GetMultiline prints a prompt to w and reads multiple lines until an empty
// line is entered (i.e., the user presses Enter twice). The trailing newline
// on each line is trimmed and the collected text is joined with '\n'.
func GetMultiline(reader *bufio.Reader, prompt string, w io.Writer) (string, error) {
	if _, err := fmt.Fprint(w, prompt+"\n(press Enter on an empty line to finish)\n"); err != nil {
		return "", err
	}

	var lines []string
	for {
		line, err := reader.ReadString('\n')
		line = strings.TrimRight(line, "\r\n")
		if line == "" {
			break
		}
		lines = append(lines, line)
		if err != nil {
			break
		}
	}

	return strings.TrimSpace(strings.Join(lines, "\n")), nil
}

// GetChoice lists options with 1-based numbers and reads the user's pick.
// The answer may be a number or an option name (case-insensitive). An
// empty answer selects def.
func GetChoice(reader *bufio.Reader, prompt string, options []string, def int, w io.Writer) (int, error) {
	var b strings.Builder
	b.WriteString(prompt)
	for i, o := range options {
		marker := ""
		if i == def {
			marker = " (default)"
		}
		fmt.Fprintf(&b, "\n  %2d. %s%s", i+1, o, marker)
	}

	answer, err := GetSimpleText(reader, b.String(), w)
	if err != nil {
		return 0, err
	}
	return matchChoice(answer, options, def)
}

func matchChoice(answer string, options []string, def int) (int, error) {
	if answer == "" {
		return def, nil
	}
	if n, err := strconv.Atoi(answer); err == nil {
		if n < 1 || n > len(options) {
			return 0, fmt.Errorf("%w: %d is out of range", ErrInvalidChoice, n)
		}
		return n - 1, nil
	}
	for i, o := range options {
		if strings.EqualFold(o, answer) {
			return i, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidChoice, answer)
}
