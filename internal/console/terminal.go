// Package console talks to the operator: huh forms on a terminal, plain lines otherwise.
package console

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/pkg/errors"
	"golang.org/x/term"
)

var (
	subtle    = lipgloss.AdaptiveColor{Light: "#D9DCCF", Dark: "#383838"}
	highlight = lipgloss.AdaptiveColor{Light: "#874BFD", Dark: "#7D56F4"}
	special   = lipgloss.AdaptiveColor{Light: "#43BF6D", Dark: "#73F59F"}
	warning   = lipgloss.AdaptiveColor{Light: "#C7A200", Dark: "#F5D76E"}
	danger    = lipgloss.AdaptiveColor{Light: "#D7263D", Dark: "#FF6B6B"}

	headerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")).
			Background(highlight).
			Padding(0, 2).
			Bold(true).
			MarginBottom(1)

	promptStyle = lipgloss.NewStyle().Foreground(special).Bold(true)
	infoStyle   = lipgloss.NewStyle().Foreground(special)
	warnStyle   = lipgloss.NewStyle().Foreground(warning)
	errorStyle  = lipgloss.NewStyle().Foreground(danger).Bold(true)
	noteStyle   = lipgloss.NewStyle().Foreground(subtle)
)

// ErrAborted operator left a form (ctrl+c) or closed the input.
var ErrAborted = errors.New("input aborted")

// Terminal operator console.
type Terminal struct {
	in          *bufio.Reader
	out         io.Writer
	interactive bool
}

// NewTerminal uses stdin/stdout, with huh forms when stdin is a terminal.
func NewTerminal() *Terminal {
	return &Terminal{
		in:          bufio.NewReader(os.Stdin),
		out:         os.Stdout,
		interactive: term.IsTerminal(int(os.Stdin.Fd())),
	}
}

// NewLineConsole reads answers line by line from in; used for piped input and tests.
func NewLineConsole(in io.Reader, out io.Writer) *Terminal {
	return &Terminal{in: bufio.NewReader(in), out: out}
}

// Banner prints a highlighted title.
func (t *Terminal) Banner(title, subtitle string) {
	fmt.Fprintln(t.out, headerStyle.Render(title))
	if subtitle != "" {
		fmt.Fprintln(t.out, noteStyle.Render(subtitle))
	}
}

// ReadLine asks prompt and returns the answer without the trailing newline.
func (t *Terminal) ReadLine(prompt string) (string, error) {
	if t.interactive {
		var answer string
		err := huh.NewInput().Title(prompt).Value(&answer).Run()
		return answer, formError(err)
	}
	fmt.Fprint(t.out, promptStyle.Render(prompt))
	return t.readLine()
}

// Secret asks for a value without echoing it.
func (t *Terminal) Secret(prompt string) (string, error) {
	if t.interactive {
		var answer string
		err := huh.NewInput().
			Title(prompt).
			EchoMode(huh.EchoModePassword).
			Value(&answer).
			Run()
		return answer, formError(err)
	}
	fmt.Fprint(t.out, promptStyle.Render(prompt))
	return t.readLine()
}

// Confirm asks a yes/no question.
func (t *Terminal) Confirm(question string) (bool, error) {
	if t.interactive {
		var ok bool
		err := huh.NewConfirm().
			Title(question).
			Affirmative("Yes").
			Negative("No").
			Value(&ok).
			Run()
		return ok, formError(err)
	}
	fmt.Fprint(t.out, promptStyle.Render(question+" [y/N] "))
	line, err := t.readLine()
	if err != nil {
		return false, err
	}
	return ParseYesNo(line), nil
}

func (t *Terminal) Info(msg string)  { fmt.Fprintln(t.out, infoStyle.Render(msg)) }
func (t *Terminal) Warn(msg string)  { fmt.Fprintln(t.out, warnStyle.Render(msg)) }
func (t *Terminal) Error(msg string) { fmt.Fprintln(t.out, errorStyle.Render(msg)) }

func (t *Terminal) readLine() (string, error) {
	line, err := t.in.ReadString('\n')
	if err != nil {
		if errors.Is(err, io.EOF) && line != "" {
			return strings.TrimRight(line, "\r\n"), nil
		}
		if errors.Is(err, io.EOF) {
			return "", ErrAborted
		}
		return "", errors.Wrap(err, "read input")
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func formError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, huh.ErrUserAborted) {
		return ErrAborted
	}
	return errors.Wrap(err, "run form")
}

// ParseYesNo accepts y, yes, д, да in any case.
func ParseYesNo(answer string) bool {
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes", "д", "да":
		return true
	default:
		return false
	}
}
