package ui

import (
	"fmt"
	"io"
	"strings"
)

// Reporter writes styled status lines for the lifecycle controller
type Reporter struct {
	out io.Writer
}

// NewReporter returns a reporter writing to out
func NewReporter(out io.Writer) *Reporter {
	return &Reporter{out: out}
}

func (r *Reporter) Step(msg string) {
	_, _ = fmt.Fprintln(r.out, Primary.Render("==>")+" "+msg)
}

func (r *Reporter) Success(msg string) {
	_, _ = fmt.Fprintln(r.out, Secondary.Render("✓")+" "+msg)
}

func (r *Reporter) Warn(msg string) {
	_, _ = fmt.Fprintln(r.out, Warning.Render("!")+" "+msg)
}

// Error prints a single failure line
func (r *Reporter) Error(msg string) {
	_, _ = fmt.Fprintln(r.out, Error.Render("✗")+" "+msg)
}

// Banner prints a boxed summary. The box colour follows ok.
func (r *Reporter) Banner(ok bool, title string, lines ...string) {
	box := SuccessBox
	head := Secondary.Bold(true).Render(title)
	if !ok {
		box = FailureBox
		head = Error.Bold(true).Render(title)
	}
	body := head
	if len(lines) > 0 {
		body += "\n\n" + strings.Join(lines, "\n")
	}
	_, _ = fmt.Fprintln(r.out, box.Render(body))
}

// Credentials prints the login panel
func (r *Reporter) Credentials(url, username, password string) {
	rows := []string{
		Muted.Render("URL:      ") + url,
		Muted.Render("Username: ") + username,
		Muted.Render("Password: ") + password,
	}
	_, _ = fmt.Fprintln(r.out, InfoBox.Render(strings.Join(rows, "\n")))
}
