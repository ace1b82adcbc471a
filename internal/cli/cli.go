package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
)

// usageError maps to exit code 2.
type usageError struct{ msg string }

func (e usageError) Error() string { return e.msg }

// exitError carries the managed program's exit code out of `run`.
type exitError struct{ code int }

func (e exitError) Error() string { return fmt.Sprintf("exit status %d", e.code) }

// Run executes the command line and returns a process exit code.
func Run(args []string, stdout, stderr io.Writer) int {
	a := newApp(stdout, stderr)
	root := a.rootCmd()
	root.SetArgs(args)
	err := root.Execute()
	if err == nil {
		return 0
	}
	var ee exitError
	if errors.As(err, &ee) {
		return ee.code
	}
	fmt.Fprintln(stderr, "clrhost:", err.Error())
	var ue usageError
	if errors.As(err, &ue) {
		return 2
	}
	return 1
}

// MainWithArgs is a testable variant of Main that accepts args explicitly.
func MainWithArgs(args []string) int { return Run(args, os.Stdout, os.Stderr) }

// Main returns an exit code for use by cmd/clrhost.
func Main() int { return MainWithArgs(os.Args[1:]) }
