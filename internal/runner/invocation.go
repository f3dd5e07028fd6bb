// Package runner executes external tool invocations synchronously and turns
// every outcome into a Result instead of a propagated fault.
package runner

import "strings"

// Invocation is one external-tool call: a program and its argument tokens.
// Paths are passed as discrete tokens, never as a pre-joined shell string.
type Invocation struct {
	Program string
	Args    []string

	// Input is checked for existence before launching. Empty skips the check.
	Input string
}

// Argv returns program followed by its arguments.
func (inv Invocation) Argv() []string {
	argv := make([]string, 0, len(inv.Args)+1)
	argv = append(argv, inv.Program)
	return append(argv, inv.Args...)
}

// String joins the argv with single spaces, for display only.
func (inv Invocation) String() string {
	return strings.Join(inv.Argv(), " ")
}

// Contains reports whether arg appears as a whole token.
func (inv Invocation) Contains(arg string) bool {
	for _, a := range inv.Args {
		if a == arg {
			return true
		}
	}
	return false
}

// Value returns the token following flag, if the flag is present.
func (inv Invocation) Value(flag string) (string, bool) {
	for i := 0; i < len(inv.Args)-1; i++ {
		if inv.Args[i] == flag {
			return inv.Args[i+1], true
		}
	}
	return "", false
}
