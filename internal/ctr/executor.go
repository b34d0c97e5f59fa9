package ctr

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
)

// Executor runs external tools with the parent's standard streams attached,
// so compiler progress and interactive tool output reach the terminal
// directly. The driver stays single-threaded: one child at a time, waited
// to completion, no signal handlers of its own (interrupts reach the child
// through the shared process group).
type Executor struct {
	// Tee, when set, receives a copy of everything the child writes to
	// stdout or stderr. Both streams then go through one shared writer
	// (merging them on the terminal), which keeps the copy on a single
	// goroutine so the tee needs no locking.
	Tee io.Writer
}

// childError reports a tool that ran and exited unsuccessfully. The
// driver's own exit status mirrors the child's.
type childError struct {
	tool string
	code int
}

func (e *childError) Error() string {
	return fmt.Sprintf("%s exited with status %d", e.tool, e.code)
}

// Run executes the invocation and blocks until it finishes.
func (e *Executor) Run(iv *Invocation) error {
	cmd := iv.Command()

	// --- Phase 0: wire up stdio ---
	cmd.Stdin = os.Stdin
	if e.Tee != nil {
		// The same writer on both streams makes os/exec reuse one pipe
		// and one copy goroutine; two writers would call Tee.Write from
		// two goroutines at once.
		out := io.MultiWriter(os.Stdout, e.Tee)
		cmd.Stdout = out
		cmd.Stderr = out
	} else {
		cmd.Stdout = os.Stdout
		cmd.Stderr = os.Stderr
	}

	// --- Phase 1: start ---
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to start %s: %w", iv.Program, err)
	}

	// --- Phase 2: wait and map the exit status ---
	err := cmd.Wait()
	if err == nil {
		return nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		code := exitErr.ExitCode()
		if code < 0 {
			// Signal-killed children report no code.
			code = 1
		}
		return &childError{tool: iv.Program, code: code}
	}
	return fmt.Errorf("failed to run %s: %w", iv.Program, err)
}

// exitCode maps a pipeline error to the driver's exit status: the child's
// own code when a tool failed, 1 for everything the driver itself rejects.
func exitCode(err error) int {
	if err == nil {
		return 0
	}
	var ce *childError
	if errors.As(err, &ce) {
		return ce.code
	}
	return 1
}
