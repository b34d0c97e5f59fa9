package ctr

import "os/exec"

// Invocation describes one external tool run: the program, its argument
// vector in final order, and an optional environment overlay. Every stage
// of the pipeline builds its vector through this type so the exact command
// line exists as a value before anything is spawned.
type Invocation struct {
	Program string
	Args    []string
	Env     []string // nil inherits the parent environment
}

// Tool starts an invocation for the given program.
func Tool(program string, args ...string) *Invocation {
	return &Invocation{Program: program, Args: args}
}

// Append adds positional arguments to the end of the vector.
func (iv *Invocation) Append(args ...string) *Invocation {
	iv.Args = append(iv.Args, args...)
	return iv
}

// Flag adds a single --name=value style argument. The external 3DS tools
// take their options in this joined form, never as separate tokens.
func (iv *Invocation) Flag(name, value string) *Invocation {
	iv.Args = append(iv.Args, name+"="+value)
	return iv
}

// WithEnv replaces the child's entire environment.
func (iv *Invocation) WithEnv(env []string) *Invocation {
	iv.Env = env
	return iv
}

// Argv returns the complete vector, program first, exactly as executed.
func (iv *Invocation) Argv() []string {
	return append([]string{iv.Program}, iv.Args...)
}

// Command materializes the invocation as an exec.Cmd. Stream wiring is the
// Executor's job.
func (iv *Invocation) Command() *exec.Cmd {
	cmd := exec.Command(iv.Program, iv.Args...)
	cmd.Env = iv.Env
	return cmd
}
