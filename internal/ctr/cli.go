package ctr

import (
	"fmt"
	"os"
	"strings"

	"github.com/gookit/color"
)

// printHelp prints the commands table
func printHelp() {
	colSuccess.Println("Usage: cargo 3ds <command> [arguments]")
	colSuccess.Println("Arguments after the command are passed to `cargo build` verbatim")
	fmt.Println()
	colInfo.Println("Available Commands:")

	type cmdInfo struct {
		Cmd  string
		Args string
		Desc string
	}
	cmds := []cmdInfo{
		{"build", "[cargo args]", "Cross-compile and package a 3DSX executable"},
		{"link", "[cargo args]", "Build, then send the 3DSX to a console over the network"},
		{"log", "", "Show the most recent captured build log"},
		{"dist", "[--release]", "Package built artifacts into a release archive with checksums"},
		{"publish", "[--release]", "Upload the release archive set to object storage"},
		{"version, --version", "", "Version information"},
		{"help, --help", "", "This table"},
	}

	maxLen := 0
	for _, c := range cmds {
		length := len(c.Cmd) + len(c.Args)
		if c.Args != "" {
			length++
		}
		if length > maxLen {
			maxLen = length
		}
	}
	columnWidth := maxLen + 4

	for _, c := range cmds {
		var usageString string
		if c.Args != "" {
			usageString = fmt.Sprintf("  %s %s", c.Cmd, c.Args)
		} else {
			usageString = fmt.Sprintf("  %s", c.Cmd)
		}

		fmt.Print("  ")
		color.Bold.Print(c.Cmd)
		if c.Args != "" {
			fmt.Print(" ")
			color.Cyan.Print(c.Args)
		}

		pad := columnWidth - len(usageString)
		if pad < 1 {
			pad = 1
		}
		fmt.Print(strings.Repeat(" ", pad))

		colInfo.Println(c.Desc)
	}

	fmt.Println()
}

// optLevel returns the artifact path segment selected by the argument
// vector: "release" iff --release appears anywhere, "debug" otherwise.
// The flag is cargo's own; the driver only reads it, never consumes it.
func optLevel(args []string) string {
	for _, arg := range args {
		if arg == "--release" {
			return "release"
		}
	}
	return "debug"
}

// Main is the CLI entrypoint for the root main package. cargo invokes the
// driver as `cargo 3ds <verb> [args...]`, so the verb sits at position two
// and everything after it is passed through. The return value becomes the
// process exit status.
func Main() int {
	if len(os.Args) < 3 {
		fmt.Println(`No command specified, try with "build" or "link"`)
		return 1
	}
	verb := os.Args[2]
	passthrough := os.Args[3:]
	level := optLevel(os.Args)

	cfg, err := loadConfig(configPath())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to read config: %v\n", err)
	}
	mergeEnvOverrides(cfg)
	initConfig(cfg)

	switch verb {
	case "build":
		return runBuild(passthrough, level, false, cfg)

	case "link":
		return runBuild(passthrough, level, true, cfg)

	case "log":
		if err := handleLogCommand(cfg); err != nil {
			colError.Println(err)
			return 1
		}

	case "dist":
		if err := handleDistCommand(level, cfg); err != nil {
			colError.Println(err)
			return 1
		}

	case "publish":
		if err := handlePublishCommand(level, cfg); err != nil {
			colError.Println(err)
			return 1
		}

	case "version", "--version":
		colNote.Printf("cargo-3ds %s (%s) built %s\n", version, arch, buildDate)

	case "help", "--help", "-h":
		printHelp()

	default:
		fmt.Println(`Invalid command, try with "build" or "link"`)
		return 1
	}

	return 0
}
