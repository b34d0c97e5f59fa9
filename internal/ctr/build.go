package ctr

import (
	"fmt"
	"os"
	"strings"
)

// Linker arguments every 3DS build needs: the SDK's linker specs file,
// tolerance for multiple symbol definitions, and the platform macro for C
// dependencies.
var linkerFlags = []string{
	"-Clink-arg=-specs=3dsx.specs",
	"-Clink-arg=-z",
	"-Clink-arg=muldefs",
	"-Clink-arg=-D__3DS__",
}

// mergeRustFlags appends the 3DS linker arguments to whatever RUSTFLAGS
// the caller already set. cargo splits the value on whitespace, so the
// merge is textual with a single separating space.
func mergeRustFlags(existing string) string {
	appended := strings.Join(linkerFlags, " ")
	if existing == "" {
		return appended
	}
	return existing + " " + appended
}

// buildEnv assembles the Stage A environment: the parent's, with RUSTFLAGS
// replaced by the merged value. forceColor pins cargo's color output on
// for runs whose streams go through a capture pipe.
func buildEnv(environ []string, forceColor bool) []string {
	existing := ""
	env := make([]string, 0, len(environ)+2)
	for _, kv := range environ {
		if v, ok := strings.CutPrefix(kv, "RUSTFLAGS="); ok {
			existing = v
			continue
		}
		env = append(env, kv)
	}
	env = append(env, "RUSTFLAGS="+mergeRustFlags(existing))
	if forceColor {
		env = append(env, "CARGO_TERM_COLOR=always")
	}
	return env
}

// artifactPath addresses one build product in the canonical target layout.
// The ELF, SMDH and 3DSX of a single run share the same level and name.
func artifactPath(level, name, ext string) string {
	return fmt.Sprintf("./target/%s/%s/%s.%s", targetTriple, level, name, ext)
}

// cargoBuildInvocation is Stage A: cross-compile the ELF. The unstable
// options must be acknowledged and the standard library rebuilt from
// source for the target; user arguments ride along verbatim, in order.
func cargoBuildInvocation(passthrough []string, env []string) *Invocation {
	iv := Tool(cargoTool, "build",
		"-Z", "unstable-options",
		"-Z", "build-std",
		"--target", targetTriple)
	iv.Append(passthrough...)
	return iv.WithEnv(env)
}

// smdhInvocation is Stage B: pack name, description, author and icon into
// the SMDH sidecar.
func smdhInvocation(conf *CTRConfig, level string) *Invocation {
	return Tool(smdhTool, "--create",
		conf.Name,
		conf.Description,
		conf.Author,
		conf.Icon,
		artifactPath(level, conf.Name, "smdh"))
}

// dsxInvocation is Stage C: assemble the 3DSX container from the ELF and
// the SMDH; the romfs directory rides along when present.
func dsxInvocation(name, level string, withRomfs bool) *Invocation {
	iv := Tool(dsxTool,
		artifactPath(level, name, "elf"),
		artifactPath(level, name, "3dsx"))
	iv.Flag("--smdh", artifactPath(level, name, "smdh"))
	if withRomfs {
		iv.Flag("--romfs", romfsDir)
	}
	return iv
}

// linkInvocation hands the finished 3DSX to the network upload tool.
func linkInvocation(name, level string) *Invocation {
	return Tool(linkTool, artifactPath(level, name, "3dsx"))
}

// hasRomfs reports whether ./romfs is a readable directory at this moment.
// An empty directory is a valid romfs.
func hasRomfs() bool {
	_, err := os.ReadDir(romfsDir)
	return err == nil
}

// stage pairs a progress label with the invocation it runs.
type stage struct {
	label string
	iv    *Invocation
}

// runner is what runStages needs from the Executor.
type runner interface {
	Run(iv *Invocation) error
}

// buildStages lays out one run of the pipeline: compile, pack metadata,
// assemble the container, and optionally send to the console.
func buildStages(conf *CTRConfig, level string, passthrough, env []string, upload bool) []stage {
	dsx := artifactPath(level, conf.Name, "3dsx")
	stages := []stage{
		{fmt.Sprintf("Building %s for %s (%s)", conf.Name, targetTriple, level),
			cargoBuildInvocation(passthrough, env)},
		{fmt.Sprintf("Packing SMDH metadata for %s", conf.Name),
			smdhInvocation(conf, level)},
		{fmt.Sprintf("Assembling %s", dsx),
			dsxInvocation(conf.Name, level, hasRomfs())},
	}
	if upload {
		stages = append(stages, stage{
			fmt.Sprintf("Sending %s to the console", dsx),
			linkInvocation(conf.Name, level)})
	}
	return stages
}

// runStages executes the stages strictly in order. The first failure
// stops the run; later stages are never spawned.
func runStages(ex runner, stages []stage) error {
	for _, st := range stages {
		colArrow.Print("-> ")
		colSuccess.Println(st.label)
		debugf("exec: %s\n", strings.Join(st.iv.Argv(), " "))
		if err := ex.Run(st.iv); err != nil {
			colError.Println(err)
			return err
		}
	}
	return nil
}

// runBuild drives the gate, the probe and the build stages for the build
// and link verbs, and returns the process exit status.
func runBuild(passthrough []string, level string, upload bool, cfg *Config) int {
	if !checkRustVersion() {
		return 1
	}

	conf, err := getCTRConfig()
	if err != nil {
		fmt.Println(err)
		return 1
	}

	ex := &Executor{}
	if logCapture {
		blog, err := startBuildLog(logDir)
		if err != nil {
			colWarn.Printf("Build log capture disabled: %v\n", err)
		} else {
			ex.Tee = blog
			defer blog.Finish()
		}
	}

	env := buildEnv(os.Environ(), ex.Tee != nil)
	return exitCode(runStages(ex, buildStages(conf, level, passthrough, env, upload)))
}
