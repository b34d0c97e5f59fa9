package ctr

import (
	"os"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMergeRustFlags(t *testing.T) {
	const appended = "-Clink-arg=-specs=3dsx.specs -Clink-arg=-z -Clink-arg=muldefs -Clink-arg=-D__3DS__"

	// An empty prior value gets the appended flags alone, no leading space.
	assert.Equal(t, appended, mergeRustFlags(""))

	// A caller-set value is preserved and separated by a single space.
	assert.Equal(t, "-Copt-level=3 "+appended, mergeRustFlags("-Copt-level=3"))
}

func TestBuildEnvReplacesRustFlags(t *testing.T) {
	environ := []string{"HOME=/home/u", "RUSTFLAGS=-Copt-level=3", "PATH=/usr/bin"}
	env := buildEnv(environ, false)

	assert.Contains(t, env, "HOME=/home/u")
	assert.Contains(t, env, "PATH=/usr/bin")
	assert.Contains(t, env, "RUSTFLAGS=-Copt-level=3 "+
		"-Clink-arg=-specs=3dsx.specs -Clink-arg=-z -Clink-arg=muldefs -Clink-arg=-D__3DS__")
	assert.NotContains(t, env, "RUSTFLAGS=-Copt-level=3")
	assert.NotContains(t, env, "CARGO_TERM_COLOR=always")
}

func TestBuildEnvWithoutPriorRustFlags(t *testing.T) {
	env := buildEnv([]string{"HOME=/home/u"}, true)
	assert.Contains(t, env, "RUSTFLAGS="+
		"-Clink-arg=-specs=3dsx.specs -Clink-arg=-z -Clink-arg=muldefs -Clink-arg=-D__3DS__")
	assert.Contains(t, env, "CARGO_TERM_COLOR=always")
}

func TestArtifactPath(t *testing.T) {
	assert.Equal(t, "./target/armv6k-nintendo-3ds/debug/hello.elf", artifactPath("debug", "hello", "elf"))
	assert.Equal(t, "./target/armv6k-nintendo-3ds/release/hello.3dsx", artifactPath("release", "hello", "3dsx"))
	assert.Equal(t, "./target/armv6k-nintendo-3ds/release/hello.smdh", artifactPath("release", "hello", "smdh"))
}

func TestCargoBuildInvocation(t *testing.T) {
	passthrough := []string{"--release", "--features", "audio", "-p", "hello"}
	iv := cargoBuildInvocation(passthrough, []string{"RUSTFLAGS=x"})

	want := []string{
		"cargo", "build",
		"-Z", "unstable-options",
		"-Z", "build-std",
		"--target", "armv6k-nintendo-3ds",
		"--release", "--features", "audio", "-p", "hello",
	}
	if diff := cmp.Diff(want, iv.Argv()); diff != "" {
		t.Errorf("argv mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, []string{"RUSTFLAGS=x"}, iv.Env)
}

func TestSmdhInvocation(t *testing.T) {
	conf := &CTRConfig{
		Name:        "hello",
		Author:      "Jane Doe",
		Description: "Homebrew Application",
		Icon:        "/opt/devkitpro/libctru/default_icon.png",
	}
	want := []string{
		"smdhtool", "--create",
		"hello",
		"Homebrew Application",
		"Jane Doe",
		"/opt/devkitpro/libctru/default_icon.png",
		"./target/armv6k-nintendo-3ds/release/hello.smdh",
	}
	if diff := cmp.Diff(want, smdhInvocation(conf, "release").Argv()); diff != "" {
		t.Errorf("argv mismatch (-want +got):\n%s", diff)
	}
}

func TestDsxInvocation(t *testing.T) {
	want := []string{
		"3dsxtool",
		"./target/armv6k-nintendo-3ds/debug/hello.elf",
		"./target/armv6k-nintendo-3ds/debug/hello.3dsx",
		"--smdh=./target/armv6k-nintendo-3ds/debug/hello.smdh",
	}
	if diff := cmp.Diff(want, dsxInvocation("hello", "debug", false).Argv()); diff != "" {
		t.Errorf("argv mismatch (-want +got):\n%s", diff)
	}

	withRomfs := dsxInvocation("hello", "debug", true).Argv()
	assert.Equal(t, append(want, "--romfs=./romfs"), withRomfs)
}

func TestLinkInvocation(t *testing.T) {
	want := []string{"3dslink", "./target/armv6k-nintendo-3ds/release/hello.3dsx"}
	assert.Equal(t, want, linkInvocation("hello", "release").Argv())
}

// recordingRunner stands in for the Executor: it records every argv it is
// handed and can fail at a chosen stage.
type recordingRunner struct {
	ran     [][]string
	failAt  int // 1-based stage index to fail at; 0 never fails
	failErr error
}

func (r *recordingRunner) Run(iv *Invocation) error {
	r.ran = append(r.ran, iv.Argv())
	if r.failAt == len(r.ran) {
		return r.failErr
	}
	return nil
}

func TestBuildStagesLayout(t *testing.T) {
	t.Chdir(t.TempDir())
	conf := &CTRConfig{Name: "hello", Author: "Jane Doe", Description: "d", Icon: "i"}

	stages := buildStages(conf, "release", []string{"--release"}, nil, false)
	require.Len(t, stages, 3)
	assert.Equal(t, "cargo", stages[0].iv.Program)
	assert.Equal(t, "smdhtool", stages[1].iv.Program)
	assert.Equal(t, "3dsxtool", stages[2].iv.Program)

	withUpload := buildStages(conf, "release", nil, nil, true)
	require.Len(t, withUpload, 4)
	assert.Equal(t, []string{"3dslink", "./target/armv6k-nintendo-3ds/release/hello.3dsx"},
		withUpload[3].iv.Argv())
}

func TestRunStagesRunsAllInOrder(t *testing.T) {
	t.Chdir(t.TempDir())
	conf := &CTRConfig{Name: "hello", Author: "Jane Doe", Description: "d", Icon: "i"}

	r := &recordingRunner{}
	require.NoError(t, runStages(r, buildStages(conf, "debug", nil, nil, true)))

	require.Len(t, r.ran, 4)
	assert.Equal(t, "cargo", r.ran[0][0])
	assert.Equal(t, "smdhtool", r.ran[1][0])
	assert.Equal(t, "3dsxtool", r.ran[2][0])
	assert.Equal(t, "3dslink", r.ran[3][0])
}

func TestRunStagesStopsAtFirstFailure(t *testing.T) {
	t.Chdir(t.TempDir())
	conf := &CTRConfig{Name: "hello", Author: "Jane Doe", Description: "d", Icon: "i"}

	// smdhtool exits 2: 3dsxtool and 3dslink must never be spawned and
	// the driver's status must be the child's.
	r := &recordingRunner{failAt: 2, failErr: &childError{tool: "smdhtool", code: 2}}
	err := runStages(r, buildStages(conf, "debug", nil, nil, true))

	require.Error(t, err)
	assert.Equal(t, 2, exitCode(err))
	require.Len(t, r.ran, 2)
	assert.Equal(t, "smdhtool", r.ran[1][0])
}

func TestHasRomfs(t *testing.T) {
	t.Chdir(t.TempDir())

	assert.False(t, hasRomfs())

	// A plain file named romfs is not a resource directory.
	require.NoError(t, os.WriteFile("romfs", []byte("x"), 0o644))
	assert.False(t, hasRomfs())
	require.NoError(t, os.Remove("romfs"))

	// An empty directory is a valid romfs.
	require.NoError(t, os.Mkdir("romfs", 0o755))
	assert.True(t, hasRomfs())
}
