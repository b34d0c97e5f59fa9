package ctr

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/ulikunitz/xz"
)

// Build log capture. When LOG=1 is configured, everything the pipeline's
// children write is teed into a plain file, which is compressed to xz when
// the run finishes. Only the newest few logs are kept.

type buildLog struct {
	dir  string
	file *os.File
}

// startBuildLog opens the plain capture file inside dir.
func startBuildLog(dir string) (*buildLog, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	f, err := os.Create(filepath.Join(dir, "build-log.txt"))
	if err != nil {
		return nil, err
	}
	return &buildLog{dir: dir, file: f}, nil
}

func (l *buildLog) Write(p []byte) (int, error) {
	return l.file.Write(p)
}

// Finish closes the capture, compresses it to a timestamped .log.xz and
// prunes old logs. Failures only warn: the build result matters more than
// its log.
func (l *buildLog) Finish() {
	l.file.Close()
	src := filepath.Join(l.dir, "build-log.txt")
	stamp := time.Now().UTC().Format("20060102-150405")
	dest := filepath.Join(l.dir, fmt.Sprintf("build-%s.log.xz", stamp))
	if err := compressXZ(src, dest); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to compress build log: %v\n", err)
		return
	}
	os.Remove(src)
	pruneLogs(l.dir, logKeep)
}

// compressXZ compresses a file using XZ
func compressXZ(srcPath, destPath string) error {
	src, err := os.Open(srcPath)
	if err != nil {
		return err
	}
	defer src.Close()

	dest, err := os.Create(destPath)
	if err != nil {
		return err
	}
	defer dest.Close()

	xzWriter, err := xz.NewWriter(dest)
	if err != nil {
		return err
	}
	if _, err := io.Copy(xzWriter, src); err != nil {
		xzWriter.Close()
		return err
	}
	return xzWriter.Close()
}

// capturedLogs returns the compressed log names in dir, newest first. The
// timestamped names sort lexicographically.
func capturedLogs(dir string) []string {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}
	var logs []string
	for _, e := range entries {
		name := e.Name()
		if !e.IsDir() && strings.HasPrefix(name, "build-") && strings.HasSuffix(name, ".log.xz") {
			logs = append(logs, name)
		}
	}
	sort.Sort(sort.Reverse(sort.StringSlice(logs)))
	return logs
}

// pruneLogs removes everything beyond the keep newest compressed logs.
func pruneLogs(dir string, keep int) {
	if keep < 1 {
		keep = 1
	}
	logs := capturedLogs(dir)
	for _, name := range logs[min(keep, len(logs)):] {
		os.Remove(filepath.Join(dir, name))
	}
}

// handleLogCommand shows the most recent captured build log.
func handleLogCommand(cfg *Config) error {
	logs := capturedLogs(logDir)
	if len(logs) == 0 {
		return fmt.Errorf("no captured build logs in %s (set LOG=1 in the config to capture builds)", logDir)
	}
	path := filepath.Join(logDir, logs[0])
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	xr, err := xz.NewReader(f)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}
	data, err := io.ReadAll(xr)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}
	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	return runPager(filepath.Base(path), lines)
}
