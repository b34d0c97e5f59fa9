package ctr

import (
	"bufio"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"golang.org/x/sys/unix"
	"lukechampine.com/blake3"
)

// Release digests use BLAKE3-256, written in the b3sum file format
// ("<hex>  <name>" per line) so the stock tool can verify a download.

// fileDigest hashes one file.
func fileDigest(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := blake3.New(32, nil)
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

type checksumEntry struct {
	Digest string
	Name   string
}

// digestFiles hashes each file and pairs the digest with its base name.
func digestFiles(paths []string) ([]checksumEntry, error) {
	entries := make([]checksumEntry, 0, len(paths))
	for _, p := range paths {
		sum, err := fileDigest(p)
		if err != nil {
			return nil, err
		}
		entries = append(entries, checksumEntry{Digest: sum, Name: filepath.Base(p)})
	}
	return entries, nil
}

// writeChecksumFile writes the digest lines under an exclusive lock so a
// concurrent driver run cannot observe a partially written file.
func writeChecksumFile(path string, entries []checksumEntry) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := unix.Flock(int(f.Fd()), unix.LOCK_EX); err != nil {
		return fmt.Errorf("failed to lock %s: %w", path, err)
	}
	defer unix.Flock(int(f.Fd()), unix.LOCK_UN)

	// Truncate only once the lock is held.
	if err := f.Truncate(0); err != nil {
		return err
	}

	w := bufio.NewWriter(f)
	for _, e := range entries {
		fmt.Fprintf(w, "%s  %s\n", e.Digest, e.Name)
	}
	return w.Flush()
}
