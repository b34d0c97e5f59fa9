package ctr

import (
	"archive/tar"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/zstd"
	"github.com/klauspost/pgzip"
)

// The dist verb packages the built artifacts for distribution: a
// compressed tarball plus a b3sum checksum file next to it, both in the
// level's artifact directory.

// distArchivePath returns the archive path for one build level. The
// configured compression decides the suffix.
func distArchivePath(level, name, format string) string {
	return fmt.Sprintf("./target/%s/%s/%s-%s.tar.%s", targetTriple, level, name, level, format)
}

func checksumFilePath(level, name string) string {
	return fmt.Sprintf("./target/%s/%s/%s-%s.b3", targetTriple, level, name, level)
}

// createDistArchive writes the named files, flattened to their base names,
// into a fresh tar archive compressed per format ("gz" or "zst").
func createDistArchive(dest, format string, files []string) error {
	out, err := os.Create(dest)
	if err != nil {
		return err
	}
	defer out.Close()

	var compressor io.WriteCloser
	switch format {
	case "gz":
		compressor = pgzip.NewWriter(out)
	case "zst":
		zw, err := zstd.NewWriter(out)
		if err != nil {
			return err
		}
		compressor = zw
	default:
		return fmt.Errorf("unsupported dist format %q", format)
	}

	tw := tar.NewWriter(compressor)
	for _, file := range files {
		if err := addFileToTar(tw, file); err != nil {
			tw.Close()
			compressor.Close()
			return fmt.Errorf("failed to add %s to archive: %w", file, err)
		}
	}
	if err := tw.Close(); err != nil {
		compressor.Close()
		return err
	}
	return compressor.Close()
}

func addFileToTar(tw *tar.Writer, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return err
	}
	hdr, err := tar.FileInfoHeader(info, "")
	if err != nil {
		return err
	}
	hdr.Name = filepath.Base(path)
	if err := tw.WriteHeader(hdr); err != nil {
		return err
	}
	_, err = io.Copy(tw, f)
	return err
}

// handleDistCommand builds the release archive and its checksum file from
// the current artifacts. It never compiles anything; a missing 3DSX means
// the build verb has not run for this level.
func handleDistCommand(level string, cfg *Config) error {
	md, err := queryCargoMetadata()
	if err != nil {
		return err
	}
	root, err := rootPackage(md)
	if err != nil {
		return err
	}
	name := root.Name

	dsx := artifactPath(level, name, "3dsx")
	smdh := artifactPath(level, name, "smdh")
	for _, p := range []string{dsx, smdh} {
		if _, err := os.Stat(p); err != nil {
			hint := "cargo 3ds build"
			if level == "release" {
				hint = "cargo 3ds build --release"
			}
			return fmt.Errorf("no %s artifacts for %s; run `%s` first", level, name, hint)
		}
	}

	archive := distArchivePath(level, name, distCompr)
	colArrow.Print("-> ")
	colSuccess.Printf("Packaging %s\n", archive)
	if err := createDistArchive(archive, distCompr, []string{dsx, smdh}); err != nil {
		return fmt.Errorf("failed to create release archive: %w", err)
	}

	entries, err := digestFiles([]string{dsx, smdh, archive})
	if err != nil {
		return err
	}
	sums := checksumFilePath(level, name)
	if err := writeChecksumFile(sums, entries); err != nil {
		return err
	}
	for _, e := range entries {
		debugf("b3 %s  %s\n", e.Digest, e.Name)
	}

	colArrow.Print("-> ")
	colSuccess.Printf("Release archive created successfully: %s\n", archive)
	return nil
}
