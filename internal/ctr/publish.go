package ctr

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// handlePublishCommand uploads the dist archive and its checksum file to
// the configured bucket. It never rebuilds or repackages anything: the
// dist verb owns the archive, publish only ships what is on disk.
func handlePublishCommand(level string, cfg *Config) error {
	ctx := context.Background()

	md, err := queryCargoMetadata()
	if err != nil {
		return err
	}
	root, err := rootPackage(md)
	if err != nil {
		return err
	}
	name := root.Name

	archive := distArchivePath(level, name, distCompr)
	sums := checksumFilePath(level, name)
	files := []string{archive, sums}
	var total int64
	for _, p := range files {
		info, err := os.Stat(p)
		if err != nil {
			hint := "cargo 3ds dist"
			if level == "release" {
				hint = "cargo 3ds dist --release"
			}
			return fmt.Errorf("no %s release archive for %s; run `%s` first", level, name, hint)
		}
		total += info.Size()
	}

	client, err := newStorageClient(cfg)
	if err != nil {
		return err
	}

	prefix := cfg.Values["PUBLISH_PREFIX"]
	if prefix == "" {
		prefix = "releases/" + name
	}

	colArrow.Print("-> ")
	if !askForConfirmation(colWarn, "Upload %d files (%s) to bucket %s?",
		len(files), humanReadableSize(total), client.BucketName) {
		colNote.Println("Publish cancelled")
		return nil
	}

	for _, p := range files {
		key := prefix + "/" + filepath.Base(p)
		colArrow.Print("-> ")
		colSuccess.Printf("Uploading %s\n", key)
		if err := client.UploadLocalFile(ctx, key, p); err != nil {
			return fmt.Errorf("failed to upload %s: %w", filepath.Base(p), err)
		}
	}

	colArrow.Print("-> ")
	colSuccess.Printf("Published %s (%s) to %s/%s\n", name, level, client.BucketName, prefix)
	return nil
}
