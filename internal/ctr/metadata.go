package ctr

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
)

// CTRConfig carries the project fields the 3DS packaging tools consume.
type CTRConfig struct {
	Name        string
	Author      string
	Description string
	Icon        string
}

// Only the fields the driver consumes are bound; the metadata document is
// free to grow without breaking the probe.
type cargoPackage struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Version     string   `json:"version"`
	Authors     []string `json:"authors"`
	Description string   `json:"description"`
}

type cargoMetadata struct {
	Packages []cargoPackage `json:"packages"`
	Resolve  *struct {
		Root string `json:"root"`
	} `json:"resolve"`
}

// queryCargoMetadata runs cargo's metadata subcommand with stdout captured.
// cargo's stderr stays on the terminal so its own diagnostics are visible.
// The resolve graph is required (no --no-deps): the root package id only
// appears there.
func queryCargoMetadata() (*cargoMetadata, error) {
	cmd := exec.Command(cargoTool, "metadata", "--format-version", "1")
	cmd.Stderr = os.Stderr
	out, err := cmd.Output()
	if err != nil {
		return nil, errors.New("Failed to get cargo metadata")
	}
	md := &cargoMetadata{}
	if err := json.Unmarshal(out, md); err != nil {
		return nil, errors.New("Failed to get cargo metadata")
	}
	return md, nil
}

// rootPackage resolves the workspace's root package.
func rootPackage(md *cargoMetadata) (*cargoPackage, error) {
	if md.Resolve == nil || md.Resolve.Root == "" {
		return nil, errors.New("No root crate found")
	}
	for i := range md.Packages {
		if md.Packages[i].ID == md.Resolve.Root {
			return &md.Packages[i], nil
		}
	}
	return nil, errors.New("No root crate found")
}

// newCTRConfig binds the probed fields. Name and author are mandatory; a
// missing description gets the stock placeholder.
func newCTRConfig(root *cargoPackage) (*CTRConfig, error) {
	if len(root.Authors) == 0 || root.Authors[0] == "" {
		return nil, fmt.Errorf("Root crate %s has no authors; add an authors entry to Cargo.toml", root.Name)
	}
	description := root.Description
	if description == "" {
		description = "Homebrew Application"
	}
	return &CTRConfig{
		Name:        root.Name,
		Author:      root.Authors[0],
		Description: description,
	}, nil
}

// resolveIcon prefers ./icon.png in the working directory and falls back
// to the SDK's stock icon under DEVKITPRO.
func resolveIcon() (string, error) {
	const local = "./icon.png"
	if f, err := os.Open(local); err == nil {
		f.Close()
		return local, nil
	}
	dkp := os.Getenv("DEVKITPRO")
	if dkp == "" {
		return "", errors.New("DEVKITPRO is not set; install devkitPro or provide ./icon.png")
	}
	return fmt.Sprintf("%s/libctru/default_icon.png", dkp), nil
}

// getCTRConfig probes the workspace and returns the fully-populated record
// used by the SMDH and 3DSX stages.
func getCTRConfig() (*CTRConfig, error) {
	md, err := queryCargoMetadata()
	if err != nil {
		return nil, err
	}
	root, err := rootPackage(md)
	if err != nil {
		return nil, err
	}
	conf, err := newCTRConfig(root)
	if err != nil {
		return nil, err
	}
	icon, err := resolveIcon()
	if err != nil {
		return nil, err
	}
	conf.Icon = icon
	return conf, nil
}
