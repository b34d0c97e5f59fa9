package ctr

import (
	"runtime"

	"github.com/gookit/color"
)

// The sole cross-compilation target. All artifact paths hang off it.
const targetTriple = "armv6k-nintendo-3ds"

// External tools, resolved through PATH when spawned.
const (
	cargoTool = "cargo"
	smdhTool  = "smdhtool"
	dsxTool   = "3dsxtool"
	linkTool  = "3dslink"
)

// romfsDir is folded into the 3DSX when it exists in the working directory.
const romfsDir = "./romfs"

// Global variables
var (
	Debug       bool
	logCapture  bool
	logDir      string
	logKeep     int
	distCompr   string
	ConfigEnv   = "CARGO_3DS_CONFIG"
	version     = "dev" // overridden at build time
	arch        = runtime.GOARCH
	buildDate   = "unknown" // overridden at build time
)

// color helpers
var (
	colInfo    = color.Info // style provided by gookit/color
	colWarn    = color.Warn
	colError   = color.Error
	colSuccess = color.HEX("#1976D2")
	colArrow   = color.HEX("#FFEB3B")
	colNote    = color.Tag("notice")
)
