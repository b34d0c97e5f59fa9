package main

import (
	"os"

	"cargo-3ds/internal/ctr"
)

func main() {
	os.Exit(ctr.Main())
}
