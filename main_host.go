//go:build !rp2040

package main

import (
	"fmt"
	"os"
)

func main() {
	fmt.Fprintln(os.Stderr, "this binary is the rp2040 firmware image; on a host, use cmd/servoswitchd")
	os.Exit(2)
}
