//go:build mage
// +build mage

package main

import (
	"fmt"
	"os"
	"os/exec"

	"github.com/magefile/mage/mg"
)

// Default target to run when none is specified
// If not set, running mage will list available targets
var Default = Build

// Build compiles both executables into ./bin.
func Build() error {
	mg.Deps(BuildRootable, BuildMeasureAlgos)
	fmt.Println("Compilation finished")
	return nil
}

func BuildRootable() error {
	fmt.Println("Building rootable executable...")
	return goWithCgo("build", "-o", "./bin/rootable", "./rootable")
}

func BuildMeasureAlgos() error {
	fmt.Println("Building measureAlgos executable...")
	return goWithCgo("build", "-o", "./bin/measureAlgos", "./measureAlgos")
}

// Test runs every package test; the writer tests need the HDF5 C library.
func Test() error {
	fmt.Println("Running tests...")
	return goWithCgo("test", "./...")
}

// goWithCgo runs the go tool with CGO enabled and the HDF5 flags taken
// from the environment.
func goWithCgo(args ...string) error {
	ldflags := os.Getenv("CGO_LDFLAGS")
	cflags := os.Getenv("CGO_CFLAGS")
	cmd := exec.Command("go", args...)
	cmd.Env = append(os.Environ(),
		"CGO_ENABLED=1",
		fmt.Sprintf("CGO_LDFLAGS=%s", ldflags),
		fmt.Sprintf("CGO_CFLAGS=%s", cflags))
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd.Run()
}
