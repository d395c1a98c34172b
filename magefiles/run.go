//go:build mage

package main

import (
	"fmt"

	"github.com/magefile/mage/mg"
)

type Run mg.Namespace

// Runs rezcache over the assets directory with the inspector on :7070.
func (Run) Inspector() error {
	mg.Deps(Build.Vet)
	fmt.Println("Run inspector...")
	if _, err := executeCmd("go", withArgs("run", "main.go", "-root", "assets", "-watch", "-serve", ":7070"), withStream()); err != nil {
		return err
	}
	return nil
}
