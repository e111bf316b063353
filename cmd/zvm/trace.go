package main

import (
	"os"

	"github.com/gozm/zvm/zmachine"
)

// openTrace points the VM's instruction trace at path, returning a closer
// the caller should defer.
func openTrace(z *zmachine.ZMachine, path string) (func(), error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	z.SetTrace(f)
	return func() { f.Close() }, nil
}
