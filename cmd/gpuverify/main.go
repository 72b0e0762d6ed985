// Command gpuverify checks GPU kernels against device resource limits.
package main

import (
	"os"

	"github.com/gogpu/gpuverify/cmd/gpuverify/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
