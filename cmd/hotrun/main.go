package main

import (
	"github.com/Warwolt/hotrun/internal/cli"
	"github.com/Warwolt/hotrun/internal/metrics"
)

func main() {
	metrics.EmitBuildInfo()
	cli.Execute()
}
