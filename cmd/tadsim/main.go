package main

import (
	"github.com/tad-network/tadsim/internal/cli"
	"github.com/tad-network/tadsim/internal/metrics"
)

func main() {
	metrics.EmitBuildInfo()
	cli.Execute()
}
