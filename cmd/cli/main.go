package main

import (
	"github.com/mchmarny/mscore/pkg/cli"
)

func main() {
	cli.Execute()
}
