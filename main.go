package main

import "github.com/llehouerou/wavecloud/internal/cli"

func main() {
	cli.Execute()
}
