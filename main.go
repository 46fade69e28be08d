package main

import (
	"github.com/piper-oss/fossology-library/cmd"
)

func main() {
	cmd.Execute()
}
