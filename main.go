package main

import (
	"os"

	"github.com/huanfeng/apprebrand/cmd"
)

func main() {
	os.Exit(cmd.Execute())
}
