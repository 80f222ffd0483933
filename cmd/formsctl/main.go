package main

import (
	"fmt"
	"os"

	"github.com/subosito/gotenv"
)

func main() {
	_ = gotenv.Load()

	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "formsctl: %v\n", err)
		os.Exit(1)
	}
}
