package main

import (
	"os"

	"github.com/soundprediction/lancong/cmd/lancong"
)

func main() {
	if err := lancong.Execute(); err != nil {
		os.Exit(1)
	}
}
