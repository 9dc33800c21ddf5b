package main

import (
	"os"

	"github.com/goliatone/go-blogauth/cmd/blogauth/app"
)

func main() {
	if err := app.NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
