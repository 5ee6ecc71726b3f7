package main

import (
	"embed"
	"errors"
	"fmt"
	"os"

	"github.com/zurustar/ipl-painter/pkg/app"
)

//go:embed examples
var embeddedExamples embed.FS

func main() {
	application := app.New(embeddedExamples)
	if err := application.Run(os.Args[1:]); err != nil {
		if !errors.Is(err, app.ErrReported) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
}
