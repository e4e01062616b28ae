// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Command accountctl manages accounts through the accountd HTTP API.
package main

import (
	"context"
	"fmt"
	"os"
)

func main() {
	if err := newCommand().Run(context.Background(), os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
