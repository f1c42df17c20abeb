package main

import (
	"errors"
	"fmt"
	"os"

	"school-admin/backend/internal/cli"
)

func main() {
	app := cli.NewApp(os.Stdout, os.Stderr)
	if err := app.Execute(nil); err != nil {
		if errors.Is(err, cli.ErrConflictsFound) {
			os.Exit(2)
		}
		fmt.Fprintf(os.Stderr, "错误: %v\n", err)
		os.Exit(1)
	}
}
