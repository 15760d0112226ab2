package main

import (
	"os"

	"github.com/cristianoliveira/koyr/cmd"
	"github.com/cristianoliveira/koyr/internal/colors"
)

func main() {
	os.Exit(run(cmd.Execute))
}

func run(execute func() error) int {
	colors.Step("startup", "main", "started").Emit()
	if err := execute(); err != nil {
		colors.Step("startup", "main", "failed").Fail(err).Emit()
		return 1
	}
	colors.Step("startup", "main", "completed").Emit()
	return 0
}
