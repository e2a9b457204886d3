package main

import (
	"log/slog"

	"github.com/waydiffer/waydiffer/cmd"
	"github.com/waydiffer/waydiffer/internal/logging"
)

func main() {
	defer logging.RecoverPanic("main", func() {
		slog.Error("Application terminated due to unhandled panic")
	})

	cmd.Execute()
}
