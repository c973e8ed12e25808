package main

import (
	"os"
	"runtime/debug"

	"github.com/turtacn/Tether/internal/cli"
	"github.com/turtacn/Tether/pkg/logger"
)

func main() {
	defer func() {
		if r := recover(); r != nil {
			logger.Log.Error("Panic recovered", "panic", r, "stack", string(debug.Stack()))
			os.Exit(2)
		}
	}()

	cli.Execute()
}

// Personal.AI order the ending
