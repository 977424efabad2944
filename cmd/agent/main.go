package main

import (
	"os"

	"leetmate/agent/internal/app"
)

// @title        Leetmate Agent API
// @version      1.0
// @description  Local agent backing the problem-page AI assistant.
// @BasePath     /api
func main() {
	os.Exit(app.Run())
}
