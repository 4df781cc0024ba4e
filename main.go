package main

import (
	"fmt"
	"os"

	"github.com/tphakala/comingsoon/cmd"
	"github.com/tphakala/comingsoon/internal/conf"
	"github.com/tphakala/comingsoon/internal/logger"
)

// Set at build time with -ldflags "-X main.version=... -X main.buildDate=..."
var (
	version   = "dev"
	buildDate = "unknown"
)

func main() {
	settings := &conf.Settings{Version: version, BuildDate: buildDate}

	err := cmd.RootCommand(settings).Execute()
	_ = logger.Global().Close()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
