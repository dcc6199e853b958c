package main

import (
	"fmt"
	"os"

	"github.com/tillberg/autorestart"

	"github.com/soyeahso/voicebot/internal/cli"
)

func main() {
	if os.Getenv("VOICEBOT_AUTORESTART") == "1" {
		go autorestart.RestartOnChange()
	}

	if err := cli.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "voicebot:", err)
		os.Exit(1)
	}
}
