package main

import (
	"fimfiction/cmd/fimfiction-cli/commands"
	"fimfiction/lib/serviceutil"
)

func main() {
	commands.ExecuteContext(serviceutil.SignalContext())
}
