package main

import (
	"fmt"
	"os"

	"github.com/alecthomas/kong"
)

var CLI struct {
	Config string `help:"YAML configuration file. Defaults to $SNOWFIELD_CONFIG." short:"c" type:"path"`
	Debug  bool   `help:"Force debug logging to stdout."`

	Serve struct {
		Addr string `help:"Listen address, overrides server.addr."`
	} `cmd:"" default:"1" help:"Run the relay server."`

	Bot struct {
		URL       string `arg:"" help:"Relay base URL, e.g. ws://localhost:8080."`
		Name      string `help:"Player name." default:"bot"`
		Character string `help:"Character id." default:"male-a"`
		FPS       int    `help:"Frames per second." default:"60"`
	} `cmd:"" help:"Run a headless client that wanders, jumps and throws."`
}

func writeError(err error) {
	fmt.Fprintf(os.Stderr, "%s\n", err)
	os.Exit(1)
}

// snowfield entry point: relay server or headless bot.
func main() {
	ctx := kong.Parse(&CLI,
		kong.Name("snowfield"),
		kong.Description("a relay server for a shared 3D snowfield"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
			Summary: true,
		}))

	var err error
	switch ctx.Command() {
	case "serve":
		err = serveCommand()
	case "bot <url>":
		err = botCommand()
	}
	if err != nil {
		writeError(err)
	}
}
