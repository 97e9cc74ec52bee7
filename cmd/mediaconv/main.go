// Command mediaconv probes media files and converts them with ffmpeg.
//
//	mediaconv probe [-json] FILE...
//	mediaconv convert [options] FILE...
//	mediaconv watch [options] [DIR]
//	mediaconv options
package main

import (
	"fmt"
	"os"
)

const (
	exitOK      = 0
	exitFailure = 1
	exitUsage   = 2
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(argv []string) int {
	if len(argv) == 0 {
		usage()
		return exitUsage
	}

	cmd, rest := argv[0], argv[1:]
	switch cmd {
	case "probe":
		return runProbe(rest)
	case "convert":
		return runConvert(rest)
	case "watch":
		return runWatch(rest)
	case "options":
		return runOptions(rest)
	case "-h", "-help", "--help", "help":
		usage()
		return exitOK
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n", cmd)
		usage()
		return exitUsage
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, `Usage: mediaconv <command> [flags] [args]

Commands:
  probe     describe the streams of media files
  convert   convert media files to an audio or video target
  watch     convert files as they appear in a folder
  options   list the available conversion choices

Configuration is read from -config or MEDIACONV_CONFIG_PATH.
Run "mediaconv <command> -h" for command flags.`)
}
