package main

import (
	"fmt"
	"os"
	"strings"

	flag "github.com/jessevdk/go-flags"
	"github.com/sirupsen/logrus"

	"github.com/NeoPangea/dbatools/parsers/maintlog"
	"github.com/NeoPangea/dbatools/sink"
	"github.com/NeoPangea/dbatools/source"
)

// BuildID is set by the release pipeline
var BuildID string

// internal version identifier
var version string

// GlobalOptions has all the top level CLI flags
type GlobalOptions struct {
	ConfigFile string `short:"c" long:"config" description:"Config file in INI format." no-ini:"true"`

	Debug          bool `long:"debug" description:"Print debugging output"`
	ConnectTimeout uint `long:"connect_timeout" description:"Seconds to wait when connecting to a target" default:"15"`

	ScrubFields []string `long:"scrub_field" description:"For the field listed, apply a one-way hash to the field content. May be specified multiple times"`
	DropFields  []string `long:"drop_field" description:"Do not emit the field. May be specified multiple times"`
	AddFields   []string `long:"add_field" description:"Add the field to every record. Field should be key=val. May be specified multiple times"`

	Reqs  RequiredOptions `group:"Required Options"`
	Modes OtherModes      `group:"Other Modes"`

	Identity maintlog.Options `group:"Identity Options" namespace:"identity"`
	Source   source.Options   `group:"Log Source Options" namespace:"source"`
	Output   sink.Options     `group:"Output Options" namespace:"output"`
}

type RequiredOptions struct {
	TargetsFile string   `short:"t" long:"targets" description:"YAML file listing the SQL Server targets whose maintenance logs to read"`
	LogFiles    []string `short:"f" long:"file" description:"Parse these log files directly instead of connecting to a target. Use this flag multiple times or use a glob (/path/to/IndexOptimize_*.txt)"`
}

type OtherModes struct {
	Help               bool `short:"h" long:"help" description:"Show this help message"`
	Version            bool `short:"V" long:"version" description:"Show version"`
	WriteDefaultConfig bool `long:"write_default_config" description:"Write a default config file to STDOUT" no-ini:"true"`
	WriteCurrentConfig bool `long:"write_current_config" description:"Write out the current config to STDOUT" no-ini:"true"`

	WriteManPage bool `hidden:"true" long:"write-man-page" description:"Write out a man page"`
}

func main() {
	var options GlobalOptions
	flagParser := flag.NewParser(&options, flag.PrintErrors)
	flagParser.Usage = "-t </path/to/targets.yaml> | -f </path/to/logfile> [optional arguments]"

	if extraArgs, err := flagParser.Parse(); err != nil || len(extraArgs) != 0 {
		fmt.Println("Error: failed to parse the command line.")
		if err != nil {
			fmt.Printf("\t%s\n", err)
		} else {
			fmt.Printf("\tUnexpected extra arguments: %s\n", strings.Join(extraArgs, " "))
		}
		usage()
		os.Exit(1)
	}
	// read the config file if present
	if options.ConfigFile != "" {
		ini := flag.NewIniParser(flagParser)
		ini.ParseAsDefaults = true
		if err := ini.ParseFile(options.ConfigFile); err != nil {
			fmt.Printf("Error: failed to parse the config file %s\n", options.ConfigFile)
			fmt.Printf("\t%s\n", err)
			usage()
			os.Exit(1)
		}
	}

	if options.Debug {
		logrus.SetLevel(logrus.DebugLevel)
	}

	setVersion()
	handleOtherModes(flagParser, options.Modes)
	sanityCheckOptions(&options)

	run(options)
}

// setVersion sets the internal version ID
func setVersion() {
	if BuildID == "" {
		version = "dev"
	} else {
		version = BuildID
	}
}

// handleOtherModes takes care of all flags that say we should just do
// something and exit rather than actually parsing logs
func handleOtherModes(fp *flag.Parser, modes OtherModes) {
	if modes.Version {
		fmt.Println("dbatools maintlog version", version)
		os.Exit(0)
	}
	if modes.Help {
		fp.WriteHelp(os.Stdout)
		fmt.Println("")
		os.Exit(0)
	}
	if modes.WriteManPage {
		fp.WriteManPage(os.Stdout)
		os.Exit(0)
	}
	if modes.WriteDefaultConfig {
		ip := flag.NewIniParser(fp)
		ip.Write(os.Stdout, flag.IniIncludeDefaults|flag.IniCommentDefaults|flag.IniIncludeComments)
		os.Exit(0)
	}
	if modes.WriteCurrentConfig {
		ip := flag.NewIniParser(fp)
		ip.Write(os.Stdout, flag.IniIncludeComments)
		os.Exit(0)
	}
}

func sanityCheckOptions(options *GlobalOptions) {
	switch {
	case options.Reqs.TargetsFile == "" && len(options.Reqs.LogFiles) == 0:
		fmt.Println("Error: must provide a targets file (-t) or at least one log file (-f).")
		usage()
		os.Exit(1)
	case options.Reqs.TargetsFile != "" && len(options.Reqs.LogFiles) != 0:
		fmt.Println("Error: -t and -f are mutually exclusive; pick one mode.")
		usage()
		os.Exit(1)
	}
}

func usage() {
	fmt.Print(`
Usage: dbatools-maintlog -t </path/to/targets.yaml> | -f </path/to/logfile> [optional arguments]

For even more detail on required and optional parameters, run
dbatools-maintlog --help
`)
}
