package main

import (
	"flag"
	"io"
)

type AppFlags struct {
	ConfigFile string
	EnvFile    string
	Watch      bool
}

// ParseFlags parses the command line. No flag is required: the config and
// .env files are searched for in the working and executable directories.
func ParseFlags(args []string, output io.Writer) (AppFlags, error) {
	fs := flag.NewFlagSet("apifileprocessor", flag.ContinueOnError)
	fs.SetOutput(output)

	configFile := fs.String("config", "", "Path to the JSON/YAML configuration file. If not set, searches default locations.")
	configFileAlias := fs.String("c", "", "Alias for -config")

	envFile := fs.String("env", "", "Path to the .env file holding API_KEY and logging overrides. If not set, searches default locations.")

	watch := fs.Bool("watch", false, "Keep running and process folders again when new files appear")
	watchAlias := fs.Bool("w", false, "Alias for -watch")

	if err := fs.Parse(args); err != nil {
		return AppFlags{}, err
	}

	flags := AppFlags{
		ConfigFile: *configFile,
		EnvFile:    *envFile,
		Watch:      *watch || *watchAlias,
	}
	if flags.ConfigFile == "" {
		flags.ConfigFile = *configFileAlias
	}
	return flags, nil
}
