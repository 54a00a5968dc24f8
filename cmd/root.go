// Copyright 2017 Pilosa Corp.
//
// Redistribution and use in source and binary forms, with or without
// modification, are permitted provided that the following conditions
// are met:
//
// 1. Redistributions of source code must retain the above copyright
// notice, this list of conditions and the following disclaimer.
//
// 2. Redistributions in binary form must reproduce the above copyright
// notice, this list of conditions and the following disclaimer in the
// documentation and/or other materials provided with the distribution.
//
// 3. Neither the name of the copyright holder nor the names of its
// contributors may be used to endorse or promote products derived
// from this software without specific prior written permission.
//
// THIS SOFTWARE IS PROVIDED BY THE COPYRIGHT HOLDERS AND
// CONTRIBUTORS "AS IS" AND ANY EXPRESS OR IMPLIED WARRANTIES,
// INCLUDING, BUT NOT LIMITED TO, THE IMPLIED WARRANTIES OF
// MERCHANTABILITY AND FITNESS FOR A PARTICULAR PURPOSE ARE
// DISCLAIMED. IN NO EVENT SHALL THE COPYRIGHT HOLDER OR
// CONTRIBUTORS BE LIABLE FOR ANY DIRECT, INDIRECT, INCIDENTAL,
// SPECIAL, EXEMPLARY, OR CONSEQUENTIAL DAMAGES (INCLUDING,
// BUT NOT LIMITED TO, PROCUREMENT OF SUBSTITUTE GOODS OR
// SERVICES; LOSS OF USE, DATA, OR PROFITS; OR BUSINESS
// INTERRUPTION) HOWEVER CAUSED AND ON ANY THEORY OF LIABILITY,
// WHETHER IN CONTRACT, STRICT LIABILITY, OR TORT (INCLUDING
// NEGLIGENCE OR OTHERWISE) ARISING IN ANY WAY OUT OF THE USE
// OF THIS SOFTWARE, EVEN IF ADVISED OF THE POSSIBILITY OF SUCH
// DAMAGE.

package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/cinegraph/cinetl/zlog"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

var (
	// Version of this software - set with -ldflags -X at build time.
	Version string
	// BuildTime of this software - set with -ldflags -X at build time.
	BuildTime string
)

func setupVersionBuild() {
	if Version == "" {
		Version = "v0.0.0"
	}
	if BuildTime == "" {
		BuildTime = "not recorded"
	}
}

// env is what every subcommand shares with the root command. The loggers
// are set once flags are parsed, before any subcommand runs.
type env struct {
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
	log    *zlog.Logger
	root   *zlog.Logger
}

var subcommandFns = map[string]func(e *env) *cobra.Command{}

// NewRootCommand reads the map of subcommandFns and creates a top level cobra
// command with each of them as subcommands.
func NewRootCommand(stdin io.Reader, stdout, stderr io.Writer) *cobra.Command {
	setupVersionBuild()
	e := &env{stdin: stdin, stdout: stdout, stderr: stderr}
	logConfig := zlog.DefaultConfig()
	rc := &cobra.Command{
		Use:   "cinetl",
		Short: "cinetl - movie metadata ETL",
		Long: `Turns crawled movie metadata into relational tables with
dense surrogate ids, and loads or publishes them.

Version: ` + Version + `
Build Time: ` + BuildTime + "\n",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := loadDotEnv(".env"); err != nil {
				return err
			}
			v := viper.New()
			if err := setAllConfig(v, cmd.Flags(), "CINETL"); err != nil {
				return err
			}
			log, err := zlog.New(stderr, logConfig)
			if err != nil {
				return err
			}
			e.root, e.log = log, log.Stage(cmd.Name())
			e.log.Debugf("cinetl %s, run %s", Version, log.RunID)
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if e.root == nil {
				return nil
			}
			return e.root.Close()
		},
	}
	flags := rc.PersistentFlags()
	flags.String("config", "", "Configuration file to read from (TOML).")
	flags.BoolVarP(&logConfig.Verbose, "verbose", "v", logConfig.Verbose, "Enable debug logging.")
	flags.StringVar(&logConfig.File, "log-file", logConfig.File, "Also write JSON logs to this file, rotated by size.")
	flags.IntVar(&logConfig.MaxSize, "log-max-size", logConfig.MaxSize, "Megabytes before the log file is rotated.")
	flags.IntVar(&logConfig.MaxBackups, "log-max-backups", logConfig.MaxBackups, "Number of rotated log files to keep.")
	flags.IntVar(&logConfig.MaxAge, "log-max-age", logConfig.MaxAge, "Days to keep rotated log files.")
	flags.BoolVar(&logConfig.NoColor, "log-no-color", logConfig.NoColor, "Disable colors in console logs.")

	for _, subcomFn := range subcommandFns {
		rc.AddCommand(subcomFn(e))
	}
	rc.SetOutput(stderr)
	return rc
}

// loadDotEnv sets environment variables from path if it exists. Variables
// already set win.
func loadDotEnv(path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("loading %s: %v", path, err)
	}
	return nil
}

// setAllConfig takes a FlagSet to be the definition of all configuration
// options, as well as their defaults. It then reads from the command line, the
// environment, and a config file (if specified), and applies the configuration
// in that priority order. Since each flag in the set contains a pointer to
// where its value should be stored, setAllConfig can directly modify the value
// of each config variable.
//
// setAllConfig looks for environment variables which are capitalized versions
// of the flag names with dashes replaced by underscores, and prefixed with
// envPrefix plus an underscore.
func setAllConfig(v *viper.Viper, flags *pflag.FlagSet, envPrefix string) error {
	// add cmd line flag def to viper
	err := v.BindPFlags(flags)
	if err != nil {
		return err
	}

	// add env to viper
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	c := v.GetString("config")

	// add config file to viper
	if c != "" {
		v.SetConfigFile(c)
		v.SetConfigType("toml")
		err := v.ReadInConfig()
		if err != nil {
			return fmt.Errorf("error reading configuration file '%s': %v", c, err)
		}
	}

	// set all values from viper
	var flagErr error
	flags.VisitAll(func(f *pflag.Flag) {
		if flagErr != nil {
			return
		}
		var value string
		if f.Value.Type() == "stringSlice" {
			// special handling is needed for stringSlice as v.GetString will
			// always return "" in the case that the value is an actual string
			// slice from a config file rather than a comma separated string
			// from a flag or env var.
			vss := v.GetStringSlice(f.Name)
			value = strings.Join(vss, ",")
		} else {
			value = v.GetString(f.Name)
		}

		if f.Changed {
			// If f.Changed is true, that means the value has already been set
			// by a flag, and we don't need to ask viper for it since the flag
			// is the highest priority. This works around a problem with string
			// slices where f.Value.Set(csvString) would cause the elements of
			// csvString to be appended to the existing value rather than
			// replacing it.
			return
		}
		flagErr = f.Value.Set(value)
	})
	return flagErr
}
