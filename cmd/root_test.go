package cmd

import (
	"bytes"
	"io/ioutil"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

func TestRootCommandHasEveryStage(t *testing.T) {
	rc := NewRootCommand(strings.NewReader(""), ioutil.Discard, ioutil.Discard)
	names := make(map[string]bool)
	for _, c := range rc.Commands() {
		names[c.Name()] = true
	}
	for _, sc := range stageCmds {
		if !names[sc.name] {
			t.Errorf("no %s subcommand", sc.name)
		}
		if Mains[sc.name] == nil {
			t.Errorf("no Main registered for %s", sc.name)
		}
	}
}

func TestSetAllConfig(t *testing.T) {
	dir := t.TempDir()
	conf := filepath.Join(dir, "cinetl.toml")
	if err := ioutil.WriteFile(conf, []byte("out-dir = \"from-file\"\nworkers = 3\n"), 0644); err != nil {
		t.Fatal(err)
	}
	tests := []struct {
		args    []string
		env     map[string]string
		outDir  string
		workers int
	}{
		{nil, nil, "data/etl", 1},
		{[]string{"--config", conf}, nil, "from-file", 3},
		{[]string{"--config", conf}, map[string]string{"CINETL_OUT_DIR": "from-env"}, "from-env", 3},
		{[]string{"--config", conf, "--out-dir", "from-flag"}, map[string]string{"CINETL_OUT_DIR": "from-env"}, "from-flag", 3},
	}
	for i, test := range tests {
		for k, v := range test.env {
			t.Setenv(k, v)
		}
		flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
		flags.String("config", "", "")
		outDir := flags.String("out-dir", "data/etl", "")
		workers := flags.Int("workers", 1, "")
		if err := flags.Parse(test.args); err != nil {
			t.Fatal(err)
		}
		if err := setAllConfig(viper.New(), flags, "CINETL"); err != nil {
			t.Fatalf("test %d: %v", i, err)
		}
		if *outDir != test.outDir || *workers != test.workers {
			t.Errorf("test %d: got out-dir %q workers %d, want %q %d", i, *outDir, *workers, test.outDir, test.workers)
		}
	}
}

func TestStageCommandFails(t *testing.T) {
	var stderr bytes.Buffer
	rc := NewRootCommand(strings.NewReader(""), ioutil.Discard, &stderr)
	rc.SetArgs([]string{"dicts", "--raw-dir", filepath.Join(t.TempDir(), "missing"), "--log-no-color"})
	if err := rc.Execute(); err == nil {
		t.Fatalf("dicts ran without a raw root")
	}
	if Mains["dicts"].RawDir == "data/raw" {
		t.Errorf("raw-dir flag not applied")
	}
}

func TestStageHelp(t *testing.T) {
	for _, sc := range stageCmds {
		t.Run(sc.name, func(t *testing.T) {
			var stderr bytes.Buffer
			rc := NewRootCommand(strings.NewReader(""), ioutil.Discard, &stderr)
			rc.SetArgs([]string{sc.name, "--help"})
			if err := rc.Execute(); err != nil {
				t.Fatalf("%s --help: %v", sc.name, err)
			}
			if !strings.Contains(stderr.String(), "--raw-dir") {
				t.Errorf("%s help lists no stage flags:\n%s", sc.name, stderr.String())
			}
		})
	}
}
