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
	"time"

	"github.com/cinegraph/cinetl"
	"github.com/cinegraph/cinetl/etl"
	"github.com/jaffee/commandeer"
	"github.com/spf13/cobra"
)

// stageCmd describes the subcommand for one etl.Main stage.
type stageCmd struct {
	name  string
	short string
	run   func(m *etl.Main) (*cinetl.Stats, error)
}

func runAll(m *etl.Main) (*cinetl.Stats, error) {
	return nil, m.Run()
}

var stageCmds = []stageCmd{
	{"fix-regions", "recompute person birth regions from the raw birth place", (*etl.Main).FixRegions},
	{"seeds", "score persons and write the seed list", (*etl.Main).Seeds},
	{"partition", "print the seed ids one crawler worker should fetch", (*etl.Main).Partition},
	{"dicts", "write the genre, language, region, festival and award dictionaries", (*etl.Main).Dicts},
	{"staging", "write the natural key bridge and award staging tables", (*etl.Main).Staging},
	{"entities", "write the movie and person tables", (*etl.Main).Entities},
	{"credits", "write the position dictionary and the cast and crew credits", (*etl.Main).Credits},
	{"users", "write the user table and the rating and watch record staging tables", (*etl.Main).Users},
	{"bridges", "write the genre, region and language bridge tables", (*etl.Main).Bridges},
	{"awards", "write the award record table", (*etl.Main).Awards},
	{"app-users", "write the application user table", (*etl.Main).AppUsers},
	{"ratings", "write the rating table", (*etl.Main).Ratings},
	{"watching", "write the watch record table", (*etl.Main).Watching},
	{"run", "run every table stage from dicts to watching", runAll},
	{"load", "copy the tables into Postgres", (*etl.Main).Load},
	{"publish", "upload the tables to S3", (*etl.Main).Publish},
}

// Mains holds the etl.Main of every stage subcommand by name. It is only
// exported for testing purposes.
var Mains = map[string]*etl.Main{}

// newStageCommand returns a cobra command running sc with flags for every
// etl.Main option.
func newStageCommand(sc stageCmd, e *env) *cobra.Command {
	m := etl.NewMain()
	Mains[sc.name] = m
	c := &cobra.Command{
		Use:   sc.name,
		Short: sc.name + " - " + sc.short,
		RunE: func(cmd *cobra.Command, args []string) error {
			start := time.Now()
			m.SetLogger(e.log)
			m.SetOutput(e.stdout, e.stderr)
			if _, err := sc.run(m); err != nil {
				return err
			}
			e.log.Debugf("%s done in %v", sc.name, time.Since(start))
			return nil
		},
	}
	err := commandeer.Flags(c.Flags(), m)
	if err != nil {
		panic(err)
	}
	return c
}

func init() {
	for _, sc := range stageCmds {
		sc := sc
		subcommandFns[sc.name] = func(e *env) *cobra.Command {
			return newStageCommand(sc, e)
		}
	}
}
