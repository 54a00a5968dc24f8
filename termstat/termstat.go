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

// Package termstat prints stage counters to the terminal: a single status
// line refreshed while a stage runs and a summary once it is done. It is
// meant for watching runs at the terminal in lieu of an external collector.
package termstat

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/cinegraph/cinetl"
	"github.com/shirou/gopsutil/v3/process"
)

// Collector periodically writes the counters of a cinetl.Stats.
type Collector struct {
	lock  sync.Mutex
	stats *cinetl.Stats
	out   io.Writer
	last  string
	stop  chan struct{}
	done  chan struct{}
}

// NewCollector starts refreshing stats on out every interval until Stop is
// called. A non-positive interval means two seconds.
func NewCollector(out io.Writer, stats *cinetl.Stats, interval time.Duration) *Collector {
	if interval <= 0 {
		interval = time.Second * 2
	}
	ts := &Collector{
		stats: stats,
		out:   out,
		stop:  make(chan struct{}),
		done:  make(chan struct{}),
	}
	go func() {
		defer close(ts.done)
		tick := time.NewTicker(interval)
		defer tick.Stop()
		for {
			select {
			case <-tick.C:
				ts.write()
			case <-ts.stop:
				return
			}
		}
	}()
	return ts
}

// Stop ends the refresh loop and moves past the status line.
func (t *Collector) Stop() {
	close(t.stop)
	<-t.done
	t.lock.Lock()
	defer t.lock.Unlock()
	if t.last != "" {
		fmt.Fprintln(t.out)
	}
}

func (t *Collector) write() {
	sb := strings.Builder{}
	t.stats.Each(func(name string, value int64) {
		_, _ = sb.WriteString(fmt.Sprintf("%s: %d ", name, value))
	})
	t.lock.Lock()
	defer t.lock.Unlock()
	line := sb.String()
	if line == t.last {
		return
	}
	t.last = line
	fmt.Fprint(t.out, "\r"+line)
}

// Write prints the summary of a finished stage: its wall time, every
// counter in first-touch order and the resident memory of the process.
func Write(out io.Writer, stage string, stats *cinetl.Stats, elapsed time.Duration) error {
	sb := strings.Builder{}
	fmt.Fprintf(&sb, "%s finished in %v\n", stage, elapsed.Round(time.Millisecond))
	width := 0
	stats.Each(func(name string, _ int64) {
		if len(name) > width {
			width = len(name)
		}
	})
	stats.Each(func(name string, value int64) {
		fmt.Fprintf(&sb, "  %-*s %d\n", width+1, name+":", value)
	})
	if rss, ok := residentMemory(); ok {
		fmt.Fprintf(&sb, "  rss: %d MiB\n", rss>>20)
	}
	_, err := io.WriteString(out, sb.String())
	return err
}

func residentMemory() (uint64, bool) {
	p, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return 0, false
	}
	mi, err := p.MemoryInfo()
	if err != nil || mi == nil {
		return 0, false
	}
	return mi.RSS, true
}
