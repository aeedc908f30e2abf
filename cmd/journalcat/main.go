// Command journalcat reads a journal.jsonl file and prints each decision
// record in a human-readable line, optionally following the file as it
// grows (like tail -f) — a generalization of the teacher's
// internal/state.LoadFromCSV restart-recovery reader into a standalone
// inspection tool for the journal's append-only format.
package main

import (
	"bufio"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/signalcore/signalcore/internal/model"
)

func main() {
	path := flag.String("path", "journal.jsonl", "path to the journal.jsonl file")
	follow := flag.Bool("f", false, "follow the file for new records, like tail -f")
	flag.Parse()

	f, err := os.Open(*path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "journalcat: open %s: %v\n", *path, err)
		os.Exit(1)
	}
	defer f.Close()

	reader := bufio.NewReader(f)
	for {
		line, err := reader.ReadBytes('\n')
		if len(line) > 0 {
			printRecord(line)
		}
		if err != nil {
			if err != io.EOF {
				fmt.Fprintf(os.Stderr, "journalcat: read: %v\n", err)
				os.Exit(1)
			}
			if !*follow {
				return
			}
			time.Sleep(250 * time.Millisecond)
		}
	}
}

func printRecord(line []byte) {
	var rec model.DecisionRecord
	if err := json.Unmarshal(line, &rec); err != nil {
		fmt.Fprintf(os.Stderr, "journalcat: skipping malformed line: %v\n", err)
		return
	}

	ts := time.UnixMilli(rec.DecisionTimestampUTC).UTC().Format(time.RFC3339)
	switch rec.EntryType {
	case model.EntrySignal:
		fmt.Printf("%s SIGNAL  %-10s %-5s score=%.2f entry=%s stop=%s target=%s size=%d\n",
			ts, rec.Symbol, directionStr(rec.Direction), rec.Blueprint.Score,
			rec.Blueprint.Entry, rec.Blueprint.Stop, rec.Blueprint.Target, rec.Blueprint.PositionSize)
	case model.EntryRejection:
		fmt.Printf("%s REJECT  %-10s %-5s reason=%s trace=%v\n",
			ts, rec.Symbol, directionStr(rec.Direction), rec.RejectionReason, rec.DecisionTrace)
	case model.EntryHeartbeat:
		if rec.SystemMetrics != nil {
			fmt.Printf("%s HEARTBEAT universe=%d active=%d min_depth_age_ms=%d min_tape_age_ms=%d tape_recent=%t\n",
				ts, rec.SystemMetrics.UniverseCount, rec.SystemMetrics.ActiveSubscriptions,
				rec.SystemMetrics.MinDepthUpdateAgeMS, rec.SystemMetrics.MinTapeUpdateAgeMS, rec.SystemMetrics.TapeRecent)
		}
	case model.EntryUniverseUpdate:
		if rec.UniverseUpdate != nil {
			fmt.Printf("%s UNIVERSE added=%v removed=%v\n", ts, rec.UniverseUpdate.Added, rec.UniverseUpdate.Removed)
		}
	default:
		fmt.Printf("%s %s %+v\n", ts, rec.EntryType, rec)
	}
}

func directionStr(d *model.Direction) string {
	if d == nil {
		return "-"
	}
	return d.String()
}
