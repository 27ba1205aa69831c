package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"onepersonleft.ai/internal/persistence/journal"
	"onepersonleft.ai/internal/session"
	"onepersonleft.ai/internal/share"
	"onepersonleft.ai/internal/sim/engine"
	"onepersonleft.ai/internal/sim/tuning"
)

func main() {
	var (
		scenarioPath = flag.String("scenario", "", "path to scenario yaml")
		tuningPath   = flag.String("tuning", "", "path to tuning.yaml (default: built-in tables)")
		journalOut   = flag.String("journal", "", "write the scenario run to this .jsonl.zst journal (optional)")
		verifyPath   = flag.String("verify", "", "re-run a .jsonl.zst journal and check every step digest")
		token        = flag.String("token", "", "decode a share token and print its summary")
		events       = flag.Int("events", 5, "number of trailing events to print (-1 for all)")
	)
	flag.Parse()

	e, err := buildEngine(*tuningPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "engine:", err)
		os.Exit(1)
	}

	switch {
	case strings.TrimSpace(*token) != "":
		st, err := share.Decode(*token)
		if err != nil {
			fmt.Fprintln(os.Stderr, "decode token:", err)
			os.Exit(1)
		}
		writeSummary(os.Stdout, st, *events)

	case *verifyPath != "":
		h, entries, err := journal.Read(*verifyPath)
		if err != nil {
			fmt.Fprintln(os.Stderr, "read journal:", err)
			os.Exit(1)
		}
		st, checked, err := journal.Verify(e, h, entries)
		if err != nil {
			fmt.Fprintln(os.Stderr, "verify:", err)
			os.Exit(1)
		}
		fmt.Printf("journal ok: checked=%d steps seed=%q\n", checked, h.Seed)
		writeSummary(os.Stdout, st, *events)

	case *scenarioPath != "":
		if err := runScenario(e, *scenarioPath, *journalOut, *events); err != nil {
			fmt.Fprintln(os.Stderr, "replay:", err)
			os.Exit(1)
		}

	default:
		fmt.Fprintln(os.Stderr, "missing -scenario, -verify or -token")
		os.Exit(2)
	}
}

func buildEngine(path string) (*engine.Engine, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return engine.Default(), nil
	}
	t, err := tuning.Load(path)
	if err != nil {
		return nil, err
	}
	return engine.New(t)
}

func runScenario(e *engine.Engine, path, journalOut string, events int) error {
	sc, err := LoadScenario(path)
	if err != nil {
		return err
	}
	steps, err := sc.Actions()
	if err != nil {
		return err
	}

	first := session.Replay(e, sc.Seed, steps)
	second := session.Replay(e, sc.Seed, steps)
	if a, b := engine.Digest(first), engine.Digest(second); a != b {
		return fmt.Errorf("nondeterministic run: digest %s != %s", a, b)
	}
	if journalOut != "" {
		st, err := journal.Write(journalOut, e, e.NewState(sc.Seed), steps)
		if err != nil {
			return fmt.Errorf("write journal: %w", err)
		}
		if engine.Digest(st) != engine.Digest(first) {
			return fmt.Errorf("journal run diverged from replay")
		}
	}

	tok, err := share.Encode(first)
	if err != nil {
		return err
	}
	fmt.Printf("replay ok: steps=%d deterministic\n", len(steps))
	writeSummary(os.Stdout, first, events)
	fmt.Printf("token: %s\n", tok)
	return nil
}
