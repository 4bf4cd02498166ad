package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/AndreaOrru/gilgamesh/analysis"
	"github.com/AndreaOrru/gilgamesh/cpu65816"
	"github.com/AndreaOrru/gilgamesh/render"
)

var (
	romPath = flag.String("rom", "", "Path to the ROM image to analyze.")
	jsonOut = flag.Bool("json", false, "Print subroutines as JSON instead of a text listing.")
	entries entryFlags
)

func init() {
	flag.Var(&entries, "entry", "Extra entry point as label:pc:m,x,e (hex pc, e.g. nmi:8100:1,1,0). Repeatable.")
}

func main() {
	log.SetFlags(0)
	flag.Parse()

	if *romPath == "" {
		log.Println("Usage: snesdis -rom <path> [-entry label:pc:m,x,e]... [-json]")
		flag.PrintDefaults()
		os.Exit(1)
	}

	a, err := analysis.FromPath(*romPath)
	if err != nil {
		log.Fatalf("Couldn't load ROM: %v", err)
	}
	for _, e := range entries {
		a.AddEntryPoint(e.label, e.pc, e.state)
	}

	log.Printf("Analyzing %s (%s)...", *romPath, a.ROM.Mapping())
	a.Run()

	if *jsonOut {
		if err := printJSON(a); err != nil {
			log.Fatalf("Couldn't render JSON: %v", err)
		}
		return
	}
	fmt.Print(render.Listing(a))
}

// jsonSubroutine is the wire shape for -json output: exported fields only,
// independent of the analysis package's internal representation.
type jsonSubroutine struct {
	PC                  string   `json:"pc"`
	Label               string   `json:"label"`
	Instructions        int      `json:"instruction_count"`
	KnownStateChanges   []string `json:"known_state_changes"`
	UnknownStateChanges []string `json:"unknown_state_changes"`
}

func printJSON(a *analysis.Analysis) error {
	subs := a.Subroutines()
	out := make([]jsonSubroutine, 0, len(subs))
	for _, sub := range subs {
		js := jsonSubroutine{
			PC:           sub.PC.String(),
			Label:        sub.Label,
			Instructions: len(sub.Instructions),
		}
		for _, c := range sub.KnownStateChanges {
			js.KnownStateChanges = append(js.KnownStateChanges, formatChange(c))
		}
		for _, c := range sub.UnknownStateChanges {
			js.UnknownStateChanges = append(js.UnknownStateChanges, c.Reason.String())
		}
		out = append(out, js)
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func formatChange(c analysis.StateChange) string {
	var parts []string
	if c.M != nil {
		parts = append(parts, fmt.Sprintf("m=%v", *c.M))
	}
	if c.X != nil {
		parts = append(parts, fmt.Sprintf("x=%v", *c.X))
	}
	if c.E != nil {
		parts = append(parts, fmt.Sprintf("e=%v", *c.E))
	}
	return strings.Join(parts, ",")
}

// entry is one -entry flag occurrence: label:pc:m,x,e.
type entry struct {
	label string
	pc    analysis.PC
	state cpu65816.State
}

type entryFlags []entry

func (f *entryFlags) String() string {
	parts := make([]string, len(*f))
	for i, e := range *f {
		parts[i] = e.label
	}
	return strings.Join(parts, ",")
}

func (f *entryFlags) Set(value string) error {
	fields := strings.Split(value, ":")
	if len(fields) != 3 {
		return fmt.Errorf("entry %q: want label:pc:m,x,e", value)
	}
	pc, err := strconv.ParseUint(strings.TrimPrefix(fields[1], "0x"), 16, 32)
	if err != nil {
		return fmt.Errorf("entry %q: bad pc: %w", value, err)
	}
	flags := strings.Split(fields[2], ",")
	if len(flags) != 3 {
		return fmt.Errorf("entry %q: want m,x,e flags", value)
	}
	m, err := strconv.ParseBool(flags[0])
	if err != nil {
		return fmt.Errorf("entry %q: bad m flag: %w", value, err)
	}
	x, err := strconv.ParseBool(flags[1])
	if err != nil {
		return fmt.Errorf("entry %q: bad x flag: %w", value, err)
	}
	e, err := strconv.ParseBool(flags[2])
	if err != nil {
		return fmt.Errorf("entry %q: bad e flag: %w", value, err)
	}

	*f = append(*f, entry{
		label: fields[0],
		pc:    analysis.PC(pc),
		state: cpu65816.NewState(m, x, e),
	})
	return nil
}
