// Package catalog is the read-only table of workout routines assigned to each gym member.
package catalog

import (
	_ "embed"
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"gopkg.in/yaml.v3"
)

//go:embed routines.yaml
var routinesDocument []byte

// Exercise is a catalog entry describing what to perform. It is never mutated.
type Exercise struct {
	ID          string `yaml:"id"`
	Name        string `yaml:"name"`
	MuscleGroup string `yaml:"muscle_group"`
	TargetSets  int    `yaml:"sets"`
	// TargetReps is free-form: "12", "12-15" or a duration like "90s".
	TargetReps  string `yaml:"reps"`
	RestSeconds int    `yaml:"rest_seconds"`
	Notes       string `yaml:"notes"`
	VideoURL    string `yaml:"video_url"`
}

// SeedReps returns the leading integer of TargetReps, or 0 when it does not start with a number.
func (e Exercise) SeedReps() int {
	end := strings.IndexFunc(e.TargetReps, func(r rune) bool { return !unicode.IsDigit(r) })
	digits := e.TargetReps
	if end >= 0 {
		digits = e.TargetReps[:end]
	}
	n, err := strconv.Atoi(digits)
	if err != nil {
		return 0
	}
	return n
}

type Routine struct {
	ID          string     `yaml:"id"`
	Title       string     `yaml:"title"`
	Description string     `yaml:"description"`
	Color       string     `yaml:"color"`
	Exercises   []Exercise `yaml:"exercises"`
}

// Exercise looks up an exercise of the routine by id.
func (r Routine) Exercise(id string) (Exercise, bool) {
	for _, e := range r.Exercises {
		if e.ID == id {
			return e, true
		}
	}
	return Exercise{}, false
}

// TotalSets is the number of sets in a full session of the routine.
func (r Routine) TotalSets() int {
	total := 0
	for _, e := range r.Exercises {
		total += e.TargetSets
	}
	return total
}

type document struct {
	Routines []Routine          `yaml:"routines"`
	Members  map[string][]string `yaml:"members"`
}

// Catalog maps usernames to their ordered routines.
type Catalog struct {
	byMember map[string][]Routine
}

// New parses the built-in routine catalog.
func New() (*Catalog, error) {
	return Parse(routinesDocument)
}

// Parse builds a catalog from a YAML document with top-level "routines" and "members" keys.
func Parse(data []byte) (*Catalog, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("unmarshal catalog: %w", err)
	}
	if err := doc.validate(); err != nil {
		return nil, fmt.Errorf("validate catalog: %w", err)
	}

	byID := make(map[string]Routine, len(doc.Routines))
	for _, r := range doc.Routines {
		byID[r.ID] = r
	}
	byMember := make(map[string][]Routine, len(doc.Members))
	for member, ids := range doc.Members {
		routines := make([]Routine, 0, len(ids))
		for _, id := range ids {
			routines = append(routines, byID[id])
		}
		byMember[normalize(member)] = routines
	}
	return &Catalog{byMember: byMember}, nil
}

func (d document) validate() error {
	routineIDs := make(map[string]bool, len(d.Routines))
	exerciseIDs := make(map[string]bool)
	for _, r := range d.Routines {
		if r.ID == "" {
			return fmt.Errorf("routine %q has no id", r.Title)
		}
		if routineIDs[r.ID] {
			return fmt.Errorf("duplicate routine id %q", r.ID)
		}
		routineIDs[r.ID] = true
		for _, e := range r.Exercises {
			switch {
			case e.ID == "":
				return fmt.Errorf("routine %q: exercise %q has no id", r.ID, e.Name)
			case exerciseIDs[e.ID]:
				return fmt.Errorf("duplicate exercise id %q", e.ID)
			case e.TargetSets <= 0:
				return fmt.Errorf("exercise %q: sets must be positive, got %d", e.ID, e.TargetSets)
			case e.RestSeconds < 0:
				return fmt.Errorf("exercise %q: rest must not be negative, got %d", e.ID, e.RestSeconds)
			}
			exerciseIDs[e.ID] = true
		}
	}
	for member, ids := range d.Members {
		for _, id := range ids {
			if !routineIDs[id] {
				return fmt.Errorf("member %q: unknown routine %q", member, id)
			}
		}
	}
	return nil
}

// RoutinesFor returns the routines assigned to username in display order. Unknown members get none.
func (c *Catalog) RoutinesFor(username string) []Routine {
	routines := c.byMember[normalize(username)]
	out := make([]Routine, len(routines))
	for i, r := range routines {
		r.Exercises = append([]Exercise(nil), r.Exercises...)
		out[i] = r
	}
	return out
}

// Routine returns the routine id if it is assigned to username.
func (c *Catalog) Routine(username, id string) (Routine, bool) {
	for _, r := range c.RoutinesFor(username) {
		if r.ID == id {
			return r, true
		}
	}
	return Routine{}, false
}

func normalize(username string) string {
	return strings.ToLower(strings.TrimSpace(username))
}
