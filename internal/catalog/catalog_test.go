package catalog_test

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/myrjola/tatugym/internal/catalog"
)

func TestNew(t *testing.T) {
	c, err := catalog.New()
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	routines := c.RoutinesFor("  Jessica ")
	var ids []string
	for _, r := range routines {
		ids = append(ids, r.ID)
	}
	if diff := cmp.Diff([]string{"a", "b", "c", "d"}, ids); diff != "" {
		t.Errorf("RoutinesFor() ids mismatch (-want +got):\n%s", diff)
	}

	a, ok := c.Routine("jessica", "a")
	if !ok {
		t.Fatal("expected routine a")
	}
	want := catalog.Exercise{
		ID:          "a1",
		Name:        "Supino Reto (Halter)",
		MuscleGroup: "Peitoral",
		TargetSets:  3,
		TargetReps:  "12",
		RestSeconds: 60,
		Notes:       "",
		VideoURL:    "",
	}
	if diff := cmp.Diff(want, a.Exercises[0]); diff != "" {
		t.Errorf("first exercise mismatch (-want +got):\n%s", diff)
	}
	if got := a.TotalSets(); got != 18 {
		t.Errorf("TotalSets() = %d, want 18", got)
	}

	if got := c.RoutinesFor("stranger"); len(got) != 0 {
		t.Errorf("RoutinesFor(stranger) = %v, want none", got)
	}
	if _, ok = c.Routine("stranger", "a"); ok {
		t.Error("Routine() found a routine not assigned to the member")
	}
}

func TestCatalog_RoutinesForReturnsCopy(t *testing.T) {
	c, err := catalog.New()
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	routines := c.RoutinesFor("jessica")
	routines[0].Exercises[0].Name = "changed"
	if got := c.RoutinesFor("jessica")[0].Exercises[0].Name; got == "changed" {
		t.Error("mutating the result changed the catalog")
	}
}

func TestParse_validation(t *testing.T) {
	tests := []struct {
		name    string
		doc     string
		wantErr string
	}{
		{
			name:    "zero sets",
			doc:     "routines:\n  - id: x\n    exercises:\n      - {id: x1, sets: 0}\n",
			wantErr: "sets must be positive",
		},
		{
			name:    "negative rest",
			doc:     "routines:\n  - id: x\n    exercises:\n      - {id: x1, sets: 1, rest_seconds: -1}\n",
			wantErr: "rest must not be negative",
		},
		{
			name:    "duplicate exercise",
			doc:     "routines:\n  - id: x\n    exercises:\n      - {id: x1, sets: 1}\n      - {id: x1, sets: 1}\n",
			wantErr: "duplicate exercise id",
		},
		{
			name:    "unknown routine",
			doc:     "routines: []\nmembers:\n  ana: [z]\n",
			wantErr: "unknown routine",
		},
		{
			name:    "malformed yaml",
			doc:     "routines: [",
			wantErr: "unmarshal catalog",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := catalog.Parse([]byte(tt.doc))
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Parse() error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestExercise_SeedReps(t *testing.T) {
	tests := []struct {
		reps string
		want int
	}{
		{reps: "12", want: 12},
		{reps: "12-15", want: 12},
		{reps: "90s", want: 90},
		{reps: "máx", want: 0},
		{reps: "", want: 0},
	}
	for _, tt := range tests {
		t.Run(tt.reps, func(t *testing.T) {
			e := catalog.Exercise{TargetReps: tt.reps} //nolint:exhaustruct // only reps matter
			if got := e.SeedReps(); got != tt.want {
				t.Errorf("SeedReps() = %d, want %d", got, tt.want)
			}
		})
	}
}
