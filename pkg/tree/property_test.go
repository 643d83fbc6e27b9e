package tree

import (
	"errors"
	"fmt"
	"math"
	"slices"
	"testing"

	"pgregory.net/rapid"
)

// genRecords draws a random valid tree in random input order.
func genRecords(t *rapid.T) []Record {
	n := rapid.IntRange(1, 60).Draw(t, "n")
	records := make([]Record, n)
	records[0] = rec("n0", "")
	for i := 1; i < n; i++ {
		p := rapid.IntRange(0, i-1).Draw(t, fmt.Sprintf("parent%d", i))
		records[i] = rec(fmt.Sprintf("n%d", i), fmt.Sprintf("n%d", p))
	}
	return rapid.Permutation(records).Draw(t, "order")
}

func TestPropertyCounts(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		records := genRecords(t)
		tr, err := Build(records, Options{})
		if err != nil {
			t.Fatalf("Build: %v", err)
		}
		if tr.Len() != len(records) {
			t.Fatalf("Len = %d, want %d", tr.Len(), len(records))
		}
		if tr.Root.TotalCount != len(records)-1 {
			t.Fatalf("root total = %d, want %d", tr.Root.TotalCount, len(records)-1)
		}
	})
}

func TestPropertyRootCount(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		records := genRecords(t)

		extra := append(slices.Clone(records), rec("another-root", ""))
		if _, err := Build(extra, Options{}); !errors.Is(err, ErrMultipleRoots) {
			t.Fatalf("two roots: err = %v", err)
		}

		if len(records) < 2 {
			return
		}
		// Hang the root under one of its descendants: no root remains and
		// every chain loops.
		rootless := slices.Clone(records)
		var leaf string
		for _, r := range rootless {
			if r.ParentID != "" {
				leaf = r.ID
			}
		}
		for i := range rootless {
			if rootless[i].ParentID == "" {
				rootless[i].ParentID = leaf
			}
		}
		if _, err := Build(rootless, Options{}); !errors.Is(err, ErrNoRoot) {
			t.Fatalf("no root: err = %v", err)
		}
	})
}

func TestPropertyCycleBesideRoot(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		records := genRecords(t)
		k := rapid.IntRange(1, 10).Draw(t, "cycleLen")
		for i := 0; i < k; i++ {
			records = append(records, rec(fmt.Sprintf("c%d", i), fmt.Sprintf("c%d", (i+1)%k)))
		}
		if _, err := Build(records, Options{}); !errors.Is(err, ErrCycle) {
			t.Fatalf("err = %v, want ErrCycle", err)
		}
	})
}

func TestPropertyDoubleToggle(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		tr, err := Build(genRecords(t), Options{})
		if err != nil {
			t.Fatal(err)
		}
		InitialCollapse(tr.Root)
		nodes := tr.Nodes()

		// Put the tree in a random state first.
		for _, i := range rapid.SliceOfN(rapid.IntRange(0, len(nodes)-1), 0, 10).Draw(t, "noise") {
			Toggle(nodes[i])
		}

		n := rapid.SampledFrom(nodes).Draw(t, "node")
		before := ids(n.Children())
		hiddenBefore := ids(n.HiddenChildren())
		state := n.State()

		Toggle(n)
		if len(n.Children()) > 0 && len(n.HiddenChildren()) > 0 {
			t.Fatalf("%s has visible and hidden children", n.ID)
		}
		Toggle(n)

		if !slices.Equal(ids(n.Children()), before) || !slices.Equal(ids(n.HiddenChildren()), hiddenBefore) {
			t.Fatalf("%s children changed after double toggle", n.ID)
		}
		if n.State() != state {
			t.Fatalf("%s state %v, want %v", n.ID, n.State(), state)
		}
	})
}

func TestPropertyDirectCountStable(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		tr, err := Build(genRecords(t), Options{})
		if err != nil {
			t.Fatal(err)
		}
		want := make(map[string]int)
		for _, n := range tr.Nodes() {
			want[n.ID] = n.DirectCount
		}
		nodes := tr.Nodes()
		for _, i := range rapid.SliceOfN(rapid.IntRange(0, len(nodes)-1), 1, 20).Draw(t, "toggles") {
			Toggle(nodes[i])
		}
		for _, n := range nodes {
			if n.DirectCount != want[n.ID] {
				t.Fatalf("%s direct count %d, want %d", n.ID, n.DirectCount, want[n.ID])
			}
		}
	})
}

func TestPropertyNoOverlap(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		tr, err := Build(genRecords(t), Options{})
		if err != nil {
			t.Fatal(err)
		}
		nodes := tr.Nodes()
		for _, i := range rapid.SliceOfN(rapid.IntRange(0, len(nodes)-1), 0, 20).Draw(t, "toggles") {
			Toggle(nodes[i])
		}
		tr.Layout()

		pitchX, _ := tr.Pitch()
		rows := make(map[int][]float64)
		for _, n := range tr.Visible() {
			rows[n.Depth] = append(rows[n.Depth], n.X)
		}
		for depth, xs := range rows {
			slices.Sort(xs)
			for i := 1; i < len(xs); i++ {
				if xs[i]-xs[i-1] < pitchX-1e-9 {
					t.Fatalf("row %d: centres %v and %v closer than %v", depth, xs[i-1], xs[i], pitchX)
				}
			}
		}
		if math.Abs(tr.Root.X) > 1e-9 || tr.Root.Y != 0 {
			t.Fatalf("root at %v,%v", tr.Root.X, tr.Root.Y)
		}
	})
}
