package validate

import (
	"reflect"
	"testing"
)

func TestDuplicateDetectorGroups(t *testing.T) {
	d := NewDuplicateDetector()
	d.Add(1, "alpha")
	d.Add(2, "beta")
	d.Add(5, "alpha")
	d.Add(7, "gamma")
	d.Add(9, "alpha")
	d.Add(12, "beta")

	groups := d.Groups()
	want := []DuplicateGroup{
		{Rows: []int{1, 5, 9}, Content: "alpha"},
		{Rows: []int{2, 12}, Content: "beta"},
	}
	if !reflect.DeepEqual(groups, want) {
		t.Errorf("Groups() = %+v, want %+v", groups, want)
	}
}

func TestDuplicateDetectorNoDuplicates(t *testing.T) {
	d := NewDuplicateDetector()
	d.Add(1, "a")
	d.Add(2, "b")
	d.Add(3, "c")

	if groups := d.Groups(); len(groups) != 0 {
		t.Errorf("Groups() = %+v, want none", groups)
	}
}

// TestDuplicateDetectorHashCollision plants two different contents in
// the same digest bucket to prove a collision cannot produce a false
// duplicate: members are confirmed byte-identical before grouping.
func TestDuplicateDetectorHashCollision(t *testing.T) {
	d := NewDuplicateDetector()
	const digest = uint64(42)
	d.buckets[digest] = []bucketEntry{
		{row: 3, content: "first"},
		{row: 8, content: "second"},
		{row: 11, content: "first"},
	}
	d.order = append(d.order, digest)

	groups := d.Groups()
	want := []DuplicateGroup{
		{Rows: []int{3, 11}, Content: "first"},
	}
	if !reflect.DeepEqual(groups, want) {
		t.Errorf("Groups() = %+v, want %+v", groups, want)
	}
}

func TestDuplicateDetectorEmpty(t *testing.T) {
	if groups := NewDuplicateDetector().Groups(); groups != nil {
		t.Errorf("Groups() on empty detector = %+v, want nil", groups)
	}
}
