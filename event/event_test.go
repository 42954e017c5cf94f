package event

import (
	"reflect"
	"testing"
)

func TestCloneIsIndependent(t *testing.T) {
	parent := Record{
		FieldDatabase: "AdventureWorks",
		"Status":      "ONLINE",
	}
	child := parent.Clone()
	child[FieldIndex] = "PK_Orders"
	child["Status"] = "RESTORING"

	if _, ok := parent[FieldIndex]; ok {
		t.Error("mutating a clone leaked a field into the parent")
	}
	if parent["Status"] != "ONLINE" {
		t.Errorf("parent Status changed to %q after clone mutation", parent["Status"])
	}

	parent["Status"] = "OFFLINE"
	if child["Status"] != "RESTORING" {
		t.Errorf("child Status changed to %q after parent mutation", child["Status"])
	}
}

func TestCloneNil(t *testing.T) {
	var r Record
	if r.Clone() != nil {
		t.Error("cloning a nil record should stay nil")
	}
}

func TestAccessors(t *testing.T) {
	r := Record{
		FieldDatabase: "AdventureWorks",
		FieldAction:   "REBUILD",
		FieldEndTime:  "2017-05-01 02:00:15",
	}
	if r.Database() != "AdventureWorks" || r.Action() != "REBUILD" || r.EndTime() != "2017-05-01 02:00:15" {
		t.Errorf("accessors returned %q/%q/%q", r.Database(), r.Action(), r.EndTime())
	}
	if r.Outcome() != "" {
		t.Errorf("missing field should read as empty, got %q", r.Outcome())
	}
}

func TestColumnsUnion(t *testing.T) {
	records := []Record{
		{FieldDatabase: "a", "PageCount": "12"},
		{FieldDatabase: "b", FieldOutcome: "Succeeded"},
		nil,
	}
	got := Columns(records)
	want := []string{"Database", "PageCount", "outcome"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Columns returned %v, want %v", got, want)
	}
}
