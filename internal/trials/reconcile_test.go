package trials

import "testing"

func recordWithID(id string) Record {
	return Normalize(RawRow{"ID": id, "Title": "Trial " + id})
}

func TestReconcile(t *testing.T) {
	existing := NewIDSet("T001", "T002")
	records := []Record{recordWithID("T001"), recordWithID("T003")}

	ops, sum := Reconcile(records, existing)

	if len(ops) != 2 {
		t.Fatalf("len(ops) = %d, want 2", len(ops))
	}
	if ops[0].Kind != OpUpdate || ops[0].ID != "T001" {
		t.Errorf("ops[0] = %s %s, want update T001", ops[0].Kind, ops[0].ID)
	}
	if ops[1].Kind != OpInsert || ops[1].ID != "T003" {
		t.Errorf("ops[1] = %s %s, want insert T003", ops[1].Kind, ops[1].ID)
	}
	if _, ok := ops[0].Record[IDColumn]; ok {
		t.Error("update record should not carry the id column")
	}
	if got := ops[1].Record.ID(); got != "T003" {
		t.Errorf("insert record id = %q, want T003", got)
	}
	if len(ops[0].Record) != len(FieldSpecs)-1 {
		t.Errorf("update record has %d columns, want %d", len(ops[0].Record), len(FieldSpecs)-1)
	}
	if sum != (Summary{Inserts: 1, Updates: 1}) {
		t.Errorf("summary = %+v, want 1 insert 1 update", sum)
	}
}

func TestReconcile_PreservesOrderAndDuplicates(t *testing.T) {
	existing := NewIDSet("T002")
	records := []Record{
		recordWithID("T005"),
		recordWithID("T002"),
		recordWithID("T005"),
		recordWithID("T002"),
	}

	ops, sum := Reconcile(records, existing)

	want := []struct {
		kind OpKind
		id   string
	}{
		{OpInsert, "T005"},
		{OpUpdate, "T002"},
		{OpInsert, "T005"},
		{OpUpdate, "T002"},
	}
	if len(ops) != len(want) {
		t.Fatalf("len(ops) = %d, want %d", len(ops), len(want))
	}
	for i, w := range want {
		if ops[i].Kind != w.kind || ops[i].ID != w.id {
			t.Errorf("ops[%d] = %s %s, want %s %s", i, ops[i].Kind, ops[i].ID, w.kind, w.id)
		}
	}
	if sum.Total() != 4 || sum.Inserts != 2 {
		t.Errorf("summary = %+v, want 2 inserts 2 updates", sum)
	}
}

func TestReconcile_UsesTrimmedID(t *testing.T) {
	ops, _ := Reconcile([]Record{recordWithID("  T001 ")}, NewIDSet("T001"))

	if ops[0].Kind != OpUpdate {
		t.Errorf("kind = %s, want update for padded id", ops[0].Kind)
	}
}

func TestReconcile_Empty(t *testing.T) {
	ops, sum := Reconcile(nil, NewIDSet("T001"))
	if len(ops) != 0 || sum.Total() != 0 {
		t.Errorf("Reconcile(nil) = %d ops %+v, want none", len(ops), sum)
	}
}
