package trials

// OpKind tells the executor which statement to build for an operation.
type OpKind int

const (
	OpInsert OpKind = iota // id not in the snapshot: insert every column
	OpUpdate               // id already stored: update every column but id
)

// String returns "insert" or "update", as used in plan output.
func (k OpKind) String() string {
	if k == OpUpdate {
		return "update"
	}
	return "insert"
}

// IDSet is the snapshot of identifiers already stored, read once per run.
type IDSet map[string]struct{}

// NewIDSet builds an IDSet from ids.
func NewIDSet(ids ...string) IDSet {
	set := make(IDSet, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}

// Contains reports whether id is in the snapshot.
func (s IDSet) Contains(id string) bool {
	_, ok := s[id]
	return ok
}

// Operation is one planned write. Update records omit the id column; it is
// carried in ID and only used to match the row.
type Operation struct {
	Kind   OpKind
	ID     string
	Record Record
}

// Summary counts the operations in a plan.
type Summary struct {
	Inserts int `json:"inserts"`
	Updates int `json:"updates"`
}

// Total returns the number of operations.
func (s Summary) Total() int {
	return s.Inserts + s.Updates
}

// Reconcile classifies each record against existing, in input order.
// Records sharing an id are each classified against the same snapshot, so a
// new id repeated in one run produces two inserts.
func Reconcile(records []Record, existing IDSet) ([]Operation, Summary) {
	ops := make([]Operation, 0, len(records))
	var sum Summary
	for _, rec := range records {
		id := rec.ID()
		if existing.Contains(id) {
			ops = append(ops, Operation{Kind: OpUpdate, ID: id, Record: rec.Without(IDColumn)})
			sum.Updates++
			continue
		}
		ops = append(ops, Operation{Kind: OpInsert, ID: id, Record: rec})
		sum.Inserts++
	}
	return ops, sum
}
