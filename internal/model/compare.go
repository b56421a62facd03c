package model

// MaxCompared is the largest number of snapshots compared side by side.
const MaxCompared = 5

// Cell is one value in a comparison matrix. Absent is set when the item had
// no live version at the column's tick; that is different from a value of 0.
type Cell struct {
	Value  float64 `json:"value"`
	Absent bool    `json:"absent"`
}

// Row is one logical item across the compared snapshots.
type Row struct {
	OriginAt Tick   `json:"originAt"`
	Name     string `json:"name"`
	Category string `json:"category"`
	Cells    []Cell `json:"cells"`
}

// Column describes one compared snapshot.
type Column struct {
	SnapshotID string `json:"snapshotId"`
	Tick       Tick   `json:"tick"`
	DateLabel  string `json:"date"`
}

// Matrix holds one section of a comparison.
type Matrix struct {
	Section Section   `json:"section"`
	Rows    []Row     `json:"rows"`
	Totals  []float64 `json:"totals"`
}

// Comparison lays the selected snapshots out side by side. Columns are in
// chronological order; Net[i] is the positive total minus the negative total
// of column i.
type Comparison struct {
	Book     Book      `json:"book"`
	Columns  []Column  `json:"columns"`
	Positive Matrix    `json:"positive"`
	Negative Matrix    `json:"negative"`
	Net      []float64 `json:"net"`
}

// Selection is the parsed form of a user's "1 3 5" style snapshot pick.
// Indices are 0-based. Warnings carry one message per rejected token.
type Selection struct {
	Indices  []int    `json:"indices"`
	Warnings []string `json:"warnings,omitempty"`
}
