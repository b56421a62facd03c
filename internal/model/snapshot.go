package model

// Snapshot is a named point in a book's history. The row with
// DeletionMarker 0 is the live snapshot at its tick; deleting it moves it to
// the next free marker so a new live snapshot can take the tick.
type Snapshot struct {
	ID             string  `json:"id"             yaml:"id"              csv:"id"`
	Owner          string  `json:"owner"          yaml:"owner"           csv:"-"`
	Book           Book    `json:"book"           yaml:"book"            csv:"book"`
	Tick           Tick    `json:"tick"           yaml:"tick"            csv:"tick"`
	DateLabel      string  `json:"date"           yaml:"date"            csv:"date"`
	NetWorth       float64 `json:"netWorth"       yaml:"net_worth"       csv:"net_worth"`
	Comment        string  `json:"comment"        yaml:"comment"         csv:"comment"`
	DeletionMarker int64   `json:"deletionMarker" yaml:"deletion_marker" csv:"-"`
}

func (s Snapshot) Deleted() bool { return s.DeletionMarker != 0 }

// SnapshotView pairs the reconstructed book at a snapshot's tick with the net
// worth that was recorded when the snapshot was taken. The two are reported
// side by side and never reconciled.
type SnapshotView struct {
	Snapshot       Snapshot `json:"snapshot"`
	View           BookView `json:"view"`
	StoredNetWorth float64  `json:"storedNetWorth"`
}

// TrendPoint is one sample of net worth over time, taken from a snapshot.
// DayOffset counts days since the first snapshot's date; it is -1 when the
// date label cannot be parsed.
type TrendPoint struct {
	Tick      Tick    `json:"tick"      csv:"tick"`
	DateLabel string  `json:"date"      csv:"date"`
	NetWorth  float64 `json:"netWorth"  csv:"net_worth"`
	DayOffset int     `json:"dayOffset" csv:"day_offset"`
}
