package event_bus

const (
	ProcessSkippedType EventType = "report.process.skipped"
	ReportWrittenType  EventType = "report.written"
)

// ProcessSkipped is published for every process left out of a month's report.
type ProcessSkipped struct {
	RunID   string
	Month   string
	Process string
	Reason  string
}

// ReportWritten is published once the report file of a run is on disk.
type ReportWritten struct {
	RunID string
	// Month is formatted YYYY-MM.
	Month string
	Path  string
	Rows  int
}
