package boxes

// Record is the persisted shape of one free-floating box. All geometry is
// a percentage of the parent panel region at capture time, rounded to
// three decimals when it crosses the persistence boundary.
type Record struct {
	ID     string  `json:"id"`
	Left   float64 `json:"left"`
	Top    float64 `json:"top"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
	Title  string  `json:"title"`
}

// RecordStore is the slice of the persistence façade the box model needs.
// LoadRecords must return an empty map (never an error) when the stored
// value is absent or malformed.
type RecordStore interface {
	LoadBoxRecords() map[string]Record
	SaveBoxRecords(map[string]Record)
}
