package ingest

// Result holds the outcome of an ingest operation.
type Result struct {
	SessionsReceived int    `json:"sessions_received"`
	SetsReceived     int    `json:"sets_received"`
	SetsInserted     int64  `json:"sets_inserted"`
	SetsReplaced     int64  `json:"sets_replaced"`
	SetsSkipped      int64  `json:"sets_skipped"`
	UndatedSets      int    `json:"undated_sets,omitempty"`
	Message          string `json:"message,omitempty"`
}
