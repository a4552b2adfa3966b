package schema

// Diagnostics records what extraction and sampling silently dropped.
type Diagnostics struct {
	SkippedTables        []string `json:"skipped_tables,omitempty"`
	SkippedSampleTables  []string `json:"skipped_sample_tables,omitempty"`
	DroppedForeignKeys   int      `json:"dropped_foreign_keys,omitempty"`
	CorruptedCacheReads  int      `json:"corrupted_cache_reads,omitempty"`
	InvalidHistoryTurns  int      `json:"invalid_history_turns,omitempty"`
	SampleListingSkipped bool     `json:"sample_listing_skipped,omitempty"`
}

// Merge folds other into d.
func (d *Diagnostics) Merge(other Diagnostics) {
	d.SkippedTables = append(d.SkippedTables, other.SkippedTables...)
	d.SkippedSampleTables = append(d.SkippedSampleTables, other.SkippedSampleTables...)
	d.DroppedForeignKeys += other.DroppedForeignKeys
	d.CorruptedCacheReads += other.CorruptedCacheReads
	d.InvalidHistoryTurns += other.InvalidHistoryTurns
	d.SampleListingSkipped = d.SampleListingSkipped || other.SampleListingSkipped
}

// Empty reports whether nothing was dropped.
func (d Diagnostics) Empty() bool {
	return len(d.SkippedTables) == 0 &&
		len(d.SkippedSampleTables) == 0 &&
		d.DroppedForeignKeys == 0 &&
		d.CorruptedCacheReads == 0 &&
		d.InvalidHistoryTurns == 0 &&
		!d.SampleListingSkipped
}
