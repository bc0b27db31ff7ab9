package constants

// FileStatus is the canonical per-file lifecycle state in the pipeline.
type FileStatus string

// Stable values (logged and reported exactly as written).
const (
	FileStatusDiscovered  FileStatus = "DISCOVERED"  // event or scan produced the path
	FileStatusStable      FileStatus = "STABLE"      // size/mtime unchanged across the debounce window
	FileStatusHashing     FileStatus = "HASHING"     // computing the full-file SHA-256
	FileStatusGated       FileStatus = "GATED"       // ledger checked; proceed or skip
	FileStatusExtracting  FileStatus = "EXTRACTING"  // text acquisition + field extraction
	FileStatusMerging     FileStatus = "MERGING"     // reconciling extractor outputs
	FileStatusDispatching FileStatus = "DISPATCHING" // delivering to sinks
	FileStatusCommitted   FileStatus = "COMMITTED"   // recorded in the ledger (or skipped as duplicate)
	FileStatusFailed      FileStatus = "FAILED"      // terminal failure; not recorded in the ledger
)
