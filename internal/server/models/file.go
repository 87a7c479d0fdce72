package models

// File describes one uploaded object within a session. The bytes themselves
// live in object storage under StorageKey; this row is metadata only.
type File struct {
	// ID is the per-file download key.
	ID string `json:"id"`
	// SessionID links the file to its owning session.
	SessionID string `json:"sessionId"`
	// Name is the original file name, for display only.
	Name string `json:"name"`
	// Size is the byte count, used for quota accounting and display.
	Size int64 `json:"size"`
	// Path is the relative path preserving folder structure; equals Name for
	// flat uploads. Also used as the archive entry name.
	Path string `json:"path"`
	// StorageKey is the object-storage key of the blob. No two files ever
	// share a storage key.
	StorageKey string `json:"storageKey"`
	// Downloads counts successful single-file retrievals. Bulk archive
	// downloads do not touch it.
	Downloads int64 `json:"downloads"`
	// Position is the file's index in the original upload order. Archive
	// entries are emitted in this order.
	Position int `json:"-"`
}
