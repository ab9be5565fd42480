package hr

import "errors"

// Error kinds for the restore pipeline. Per-item errors (folder or file) are
// wrapped with one of these and downgraded to a skip or a recorded failure.
// Only ErrConfiguration is fatal.
var (
	// ErrFolderCorrupt means a history folder's descriptor is missing, unreadable or malformed.
	ErrFolderCorrupt = errors.New("history folder corrupt")

	// ErrPathUnresolvable means a resource locator could not be decoded into a usable path.
	ErrPathUnresolvable = errors.New("path unresolvable")

	// ErrRestoreIO means copying one selected file to the sink failed.
	ErrRestoreIO = errors.New("restore failed")

	// ErrInvalidPath means a relative path would escape the output root.
	ErrInvalidPath = errors.New("invalid relative path")

	// ErrConfiguration covers missing target paths, bad timestamps and unreadable history roots.
	ErrConfiguration = errors.New("configuration error")
)
