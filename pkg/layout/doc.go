// Package layout defines the case configuration for cuttlecase.
// A Config is an immutable description of the keys on a keyboard and of
// the shell that encloses them. It is produced once (by the engine or by
// hand) and then only read by the geometry and keycap packages.
package layout
