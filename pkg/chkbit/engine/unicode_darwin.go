package engine

import "golang.org/x/text/unicode/norm"

// recomposeName converts a directory entry name from the NFD form HFS+ and
// APFS hand back through os.ReadDir into NFC, so index keys are stable
// regardless of which volume a directory was created on.
func recomposeName(name string) string {
	return norm.NFC.String(name)
}
