//go:build !darwin

package engine

// recomposeName is a no-op outside of Darwin, where filesystems already
// return names in the form they were created with.
func recomposeName(name string) string {
	return name
}
