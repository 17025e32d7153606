package engine

import "github.com/chkbit-go/chkbit/pkg/chkbit/ignore"

// InputItem is a unit of work on the input queue: a directory path paired
// with the ignore scope inherited from its parent.
type InputItem struct {
	Path   string
	Parent *ignore.Scope
}
