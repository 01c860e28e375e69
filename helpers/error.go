package helpers

import (
	"strings"

	"github.com/juju/errors"
)

// FoldErrors joins non-nil errors into one, or nil when there are none.
func FoldErrors(errs []error) error {
	ss := make([]string, 0, len(errs))
	for _, e := range errs {
		if e != nil {
			ss = append(ss, e.Error())
		}
	}
	switch len(ss) {
	case 0:
		return nil
	case 1:
		for _, e := range errs {
			if e != nil {
				return e
			}
		}
	}
	return errors.New(strings.Join(ss, "\n"))
}
