package must

import (
	"errors"
	"fmt"

	"github.com/xeptore/flaw/v8"
)

// BeFlaw asserts err wraps a flaw record and returns it. Reaching the
// panic means an error escaped classification upstream.
func BeFlaw(err error) *flaw.Flaw {
	f := new(flaw.Flaw)
	if !errors.As(err, &f) {
		panic(fmt.Sprintf("expected error to be of type *flaw.Flaw, got error of type %T: %v", err, err))
	}
	return f
}
