package reactive

import (
	"github.com/vango-dev/bind/internal/errors"
)

// usage raises a usage error. Usage errors are programming mistakes that
// would otherwise corrupt graph state, so they fail loudly at the call site.
func usage(code string, format string, args ...any) {
	panic(errors.New(code).WithDetailf(format, args...))
}

// usageErr builds a usage error for return from construction.
func usageErr(code string, format string, args ...any) error {
	return errors.New(code).WithDetailf(format, args...)
}

// IsUsageError reports whether a recovered panic value is a usage error with
// the given code.
func IsUsageError(recovered any, code string) bool {
	be, ok := errors.FromRecovered(recovered)
	return ok && be.Code == code
}
