package validator

import (
	"log/slog"

	"github.com/MobilityData/gtfs-validator-sub012/internal/notice"
	"github.com/MobilityData/gtfs-validator-sub012/internal/table"
)

// SafeValidate runs fn and turns a panic into a runtime_exception_in_validator
// system error on sink. It reports whether fn returned normally.
func SafeValidate(name string, sink *notice.Container, fn func()) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("validator panicked", "validator", name, "panic", r)
			sink.AddSystemError(notice.RuntimeExceptionInValidator(name, r))
			ok = false
		}
	}()
	fn()
	return true
}

// RunFile invokes a bound file validator on sink.
func RunFile(b BoundFileValidator, sink *notice.Container) bool {
	return SafeValidate(b.Name, sink, func() { b.Validator.Validate(sink) })
}

// RunEntities invokes every validator on every entity of c. A validator that
// panics is not invoked again for the remaining entities.
func RunEntities(validators []BoundEntityValidator, c *table.Container, sink *notice.Container) {
	for _, b := range validators {
		for _, e := range c.Entities() {
			if !SafeValidate(b.Name, sink, func() { b.Validator.Validate(e, sink) }) {
				break
			}
		}
	}
}
