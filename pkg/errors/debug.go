package errors

import (
	stdErrors "errors"
	"fmt"
)

// ErrorDump is the verbose form of an error written to debug logs by the CLI. Causes lists every
// error in the unwrap chain, outermost first.
type ErrorDump struct {
	Message   string   `json:"message"`
	Code      Code     `json:"code,omitempty"`
	Retryable bool     `json:"retryable"`
	Details   any      `json:"details,omitempty"`
	Causes    []string `json:"causes,omitempty"`
}

func Dump(err error) ErrorDump {
	if err == nil {
		return ErrorDump{}
	}

	d := ErrorDump{Message: err.Error(), Code: CodeInternal}
	if typed := As(err); typed != nil {
		d.Code = typed.Code()
		d.Details = typed.Details()
	}
	d.Retryable = MetadataFor(d.Code).Retryable

	for e := err; e != nil; e = stdErrors.Unwrap(e) {
		if typed, ok := e.(*Error); ok {
			d.Causes = append(d.Causes, fmt.Sprintf("[%s] %s", typed.code, typed.message))
			continue
		}
		d.Causes = append(d.Causes, fmt.Sprintf("%T: %v", e, e))
	}
	return d
}
