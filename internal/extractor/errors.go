package extractor

import "fmt"

// OpenError reports a source video that could not be opened: missing file,
// unsupported codec, or corrupt container. Fatal to the job, never retried.
type OpenError struct {
	Path string
	Err  error
}

func (e *OpenError) Error() string {
	return fmt.Sprintf("cannot open video %s: %v", e.Path, e.Err)
}

func (e *OpenError) Unwrap() error {
	return e.Err
}
