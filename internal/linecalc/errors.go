package linecalc

import "errors"

var (
	ErrUnknownField        = errors.New("unknown_field")
	ErrUnknownEvent        = errors.New("unknown_event")
	ErrLineIndexOutOfRange = errors.New("line_index_out_of_range")
)
