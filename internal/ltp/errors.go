package ltp

import "errors"

var (
	ErrCorruptHeap        = errors.New("heap-on-node framing is malformed")
	ErrInvalidHeapAddress = errors.New("heap id does not resolve to a live allocation")
	ErrCorruptBTH         = errors.New("bth framing is malformed")
	ErrBTHKeyNotFound     = errors.New("bth key not found")
	ErrCorruptPropContext = errors.New("property context framing is malformed")
	ErrMissingProperty    = errors.New("property not present")
	ErrWrongPropertyType  = errors.New("property has a different type than requested")
	ErrCorruptTableContext = errors.New("table context framing is malformed")
	ErrUnsupportedPropertyType = errors.New("unsupported property type")
)
