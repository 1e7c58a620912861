package topics

import "errors"

var (
	ErrEmptyCatalog  = errors.New("topic catalog must contain at least one category")
	ErrEmptyCategory = errors.New("topic category cannot be empty")
	ErrEmptyItems    = errors.New("topic category must contain at least one item")
)
