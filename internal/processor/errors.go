package processor

import "fmt"

type FailureKind int

const (
	UnsupportedFormat FailureKind = iota + 1
	InvalidSpec
	IOFailure
)

func (k FailureKind) String() string {
	switch k {
	case UnsupportedFormat:
		return "unsupported format"
	case InvalidSpec:
		return "invalid spec"
	case IOFailure:
		return "io failure"
	default:
		return "unknown failure"
	}
}

// ItemError is the classified failure of a single source item.
type ItemError struct {
	Kind    FailureKind
	Path    string
	Message string
	Err     error
}

func (e *ItemError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *ItemError) Unwrap() error {
	return e.Err
}

func itemErr(kind FailureKind, path, msg string, err error) *ItemError {
	return &ItemError{Kind: kind, Path: path, Message: msg, Err: err}
}

// ConfigError stops a batch before any item is touched.
type ConfigError struct {
	Field   string
	Message string
	Err     error
}

func (e *ConfigError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("invalid %s: %s: %v", e.Field, e.Message, e.Err)
	}
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

// SpecificationError reports size or scale text that cannot be resolved.
type SpecificationError struct {
	Message string
}

func (e *SpecificationError) Error() string {
	return e.Message
}
