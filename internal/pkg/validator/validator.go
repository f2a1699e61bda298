package validator

// Validator validates structs using their `validate` tags.
type Validator interface {
	// Validate returns a V10ValidationError (or another error) when data is invalid.
	Validate(data any) error
}
