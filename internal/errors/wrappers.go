package errors

import "fmt"

// SyntaxError represents a malformed annotation or parameter list
type SyntaxError struct {
	*BaseError
	Token    string // the text that caused the error
	Position int    // byte offset in the input where the error occurred
}

// NewSyntaxErrorWithToken creates a syntax error with token information
func NewSyntaxErrorWithToken(message, token string, position int) *SyntaxError {
	if token != "" {
		message = fmt.Sprintf("%s (near '%s')", message, token)
	}

	return &SyntaxError{
		BaseError: New(SyntaxErrorCode, message),
		Token:     token,
		Position:  position,
	}
}

// WithLocation adds location information to the error
func (e *SyntaxError) WithLocation(loc SourceLocation) *SyntaxError {
	e.BaseError.WithLocation(loc)
	return e
}

// WithSuggestion adds a helpful suggestion
func (e *SyntaxError) WithSuggestion(suggestion string) *SyntaxError {
	e.BaseError.WithSuggestion(suggestion)
	return e
}

// WithCause adds an underlying error cause
func (e *SyntaxError) WithCause(cause error) *SyntaxError {
	e.BaseError.WithCause(cause)
	return e
}

// WrapExtractError wraps a failure to extract metadata from a source file
func WrapExtractError(file string, cause error) *BaseError {
	return Wrap(ExtractionErrorCode, "failed to extract route metadata", cause).
		WithContext("file", file)
}

// WrapFileSystemError wraps file system related errors
func WrapFileSystemError(operation, path string, cause error) *BaseError {
	message := fmt.Sprintf("failed to %s '%s'", operation, path)
	return Wrap(FileSystemErrorCode, message, cause).
		WithContext("operation", operation).
		WithContext("path", path)
}

// WrapConfigurationError wraps configuration-related errors
func WrapConfigurationError(configType, operation string, cause error) *BaseError {
	message := fmt.Sprintf("failed to %s configuration '%s'", operation, configType)
	return Wrap(ConfigurationErrorCode, message, cause).
		WithContext("config_type", configType).
		WithContext("operation", operation)
}

// BindError is a failure to turn extracted metadata into routes
type BindError struct {
	*BaseError
	Controller string // definition being bound
	Method     string // handler method, empty for controller-level errors
}

// NewBindError wraps cause as a binding failure for a controller method
func NewBindError(controller, method string, cause error) *BindError {
	return &BindError{
		BaseError:  Wrap(BindingErrorCode, "cannot bind", cause),
		Controller: controller,
		Method:     method,
	}
}

// WithLocation adds location information to the error
func (e *BindError) WithLocation(loc SourceLocation) *BindError {
	e.BaseError.WithLocation(loc)
	return e
}

// WithSuggestion adds a helpful suggestion
func (e *BindError) WithSuggestion(suggestion string) *BindError {
	e.BaseError.WithSuggestion(suggestion)
	return e
}
