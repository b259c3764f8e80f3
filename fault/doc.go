// Package fault - error instances
//
// Provides a single instance of errors to allow easy comparison with
// errors.Is, and the mapping from an error to the status code reported
// to the user.
package fault
