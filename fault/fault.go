package fault

import "errors"

// error base
type GenericError string

// to allow for different classes of errors
type FileError GenericError
type InvalidError GenericError
type MemoryError GenericError
type StateError GenericError

// common errors - keep in alphabetic order
var (
	ErrCategoryLimit     = InvalidError("category limit reached")
	ErrCategoryNotFound  = InvalidError("category not found")
	ErrCorruptChain      = FileError("block chain is corrupt")
	ErrCorruptDataFile   = FileError("data file is corrupt")
	ErrCorruptIndex      = FileError("index file is corrupt")
	ErrCorruptIVFile     = FileError("iv file is corrupt")
	ErrCorruptKeyFile    = FileError("data key file is corrupt")
	ErrDataFileFull      = InvalidError("data file is full")
	ErrEmptyName         = InvalidError("name is empty")
	ErrEmptyPassword     = InvalidError("password is empty")
	ErrEntryExists       = InvalidError("entry already exists")
	ErrEntryNotFound     = InvalidError("entry not found")
	ErrInvalidBlockIndex = FileError("block index is out of range")
	ErrInvalidCharacter  = InvalidError("contains a nul byte")
	ErrInvalidKeyLength  = InvalidError("key length is invalid")
	ErrMissingFile       = FileError("vault file is missing")
	ErrNotLoggedIn       = StateError("not logged in")
	ErrRandomSource      = MemoryError("random source failed")
	ErrRecordExists      = InvalidError("record already exists")
	ErrRecordNotFound    = InvalidError("record not found")
	ErrTruncatedPassword = FileError("password hash is truncated")
	ErrWrongPassword     = InvalidError("wrong password")
)

// the error interface base method
func (e GenericError) Error() string { return string(e) }

// the error interface methods
func (e FileError) Error() string    { return string(e) }
func (e InvalidError) Error() string { return string(e) }
func (e MemoryError) Error() string  { return string(e) }
func (e StateError) Error() string   { return string(e) }

// StatusCode is the numeric result reported for a vault operation.
type StatusCode int

const (
	Success StatusCode = iota
	MemoryErr
	FileErr
	InvalidInput
	LoggedOut
)

func (s StatusCode) String() string {
	switch s {
	case Success:
		return "success"
	case MemoryErr:
		return "memory error"
	case FileErr:
		return "file missing or unreadable"
	case InvalidInput:
		return "invalid input"
	case LoggedOut:
		return "logged out"
	default:
		return "unknown status"
	}
}

// StatusOf maps an error to its status code. Errors outside the fault
// classes come from the file system and are reported as FileErr.
func StatusOf(err error) StatusCode {
	if err == nil {
		return Success
	}

	var (
		invalid InvalidError
		state   StateError
		memory  MemoryError
	)
	switch {
	case errors.As(err, &invalid):
		return InvalidInput
	case errors.As(err, &state):
		return LoggedOut
	case errors.As(err, &memory):
		return MemoryErr
	default:
		return FileErr
	}
}
