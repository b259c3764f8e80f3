//go:build linux || darwin

package cryptoutils

import "golang.org/x/sys/unix"

// LockMemory keeps b out of swap for as long as it is locked.
func LockMemory(b []byte) error { return unix.Mlock(b) }

// UnlockMemory releases a lock taken with LockMemory.
func UnlockMemory(b []byte) error { return unix.Munlock(b) }
