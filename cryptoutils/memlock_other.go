//go:build !linux && !darwin

package cryptoutils

func LockMemory(b []byte) error   { return nil }
func UnlockMemory(b []byte) error { return nil }
