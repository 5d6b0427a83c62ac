//go:build unix

package provenance

import "golang.org/x/sys/unix"

// platformName returns the kernel name reported by uname, e.g. "Linux".
func platformName() (string, error) {
	var uts unix.Utsname
	if err := unix.Uname(&uts); err != nil {
		return "", err
	}
	return unix.ByteSliceToString(uts.Sysname[:]), nil
}
