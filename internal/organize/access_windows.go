//go:build windows

package organize

import (
	"errors"
	"io"
	"os"
)

// canReadWrite lists dir and creates then removes a probe file in it.
// Windows ACLs are not reflected in mode bits, so probing is the only
// reliable answer.
func canReadWrite(dir string) error {
	f, err := os.Open(dir)
	if err != nil {
		return err
	}
	_, err = f.Readdirnames(1)
	f.Close()
	if err != nil && !errors.Is(err, io.EOF) {
		return err
	}

	probe, err := os.CreateTemp(dir, ".catsort-probe-*")
	if err != nil {
		return err
	}
	name := probe.Name()
	probe.Close()
	return os.Remove(name)
}
