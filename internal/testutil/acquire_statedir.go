package testutil

import (
	"io/ioutil"
	"os"
)

type (
	TestLog interface {
		Fatal(...interface{})
		Log(...interface{})
	}
)

// AcquireStateDir hands out a throwaway directory for state files
// (account stores, license files, audit databases) plus its cleanup.
func AcquireStateDir(t TestLog) (string, func()) {
	dir, err := ioutil.TempDir("", "lockbox-tests")
	if err != nil {
		t.Fatal(err)
	}
	return dir, func() {
		err := os.RemoveAll(dir)
		if err != nil {
			t.Log("unable to cleanup temp dir", dir)
		}
	}
}
