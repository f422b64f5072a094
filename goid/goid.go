// Package goid identifies the calling goroutine.
//
// Snapshot calls made without an explicit identity are attributed to the test that runs
// on the same goroutine. Goroutines spawned by a test get their own id, so calls issued
// from them are not attributed automatically.
package goid

import (
	"bytes"
	"runtime"
	"strconv"
)

var prefix = []byte("goroutine ")

// Current returns id of the calling goroutine, or 0 if it cannot be determined
func Current() int64 {
	buf := make([]byte, 64)
	buf = buf[:runtime.Stack(buf, false)]
	buf = bytes.TrimPrefix(buf, prefix)
	if idx := bytes.IndexByte(buf, ' '); idx != -1 {
		buf = buf[:idx]
	}
	id, err := strconv.ParseInt(string(buf), 10, 64)
	if err != nil {
		return 0
	}
	return id
}
