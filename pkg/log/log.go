// Copyright 2024 movefuzz-go authors. All rights reserved.
// Use of this source code is governed by Apache 2 LICENSE that can be found in the LICENSE file.

// Package log provides the leveled logging used throughout the worker,
// generalized from syzkaller's own pkg/log.
package log

import (
	"fmt"
	"os"
	"sync/atomic"
	"time"
)

// verbosity controls which Logf calls are printed. Level 0 is always
// printed; higher levels require a matching --verbose flag via SetVerbose.
var verbosity int32

// SetVerbose sets the maximum level that will be printed.
func SetVerbose(v int) {
	atomic.StoreInt32(&verbosity, int32(v))
}

// Logf prints a leveled, timestamped diagnostic to stderr if level is at
// or below the current verbosity (level 0 is always printed).
func Logf(level int, format string, args ...interface{}) {
	if level > int(atomic.LoadInt32(&verbosity)) {
		return
	}
	now := time.Now()
	fmt.Fprintf(os.Stderr, "%02d:%02d:%02d %s\n",
		now.Hour(), now.Minute(), now.Second(), fmt.Sprintf(format, args...))
}

// Fatalf prints the diagnostic unconditionally and terminates the process
// with a non-zero status. It is used for init-time configuration errors
// per the error handling design: these must never be silently swallowed.
func Fatalf(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "FATAL: %s\n", fmt.Sprintf(format, args...))
	os.Exit(1)
}
