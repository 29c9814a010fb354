//go:build !unix

package indexmap

import "os"

func lockFrom(*os.File, int64) error { return nil }

func unlockFrom(*os.File, int64) error { return nil }
