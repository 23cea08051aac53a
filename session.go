package bme280

import (
	"fmt"
	"sync"

	"github.com/pkg/errors"
)

// sessions tracks the bus/address pairs that have a live Dev.
var sessions = struct {
	sync.Mutex
	open map[string]bool
}{open: map[string]bool{}}

func sessionKey(bus string, addr uint16) string {
	return fmt.Sprintf("%s@%#02x", bus, addr)
}

func claimSession(key string) error {
	sessions.Lock()
	defer sessions.Unlock()
	if sessions.open[key] {
		return errors.Wrapf(ErrSessionInUse, "%s", key)
	}
	sessions.open[key] = true
	return nil
}

func releaseSession(key string) {
	sessions.Lock()
	defer sessions.Unlock()
	delete(sessions.open, key)
}
