package ws

import (
	"sync"
)

// Shared draw state accessible to both WebSocket and API handlers
var (
	currentDrawID      string
	currentDrawIDMutex sync.RWMutex
)

// SetCurrentDrawID updates the ID of the draw currently in flight
func SetCurrentDrawID(drawID string) {
	currentDrawIDMutex.Lock()
	defer currentDrawIDMutex.Unlock()
	currentDrawID = drawID
}

// GetCurrentDrawID returns the ID of the draw currently in flight
func GetCurrentDrawID() string {
	currentDrawIDMutex.RLock()
	defer currentDrawIDMutex.RUnlock()
	return currentDrawID
}
