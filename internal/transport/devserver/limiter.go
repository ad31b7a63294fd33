package devserver

import "sync"

// connectionLimiter caps concurrent live connections from non-loopback peers.
// Loopback peers are never limited. When a new external peer goes over the
// cap, the oldest external connection is evicted.
type connectionLimiter struct {
	mu          sync.Mutex
	maxExternal int
	// oldest first
	external []string
	// client ID -> remote IP
	connections map[string]string
}

// newConnectionLimiter returns a limiter; maxExternal <= 0 disables the cap.
func newConnectionLimiter(maxExternal int) *connectionLimiter {
	return &connectionLimiter{
		maxExternal: maxExternal,
		connections: make(map[string]string),
	}
}

// add registers a connection and returns the ID of any evicted client.
func (cl *connectionLimiter) add(clientID, remoteIP string) (evictedID string) {
	cl.mu.Lock()
	defer cl.mu.Unlock()

	if _, exists := cl.connections[clientID]; exists {
		return ""
	}
	cl.connections[clientID] = remoteIP

	if cl.maxExternal <= 0 || isLoopback(remoteIP) {
		return ""
	}

	cl.external = append(cl.external, clientID)
	if len(cl.external) > cl.maxExternal {
		evictedID = cl.external[0]
		cl.external = cl.external[1:]
		delete(cl.connections, evictedID)
	}
	return evictedID
}

// remove forgets a connection.
func (cl *connectionLimiter) remove(clientID string) {
	cl.mu.Lock()
	defer cl.mu.Unlock()

	if _, exists := cl.connections[clientID]; !exists {
		return
	}
	delete(cl.connections, clientID)

	for i, id := range cl.external {
		if id == clientID {
			cl.external = append(cl.external[:i], cl.external[i+1:]...)
			break
		}
	}
}

func isLoopback(ip string) bool {
	return ip == "127.0.0.1" || ip == "::1"
}
