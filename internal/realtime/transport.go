package realtime

// transport is one live connection to the chat service. The manager owns
// exactly one at a time: websocket when available, long polling otherwise.
type transport interface {
	send(f frame) error
	// receive blocks until the next frame or a terminal connection error.
	receive() (frame, error)
	close() error
	name() string
}
