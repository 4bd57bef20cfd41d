package realtime

import (
	"context"
	"net/http"
	"net/url"
	"sync"

	"github.com/gorilla/websocket"
)

// wsTransport frames messages over a single websocket connection.
type wsTransport struct {
	conn    *websocket.Conn
	writeMu sync.Mutex
}

func dialWebsocket(ctx context.Context, rawURL, token string) (*wsTransport, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, err
	}
	q := u.Query()
	q.Set("token", token)
	u.RawQuery = q.Encode()

	header := http.Header{}
	header.Set("Authorization", "Bearer "+token)

	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, u.String(), header)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	if err != nil {
		return nil, err
	}
	return &wsTransport{conn: conn}, nil
}

func (t *wsTransport) send(f frame) error {
	t.writeMu.Lock()
	defer t.writeMu.Unlock()
	return t.conn.WriteJSON(f)
}

func (t *wsTransport) receive() (frame, error) {
	var f frame
	if err := t.conn.ReadJSON(&f); err != nil {
		return frame{}, err
	}
	return f, nil
}

func (t *wsTransport) close() error {
	return t.conn.Close()
}

func (t *wsTransport) name() string { return "websocket" }
