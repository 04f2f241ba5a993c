package transport

import (
	"context"
	"encoding/hex"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/bamilab/quartznet/common"
	"github.com/bamilab/quartznet/internal/log"
)

// WebsocketTransport implements Transport over plain WebSocket connections.
// Message framing is handled by the websocket protocol itself (one
// ReadMessage call returns exactly one frame), so the codec never has to
// reassemble partial frames.
type WebsocketTransport struct {
	// LocalAddr identifies this node's own socket peer identity; sockets
	// accepted by a Listener report the remote address from the HTTP
	// upgrade handshake header "X-Quartznet-Peer" instead, since a raw
	// TCP-level peer key is not otherwise available.
	LocalAddr common.PublicKey
}

type wsSocket struct {
	conn   *websocket.Conn
	peer   common.PublicKey
	sendMu sync.Mutex
}

func (s *wsSocket) Peer() common.PublicKey { return s.peer }

func (s *wsSocket) Send(ctx context.Context, frame []byte) error {
	s.sendMu.Lock()
	defer s.sendMu.Unlock()
	if deadline, ok := ctx.Deadline(); ok {
		s.conn.SetWriteDeadline(deadline)
	}
	if err := s.conn.WriteMessage(websocket.BinaryMessage, frame); err != nil {
		return common.Transport(err)
	}
	return nil
}

func (s *wsSocket) Receive(ctx context.Context) ([]byte, bool, error) {
	if deadline, ok := ctx.Deadline(); ok {
		s.conn.SetReadDeadline(deadline)
	}
	_, data, err := s.conn.ReadMessage()
	if err != nil {
		if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
			return nil, false, nil
		}
		return nil, false, common.Transport(err)
	}
	return data, true, nil
}

func (s *wsSocket) Close() error {
	return common.Transport(s.conn.Close())
}

var dialer = websocket.Dialer{HandshakeTimeout: 10 * time.Second}

func (t *WebsocketTransport) Connect(ctx context.Context, addr common.PublicKey, port uint16) (Socket, error) {
	url := fmt.Sprintf("ws://%s:%d/quartznet", addr.String(), port)
	header := http.Header{}
	header.Set("X-Quartznet-Peer", t.LocalAddr.String())

	conn, _, err := dialer.DialContext(ctx, url, header)
	if err != nil {
		return nil, common.Transport(err)
	}
	return &wsSocket{conn: conn, peer: addr}, nil
}

type wsListener struct {
	ln       net.Listener
	upgrader websocket.Upgrader
	accepted chan Socket
	errs     chan error
	log      log.Logger
}

func (t *WebsocketTransport) Listen(port uint16) (Listener, error) {
	ln, err := net.Listen("tcp", ":"+strconv.Itoa(int(port)))
	if err != nil {
		return nil, common.Transport(err)
	}

	l := &wsListener{
		ln:       ln,
		upgrader: websocket.Upgrader{ReadBufferSize: 4096, WriteBufferSize: 4096},
		accepted: make(chan Socket),
		errs:     make(chan error, 1),
		log:      log.New("component", "transport", "port", port),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/quartznet", l.handleUpgrade)
	server := &http.Server{Handler: mux}
	go func() {
		if err := server.Serve(ln); err != nil && err != http.ErrServerClosed {
			l.log.Error("listener stopped", "err", err)
		}
	}()

	return l, nil
}

func (l *wsListener) handleUpgrade(w http.ResponseWriter, r *http.Request) {
	conn, err := l.upgrader.Upgrade(w, r, nil)
	if err != nil {
		l.log.Warn("websocket upgrade failed", "err", err)
		return
	}
	peerHeader := r.Header.Get("X-Quartznet-Peer")
	var peer common.PublicKey
	if peerHeader != "" {
		raw, err := hex.DecodeString(peerHeader)
		if err != nil {
			l.log.Warn("rejecting connection with malformed peer header", "header", peerHeader, "err", err)
			conn.Close()
			return
		}
		peer = common.BytesToPublicKey(raw)
	}
	l.accepted <- &wsSocket{conn: conn, peer: peer}
}

func (l *wsListener) Accept(ctx context.Context) (Socket, error) {
	select {
	case s := <-l.accepted:
		return s, nil
	case err := <-l.errs:
		return nil, common.Transport(err)
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (l *wsListener) Close() error {
	return common.Transport(l.ln.Close())
}
