// Package transport implements the peer duplex used to exchange wire
// messages in a rollback-netcode session. It generalizes the teacher
// engine's internal/api/websocket.go WebSocketHub — a broadcast hub fanning
// one server's state out to many passive viewer connections — to a
// point-to-point duplex between a fixed, small set of simulation peers, each
// of which both sends and receives input/snapshot/vote traffic. The
// connection-count DoS protections the hub needed for public viewers don't
// apply to a closed peer set, but the same register/unregister-channel
// lifecycle and backpressure-drop-on-full-buffer posture carry over.
package transport

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"wolfpit/internal/netcode/wire"
)

// Peer is the abstract send/receive surface a reconcile or replication
// component needs, independent of the concrete transport.
type Peer interface {
	// Send frames and writes typ/body to the peer. Non-blocking: if the
	// peer's outbound buffer is full the message is dropped, mirroring the
	// hub's broadcast-channel backpressure.
	Send(typ byte, body []byte) bool
	// Recv returns the channel of inbound messages from this peer.
	Recv() <-chan Message
	// ID identifies the remote peer (its player id in the run).
	ID() uint32
	// Close tears down the connection.
	Close() error
}

// Message is one decoded inbound wire message.
type Message struct {
	Type byte
	Body []byte
}

const (
	outboundBuffer = 256
	writeTimeout   = 50 * time.Millisecond
	pingInterval   = 5 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// WSPeer is a websocket-backed Peer, framing every message with package
// wire before writing it as a single binary websocket frame.
type WSPeer struct {
	id   uint32
	conn *websocket.Conn

	outbound chan outboundMsg
	inbound  chan Message

	closeOnce sync.Once
	done      chan struct{}
}

type outboundMsg struct {
	typ  byte
	body []byte
}

// NewWSPeer wraps an established websocket connection as a Peer and starts
// its read/write pumps.
func NewWSPeer(id uint32, conn *websocket.Conn) *WSPeer {
	p := &WSPeer{
		id:       id,
		conn:     conn,
		outbound: make(chan outboundMsg, outboundBuffer),
		inbound:  make(chan Message, outboundBuffer),
		done:     make(chan struct{}),
	}
	go p.readLoop()
	go p.writeLoop()
	return p
}

// DialWSPeer connects to a remote peer's websocket endpoint.
func DialWSPeer(ctx context.Context, id uint32, url string) (*WSPeer, error) {
	dialer := websocket.Dialer{HandshakeTimeout: 5 * time.Second}
	conn, _, err := dialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("transport: dial peer %d: %w", id, err)
	}
	return NewWSPeer(id, conn), nil
}

// UpgradeWSPeer upgrades an inbound HTTP request to a websocket Peer.
func UpgradeWSPeer(id uint32, w http.ResponseWriter, r *http.Request) (*WSPeer, error) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return nil, fmt.Errorf("transport: upgrade peer %d: %w", id, err)
	}
	return NewWSPeer(id, conn), nil
}

func (p *WSPeer) ID() uint32            { return p.id }
func (p *WSPeer) Recv() <-chan Message  { return p.inbound }

// Send enqueues a framed message; returns false if the outbound buffer is
// full rather than blocking the simulation loop on a slow peer.
func (p *WSPeer) Send(typ byte, body []byte) bool {
	select {
	case p.outbound <- outboundMsg{typ: typ, body: body}:
		return true
	default:
		return false
	}
}

func (p *WSPeer) Close() error {
	p.closeOnce.Do(func() { close(p.done) })
	return p.conn.Close()
}

func (p *WSPeer) readLoop() {
	defer close(p.inbound)
	for {
		_, data, err := p.conn.ReadMessage()
		if err != nil {
			return
		}
		typ, body, err := wire.ReadMessage(newByteReader(data))
		if err != nil {
			log.Printf("transport: peer %d framing error: %v", p.id, err)
			continue
		}
		select {
		case p.inbound <- Message{Type: typ, Body: body}:
		case <-p.done:
			return
		}
	}
}

func (p *WSPeer) writeLoop() {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-p.done:
			return
		case m := <-p.outbound:
			p.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			buf := frameBuffer{}
			if err := wire.WriteMessage(&buf, m.typ, m.body); err != nil {
				continue
			}
			if err := p.conn.WriteMessage(websocket.BinaryMessage, buf.Bytes()); err != nil {
				return
			}
		case <-ticker.C:
			p.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := p.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// frameBuffer is a minimal io.Writer accumulating wire.WriteMessage's
// header+body into one byte slice for a single websocket frame.
type frameBuffer struct{ b []byte }

func (f *frameBuffer) Write(p []byte) (int, error) {
	f.b = append(f.b, p...)
	return len(p), nil
}
func (f *frameBuffer) Bytes() []byte { return f.b }

// byteReader is a minimal io.Reader over an in-memory websocket frame, so
// wire.ReadMessage can be reused for framing even though the frame already
// arrived whole from gorilla/websocket.
type byteReader struct {
	data []byte
	pos  int
}

func newByteReader(data []byte) *byteReader { return &byteReader{data: data} }

func (r *byteReader) Read(p []byte) (int, error) {
	if r.pos >= len(r.data) {
		return 0, io.EOF
	}
	n := copy(p, r.data[r.pos:])
	r.pos += n
	return n, nil
}
