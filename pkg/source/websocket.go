package source

import (
	"fmt"
	"io"
	"net"
	"net/http"
	"sync"

	"github.com/golang/glog"
	"golang.org/x/net/websocket"
)

// WebsocketServer accepts websocket connections and joins the binary
// messages of all of them into one byte stream.
// Connections are served one at a time.
type WebsocketServer struct {
	Addr string
	Path string

	listener net.Listener
	server   *http.Server
	reader   *io.PipeReader
	writer   *io.PipeWriter
	connLock sync.Mutex
	once     sync.Once
}

// ListenWebsocket starts a WebsocketServer on addr.
func ListenWebsocket(addr, path string) (*WebsocketServer, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}
	s := &WebsocketServer{Addr: ln.Addr().String(), Path: path, listener: ln}
	s.reader, s.writer = io.Pipe()
	mux := http.NewServeMux()
	mux.Handle(path, websocket.Handler(s.serve))
	s.server = &http.Server{Handler: mux}
	go func() {
		if err := s.server.Serve(ln); err != nil && err != http.ErrServerClosed {
			glog.Errorf("websocket server error: %v", err)
			s.writer.CloseWithError(err)
		}
	}()
	glog.Infof("websocket listening on %s%s", s.Addr, path)
	return s, nil
}

// URL returns the websocket URL of the server.
func (s *WebsocketServer) URL() string {
	return fmt.Sprintf("ws://%s%s", s.Addr, s.Path)
}

// Read implements io.Reader.
func (s *WebsocketServer) Read(p []byte) (int, error) {
	return s.reader.Read(p)
}

// Close implements io.Closer.
func (s *WebsocketServer) Close() (err error) {
	s.once.Do(func() {
		err = s.server.Close()
		s.writer.Close()
	})
	return
}

func (s *WebsocketServer) serve(conn *websocket.Conn) {
	defer conn.Close()
	s.connLock.Lock()
	defer s.connLock.Unlock()
	glog.V(1).Infof("websocket connected: %s", conn.Request().RemoteAddr)
	for {
		var msg []byte
		if err := websocket.Message.Receive(conn, &msg); err != nil {
			if err != io.EOF {
				glog.Warningf("websocket receive error: %v", err)
			}
			return
		}
		if _, err := s.writer.Write(msg); err != nil {
			return
		}
	}
}

// WebsocketConn is the client end of a websocket byte stream.
// Each Write is sent as one binary message.
type WebsocketConn struct {
	*websocket.Conn
}

// DialWebsocket connects to a websocket byte stream.
func DialWebsocket(url string) (*WebsocketConn, error) {
	conn, err := websocket.Dial(url, "", "http://localhost/")
	if err != nil {
		return nil, err
	}
	conn.PayloadType = websocket.BinaryFrame
	return &WebsocketConn{Conn: conn}, nil
}

// Write implements io.Writer.
func (c *WebsocketConn) Write(p []byte) (int, error) {
	if err := websocket.Message.Send(c.Conn, p); err != nil {
		return 0, err
	}
	return len(p), nil
}

// Read implements io.Reader.
func (c *WebsocketConn) Read(p []byte) (int, error) {
	return c.Conn.Read(p)
}
