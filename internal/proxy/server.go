package proxy

import (
	"context"
	"crypto/tls"
	"log"
	"net"
	"net/http"
	"strings"
	"sync"

	"github.com/pysugar/cli-llm-proxy/internal/allowlist"
	"github.com/pysugar/cli-llm-proxy/internal/config"
	"github.com/pysugar/cli-llm-proxy/internal/mitm"
	"github.com/pysugar/cli-llm-proxy/internal/proxy/handlers"
)

// Server terminates both plain HTTP and CONNECT-tunneled HTTPS traffic and
// feeds everything through the same dispatch router.
type Server struct {
	cfg       *config.Config
	authority *mitm.Authority
	router    http.Handler
	httpSrv   *http.Server
}

// New assembles the server from its collaborators. The authority may be nil
// when TLS interception is disabled, in which case CONNECT requests are
// refused.
func New(cfg *config.Config, deps *handlers.Deps, filter *allowlist.Filter, authority *mitm.Authority) *Server {
	s := &Server{
		cfg:       cfg,
		authority: authority,
		router:    NewRouter(deps, filter),
	}
	s.httpSrv = &http.Server{
		Addr:    cfg.Addr(),
		Handler: http.HandlerFunc(s.dispatch),
	}
	return s
}

// Handler exposes the dispatch entry point, CONNECT handling included.
// Used by tests that drive the server through httptest.
func (s *Server) Handler() http.Handler {
	return http.HandlerFunc(s.dispatch)
}

func (s *Server) dispatch(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodConnect {
		s.handleConnect(w, r)
		return
	}
	s.router.ServeHTTP(w, r)
}

// ListenAndServe blocks serving the proxy until the listener fails or
// Shutdown is called.
func (s *Server) ListenAndServe() error {
	log.Printf("🚀 proxy listening on %s", s.cfg.Addr())
	return s.httpSrv.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpSrv.Shutdown(ctx)
}

// handleConnect establishes the MITM leg: acknowledge the tunnel, present a
// minted certificate for the requested host, then serve the decrypted
// requests through the normal router. Hosts outside the intercept set are
// refused before any certificate is issued.
func (s *Server) handleConnect(w http.ResponseWriter, r *http.Request) {
	host := r.Host
	if i := strings.LastIndexByte(host, ':'); i >= 0 {
		host = host[:i]
	}

	if s.authority == nil || !s.cfg.InterceptsHost(host) {
		log.Printf("⛔ CONNECT %s refused: host not intercepted", r.Host)
		http.Error(w, "CONNECT target not allowed", http.StatusForbidden)
		return
	}

	hj, ok := w.(http.Hijacker)
	if !ok {
		http.Error(w, "hijacking unsupported", http.StatusInternalServerError)
		return
	}
	clientConn, _, err := hj.Hijack()
	if err != nil {
		log.Printf("❌ CONNECT %s hijack failed: %v", r.Host, err)
		return
	}

	if _, err := clientConn.Write([]byte("HTTP/1.1 200 Connection Established\r\n\r\n")); err != nil {
		clientConn.Close()
		return
	}

	tlsConn := tls.Server(clientConn, &tls.Config{
		GetCertificate: s.authority.GetCertificate(host),
		MinVersion:     tls.VersionTLS12,
	})
	if err := tlsConn.HandshakeContext(r.Context()); err != nil {
		log.Printf("❌ TLS handshake with client for %s failed: %v", host, err)
		tlsConn.Close()
		return
	}
	log.Printf("🔐 intercepting TLS for %s", host)
	s.serveTunnel(tlsConn)
}

// serveTunnel runs the router over one decrypted connection. A single-use
// listener hands the connection to net/http so keep-alive, chunking and
// flushing behave exactly as on the plain listener.
func (s *Server) serveTunnel(conn net.Conn) {
	done := make(chan struct{})
	ln := &singleConnListener{
		conn: &notifyCloseConn{Conn: conn, done: done},
		done: done,
	}
	srv := &http.Server{Handler: s.router}
	// Serve returns once the connection is closed and the listener reports
	// net.ErrClosed on the next Accept.
	srv.Serve(ln)
}

// singleConnListener yields exactly one connection, then blocks Accept until
// that connection closes.
type singleConnListener struct {
	mu   sync.Mutex
	conn net.Conn
	done chan struct{}
}

func (l *singleConnListener) Accept() (net.Conn, error) {
	l.mu.Lock()
	c := l.conn
	l.conn = nil
	l.mu.Unlock()
	if c != nil {
		return c, nil
	}
	<-l.done
	return nil, net.ErrClosed
}

func (l *singleConnListener) Close() error   { return nil }
func (l *singleConnListener) Addr() net.Addr { return dummyAddr{} }

type notifyCloseConn struct {
	net.Conn
	done chan struct{}
	once sync.Once
}

func (c *notifyCloseConn) Close() error {
	err := c.Conn.Close()
	c.once.Do(func() { close(c.done) })
	return err
}

type dummyAddr struct{}

func (dummyAddr) Network() string { return "mitm" }
func (dummyAddr) String() string  { return "mitm" }
