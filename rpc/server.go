package converterrpc

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"sync"
	"time"
)

// PeerIdleTimeout drops a peer's partial frame once it has sent nothing
// for this long.
const PeerIdleTimeout = 5 * time.Second

type peerState struct {
	buf      FrameBuffer
	lastSeen time.Time
}

// Server answers framed msgpack requests over UDP.
type Server struct {
	conn      *net.UDPConn
	processor *ServerProcessor
	logger    *slog.Logger

	mutex       sync.Mutex
	peers       map[string]*peerState
	idleTimeout time.Duration
	now         func() time.Time
}

func Listen(addr string, processor *ServerProcessor) (*Server, error) {
	udpAddr, err := net.ResolveUDPAddr("udp", addr)
	if err != nil {
		return nil, err
	}
	conn, err := net.ListenUDP("udp", udpAddr)
	if err != nil {
		return nil, err
	}
	logger := processor.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		conn:        conn,
		processor:   processor,
		logger:      logger,
		peers:       make(map[string]*peerState),
		idleTimeout: PeerIdleTimeout,
		now:         time.Now,
	}, nil
}

func (s *Server) Addr() net.Addr {
	return s.conn.LocalAddr()
}

// Serve reads datagrams until ctx is cancelled or the connection fails.
// Cancellation returns nil.
func (s *Server) Serve(ctx context.Context) error {
	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
			s.conn.Close()
		case <-stop:
		}
	}()

	s.logger.Info("serving", "addr", s.conn.LocalAddr().String())
	buf := make([]byte, 64*1024)
	for {
		n, peer, err := s.conn.ReadFromUDP(buf)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return nil
			}
			return err
		}
		s.handleDatagram(peer, buf[:n])
	}
}

func (s *Server) Close() error {
	return s.conn.Close()
}

func (s *Server) handleDatagram(peer *net.UDPAddr, data []byte) {
	key := peer.String()
	fb := s.peerBuffer(key)
	frames, err := fb.Feed(data)
	if err != nil {
		s.logger.Warn("dropping bad frame", "peer", key, "error", err)
	}
	for _, frame := range frames {
		pkt, err := UnmarshalPacket(frame.PacketBytes)
		if err != nil {
			s.logger.Warn("cannot decode packet", "peer", key, "error", err)
			continue
		}
		if pkt.Type != TypeReq {
			s.logger.Warn("ignoring packet", "peer", key, "uuid", pkt.UUID, "error", ErrNotRequest)
			continue
		}
		resp, err := s.processor.ProcessPkt(pkt)
		if err != nil {
			s.logger.Error("processing failed", "uuid", pkt.UUID, "error", err)
			continue
		}
		if err := s.send(peer, resp); err != nil {
			s.logger.Error("send failed", "peer", key, "uuid", pkt.UUID, "error", err)
		}
	}
	if fb.Buffered() == 0 {
		s.mutex.Lock()
		delete(s.peers, key)
		s.mutex.Unlock()
	}
}

// peerBuffer returns the frame buffer of key, first dropping buffers of
// peers idle longer than idleTimeout.
func (s *Server) peerBuffer(key string) *FrameBuffer {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	now := s.now()
	for k, ps := range s.peers {
		if k != key && now.Sub(ps.lastSeen) > s.idleTimeout {
			s.logger.Debug("expiring partial frame", "peer", k, "buffered", ps.buf.Buffered())
			delete(s.peers, k)
		}
	}
	ps, ok := s.peers[key]
	if !ok || now.Sub(ps.lastSeen) > s.idleTimeout {
		ps = &peerState{}
		s.peers[key] = ps
	}
	ps.lastSeen = now
	return &ps.buf
}

// pendingPeers is the number of peers holding a partial frame.
func (s *Server) pendingPeers() int {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return len(s.peers)
}

func (s *Server) send(peer *net.UDPAddr, pkt *Packet) error {
	pktBytes, err := MarshalPacket(pkt)
	if err != nil {
		return err
	}
	frame, err := EncodeFrame(pktBytes)
	if err != nil {
		return err
	}
	_, err = s.conn.WriteToUDP(frame, peer)
	return err
}
