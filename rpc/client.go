package converterrpc

import (
	"context"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/vmihailenco/msgpack/v5"
)

// DefaultTimeout applies to calls whose context has no deadline.
const DefaultTimeout = 5 * time.Second

type Client struct {
	conn  *net.UDPConn
	mutex sync.Mutex
	buf   FrameBuffer
}

func Dial(addr string) (*Client, error) {
	udpAddr, err := net.ResolveUDPAddr("udp", addr)
	if err != nil {
		return nil, err
	}
	conn, err := net.DialUDP("udp", nil, udpAddr)
	if err != nil {
		return nil, err
	}
	return &Client{conn: conn}, nil
}

func (c *Client) Close() error {
	return c.conn.Close()
}

func (c *Client) Convert(ctx context.Context, req ConvertRequest) (ConvertResponse, error) {
	arg, err := msgpack.Marshal(&req)
	if err != nil {
		return ConvertResponse{}, err
	}
	var resp ConvertResponse
	err = c.callInto(ctx, FuncConvert, arg, KeyResult, &resp)
	return resp, err
}

func (c *Client) ListCategories(ctx context.Context) ([]string, error) {
	var cats []string
	err := c.callInto(ctx, FuncListCategories, nil, KeyCategories, &cats)
	return cats, err
}

func (c *Client) ListUnits(ctx context.Context, category string) ([]string, error) {
	var units []string
	err := c.callInto(ctx, FuncListUnits, []byte(category), KeyUnits, &units)
	return units, err
}

// History fetches recorded conversions, oldest first, as selected by req.
func (c *Client) History(ctx context.Context, req HistoryRequest) ([]HistoryEntry, error) {
	arg, err := msgpack.Marshal(&req)
	if err != nil {
		return nil, err
	}
	var entries []HistoryEntry
	err = c.callInto(ctx, FuncHistory, arg, KeyRecords, &entries)
	return entries, err
}

func (c *Client) callInto(ctx context.Context, function string, arg []byte, key string, v any) error {
	resp, err := c.Call(ctx, function, arg)
	if err != nil {
		return err
	}
	code, msg, err := RespCode(resp)
	if err != nil {
		return err
	}
	if code != CodeOK {
		return &RemoteError{Function: function, Code: code, Msg: msg}
	}
	data, ok := resp.Body[key]
	if !ok {
		return fmt.Errorf("%s: %w", function, ErrMissingPayload)
	}
	return msgpack.Unmarshal(data, v)
}

// Call sends one request and waits for the response carrying the same UUID.
func (c *Client) Call(ctx context.Context, function string, arg []byte) (*Packet, error) {
	req, err := NewRequest(function, arg)
	if err != nil {
		return nil, err
	}
	pktBytes, err := MarshalPacket(req)
	if err != nil {
		return nil, err
	}
	frame, err := EncodeFrame(pktBytes)
	if err != nil {
		return nil, err
	}

	c.mutex.Lock()
	defer c.mutex.Unlock()

	deadline, ok := ctx.Deadline()
	if !ok {
		deadline = time.Now().Add(DefaultTimeout)
	}
	if err := c.conn.SetDeadline(deadline); err != nil {
		return nil, err
	}
	// a deadline forced by ctx must land before the mutex is released,
	// or it would cut short the next call
	fired := make(chan struct{})
	stop := context.AfterFunc(ctx, func() {
		c.conn.SetDeadline(time.Now())
		close(fired)
	})
	defer func() {
		if !stop() {
			<-fired
		}
	}()

	if _, err := c.conn.Write(frame); err != nil {
		return nil, ctxErr(ctx, err)
	}

	buf := make([]byte, 64*1024)
	for {
		n, err := c.conn.Read(buf)
		if err != nil {
			return nil, ctxErr(ctx, err)
		}
		frames, err := c.buf.Feed(buf[:n])
		if err != nil {
			return nil, err
		}
		for _, f := range frames {
			resp, err := UnmarshalPacket(f.PacketBytes)
			if err != nil {
				return nil, err
			}
			// stale responses from an earlier timed-out call are skipped
			if resp.Type == TypeResp && resp.UUID == req.UUID {
				return resp, nil
			}
		}
	}
}

func ctxErr(ctx context.Context, err error) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	// the socket deadline can fire just before the context timer
	if d, ok := ctx.Deadline(); ok && !time.Now().Before(d) {
		return context.DeadlineExceeded
	}
	return err
}

// RemoteError is a non-zero response code from the server.
type RemoteError struct {
	Function string
	Code     int32
	Msg      string
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("%s: code %d: %s", e.Function, e.Code, e.Msg)
}
