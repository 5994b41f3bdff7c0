package converterrpc

import (
	"github.com/google/uuid"
	"github.com/vmihailenco/msgpack/v5"
)

const (
	TypeReq  int16 = 1
	TypeResp int16 = 2
)

// Body and meta keys.
const (
	KeyFunction   = "function"
	KeyArg        = "arg"
	KeyResult     = "result"
	KeyCategories = "categories"
	KeyUnits      = "units"
	KeyRecords    = "records"
	KeyCode       = "code"
	KeyMsg        = "msg"
)

type Packet struct {
	UUID uuid.UUID
	Type int16
	Meta map[string][]byte
	Body map[string][]byte
}

// wirePacket is the msgpack shape of a Packet.
type wirePacket struct {
	UUID []byte            `msgpack:"u,omitempty"`
	Type int16             `msgpack:"t,omitempty"`
	Meta map[string][]byte `msgpack:"h,omitempty"`
	Body map[string][]byte `msgpack:"b,omitempty"`
}

func NewRequest(function string, arg []byte) (*Packet, error) {
	pktUUID, err := uuid.NewV6()
	if err != nil {
		return nil, err
	}
	body := map[string][]byte{KeyFunction: []byte(function)}
	if arg != nil {
		body[KeyArg] = arg
	}
	return &Packet{UUID: pktUUID, Type: TypeReq, Body: body}, nil
}

func MarshalPacket(pkt *Packet) ([]byte, error) {
	w := wirePacket{
		UUID: pkt.UUID[:],
		Type: pkt.Type,
		Meta: pkt.Meta,
		Body: pkt.Body,
	}
	return msgpack.Marshal(&w)
}

func UnmarshalPacket(data []byte) (*Packet, error) {
	var w wirePacket
	if err := msgpack.Unmarshal(data, &w); err != nil {
		return nil, err
	}
	pkt := &Packet{Type: w.Type, Meta: w.Meta, Body: w.Body}
	if len(w.UUID) > 0 {
		pktUUID, err := uuid.FromBytes(w.UUID)
		if err != nil {
			return nil, err
		}
		pkt.UUID = pktUUID
	}
	return pkt, nil
}

type ConvertRequest struct {
	Input    string `msgpack:"input"`
	Category string `msgpack:"category"`
	From     string `msgpack:"from"`
	To       string `msgpack:"to"`
}

type ConvertResponse struct {
	Output string `msgpack:"output"`
	OK     bool   `msgpack:"ok"`
}

type HistoryRequest struct {
	Offset int `msgpack:"offset,omitempty"`
	Limit  int `msgpack:"limit,omitempty"`
}

type HistoryEntry struct {
	UUID       string `msgpack:"uuid,omitempty"`
	DatetimeMs int64  `msgpack:"date,omitempty"`
	Input      string `msgpack:"input,omitempty"`
	Category   string `msgpack:"category,omitempty"`
	From       string `msgpack:"from,omitempty"`
	To         string `msgpack:"to,omitempty"`
	Output     string `msgpack:"output,omitempty"`
}
