package converterrpc

import (
	"errors"
	"log/slog"
	"strconv"

	"github.com/vmihailenco/msgpack/v5"

	"unitconverter"
)

const (
	FuncConvert        = "Convert"
	FuncListCategories = "ListCategories"
	FuncListUnits      = "ListUnits"
	FuncHistory        = "History"
)

var ServerFuncs = []string{
	FuncConvert,
	FuncListCategories,
	FuncListUnits,
	FuncHistory,
}

// DefaultHistoryLimit keeps a History reply well inside one frame.
const DefaultHistoryLimit = 200

// Response codes carried in the "code" meta entry.
const (
	CodeOK           int32 = 0
	CodeNoFunc       int32 = -201
	CodeNoSuchFunc   int32 = -202
	CodeNoArg        int32 = -204
	CodeUnmarshalErr int32 = -205
	CodeExecErr      int32 = -206
)

var (
	ErrReqHasNoFunc   = errors.New("request has no function")
	ErrNoSuchFunc     = errors.New("no such function")
	ErrReqHasNoArg    = errors.New("request has no arg")
	ErrUnknownCat     = errors.New("unknown category")
	ErrNoHistory      = errors.New("history not enabled")
	ErrNotRequest     = errors.New("packet is not a request")
	ErrMissingCode    = errors.New("response has no code")
	ErrMissingPayload = errors.New("response has no payload")
	ErrRespTooLarge   = errors.New("response too large, request fewer records")
)

func StrsContains(strs []string, searchVal string) bool {
	for i := range strs {
		if strs[i] == searchVal {
			return true
		}
	}
	return false
}

type ServerProcessor struct {
	History *unitconverter.History
	Logger  *slog.Logger
}

func NewServerProcessor(history *unitconverter.History) *ServerProcessor {
	return &ServerProcessor{
		History: history,
		Logger:  slog.Default(),
	}
}

// ProcessPkt handles one request packet. Protocol and execution failures
// are reported inside the response, so the returned error is only set when
// the response itself cannot be built.
func (p *ServerProcessor) ProcessPkt(pkt *Packet) (*Packet, error) {
	// layer 0, check func
	funcBytes, ok := pkt.Body[KeyFunction]
	if !ok {
		return CreateRespPkt(pkt, CodeNoFunc, nil, ErrReqHasNoFunc)
	}
	funcStr := string(funcBytes)
	if !StrsContains(ServerFuncs, funcStr) {
		return CreateRespPkt(pkt, CodeNoSuchFunc, nil, ErrNoSuchFunc)
	}

	// layer 1, check arg ok
	argBytes, argOk := pkt.Body[KeyArg]
	if argOk && len(argBytes) == 0 {
		argOk = false
	}
	switch funcStr {
	case FuncConvert, FuncListUnits:
		if !argOk {
			return CreateRespPkt(pkt, CodeNoArg, nil, ErrReqHasNoArg)
		}
	}

	payload := map[string][]byte{}

	// layer last
	switch funcStr {
	case FuncConvert:
		var req ConvertRequest
		if err := msgpack.Unmarshal(argBytes, &req); err != nil {
			return CreateRespPkt(pkt, CodeUnmarshalErr, nil, err)
		}
		resp, err := p.convert(req)
		if err != nil {
			return CreateRespPkt(pkt, CodeExecErr, nil, err)
		}
		if payload[KeyResult], err = msgpack.Marshal(&resp); err != nil {
			return nil, err
		}
	case FuncListCategories:
		cats := unitconverter.Categories()
		names := make([]string, len(cats))
		for i, c := range cats {
			names[i] = string(c)
		}
		b, err := msgpack.Marshal(names)
		if err != nil {
			return nil, err
		}
		payload[KeyCategories] = b
	case FuncListUnits:
		units := unitconverter.UnitsOf(unitconverter.Category(argBytes))
		if units == nil {
			return CreateRespPkt(pkt, CodeExecErr, nil, ErrUnknownCat)
		}
		b, err := msgpack.Marshal(units)
		if err != nil {
			return nil, err
		}
		payload[KeyUnits] = b
	case FuncHistory:
		if p.History == nil {
			return CreateRespPkt(pkt, CodeExecErr, nil, ErrNoHistory)
		}
		var req HistoryRequest
		if argOk {
			if err := msgpack.Unmarshal(argBytes, &req); err != nil {
				return CreateRespPkt(pkt, CodeUnmarshalErr, nil, err)
			}
		}
		page := req.Page(p.History.Records())
		b, err := msgpack.Marshal(NewHistoryEntries(page))
		if err != nil {
			return nil, err
		}
		payload[KeyRecords] = b
	}

	resp, err := CreateRespPkt(pkt, CodeOK, payload, nil)
	if err != nil {
		return nil, err
	}
	// an unsendable reply becomes an error reply the client can see
	respBytes, err := MarshalPacket(resp)
	if err != nil {
		return nil, err
	}
	if len(respBytes) > MaxFrameLen {
		return CreateRespPkt(pkt, CodeExecErr, nil, ErrRespTooLarge)
	}
	return resp, nil
}

// Page selects the records a History request asks for. Offset skips the
// newest records, Limit caps the count (DefaultHistoryLimit when zero).
// The result stays oldest first.
func (r HistoryRequest) Page(records []unitconverter.Record) []unitconverter.Record {
	limit := r.Limit
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	end := len(records) - max(r.Offset, 0)
	if end <= 0 {
		return nil
	}
	start := max(end-limit, 0)
	return records[start:end]
}

func (p *ServerProcessor) convert(req ConvertRequest) (ConvertResponse, error) {
	if p.History == nil {
		out := unitconverter.Convert(req.Input, req.Category, req.From, req.To)
		return ConvertResponse{Output: out, OK: isNumeric(out)}, nil
	}
	rec, err := p.History.Convert(req.Input, req.Category, req.From, req.To)
	if err != nil {
		return ConvertResponse{}, err
	}
	return ConvertResponse{Output: rec.Output, OK: rec.OK()}, nil
}

func isNumeric(out string) bool {
	return out != unitconverter.ErrInvalidInput.Error() && out != unitconverter.ErrInvalidConversion.Error()
}

func CreateRespPkt(req *Packet, code int32, payload map[string][]byte, err error) (*Packet, error) {
	msg := "ok"
	if err != nil {
		msg = err.Error()
	}
	return &Packet{
		UUID: req.UUID,
		Type: TypeResp,
		Meta: map[string][]byte{
			KeyCode: []byte(strconv.FormatInt(int64(code), 10)),
			KeyMsg:  []byte(msg),
		},
		Body: payload,
	}, nil
}

// RespCode extracts the code and message of a response packet.
func RespCode(pkt *Packet) (int32, string, error) {
	codeBytes, ok := pkt.Meta[KeyCode]
	if !ok {
		return 0, "", ErrMissingCode
	}
	code, err := strconv.ParseInt(string(codeBytes), 10, 32)
	if err != nil {
		return 0, "", err
	}
	return int32(code), string(pkt.Meta[KeyMsg]), nil
}

func NewHistoryEntries(records []unitconverter.Record) []HistoryEntry {
	entries := make([]HistoryEntry, len(records))
	for i, rec := range records {
		entries[i] = HistoryEntry{
			UUID:       rec.ID.String(),
			DatetimeMs: rec.Timestamp.UnixMilli(),
			Input:      rec.Input,
			Category:   rec.Category,
			From:       rec.FromUnit,
			To:         rec.ToUnit,
			Output:     rec.Output,
		}
	}
	return entries
}
