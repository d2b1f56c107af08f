package types

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
)

// Error codes of JSON-RPC 2.0 and the chain specific ones nodes add.
const (
	CodeParseError     = -32700
	CodeInvalidRequest = -32600
	CodeMethodNotFound = -32601
	CodeInvalidParams  = -32602
	CodeInternalError  = -32603

	CodeBlockCleanedUp                 = -32001
	CodeBlockNotAvailable              = -32004
	CodeSlotSkipped                    = -32007
	CodeLongTermStorageSlotSkipped     = -32009
	CodeTransactionHistoryNotAvailable = -32011
)

// ErrNullResult is returned by DecodeResult when the node answered null,
// which is how it reports a transaction or block it does not know about.
var ErrNullResult = errors.New("null result")

// a wrapper to emulate a sum type: jsonrpcid = string | int
type jsonrpcid interface {
	isJSONRPCID()
}

// JSONRPCStringID a wrapper for JSON-RPC string IDs
type JSONRPCStringID string

func (JSONRPCStringID) isJSONRPCID()      {}
func (id JSONRPCStringID) String() string { return string(id) }

// JSONRPCIntID a wrapper for JSON-RPC integer IDs
type JSONRPCIntID uint64

func (JSONRPCIntID) isJSONRPCID()      {}
func (id JSONRPCIntID) String() string { return strconv.FormatUint(uint64(id), 10) }

// parseID reads an id that is either a JSON string or a non-negative
// integer. An absent or null id is a notification and yields nil.
func parseID(raw json.RawMessage) (jsonrpcid, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, nil
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil, err
		}
		return JSONRPCStringID(s), nil
	}
	n, err := strconv.ParseUint(string(raw), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("json-rpc id %s is neither a string nor an unsigned integer", raw)
	}
	return JSONRPCIntID(n), nil
}

//----------------------------------------
// REQUEST

type RPCRequest struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      jsonrpcid       `json:"id,omitempty"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params"` // positional, always a JSON array
}

// UnmarshalJSON custom JSON unmarshaling due to jsonrpcid being string or int
func (req *RPCRequest) UnmarshalJSON(data []byte) error {
	var wire struct {
		JSONRPC string          `json:"jsonrpc"`
		ID      json.RawMessage `json:"id"`
		Method  string          `json:"method"`
		Params  json.RawMessage `json:"params"`
	}
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	id, err := parseID(wire.ID)
	if err != nil {
		return err
	}
	*req = RPCRequest{JSONRPC: wire.JSONRPC, ID: id, Method: wire.Method, Params: wire.Params}
	return nil
}

func (req RPCRequest) String() string {
	return fmt.Sprintf("RPCRequest{%s %s/%s}", req.ID, req.Method, req.Params)
}

// ParamsToRequest constructs a new RPCRequest with the given ID, method, and
// positional parameters. Nodes take the options of a call as a trailing
// object, so a request is always an array.
func ParamsToRequest(id jsonrpcid, method string, params ...interface{}) (RPCRequest, error) {
	if params == nil {
		params = []interface{}{}
	}
	payload, err := json.Marshal(params)
	if err != nil {
		return RPCRequest{}, err
	}
	return RPCRequest{JSONRPC: "2.0", ID: id, Method: method, Params: payload}, nil
}

//----------------------------------------
// RESPONSE

type RPCError struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data,omitempty"`
}

func (err RPCError) Error() string {
	const baseFormat = "RPC error %v - %s"
	if len(err.Data) > 0 {
		return fmt.Sprintf(baseFormat+": %s", err.Code, err.Message, err.Data)
	}
	return fmt.Sprintf(baseFormat, err.Code, err.Message)
}

type RPCResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      jsonrpcid       `json:"id,omitempty"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *RPCError       `json:"error,omitempty"`
}

// UnmarshalJSON custom JSON unmarshaling due to jsonrpcid being string or int
func (resp *RPCResponse) UnmarshalJSON(data []byte) error {
	var wire struct {
		JSONRPC string          `json:"jsonrpc"`
		ID      json.RawMessage `json:"id"`
		Result  json.RawMessage `json:"result"`
		Error   *RPCError       `json:"error"`
	}
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	id, err := parseID(wire.ID)
	if err != nil {
		return err
	}
	*resp = RPCResponse{JSONRPC: wire.JSONRPC, ID: id, Result: wire.Result, Error: wire.Error}
	return nil
}

func NewRPCSuccessResponse(id jsonrpcid, res interface{}) RPCResponse {
	result, err := json.Marshal(res)
	if err != nil {
		return NewRPCErrorResponse(id, CodeInternalError, "Internal error", err.Error())
	}
	return RPCResponse{JSONRPC: "2.0", ID: id, Result: result}
}

func NewRPCErrorResponse(id jsonrpcid, code int, msg string, data string) RPCResponse {
	rpcErr := &RPCError{Code: code, Message: msg}
	if data != "" {
		rpcErr.Data, _ = json.Marshal(data)
	}
	return RPCResponse{JSONRPC: "2.0", ID: id, Error: rpcErr}
}

func (resp RPCResponse) String() string {
	if resp.Error == nil {
		return fmt.Sprintf("RPCResponse{%s %s}", resp.ID, resp.Result)
	}
	return fmt.Sprintf("RPCResponse{%s %v}", resp.ID, resp.Error)
}

// IsNull reports whether the result is absent or JSON null.
func (resp RPCResponse) IsNull() bool {
	r := bytes.TrimSpace(resp.Result)
	return len(r) == 0 || bytes.Equal(r, []byte("null"))
}

// DecodeResult unmarshals the result into v. It returns the response's
// *RPCError if the node answered with an error, and ErrNullResult if the
// result is null.
func (resp RPCResponse) DecodeResult(v interface{}) error {
	if resp.Error != nil {
		return resp.Error
	}
	if resp.IsNull() {
		return ErrNullResult
	}
	return json.Unmarshal(resp.Result, v)
}
