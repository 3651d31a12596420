package jsonrpc

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// RequestID represents a JSON-RPC id. This client only ever issues integer
// ids, but a server is free to echo ids back as JSON numbers or strings, so
// decoding accepts both.
type RequestID struct {
	num   int64
	str   string
	isNum bool
}

// NewRequestID creates an integer request id.
func NewRequestID(value int64) *RequestID {
	return &RequestID{num: value, isNum: true}
}

// Int64 returns the numeric value of the id. String ids that parse as
// integers are converted; anything else reports false.
func (id *RequestID) Int64() (int64, bool) {
	if id == nil {
		return 0, false
	}
	if id.isNum {
		return id.num, true
	}
	n, err := strconv.ParseInt(id.str, 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

// String returns the string representation of the id.
func (id *RequestID) String() string {
	if id == nil {
		return ""
	}
	if id.isNum {
		return strconv.FormatInt(id.num, 10)
	}
	return id.str
}

// MarshalJSON implements json.Marshaler.
func (id *RequestID) MarshalJSON() ([]byte, error) {
	if id == nil {
		return []byte("null"), nil
	}
	if id.isNum {
		return json.Marshal(id.num)
	}
	return json.Marshal(id.str)
}

// UnmarshalJSON implements json.Unmarshaler.
func (id *RequestID) UnmarshalJSON(data []byte) error {
	var num int64
	if err := json.Unmarshal(data, &num); err == nil {
		id.num = num
		id.isNum = true
		return nil
	}
	var str string
	if err := json.Unmarshal(data, &str); err == nil {
		id.str = str
		id.isNum = false
		return nil
	}
	return fmt.Errorf("JSON-RPC ID must be a string or number, got: %s", string(data))
}
