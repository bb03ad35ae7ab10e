package protocol

import "fmt"

// responseFixedLen is the byte length of response_code + response_message
// + response_length.
const responseFixedLen = 2 + 2 + 4

// ResponseCode is the 2-byte Ok/Err discriminant of a Response.
type ResponseCode uint16

const (
	Ok  ResponseCode = 0
	Err ResponseCode = 1
)

// ResponseMessage is the 2-byte enumeration naming why a Response was
// sent, per the broker's response enumeration.
type ResponseMessage uint16

const (
	EmptyResponse       ResponseMessage = 0
	NoNewMessages       ResponseMessage = 1
	ResponseWithBody    ResponseMessage = 2
	ResponseWithMessage ResponseMessage = 3
	ErrorResponse       ResponseMessage = 4
	QueueNameRequired   ResponseMessage = 5
	MessageBodyRequired ResponseMessage = 6
)

func (m ResponseMessage) String() string {
	switch m {
	case EmptyResponse:
		return "EmptyResponse"
	case NoNewMessages:
		return "NoNewMessages"
	case ResponseWithBody:
		return "ResponseWithBody"
	case ResponseWithMessage:
		return "ResponseWithMessage"
	case ErrorResponse:
		return "ErrorResponse"
	case QueueNameRequired:
		return "QueueNameRequired"
	case MessageBodyRequired:
		return "MessageBodyRequired"
	default:
		return "Unknown"
	}
}

// Response is the reply frame sent for every request. Wire layout,
// big-endian:
//
//	response_code     uint16
//	response_message   uint16
//	response_length    uint32 (total, including this header)
//	response_data      []byte (response_length - 8 bytes)
type Response struct {
	Code    ResponseCode
	Message ResponseMessage
	Data    []byte
}

// NewResponse builds a Response from a code, message enum and body.
func NewResponse(code ResponseCode, message ResponseMessage, data []byte) *Response {
	return &Response{Code: code, Message: message, Data: data}
}

// Length reports the total encoded byte length of r.
func (r *Response) Length() uint32 {
	return uint32(responseFixedLen + len(r.Data))
}

// Encode serializes r into the wire format described above.
func (r *Response) Encode() []byte {
	buf := make([]byte, r.Length())
	enc.PutUint16(buf[0:2], uint16(r.Code))
	enc.PutUint16(buf[2:4], uint16(r.Message))
	enc.PutUint32(buf[4:8], r.Length())
	copy(buf[8:], r.Data)
	return buf
}

// DecodeResponse parses a Response out of buf, which must hold exactly
// its encoded length bytes.
func DecodeResponse(buf []byte) (*Response, error) {
	if len(buf) < responseFixedLen {
		return nil, fmt.Errorf("protocol: response frame too short: %d bytes", len(buf))
	}
	length := enc.Uint32(buf[4:8])
	if int(length) != len(buf) {
		return nil, fmt.Errorf("protocol: response length %d does not match frame size %d", length, len(buf))
	}

	r := &Response{
		Code:    ResponseCode(enc.Uint16(buf[0:2])),
		Message: ResponseMessage(enc.Uint16(buf[2:4])),
		Data:    append([]byte(nil), buf[8:]...),
	}
	return r, nil
}
