// File: protocol/record.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Fixed-layout calculator record and its big-endian wire codec.
// Wire layout (20 bytes, network byte order):
//
//	[0:4)   operand1
//	[4:8)   operand2
//	[8:12)  operation (ASCII code of + - * /)
//	[12:16) status
//	[16:20) result

package protocol

import (
	"encoding/binary"
	"fmt"

	"github.com/momentics/hioload-calc/api"
)

// RecordSize is the fixed, non-negotiable size of one record on the wire.
const RecordSize = 5 * 4

const (
	StatusOK    int32 = 0
	StatusError int32 = -1
)

// Operation holds the ASCII byte of the arithmetic operator.
type Operation int32

const (
	OpAdd Operation = '+'
	OpSub Operation = '-'
	OpMul Operation = '*'
	OpDiv Operation = '/'
)

// Valid reports whether op is one of + - * /.
func (op Operation) Valid() bool {
	switch op {
	case OpAdd, OpSub, OpMul, OpDiv:
		return true
	}
	return false
}

func (op Operation) String() string {
	if op >= 0x20 && op < 0x7f {
		return string(rune(op))
	}
	return fmt.Sprintf("0x%x", int32(op))
}

// ParseOperation parses the command-line operation argument. Only the first
// character is significant, as in the classic client.
func ParseOperation(s string) (Operation, error) {
	if s == "" {
		return 0, fmt.Errorf("empty operation")
	}
	op := Operation(s[0])
	if !op.Valid() {
		return 0, fmt.Errorf("operation must be one of the following: +, -, *, /")
	}
	return op, nil
}

// Record is one request or response.
type Record struct {
	Operand1  int32
	Operand2  int32
	Operation Operation
	Status    int32
	Result    int32
}

// NewRequest builds a client request with status and result zeroed.
func NewRequest(op1, op2 int32, op Operation) Record {
	return Record{Operand1: op1, Operand2: op2, Operation: op}
}

// Validate checks the client-side request invariants. The upper operand
// bound is MaxInt32 and is implied by the field type.
func (r Record) Validate() error {
	if r.Operand1 < 0 {
		return fmt.Errorf("operand 1 must be a positive integer")
	}
	if r.Operand2 < 0 {
		return fmt.Errorf("operand 2 must be a positive integer")
	}
	if !r.Operation.Valid() {
		return fmt.Errorf("operation must be one of the following: +, -, *, /")
	}
	return nil
}

// Decode converts exactly RecordSize bytes into a Record.
func Decode(b []byte) (Record, error) {
	if len(b) != RecordSize {
		return Record{}, fmt.Errorf("decode %d bytes: %w", len(b), api.ErrShortRecord)
	}
	return Record{
		Operand1:  int32(binary.BigEndian.Uint32(b[0:4])),
		Operand2:  int32(binary.BigEndian.Uint32(b[4:8])),
		Operation: Operation(binary.BigEndian.Uint32(b[8:12])),
		Status:    int32(binary.BigEndian.Uint32(b[12:16])),
		Result:    int32(binary.BigEndian.Uint32(b[16:20])),
	}, nil
}

// Encode serializes all five fields in network byte order.
func (r Record) Encode() [RecordSize]byte {
	var out [RecordSize]byte
	r.AppendEncode(out[:0])
	return out
}

// AppendEncode appends the wire form of r to dst.
func (r Record) AppendEncode(dst []byte) []byte {
	dst = binary.BigEndian.AppendUint32(dst, uint32(r.Operand1))
	dst = binary.BigEndian.AppendUint32(dst, uint32(r.Operand2))
	dst = binary.BigEndian.AppendUint32(dst, uint32(r.Operation))
	dst = binary.BigEndian.AppendUint32(dst, uint32(r.Status))
	dst = binary.BigEndian.AppendUint32(dst, uint32(r.Result))
	return dst
}

// Compute applies the operation and returns the populated response.
// Failures are reported through Status; Result is left untouched on failure.
// Arithmetic wraps with int32 two's-complement semantics.
func Compute(req Record) Record {
	resp := req
	switch req.Operation {
	case OpAdd:
		resp.Result = req.Operand1 + req.Operand2
		resp.Status = StatusOK
	case OpSub:
		resp.Result = req.Operand1 - req.Operand2
		resp.Status = StatusOK
	case OpMul:
		resp.Result = req.Operand1 * req.Operand2
		resp.Status = StatusOK
	case OpDiv:
		if req.Operand2 == 0 {
			resp.Status = StatusError
			break
		}
		resp.Result = req.Operand1 / req.Operand2
		resp.Status = StatusOK
	default:
		resp.Status = StatusError
	}
	return resp
}
