package codec

import (
	"github.com/artpar/wireschema/core/schema"
	"github.com/artpar/wireschema/core/view"
)

// ReadSize reads an integer count through the field's declared width.
// Non-integer fields return -1.
func ReadSize(f *schema.Field, v view.View) int64 {
	switch f.Type {
	case schema.TypeInt8:
		return int64(v.Int8())
	case schema.TypeInt16:
		return int64(v.Int16())
	case schema.TypeInt32:
		return int64(v.Int32())
	case schema.TypeInt64:
		return v.Int64()
	case schema.TypeUInt8:
		return int64(v.Uint8())
	case schema.TypeUInt16:
		return int64(v.Uint16())
	case schema.TypeUInt32:
		return int64(v.Uint32())
	case schema.TypeUInt64:
		return int64(v.Uint64())
	default:
		return -1
	}
}

// WriteSize stores n through the field's declared width. Values wider
// than the target are truncated by two's-complement store; non-integer
// fields are a no-op.
func WriteSize(f *schema.Field, v view.View, n int64) {
	switch f.Type {
	case schema.TypeInt8:
		v.SetInt8(int8(n))
	case schema.TypeInt16:
		v.SetInt16(int16(n))
	case schema.TypeInt32:
		v.SetInt32(int32(n))
	case schema.TypeInt64:
		v.SetInt64(n)
	case schema.TypeUInt8:
		v.SetUint8(uint8(n))
	case schema.TypeUInt16:
		v.SetUint16(uint16(n))
	case schema.TypeUInt32:
		v.SetUint32(uint32(n))
	case schema.TypeUInt64:
		v.SetUint64(uint64(n))
	}
}
