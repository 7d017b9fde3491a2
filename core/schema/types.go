package schema

import "fmt"

// FieldType is the base type of a field.
type FieldType int

const (
	TypeInt8 FieldType = iota
	TypeInt16
	TypeInt32
	TypeInt64
	TypeUInt8
	TypeUInt16
	TypeUInt32
	TypeUInt64
	TypeDouble
	TypeDecimal128
	TypeBytes
	TypeMessage
	TypeArray
	TypePointer
	TypeUnion
)

// String returns the source-form spelling of the type.
func (t FieldType) String() string {
	switch t {
	case TypeInt8:
		return "int8"
	case TypeInt16:
		return "int16"
	case TypeInt32:
		return "int32"
	case TypeInt64:
		return "int64"
	case TypeUInt8:
		return "uint8"
	case TypeUInt16:
		return "uint16"
	case TypeUInt32:
		return "uint32"
	case TypeUInt64:
		return "uint64"
	case TypeDouble:
		return "double"
	case TypeDecimal128:
		return "decimal128"
	case TypeBytes:
		return "bytes"
	case TypeMessage:
		return "message"
	case TypeArray:
		return "array"
	case TypePointer:
		return "pointer"
	case TypeUnion:
		return "union"
	default:
		return fmt.Sprintf("FieldType(%d)", int(t))
	}
}

// IsInteger reports whether the type is a fixed-width integer.
func (t FieldType) IsInteger() bool {
	switch t {
	case TypeInt8, TypeInt16, TypeInt32, TypeInt64,
		TypeUInt8, TypeUInt16, TypeUInt32, TypeUInt64:
		return true
	default:
		return false
	}
}

// Signed reports whether an integer type is signed.
func (t FieldType) Signed() bool {
	switch t {
	case TypeInt8, TypeInt16, TypeInt32, TypeInt64:
		return true
	default:
		return false
	}
}

// Width returns the storage width in bytes for scalar types, 0 otherwise.
func (t FieldType) Width() int {
	switch t {
	case TypeInt8, TypeUInt8:
		return 1
	case TypeInt16, TypeUInt16:
		return 2
	case TypeInt32, TypeUInt32:
		return 4
	case TypeInt64, TypeUInt64, TypeDouble:
		return 8
	case TypeDecimal128:
		return 16
	default:
		return 0
	}
}

// SubType is a semantic annotation overlaid on a base type.
type SubType int

const (
	SubNone SubType = iota
	SubEnum
	SubByteString
	SubFixedPoint
	SubTimePoint
	SubDuration
	SubBits
)

// String returns the annotation name.
func (s SubType) String() string {
	switch s {
	case SubNone:
		return "none"
	case SubEnum:
		return "enum"
	case SubByteString:
		return "byte-string"
	case SubFixedPoint:
		return "fixed-point"
	case SubTimePoint:
		return "time-point"
	case SubDuration:
		return "duration"
	case SubBits:
		return "bits"
	default:
		return fmt.Sprintf("SubType(%d)", int(s))
	}
}

// TimeResolution is the unit applied to stored time values.
type TimeResolution int

const (
	ResNanosecond TimeResolution = iota
	ResMicrosecond
	ResMillisecond
	ResSecond
	ResMinute
	ResHour
	ResDay
)

// String returns the source-form spelling of the resolution.
func (r TimeResolution) String() string {
	switch r {
	case ResNanosecond:
		return "ns"
	case ResMicrosecond:
		return "us"
	case ResMillisecond:
		return "ms"
	case ResSecond:
		return "s"
	case ResMinute:
		return "m"
	case ResHour:
		return "h"
	case ResDay:
		return "d"
	default:
		return fmt.Sprintf("TimeResolution(%d)", int(r))
	}
}

// ParseTimeResolution parses a source-form resolution string.
func ParseTimeResolution(s string) (TimeResolution, error) {
	switch s {
	case "ns":
		return ResNanosecond, nil
	case "us":
		return ResMicrosecond, nil
	case "ms":
		return ResMillisecond, nil
	case "s":
		return ResSecond, nil
	case "m":
		return ResMinute, nil
	case "h":
		return ResHour, nil
	case "d":
		return ResDay, nil
	default:
		return 0, fmt.Errorf("unknown time resolution %q", s)
	}
}

// OffsetPtrVersion selects one of the wire-compatible offset-pointer layouts.
type OffsetPtrVersion int

const (
	// PtrDefault: u32 offset, u24 size, u8 entity with 0xFF escape.
	PtrDefault OffsetPtrVersion = iota
	// PtrLegacyShort: u16 offset, u16 size, entity implied by element size.
	PtrLegacyShort
	// PtrLegacyLong: u32 offset, u16 size, u16 entity.
	PtrLegacyLong
)

// HeaderSize returns the fixed on-wire size of the pointer header.
// Unknown versions return 0.
func (v OffsetPtrVersion) HeaderSize() int {
	switch v {
	case PtrDefault, PtrLegacyLong:
		return 8
	case PtrLegacyShort:
		return 4
	default:
		return 0
	}
}

// String returns the source-form spelling of the version.
func (v OffsetPtrVersion) String() string {
	switch v {
	case PtrDefault:
		return "default"
	case PtrLegacyShort:
		return "legacy-short"
	case PtrLegacyLong:
		return "legacy-long"
	default:
		return fmt.Sprintf("OffsetPtrVersion(%d)", int(v))
	}
}

// ParseOffsetPtrVersion parses a source-form version string.
// The empty string selects the default layout.
func ParseOffsetPtrVersion(s string) (OffsetPtrVersion, error) {
	switch s {
	case "", "default":
		return PtrDefault, nil
	case "legacy-short":
		return PtrLegacyShort, nil
	case "legacy-long":
		return PtrLegacyLong, nil
	default:
		return 0, fmt.Errorf("unknown offset pointer version %q", s)
	}
}
