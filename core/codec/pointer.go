// Package codec implements the offset-pointer wire encodings and the
// inline size reader used to access encoded messages through views.
//
// Three wire-compatible pointer layouts exist, all little-endian with
// offsets measured from the start of the pointer header:
//
//	default:      u32 offset | u24 size | u8 entity (0xFF = escape)
//	legacy-long:  u32 offset | u16 size | u16 entity
//	legacy-short: u16 offset | u16 size (entity = element size)
//
// With the default layout an element stride of 255 bytes or more does not
// fit the entity byte: the byte is set to 0xFF and the real 32-bit stride
// is stored at the head of the referenced region, with element data
// following it.
package codec

import (
	"github.com/artpar/wireschema/core/schema"
	"github.com/artpar/wireschema/core/view"
)

// Pointer is the decoded form of an offset-pointer header.
type Pointer struct {
	// Offset of the referenced region in bytes from the header start.
	Offset uint32
	// Size is the element count.
	Size uint32
	// Entity is the element stride in bytes.
	Entity uint32
}

// ReadPointer decodes the pointer header of f at the view start.
// The second result is false when the field's version is unknown.
func ReadPointer(f *schema.Field, v view.View) (Pointer, bool) {
	var p Pointer
	switch f.PtrVersion {
	case schema.PtrDefault:
		p.Offset = v.Uint32()
		p.Size = v.View(4).Uint24()
		entity := v.View(7).Uint8()
		if entity == 0xFF {
			p.Entity = v.View(int(p.Offset)).Uint32()
			p.Offset += 4
		} else {
			p.Entity = uint32(entity)
		}
	case schema.PtrLegacyLong:
		p.Offset = v.Uint32()
		p.Size = uint32(v.View(4).Uint16())
		p.Entity = uint32(v.View(6).Uint16())
	case schema.PtrLegacyShort:
		p.Offset = uint32(v.Uint16())
		p.Size = uint32(v.View(2).Uint16())
		p.Entity = uint32(f.Ptr.Size)
	default:
		return Pointer{}, false
	}
	return p, true
}

// WritePointer encodes the pointer header of f at the view start.
// Legacy layouts fail with OUT_OF_RANGE when the size (and for the short
// layout, the offset) does not fit 16 bits; the buffer is left unchanged
// on failure. The default layout clamps the header entity byte to 0xFF;
// the real stride must have been reserved by AllocPointer.
func WritePointer(f *schema.Field, v view.View, p Pointer) error {
	switch f.PtrVersion {
	case schema.PtrDefault:
		v.SetUint32(p.Offset)
		v.View(4).SetUint24(p.Size)
		v.View(7).SetUint8(uint8(min(p.Entity, 0xFF)))
	case schema.PtrLegacyLong:
		if p.Size > 0xFFFF {
			return &schema.Error{Code: schema.CodeOutOfRange, Entity: f.Name, Reason: "pointer size does not fit 16 bits"}
		}
		v.SetUint32(p.Offset)
		v.View(4).SetUint16(uint16(p.Size))
		v.View(6).SetUint16(uint16(p.Entity))
	case schema.PtrLegacyShort:
		if p.Size > 0xFFFF {
			return &schema.Error{Code: schema.CodeOutOfRange, Entity: f.Name, Reason: "pointer size does not fit 16 bits"}
		}
		if p.Offset > 0xFFFF {
			return &schema.Error{Code: schema.CodeOutOfRange, Entity: f.Name, Reason: "pointer offset does not fit 16 bits"}
		}
		v.SetUint16(uint16(p.Offset))
		v.View(2).SetUint16(uint16(p.Size))
	default:
		return &schema.Error{Code: schema.CodeOutOfRange, Entity: f.Name, Reason: "unknown offset pointer version"}
	}
	return nil
}

// AllocPointer appends the referenced region at the current tail of the
// view, writes the header, and sets p.Offset to the region. With the
// default layout and an entity of 255 or more the 4-byte entity escape is
// prepended and p.Offset advanced past it, so element indexing covers
// [p.Offset, p.Offset + Size*Entity).
func AllocPointer(f *schema.Field, v view.View, p *Pointer) error {
	p.Offset = uint32(v.Size())
	if err := WritePointer(f, v, *p); err != nil {
		return err
	}
	items := v.View(v.Size())
	if p.Entity >= 0xFF && f.PtrVersion == schema.PtrDefault {
		items.Resize(4 + int(p.Entity)*int(p.Size))
		items.SetUint32(p.Entity)
		p.Offset += 4
	} else {
		items.Resize(int(p.Entity) * int(p.Size))
	}
	return nil
}

// WritePointerSize overwrites only the size of an encoded header,
// leaving offset and entity intact. Used when the payload grows.
func WritePointerSize(f *schema.Field, v view.View, size uint32) {
	switch f.PtrVersion {
	case schema.PtrDefault:
		v.View(4).SetUint24(size)
	case schema.PtrLegacyLong:
		v.View(4).SetUint16(uint16(size))
	case schema.PtrLegacyShort:
		v.View(2).SetUint16(uint16(size))
	}
}
