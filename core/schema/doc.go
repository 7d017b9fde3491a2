/*
Package schema models binary message schemas and fixes their wire layout.

A schema is a catalog of messages, enums, unions and aliases. Messages are
fixed-size bodies of fields laid out in declaration order; variable-length
data is reached through offset-pointer fields into a trailing region. The
fix pass resolves named type references, computes every size and offset,
and validates the layout invariants, after which the schema is immutable
and safe to share across readers.

# Source form

Schemas are written in YAML:

	enums:
	  Side:
	    type: uint8
	    values: {Buy: 0, Sell: 1}

	messages:
	  - name: Tick
	    id: 10
	    fields:
	      - {name: side, type: Side}
	      - {name: price, type: int64, fixed: 8}
	      - {name: qty, type: uint16}
	      - {name: note, type: string}

Field type strings cover scalars (int8..uint64, double, decimal128),
byte<N> blobs, string, arrays (int32[8]), offset pointers (*Trade) and
named references to messages, enums, unions or aliases. Annotations
overlay semantics on the base type: fixed-point precision, time point or
duration with a resolution, and named bit ranges.

# Lifecycle

Schemas are shared through an atomic reference count:

	s, err := schema.ParseFile("market.yaml")
	if err != nil { ... }
	if err := s.Fix(); err != nil { ... }
	defer s.Unref()

Copy produces an independent deep copy; user-data slots on schema,
message and field let callers attach compiled artifacts, with an optional
disposer invoked when the last reference is dropped.

# Wire layout

Scalars are little-endian and packed; no implicit padding is inserted.
An array is its inline count followed by max-count elements; a union is
its integer discriminator followed by the largest variant's payload; a
pointer is a fixed-size header whose offset is relative to the header
start. See the codec package for header encodings.
*/
package schema
