package lukchat

import (
	"encoding"
)

type (
	// Payload is a generic interface for the application data carried by a
	// Block. The engine never looks inside a payload, it only relies on
	// the following properties:
	// 1. Payloads are compared with ==, two equal payloads carry the same data.
	// 2. Payloads are copied by value and have no interior mutability, so a
	//    copy can be shared between goroutines.
	// 3. MarshalBinary is deterministic, equal payloads have equal encodings.
	Payload interface {
		comparable
		encoding.BinaryMarshaler
	}

	// PayloadDecoder restores payload from the representation produced by
	// its MarshalBinary.
	PayloadDecoder[T Payload] func(data []byte) (T, error)
)
