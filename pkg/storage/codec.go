package storage

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"
)

// Snapshot values are encoded deterministically: re-persisting an
// unchanged subscription set yields identical bytes, so stores that
// compare before writing see no spurious change.
var encMode cbor.EncMode

// Decoding stays lenient so a snapshot written by a newer release (extra
// fields, indefinite-length containers) still restores.
var decMode cbor.DecMode

func init() {
	var err error

	encOpts := cbor.EncOptions{
		Sort:          cbor.SortCanonical,
		IndefLength:   cbor.IndefLengthForbidden,
		NilContainers: cbor.NilContainerAsNull,
		Time:          cbor.TimeUnix,
	}
	encMode, err = encOpts.EncMode()
	if err != nil {
		panic(fmt.Sprintf("storage: invalid CBOR encoder options: %v", err))
	}

	decOpts := cbor.DecOptions{
		DupMapKey:         cbor.DupMapKeyQuiet,
		IndefLength:       cbor.IndefLengthAllowed,
		ExtraReturnErrors: cbor.ExtraDecErrorNone,
	}
	decMode, err = decOpts.DecMode()
	if err != nil {
		panic(fmt.Sprintf("storage: invalid CBOR decoder options: %v", err))
	}
}

// Marshal encodes a value for storage.
func Marshal(v any) ([]byte, error) {
	return encMode.Marshal(v)
}

// Unmarshal decodes a stored value.
func Unmarshal(data []byte, v any) error {
	return decMode.Unmarshal(data, v)
}
