// Package records converts pipeline models to and from the byte forms that
// cross the library boundary.
//
// Chunks, assets and manifests are encoded as CBOR using Core Deterministic
// Encoding (RFC 8949 §4.2) with small integer map keys, so the same record
// always produces the same bytes. Every record carries SchemaVersion; a
// record with any other version is rejected rather than guessed at.
//
// Manifests additionally have a JSON form for humans and for tooling that
// does not speak CBOR.
package records

import (
	"fmt"
	"reflect"

	"github.com/fxamacker/cbor/v2"

	"github.com/dmitrijs2005/ipchunk/internal/common"
)

// SchemaVersion is written into every encoded record.
const SchemaVersion = 1

var (
	encMode cbor.EncMode
	decMode cbor.DecMode
)

func init() {
	var err error

	encMode, err = cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic("records: CBOR encoder initialization failed: " + err.Error())
	}

	decMode, err = cbor.DecOptions{
		DefaultMapType: reflect.TypeOf(map[string]any(nil)),
	}.DecMode()
	if err != nil {
		panic("records: CBOR decoder initialization failed: " + err.Error())
	}
}

func marshal(v any) ([]byte, error) {
	return encMode.Marshal(v)
}

// unmarshal decodes data into v. Any decoding problem, including trailing
// bytes after the record, is reported as ErrMalformedInput.
func unmarshal(kind string, data []byte, v any) error {
	if err := decMode.Unmarshal(data, v); err != nil {
		return fmt.Errorf("%w: decoding %s: %w", common.ErrMalformedInput, kind, err)
	}
	return nil
}

func checkSchema(kind string, got int) error {
	if got != SchemaVersion {
		return fmt.Errorf("%w: %s schema version %d, want %d", common.ErrMalformedInput, kind, got, SchemaVersion)
	}
	return nil
}
