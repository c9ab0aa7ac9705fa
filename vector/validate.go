package vector

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common/hexutil"
)

const (
	signatureLen = 64
	addressLen   = 32
)

// ValidateTx checks the structural well-formedness of a structured
// transaction object before it is sent anywhere. Fixture corpora carry
// placeholder hex in some structured transactions; executing those
// would produce a misleading failure, so they are caught here and
// surfaced as skip reasons instead. Fields absent from the object are
// not checked, and the check as a whole is bypassed by callers when a
// raw wire_hex encoding is available.
func ValidateTx(tx map[string]any) error {
	if err := checkHexField(tx, "signature", signatureLen); err != nil {
		return err
	}
	if err := checkHexField(tx, "source", addressLen); err != nil {
		return err
	}
	payload, ok := tx["payload"].([]any)
	if !ok {
		return nil
	}
	for i, item := range payload {
		entry, ok := item.(map[string]any)
		if !ok {
			continue
		}
		if err := checkHexField(entry, "destination", addressLen); err != nil {
			return fmt.Errorf("payload[%d]: %w", i, err)
		}
		if err := checkHexField(entry, "asset", addressLen); err != nil {
			return fmt.Errorf("payload[%d]: %w", i, err)
		}
	}
	return nil
}

// ValidateTxEntry applies ValidateTx to one block transaction entry.
// The raw encoding, when present, is trusted as source of truth.
func ValidateTxEntry(e TxEntry) error {
	if e.WireHex != "" || e.Tx == nil {
		return nil
	}
	return ValidateTx(e.Tx)
}

func checkHexField(obj map[string]any, field string, wantLen int) error {
	raw, ok := obj[field]
	if !ok {
		return nil
	}
	s, ok := raw.(string)
	if !ok {
		return fmt.Errorf("%s is not a hex string", field)
	}
	b, err := decodeHex(s)
	if err != nil {
		return fmt.Errorf("%s is not valid hex: %v", field, err)
	}
	if len(b) != wantLen {
		return fmt.Errorf("%s is %d bytes, want %d", field, len(b), wantLen)
	}
	return nil
}

// decodeHex accepts hex with or without the 0x prefix.
func decodeHex(s string) ([]byte, error) {
	if !strings.HasPrefix(s, "0x") && !strings.HasPrefix(s, "0X") {
		s = "0x" + s
	}
	return hexutil.Decode(s)
}
