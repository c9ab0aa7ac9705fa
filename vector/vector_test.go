package vector

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolveKind(t *testing.T) {
	rpc := map[string]any{"method": "get_info"}
	tx := map[string]any{"nonce": 1}

	testCases := []struct {
		name string
		in   Input
		want Kind
	}{
		{"explicit tx_roundtrip", Input{Kind: "tx_roundtrip", WireHex: "aabb"}, KindTxRoundtrip},
		{"explicit block", Input{Kind: "block"}, KindBlock},
		{"explicit chain", Input{Kind: "chain"}, KindChain},
		{"explicit rpc", Input{Kind: "rpc", RPC: rpc}, KindRPC},
		{"explicit digest", Input{Kind: "digest"}, KindDigest},
		{"default with wire_hex", Input{WireHex: "aabb"}, KindTx},
		{"default with tx", Input{Tx: tx}, KindTx},
		{"default with nothing falls back to digest", Input{}, KindDigest},
		// An rpc envelope with no wire_hex and no tx reinterprets the
		// vector as rpc even though kind literally reads as the default.
		{"rpc inferred with kind unset", Input{RPC: rpc}, KindRPC},
		{"rpc inferred with kind tx", Input{Kind: "tx", RPC: rpc}, KindRPC},
		{"rpc not inferred when wire_hex present", Input{RPC: rpc, WireHex: "aabb"}, KindTx},
		{"rpc not inferred when tx present", Input{RPC: rpc, Tx: tx}, KindTx},
		{"rpc never overrides explicit non-default kind", Input{Kind: "block", RPC: rpc}, KindBlock},
		{"empty rpc object does not infer", Input{RPC: map[string]any{}}, KindDigest},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.in.ResolveKind())
		})
	}
}

func TestSkipped(t *testing.T) {
	truth := true
	falsehood := false
	assert.False(t, (&TestVector{}).Skipped())
	assert.False(t, (&TestVector{Runnable: &truth}).Skipped())
	assert.True(t, (&TestVector{Runnable: &falsehood}).Skipped())
}
