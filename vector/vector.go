// Package vector holds the fixture data model for conformance test
// vectors, the loader that discovers them on disk and the pre-flight
// validator that decides whether a vector is executable at all.
package vector

// Kind selects the remote operation a vector exercises.
type Kind string

const (
	KindTx          Kind = "tx"
	KindTxRoundtrip Kind = "tx_roundtrip"
	KindBlock       Kind = "block"
	KindChain       Kind = "chain"
	KindRPC         Kind = "rpc"
	KindDigest      Kind = "digest"
)

// Suite is the top-level document shape of a fixture file.
type Suite struct {
	TestVectors []TestVector `json:"test_vectors" yaml:"test_vectors"`
}

// TestVector is one self-contained test case. Vectors are independent:
// the remote node is reset before each one, so nothing carries over.
type TestVector struct {
	Name        string         `json:"name" yaml:"name"`
	Description string         `json:"description" yaml:"description"`
	Runnable    *bool          `json:"runnable" yaml:"runnable"`
	PreState    map[string]any `json:"pre_state" yaml:"pre_state"`
	Input       Input          `json:"input" yaml:"input"`
	Expected    Expected       `json:"expected" yaml:"expected"`
}

// Skipped reports whether the vector is marked runnable=false.
func (v *TestVector) Skipped() bool {
	return v.Runnable != nil && !*v.Runnable
}

// Input is the action side of a vector. Which fields are meaningful
// depends on the resolved kind.
type Input struct {
	Kind    string            `json:"kind" yaml:"kind"`
	WireHex string            `json:"wire_hex" yaml:"wire_hex"`
	Tx      map[string]any    `json:"tx" yaml:"tx"`
	Txs     []TxEntry         `json:"txs" yaml:"txs"`
	Blocks  []BlockDescriptor `json:"blocks" yaml:"blocks"`
	RPC     map[string]any    `json:"rpc" yaml:"rpc"`
	RPCURL  string            `json:"rpc_url" yaml:"rpc_url"`
}

// TxEntry is one transaction inside a block: either a raw encoding or
// a structured object (or both, in which case the raw form wins).
type TxEntry struct {
	WireHex string         `json:"wire_hex,omitempty" yaml:"wire_hex"`
	Tx      map[string]any `json:"tx,omitempty" yaml:"tx"`
}

// BlockDescriptor describes one block of a chain vector. Parents may
// name more than one block: chain fixtures form a DAG, not necessarily
// a linear chain. All fields are forwarded to the node unmodified.
type BlockDescriptor struct {
	ID          string    `json:"id" yaml:"id"`
	Parents     []string  `json:"parents" yaml:"parents"`
	Height      uint64    `json:"height" yaml:"height"`
	TimestampMS uint64    `json:"timestamp_ms" yaml:"timestamp_ms"`
	Txs         []TxEntry `json:"txs" yaml:"txs"`
}

// Expected is a partial specification of the outcome: only the fields
// present are checked. Response is the full-equality target for rpc
// vectors and replaces all other axes for them.
type Expected struct {
	Success     *bool      `json:"success" yaml:"success"`
	ErrorCode   *int       `json:"error_code" yaml:"error_code"`
	StateDigest string     `json:"state_digest" yaml:"state_digest"`
	PostState   *PostState `json:"post_state" yaml:"post_state"`
	Response    any        `json:"response" yaml:"response"`
}

// PostState is a snapshot of global and per-account state used for
// partial-match verification. Account records are keyed by "address".
type PostState struct {
	GlobalState map[string]any   `json:"global_state" yaml:"global_state"`
	Accounts    []map[string]any `json:"accounts" yaml:"accounts"`
}

// GlobalStateFields is the fixed field set of global_state.
var GlobalStateFields = []string{"total_supply", "total_burned", "total_energy", "block_height", "timestamp"}

// AccountFields is the fixed field set of an account record, address excluded.
var AccountFields = []string{"balance", "nonce", "frozen", "energy", "flags", "data"}

// ResolveKind determines the operation a vector targets. An explicit
// non-default kind always wins. Vectors that declare the default kind
// (or none) but carry only an rpc envelope are reinterpreted as rpc;
// default-kind vectors with no recognizable input fall back to a bare
// digest fetch.
func (in *Input) ResolveKind() Kind {
	switch Kind(in.Kind) {
	case KindTxRoundtrip, KindBlock, KindChain, KindRPC, KindDigest:
		return Kind(in.Kind)
	}
	// Default kind. The rpc inference takes priority over default-to-tx:
	// an rpc envelope with no wire_hex and no tx means the author wrote
	// an rpc vector and left kind alone.
	if len(in.RPC) > 0 && in.WireHex == "" && in.Tx == nil {
		return KindRPC
	}
	if in.WireHex == "" && in.Tx == nil {
		return KindDigest
	}
	return KindTx
}
