package harness

import (
	"encoding/json"
	"fmt"

	"github.com/tos-network/toslab/log"
	"github.com/tos-network/toslab/vector"
)

// Node endpoints consumed by the harness.
const (
	pathStateReset  = "/state/reset"
	pathStateLoad   = "/state/load"
	pathStateDigest = "/state/digest"
	pathStateExport = "/state/export"
	pathTxExecute   = "/tx/execute"
	pathTxRoundtrip = "/tx/roundtrip"
	pathBlockExec   = "/block/execute"
	pathChainExec   = "/chain/execute"
	pathJSONRPC     = "/json_rpc"
)

// ExecResult is the node's answer to an execution operation.
type ExecResult struct {
	Success     bool   `json:"success"`
	ErrorCode   int    `json:"error_code"`
	StateDigest string `json:"state_digest"`
}

// Result collects everything a single dispatch produced. Request and
// LoadResult are kept so --dump can echo the intermediate JSON.
type Result struct {
	Kind       vector.Kind
	Request    any
	LoadResult json.RawMessage
	Exec       ExecResult
	Response   json.RawMessage
	Post       *vector.PostState
}

// Preflight decides whether a vector can be executed at all. A non-nil
// error is the skip reason; no network traffic happens here.
func Preflight(vec *vector.TestVector) error {
	in := &vec.Input
	switch in.ResolveKind() {
	case vector.KindTx:
		if in.WireHex == "" && in.Tx != nil {
			if err := vector.ValidateTx(in.Tx); err != nil {
				return err
			}
		}
	case vector.KindTxRoundtrip:
		if in.WireHex == "" {
			return fmt.Errorf("tx_roundtrip vector missing wire_hex")
		}
	case vector.KindBlock:
		if len(in.Txs) == 0 {
			return fmt.Errorf("block vector has no txs")
		}
		for i, e := range in.Txs {
			if err := vector.ValidateTxEntry(e); err != nil {
				return fmt.Errorf("txs[%d]: %w", i, err)
			}
		}
	case vector.KindChain:
		if len(in.Blocks) == 0 {
			return fmt.Errorf("chain vector has no blocks")
		}
		for i, b := range in.Blocks {
			for j, e := range b.Txs {
				if err := vector.ValidateTxEntry(e); err != nil {
					return fmt.Errorf("blocks[%d].txs[%d]: %w", i, j, err)
				}
			}
		}
	case vector.KindRPC:
		if len(in.RPC) == 0 {
			return fmt.Errorf("rpc vector has empty rpc envelope")
		}
	}
	return nil
}

// Dispatch runs the pre/post sequence for one vector: reset the node,
// load pre_state when present, execute the per-kind operation, then
// export state when the expectations ask for a post_state comparison.
// Callers are expected to have passed Preflight first.
func Dispatch(c Client, vec *vector.TestVector) (*Result, error) {
	res := &Result{Kind: vec.Input.ResolveKind()}

	if err := c.PostJSON(pathStateReset, map[string]any{}, nil); err != nil {
		return nil, fmt.Errorf("state reset: %w", err)
	}
	if vec.PreState != nil {
		if err := c.PostJSON(pathStateLoad, vec.PreState, &res.LoadResult); err != nil {
			return nil, fmt.Errorf("state load: %w", err)
		}
	}

	if err := execute(c, vec, res); err != nil {
		return nil, err
	}

	if vec.Expected.PostState != nil {
		var post vector.PostState
		if err := c.GetJSON(pathStateExport, &post); err != nil {
			return nil, fmt.Errorf("state export: %w", err)
		}
		res.Post = &post
	}
	return res, nil
}

func execute(c Client, vec *vector.TestVector, res *Result) error {
	in := &vec.Input
	switch res.Kind {
	case vector.KindTx:
		payload := map[string]any{}
		if in.WireHex != "" {
			payload["wire_hex"] = in.WireHex
		} else {
			payload["tx"] = in.Tx
		}
		res.Request = payload
		if err := c.PostJSON(pathTxExecute, payload, &res.Exec); err != nil {
			return fmt.Errorf("tx execute: %w", err)
		}
	case vector.KindTxRoundtrip:
		payload := map[string]any{"wire_hex": in.WireHex}
		res.Request = payload
		if err := c.PostJSON(pathTxRoundtrip, payload, &res.Exec); err != nil {
			return fmt.Errorf("tx roundtrip: %w", err)
		}
	case vector.KindBlock:
		payload := map[string]any{"txs": in.Txs}
		res.Request = payload
		if err := c.PostJSON(pathBlockExec, payload, &res.Exec); err != nil {
			return fmt.Errorf("block execute: %w", err)
		}
	case vector.KindChain:
		payload := map[string]any{"blocks": blockPayload(in.Blocks)}
		res.Request = payload
		if err := c.PostJSON(pathChainExec, payload, &res.Exec); err != nil {
			return fmt.Errorf("chain execute: %w", err)
		}
	case vector.KindRPC:
		res.Request = in.RPC
		url := resolveRPCURL(in.RPCURL)
		if err := c.PostJSON(url, in.RPC, &res.Response); err != nil {
			return fmt.Errorf("json_rpc: %w", err)
		}
	case vector.KindDigest:
		if err := c.GetJSON(pathStateDigest, &res.Exec); err != nil {
			return fmt.Errorf("state digest: %w", err)
		}
	default:
		return fmt.Errorf("unknown vector kind %q", in.Kind)
	}
	log.Debug(log.DispatchModule, "dispatched", "kind", res.Kind, "name", vec.Name)
	return nil
}

// blockPayload forwards block descriptors unmodified, normalizing only
// the json shape: parents and txs are always lists, never null.
func blockPayload(blocks []vector.BlockDescriptor) []map[string]any {
	out := make([]map[string]any, 0, len(blocks))
	for _, b := range blocks {
		parents := b.Parents
		if parents == nil {
			parents = []string{}
		}
		txs := b.Txs
		if txs == nil {
			txs = []vector.TxEntry{}
		}
		out = append(out, map[string]any{
			"id":           b.ID,
			"parents":      parents,
			"height":       b.Height,
			"timestamp_ms": b.TimestampMS,
			"txs":          txs,
		})
	}
	return out
}

// resolveRPCURL maps a vector's rpc_url override onto a client path.
// Empty means the standard endpoint; absolute URLs pass through.
func resolveRPCURL(rpcURL string) string {
	if rpcURL == "" {
		return pathJSONRPC
	}
	return rpcURL
}
