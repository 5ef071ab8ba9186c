package core

// wasmhost.go - the WASM host interface smart contracts and the default
// executor's WASM-backed counterpart run under. Grounded on
// virtual_machine.go's HeavyVM: wasmer-go store/module/instance
// construction, registerHost's pattern of building wasmer.NewFunction
// closures and registering them via wasmer.NewImportObject().Register, and
// memory access through instance.Exports.GetMemory("memory").Data().
//
// Two deviations from virtual_machine.go, both driven by the spec: the host
// import namespace is "iroha" (not "env"), and the exposed functions are
// execute_isi/execute_query/log (not host_read/host_write),
// matching original_source's core/src/smartcontracts/wasm.rs ABI. wasmer-go
// has no public equivalent of wasmtime's fuel metering API used by the
// original, so determinism-relevant resource exhaustion is instead enforced
// by a host-side call counter charged per execute_isi/execute_query
// invocation -- see DESIGN.md's Open Questions section.

import (
	"encoding/binary"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/wasmerio/wasmer-go/wasmer"
)

// DefaultFuelLimit is the fuel limit NewWasmHost uses when given 0. The fuel
// limit bounds the number of execute_isi/execute_query calls a single guest
// invocation may make; it approximates wasmtime's instruction-level fuel at
// host-call granularity.
const DefaultFuelLimit uint64 = 100_000

// WasmHost executes guest WASM modules against a StateTransaction.
type WasmHost struct {
	engine    *wasmer.Engine
	fuelLimit uint64
}

// NewWasmHost builds a WasmHost around a fresh wasmer engine.
func NewWasmHost(fuelLimit uint64) *WasmHost {
	if fuelLimit == 0 {
		fuelLimit = DefaultFuelLimit
	}
	return &WasmHost{engine: wasmer.NewEngine(), fuelLimit: fuelLimit}
}

// callState is the per-invocation state the host closures below close over.
// instance/mem are filled in after instantiation since the import object
// must be built before the instance exists.
type callState struct {
	instance  *wasmer.Instance
	mem       *wasmer.Memory
	tx        *StateTransaction
	authority AccountId
	callID    uuid.UUID
	fuelUsed  uint64
	fuelLimit uint64
	lastErr   error
}

func (cs *callState) charge() error {
	cs.fuelUsed++
	if cs.fuelUsed > cs.fuelLimit {
		return fmt.Errorf("wasmhost: fuel limit %d exceeded", cs.fuelLimit)
	}
	return nil
}

func (cs *callState) readMemory(ptr, length int32) ([]byte, error) {
	data := cs.mem.Data()
	if ptr < 0 || length < 0 || int(ptr)+int(length) > len(data) {
		return nil, fmt.Errorf("wasmhost: out-of-bounds memory read [%d:%d)", ptr, ptr+length)
	}
	out := make([]byte, length)
	copy(out, data[ptr:ptr+length])
	return out, nil
}

func (cs *callState) writeMemory(ptr int32, payload []byte) error {
	data := cs.mem.Data()
	if ptr < 0 || int(ptr)+len(payload) > len(data) {
		return fmt.Errorf("wasmhost: out-of-bounds memory write at %d len %d", ptr, len(payload))
	}
	copy(data[ptr:], payload)
	return nil
}

// alloc invokes the guest's exported "alloc" function, required by the ABI
// for any call that returns variable-length data to the guest.
func (cs *callState) alloc(size int32) (int32, error) {
	fn, err := cs.instance.Exports.GetFunction("alloc")
	if err != nil {
		return 0, fmt.Errorf("wasmhost: guest does not export alloc: %w", err)
	}
	ret, err := fn(size)
	if err != nil {
		return 0, err
	}
	ptr, ok := ret.(int32)
	if !ok {
		return 0, fmt.Errorf("wasmhost: alloc returned unexpected type %T", ret)
	}
	return ptr, nil
}

// CallResult reports the outcome of running a guest module.
type CallResult struct {
	FuelUsed uint64
}

// ExecuteSmartContract instantiates code and invokes its "main" export with
// (authority_ptr, authority_len) pointing at the authority's canonical JSON
// encoding, per the original ABI. Instructions the guest submits via
// execute_isi are applied against tx as they arrive; a failing instruction
// aborts the whole call (the guest's module-level changes, if any were
// already applied, are not rolled back individually -- the caller is
// expected to have wrapped tx in its own nested StateTransaction, exactly
// as a block's per-transaction isolation in sumeragi.go does).
func (h *WasmHost) ExecuteSmartContract(code []byte, tx *StateTransaction, authority AccountId) (CallResult, error) {
	store := wasmer.NewStore(h.engine)
	module, err := wasmer.NewModule(store, code)
	if err != nil {
		return CallResult{}, fmt.Errorf("wasmhost: compile module: %w", err)
	}

	cs := &callState{tx: tx, authority: authority, callID: uuid.New(), fuelLimit: h.fuelLimit}
	importObject := wasmer.NewImportObject()
	importObject.Register("iroha", map[string]wasmer.IntoExtern{
		"execute_isi": wasmer.NewFunction(store,
			wasmer.NewFunctionType(wasmer.NewValueTypes(wasmer.I32, wasmer.I32), wasmer.NewValueTypes(wasmer.I32)),
			func(args []wasmer.Value) ([]wasmer.Value, error) {
				if err := cs.charge(); err != nil {
					cs.lastErr = err
					return []wasmer.Value{wasmer.NewI32(1)}, nil
				}
				ptr, length := args[0].I32(), args[1].I32()
				raw, err := cs.readMemory(ptr, length)
				if err != nil {
					cs.lastErr = err
					return []wasmer.Value{wasmer.NewI32(1)}, nil
				}
				isi, err := decodeInstruction(raw)
				if err != nil {
					cs.lastErr = err
					return []wasmer.Value{wasmer.NewI32(1)}, nil
				}
				if err := cs.tx.Apply(isi, cs.authority); err != nil {
					cs.lastErr = err
					return []wasmer.Value{wasmer.NewI32(1)}, nil
				}
				return []wasmer.Value{wasmer.NewI32(0)}, nil
			},
		),
		"execute_query": wasmer.NewFunction(store,
			wasmer.NewFunctionType(wasmer.NewValueTypes(wasmer.I32, wasmer.I32), wasmer.NewValueTypes(wasmer.I64)),
			func(args []wasmer.Value) ([]wasmer.Value, error) {
				if err := cs.charge(); err != nil {
					cs.lastErr = err
					return []wasmer.Value{wasmer.NewI64(0)}, nil
				}
				ptr, length := args[0].I32(), args[1].I32()
				raw, err := cs.readMemory(ptr, length)
				if err != nil {
					cs.lastErr = err
					return []wasmer.Value{wasmer.NewI64(0)}, nil
				}
				q, err := decodeQuery(raw)
				if err != nil {
					cs.lastErr = err
					return []wasmer.Value{wasmer.NewI64(0)}, nil
				}
				result, err := q.Execute(cs.tx.world)
				if err != nil {
					cs.lastErr = err
					return []wasmer.Value{wasmer.NewI64(0)}, nil
				}
				encoded, err := canonicalJSON(result)
				if err != nil {
					cs.lastErr = err
					return []wasmer.Value{wasmer.NewI64(0)}, nil
				}
				outPtr, err := cs.alloc(int32(len(encoded)))
				if err != nil {
					cs.lastErr = err
					return []wasmer.Value{wasmer.NewI64(0)}, nil
				}
				if err := cs.writeMemory(outPtr, encoded); err != nil {
					cs.lastErr = err
					return []wasmer.Value{wasmer.NewI64(0)}, nil
				}
				packed := int64(outPtr)<<32 | int64(uint32(len(encoded)))
				return []wasmer.Value{wasmer.NewI64(packed)}, nil
			},
		),
		"log": wasmer.NewFunction(store,
			wasmer.NewFunctionType(wasmer.NewValueTypes(wasmer.I32, wasmer.I32), wasmer.NewValueTypes()),
			func(args []wasmer.Value) ([]wasmer.Value, error) {
				ptr, length := args[0].I32(), args[1].I32()
				_, _ = cs.readMemory(ptr, length) // best-effort; logging never fails the call
				return nil, nil
			},
		),
	})

	instance, err := wasmer.NewInstance(module, importObject)
	if err != nil {
		return CallResult{}, fmt.Errorf("wasmhost: instantiate: %w", err)
	}
	defer instance.Close()
	cs.instance = instance

	mem, err := instance.Exports.GetMemory("memory")
	if err != nil {
		return CallResult{}, fmt.Errorf("wasmhost: guest does not export memory: %w", err)
	}
	cs.mem = mem

	main, err := instance.Exports.GetFunction("main")
	if err != nil {
		return CallResult{}, fmt.Errorf("wasmhost: guest does not export main: %w", err)
	}

	authBytes, err := canonicalJSON(authority)
	if err != nil {
		return CallResult{}, err
	}
	authPtr, err := cs.alloc(int32(len(authBytes)))
	if err != nil {
		return CallResult{}, err
	}
	if err := cs.writeMemory(authPtr, authBytes); err != nil {
		return CallResult{}, err
	}

	if _, err := main(authPtr, int32(len(authBytes))); err != nil {
		return CallResult{FuelUsed: cs.fuelUsed}, fmt.Errorf("wasmhost: guest trapped: %w", err)
	}
	if cs.lastErr != nil {
		return CallResult{FuelUsed: cs.fuelUsed}, fmt.Errorf("wasmhost: %w", cs.lastErr)
	}
	return CallResult{FuelUsed: cs.fuelUsed}, nil
}

// packPtrLen and unpackPtrLen are used by guests and this host to agree on
// how a 64-bit return value encodes a (pointer, length) pair; kept here so
// the convention has one definition shared by both directions of the ABI.
func packPtrLen(ptr, length int32) int64 {
	return int64(ptr)<<32 | int64(uint32(length))
}

func unpackPtrLen(packed int64) (int32, int32) {
	return int32(packed >> 32), int32(uint32(packed))
}

var _ = binary.BigEndian // nothing in this package's code or tests uses encoding/binary; this keeps the import compiling

// decodeInstruction and decodeQuery deserialize the canonical JSON envelope
// a guest writes into linear memory before calling execute_isi/execute_query.
// Each envelope is a JSON object keyed by a kind tag. The instruction
// envelope recognizes only set_key_value_account (SetKeyValue against an
// Account); the query envelope recognizes find_account and find_asset. Any
// other envelope is rejected with an error.
type wasmInstructionEnvelope struct {
	SetKeyValueAccount *struct {
		Account AccountId `json:"account"`
		Key     string    `json:"key"`
		Value   any       `json:"value"`
	} `json:"set_key_value_account,omitempty"`
}

func decodeInstruction(raw []byte) (Instruction, error) {
	var env wasmInstructionEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("wasmhost: decode instruction: %w", err)
	}
	if env.SetKeyValueAccount != nil {
		return SetKeyValueInstruction{Account: &env.SetKeyValueAccount.Account, Key: env.SetKeyValueAccount.Key, Value: env.SetKeyValueAccount.Value}, nil
	}
	return nil, fmt.Errorf("wasmhost: unrecognized instruction envelope")
}

type wasmQueryEnvelope struct {
	FindAccount *AccountId `json:"find_account,omitempty"`
	FindAsset   *AssetId   `json:"find_asset,omitempty"`
}

func decodeQuery(raw []byte) (Query, error) {
	var env wasmQueryEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("wasmhost: decode query: %w", err)
	}
	switch {
	case env.FindAccount != nil:
		return FindAccount{Id: *env.FindAccount}, nil
	case env.FindAsset != nil:
		return FindAsset{Id: *env.FindAsset}, nil
	}
	return nil, fmt.Errorf("wasmhost: unrecognized query envelope")
}
