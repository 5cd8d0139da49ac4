package lua

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"

	"github.com/aarzilli/golua/lua"
)

const maxTableDepth = 32

// pushValue pushes a Go value. Structs and other composite values go through their JSON
// form, so json tags decide the Lua field names.
func pushValue(L *lua.State, v any) error {
	switch x := v.(type) {
	case nil:
		L.PushNil()
	case bool:
		L.PushBoolean(x)
	case string:
		L.PushString(x)
	case []byte:
		L.PushString(string(x))
	case int:
		L.PushInteger(int64(x))
	case int8:
		L.PushInteger(int64(x))
	case int16:
		L.PushInteger(int64(x))
	case int32:
		L.PushInteger(int64(x))
	case int64:
		L.PushInteger(x)
	case uint8:
		L.PushInteger(int64(x))
	case uint16:
		L.PushInteger(int64(x))
	case uint32:
		L.PushInteger(int64(x))
	case float32:
		L.PushNumber(float64(x))
	case float64:
		L.PushNumber(x)
	case []any:
		L.CreateTable(len(x), 0)
		for i, item := range x {
			if err := pushValue(L, item); err != nil {
				L.Pop(1)
				return err
			}
			L.RawSeti(-2, i+1)
		}
	case map[string]any:
		L.CreateTable(0, len(x))
		for k, item := range x {
			if err := pushValue(L, item); err != nil {
				L.Pop(1)
				return err
			}
			L.SetField(-2, k)
		}
	default:
		data, err := json.Marshal(v)
		if err != nil {
			return fmt.Errorf("unsupported value %T: %w", v, err)
		}
		var generic any
		if err := json.Unmarshal(data, &generic); err != nil {
			return fmt.Errorf("unsupported value %T: %w", v, err)
		}
		return pushValue(L, generic)
	}
	return nil
}

// toGoValue converts the value at idx. Numbers become float64, sequences []any and other
// tables map[string]any.
func toGoValue(L *lua.State, idx int) any {
	return toGoValueDepth(L, absIndex(L, idx), 0)
}

func absIndex(L *lua.State, idx int) int {
	if idx < 0 && idx > lua.LUA_REGISTRYINDEX {
		return L.GetTop() + idx + 1
	}
	return idx
}

func toGoValueDepth(L *lua.State, idx, depth int) any {
	switch L.Type(idx) {
	case lua.LUA_TBOOLEAN:
		return L.ToBoolean(idx)
	case lua.LUA_TNUMBER:
		return L.ToNumber(idx)
	case lua.LUA_TSTRING:
		return L.ToString(idx)
	case lua.LUA_TTABLE:
		if depth >= maxTableDepth {
			return nil
		}
		return tableToGo(L, idx, depth+1)
	default:
		return nil
	}
}

func tableToGo(L *lua.State, idx, depth int) any {
	entries := map[string]any{}
	ints := map[int]any{}
	sequence := true

	L.PushNil()
	for L.Next(idx) != 0 {
		value := toGoValueDepth(L, L.GetTop(), depth)
		switch L.Type(-2) {
		case lua.LUA_TNUMBER:
			n := L.ToNumber(-2)
			if i := int(n); float64(i) == n && i > 0 {
				ints[i] = value
			} else {
				sequence = false
			}
			entries[strconv.FormatFloat(n, 'g', -1, 64)] = value
		case lua.LUA_TSTRING:
			sequence = false
			entries[L.ToString(-2)] = value
		default:
			sequence = false
		}
		L.Pop(1)
	}

	if sequence && len(ints) > 0 {
		keys := make([]int, 0, len(ints))
		for k := range ints {
			keys = append(keys, k)
		}
		sort.Ints(keys)
		if keys[len(keys)-1] == len(keys) {
			out := make([]any, len(keys))
			for _, k := range keys {
				out[k-1] = ints[k]
			}
			return out
		}
	}
	return entries
}
