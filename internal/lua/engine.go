// Package lua runs Lua scripts that drive a robot. Scripts see a global `robot` table
// (exec, build, on, sleep, monitor, ...) and their print/io.write output is captured into
// a ring channel instead of the process stdout.
//
// The interpreter is single threaded: every access goes through LuaEngine.DoWithState,
// and robot events reach Lua callbacks only on the thread that runs the script.
package lua

import (
	"context"
	"errors"
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/aarzilli/golua/lua"
	"github.com/sirupsen/logrus"
	"github.com/srg/botlink/internal/events"
)

// OutputCapacity is the number of pending output records kept before the oldest is lost.
const OutputCapacity = 256

// LuaOutputRecord is one chunk of script output.
type LuaOutputRecord struct {
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
	Source    string    `json:"source"` // "stdout" or "stderr"
}

// LuaError describes a failed load or run.
type LuaError struct {
	Type       string // "syntax", "runtime", "api"
	Message    string
	Line       int
	Source     string
	StackTrace string
	Underlying error
}

func (e *LuaError) Error() string {
	parts := []string{}
	if e.Source != "" {
		parts = append(parts, fmt.Sprintf("in %s", e.Source))
	}
	if e.Line > 0 {
		parts = append(parts, fmt.Sprintf("line %d", e.Line))
	}

	prefix := fmt.Sprintf("Lua %s error", e.Type)
	if len(parts) > 0 {
		prefix = fmt.Sprintf("%s (%s)", prefix, strings.Join(parts, ", "))
	}
	result := fmt.Sprintf("%s: %s", prefix, e.Message)
	if e.StackTrace != "" {
		result += "\n" + e.StackTrace
	}
	return result
}

func (e *LuaError) Unwrap() error {
	return e.Underlying
}

// Is matches another *LuaError of the same Type.
func (e *LuaError) Is(target error) bool {
	var luaErr *LuaError
	if errors.As(target, &luaErr) {
		return e.Type == luaErr.Type
	}
	return false
}

// positionRe matches the "chunk:line: message" prefix Lua puts on errors.
var positionRe = regexp.MustCompile(`^(?:\[string ".*?"\]|[^:\n]*):(\d+): `)

func parseLuaMessage(errType, source, msg string) *LuaError {
	luaErr := &LuaError{Type: errType, Message: msg, Source: source}
	if m := positionRe.FindStringSubmatchIndex(msg); m != nil {
		if line, err := strconv.Atoi(msg[m[2]:m[3]]); err == nil {
			luaErr.Line = line
			luaErr.Message = msg[m[1]:]
		}
	}
	if i := strings.Index(luaErr.Message, "\nstack traceback:"); i >= 0 {
		luaErr.StackTrace = strings.TrimSpace(luaErr.Message[i+1:])
		luaErr.Message = luaErr.Message[:i]
	}
	return luaErr
}

// LuaEngine owns one Lua state and captures its output.
type LuaEngine struct {
	state      *lua.State
	stateMutex sync.Mutex
	running    atomic.Pointer[lua.State]
	logger     *logrus.Logger
	scriptCode string
	scriptName string
	outputChan *events.RingChannel[LuaOutputRecord]
	onReset    []func(L *lua.State)
}

// NewLuaEngine creates an engine with a fresh state.
func NewLuaEngine(logger *logrus.Logger) *LuaEngine {
	if logger == nil {
		logger = logrus.New()
	}
	engine := &LuaEngine{
		logger:     logger,
		outputChan: events.NewRingChannel[LuaOutputRecord](OutputCapacity),
	}
	engine.Reset()

	logger.Debug("Lua engine initialized with output capture")
	return engine
}

// DoWithState runs callback with exclusive access to the state. It returns nil without
// calling callback once the engine is closed.
func (e *LuaEngine) DoWithState(callback func(*lua.State) any) any {
	e.stateMutex.Lock()
	defer e.stateMutex.Unlock()

	if e.state == nil {
		return nil
	}
	return callback(e.state)
}

// OnReset registers a hook that runs on every new state, including the current one.
// Libraries installed by hooks survive Reset.
func (e *LuaEngine) OnReset(hook func(L *lua.State)) {
	e.DoWithState(func(L *lua.State) any {
		e.onReset = append(e.onReset, hook)
		hook(L)
		return nil
	})
}

// SafeWrapGoFunction turns Go panics inside fn into Lua errors so a failing binding
// cannot take the process down.
func (e *LuaEngine) SafeWrapGoFunction(name string, fn lua.LuaGoFunction) lua.LuaGoFunction {
	return func(L *lua.State) (n int) {
		defer func() {
			if r := recover(); r != nil {
				if _, ok := r.(*lua.LuaError); ok {
					panic(r)
				}
				e.logger.WithFields(logrus.Fields{"function": name, "panic": r}).Error("Lua binding panicked")
				L.RaiseError(fmt.Sprintf("%s: %v", name, r))
			}
		}()
		return fn(L)
	}
}

// Emit appends a record to the output channel, dropping the oldest record when full.
func (e *LuaEngine) Emit(source, content string) {
	if e.outputChan.Send(LuaOutputRecord{Content: content, Timestamp: time.Now(), Source: source}) {
		e.logger.Debug("Lua output overflow, oldest record dropped")
	}
}

func (e *LuaEngine) stringify(L *lua.State, i int) string {
	switch L.Type(i) {
	case lua.LUA_TNIL:
		return "nil"
	case lua.LUA_TBOOLEAN:
		return strconv.FormatBool(L.ToBoolean(i))
	case lua.LUA_TNUMBER:
		return strconv.FormatFloat(L.ToNumber(i), 'g', 14, 64)
	case lua.LUA_TSTRING:
		return L.ToString(i)
	default:
		L.GetGlobal("tostring")
		L.PushValue(i)
		L.Call(1, 1)
		s := L.ToString(-1)
		L.Pop(1)
		return s
	}
}

func (e *LuaEngine) registerOutputCapture(L *lua.State) {
	L.PushGoFunction(func(L *lua.State) int {
		top := L.GetTop()
		parts := make([]string, 0, top)
		for i := 1; i <= top; i++ {
			parts = append(parts, e.stringify(L, i))
		}
		e.Emit("stdout", strings.Join(parts, "\t")+"\n")
		return 0
	})
	L.SetGlobal("print")

	L.GetGlobal("io")
	if L.IsTable(-1) {
		L.PushGoFunction(func(L *lua.State) int {
			var sb strings.Builder
			for i := 1; i <= L.GetTop(); i++ {
				sb.WriteString(e.stringify(L, i))
			}
			if sb.Len() > 0 {
				e.Emit("stdout", sb.String())
			}
			return 0
		})
		L.SetField(-2, "write")
	}
	L.Pop(1)
}

// blockedFunctions lists library functions that would touch the host or block on stdin.
var blockedFunctions = map[string][]string{
	"os": {"execute", "exit", "remove", "rename", "tmpname"},
	"io": {"read", "lines", "open", "popen", "input", "output"},
	"":   {"dofile", "loadfile"},
}

func (e *LuaEngine) blockUnsafeFunctions(L *lua.State) {
	for lib, names := range blockedFunctions {
		if lib != "" {
			L.GetGlobal(lib)
			if !L.IsTable(-1) {
				L.Pop(1)
				continue
			}
		}
		for _, name := range names {
			qualified := name
			if lib != "" {
				qualified = lib + "." + name
			}
			L.PushGoFunction(func(L *lua.State) int {
				L.RaiseError(qualified + " is blocked")
				return 0
			})
			if lib != "" {
				L.SetField(-2, name)
			} else {
				L.SetGlobal(name)
			}
		}
		if lib != "" {
			L.Pop(1)
		}
	}
}

// OutputChannel returns the receive side of the captured output.
func (e *LuaEngine) OutputChannel() <-chan LuaOutputRecord {
	return e.outputChan.C()
}

// LoadScriptFile reads and validates a script file.
func (e *LuaEngine) LoadScriptFile(filename string) error {
	content, err := os.ReadFile(filename)
	if err != nil {
		return fmt.Errorf("failed to read script %s: %w", filename, err)
	}
	return e.LoadScript(string(content), filename)
}

// LoadScript compiles script to check its syntax and keeps it for ExecuteScript.
func (e *LuaEngine) LoadScript(script, name string) error {
	if strings.TrimSpace(script) == "" {
		return &LuaError{Type: "api", Message: "empty script", Source: name}
	}

	var loadErr error
	e.DoWithState(func(L *lua.State) any {
		if status := L.LoadString(script); status != 0 {
			msg := L.ToString(-1)
			L.Pop(1)
			luaErr := parseLuaMessage("syntax", name, msg)
			e.Emit("stderr", fmt.Sprintf("Lua syntax error: %s\n", luaErr.Message))
			loadErr = luaErr
			return nil
		}
		L.Pop(1)
		e.scriptCode = script
		e.scriptName = name
		return nil
	})
	return loadErr
}

// ExecuteScript runs script, or the loaded script when script is empty. Cancelling ctx
// interrupts a running script at its next instruction.
func (e *LuaEngine) ExecuteScript(ctx context.Context, script string) error {
	if script != "" {
		if err := e.LoadScript(script, "ad-hoc script"); err != nil {
			return err
		}
	}
	if e.scriptCode == "" {
		return &LuaError{Type: "api", Message: "no script loaded"}
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	stop := context.AfterFunc(ctx, e.interrupt)
	defer stop()

	var execErr error
	e.DoWithState(func(L *lua.State) any {
		e.running.Store(L)
		defer e.running.Store(nil)

		if status := L.LoadString(e.scriptCode); status != 0 {
			msg := L.ToString(-1)
			L.Pop(1)
			execErr = parseLuaMessage("syntax", e.scriptName, msg)
			return nil
		}
		if err := L.Call(0, 0); err != nil {
			L.SetTop(0)
			execErr = e.runtimeError(ctx, err)
		}
		return nil
	})
	return execErr
}

func (e *LuaEngine) runtimeError(ctx context.Context, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	luaErr := parseLuaMessage("runtime", e.scriptName, err.Error())
	luaErr.Underlying = err
	e.Emit("stderr", fmt.Sprintf("Lua runtime error: %s\n", luaErr.Message))
	return luaErr
}

// interrupt makes the running chunk fail at its next instruction. lua_sethook may be
// called from outside the interpreter thread.
func (e *LuaEngine) interrupt() {
	if L := e.running.Load(); L != nil {
		e.logger.Debug("Interrupting Lua script")
		L.SetExecutionLimit(1)
	}
}

// CallRef calls the function stored at ref in the registry. push adds the arguments and
// returns how many it pushed. Must be called with the state held.
func (e *LuaEngine) CallRef(L *lua.State, ref int, push func(L *lua.State) int) (err error) {
	if ref == lua.LUA_NOREF || ref == lua.LUA_REFNIL {
		return nil
	}
	top := L.GetTop()
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("callback panic: %v", r)
		}
		L.SetTop(top)
	}()

	L.RawGeti(lua.LUA_REGISTRYINDEX, ref)
	nargs := 0
	if push != nil {
		nargs = push(L)
	}
	if callErr := L.Call(nargs, 0); callErr != nil {
		luaErr := parseLuaMessage("runtime", "callback", callErr.Error())
		luaErr.Underlying = callErr
		return luaErr
	}
	return nil
}

// SetGlobal sets a global to a scalar, a string list or a string map.
func (e *LuaEngine) SetGlobal(name string, value any) error {
	res := e.DoWithState(func(L *lua.State) any {
		switch v := value.(type) {
		case map[string]string:
			L.CreateTable(0, len(v))
			for k, s := range v {
				L.PushString(s)
				L.SetField(-2, k)
			}
		case []string:
			L.CreateTable(len(v), 0)
			for i, s := range v {
				L.PushString(s)
				L.RawSeti(-2, i+1)
			}
		default:
			if err := pushValue(L, v); err != nil {
				return fmt.Errorf("global %s: %w", name, err)
			}
		}
		L.SetGlobal(name)
		return nil
	})
	if err, ok := res.(error); ok {
		return err
	}
	return nil
}

// GetGlobal reads a global and converts it to Go (see toGoValue).
func (e *LuaEngine) GetGlobal(name string) any {
	return e.DoWithState(func(L *lua.State) any {
		L.GetGlobal(name)
		defer L.Pop(1)
		return toGoValue(L, -1)
	})
}

func (e *LuaEngine) resetInternal() {
	if e.state != nil {
		e.state.Close()
	}

	e.state = lua.NewState()
	e.state.OpenLibs()
	e.registerOutputCapture(e.state)
	e.blockUnsafeFunctions(e.state)
	for _, hook := range e.onReset {
		hook(e.state)
	}
	e.scriptCode = ""
	e.scriptName = ""
}

// Reset recreates the state and reinstalls the OnReset libraries.
func (e *LuaEngine) Reset() {
	e.stateMutex.Lock()
	defer e.stateMutex.Unlock()
	e.resetInternal()
}

// Close releases the state and closes the output channel.
func (e *LuaEngine) Close() {
	e.stateMutex.Lock()
	defer e.stateMutex.Unlock()

	if e.state != nil {
		e.state.Close()
		e.state = nil
	}
	e.outputChan.Close()
}
