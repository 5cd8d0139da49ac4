package lua

import (
	"context"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/aarzilli/golua/lua"
	"github.com/sirupsen/logrus"
	"github.com/srg/botlink/internal/events"
	"github.com/srg/botlink/internal/robot"
)

// AnyEvent subscribes a callback to every event type.
const AnyEvent = "*"

const eventBacklog = 128

// RobotAPI exposes a robot.Api to Lua as the global `robot` table:
//
//	robot.name()                  -> string
//	robot.connected()             -> bool
//	robot.commands()              -> { "getBattery", ... }
//	robot.exec(cmd [, params])    -> true | nil, err
//	robot.build(cmd [, params])   -> { "0D00...", ... } (hex frames, nothing sent)
//	robot.monitor(enable)
//	robot.on(type, fn)            -- fn(event) with event.type/robot/channel/port/value/time
//	robot.off(type)
//	robot.sleep(ms)               -- delivers pending events while waiting
//
// Event callbacks only run on the script thread: inside robot.sleep and in Serve.
type RobotAPI struct {
	*LuaEngine

	ctx    context.Context
	api    robot.Api
	logger *logrus.Logger
	sub    *events.RingChannel[robot.Event]

	handlers map[string][]int // event type -> registry refs, guarded by the engine state
}

// NewRobotAPI creates an engine with the robot table installed. ctx bounds robot.exec and
// robot.sleep.
func NewRobotAPI(ctx context.Context, api robot.Api, logger *logrus.Logger) *RobotAPI {
	if logger == nil {
		logger = logrus.New()
	}
	r := &RobotAPI{
		LuaEngine: NewLuaEngine(logger),
		ctx:       ctx,
		api:       api,
		logger:    logger,
		sub:       api.Events().Subscribe(eventBacklog),
		handlers:  map[string][]int{},
	}
	r.OnReset(r.register)
	return r
}

// Reset recreates the state. Callbacks registered by the previous script are dropped.
func (r *RobotAPI) Reset() {
	r.LuaEngine.Reset()
	r.DoWithState(func(*lua.State) any {
		r.handlers = map[string][]int{}
		return nil
	})
}

// HasHandlers reports whether the script registered any event callback.
func (r *RobotAPI) HasHandlers() bool {
	res := r.DoWithState(func(*lua.State) any {
		return len(r.handlers) > 0
	})
	has, _ := res.(bool)
	return has
}

// Serve delivers robot events to the script's callbacks until ctx is done or d elapses.
// A non-positive d serves until ctx is done.
func (r *RobotAPI) Serve(ctx context.Context, d time.Duration) error {
	var deadline <-chan time.Time
	if d > 0 {
		timer := time.NewTimer(d)
		defer timer.Stop()
		deadline = timer.C
	}
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-deadline:
			return nil
		case ev, ok := <-r.sub.C():
			if !ok {
				return nil
			}
			r.DoWithState(func(L *lua.State) any {
				r.dispatch(L, ev)
				return nil
			})
		}
	}
}

// Close unsubscribes from the robot and closes the engine.
func (r *RobotAPI) Close() {
	r.api.Events().Unsubscribe(r.sub)
	r.LuaEngine.Close()
	r.logger.Debug("Lua robot api closed")
}

func (r *RobotAPI) register(L *lua.State) {
	L.NewTable()
	r.pushFunction(L, "name", r.luaName)
	r.pushFunction(L, "connected", r.luaConnected)
	r.pushFunction(L, "commands", r.luaCommands)
	r.pushFunction(L, "exec", r.luaExec)
	r.pushFunction(L, "build", r.luaBuild)
	r.pushFunction(L, "monitor", r.luaMonitor)
	r.pushFunction(L, "on", r.luaOn)
	r.pushFunction(L, "off", r.luaOff)
	r.pushFunction(L, "sleep", r.luaSleep)
	L.SetGlobal("robot")
}

func (r *RobotAPI) pushFunction(L *lua.State, name string, fn lua.LuaGoFunction) {
	L.PushGoFunction(r.SafeWrapGoFunction("robot."+name+"()", fn))
	L.SetField(-2, name)
}

func (r *RobotAPI) luaName(L *lua.State) int {
	L.PushString(r.api.Name())
	return 1
}

func (r *RobotAPI) luaConnected(L *lua.State) int {
	L.PushBoolean(r.api.IsConnected())
	return 1
}

func (r *RobotAPI) luaCommands(L *lua.State) int {
	cmds := r.api.Commands()
	L.CreateTable(len(cmds), 0)
	for i, c := range cmds {
		L.PushString(c.String())
		L.RawSeti(-2, i+1)
	}
	return 1
}

// commandArgs reads (cmd [, params]) and raises on an unknown command or bad params.
func (r *RobotAPI) commandArgs(L *lua.State, fn string) (robot.Command, robot.Params) {
	if L.Type(1) != lua.LUA_TSTRING {
		L.RaiseError(fmt.Sprintf("robot.%s() expects a command name", fn))
		return robot.CommandUnknown, nil
	}
	cmd, err := robot.ParseCommand(L.ToString(1))
	if err != nil {
		L.RaiseError(err.Error())
		return robot.CommandUnknown, nil
	}
	if L.IsNoneOrNil(2) {
		return cmd, robot.Params{}
	}
	m, ok := toGoValue(L, 2).(map[string]any)
	if !L.IsTable(2) || !ok {
		L.RaiseError(fmt.Sprintf("robot.%s() params must be a table of name = value", fn))
		return robot.CommandUnknown, nil
	}
	return cmd, robot.Params(m)
}

func (r *RobotAPI) luaExec(L *lua.State) int {
	cmd, params := r.commandArgs(L, "exec")
	if err := r.api.Exec(r.ctx, cmd, params); err != nil {
		r.logger.WithFields(logrus.Fields{"command": cmd.String(), "error": err}).Debug("Lua exec failed")
		L.PushNil()
		L.PushString(err.Error())
		return 2
	}
	L.PushBoolean(true)
	return 1
}

func (r *RobotAPI) luaBuild(L *lua.State) int {
	cmd, params := r.commandArgs(L, "build")
	frames, err := r.api.Build(cmd, params)
	if err != nil {
		L.PushNil()
		L.PushString(err.Error())
		return 2
	}
	L.CreateTable(len(frames), 0)
	for i, f := range frames {
		L.PushString(hex.EncodeToString(f))
		L.RawSeti(-2, i+1)
	}
	return 1
}

func (r *RobotAPI) luaMonitor(L *lua.State) int {
	enable := L.IsNone(1) || L.ToBoolean(1)
	r.api.Monitor(r.ctx, enable)
	return 0
}

func (r *RobotAPI) luaOn(L *lua.State) int {
	if L.Type(1) != lua.LUA_TSTRING || !L.IsFunction(2) {
		L.RaiseError("robot.on() expects an event type and a function")
		return 0
	}
	eventType := L.ToString(1)
	L.PushValue(2)
	ref := L.Ref(lua.LUA_REGISTRYINDEX)
	r.handlers[eventType] = append(r.handlers[eventType], ref)
	r.logger.WithField("event", eventType).Debug("Lua event callback registered")
	return 0
}

func (r *RobotAPI) luaOff(L *lua.State) int {
	eventType := L.CheckString(1)
	for _, ref := range r.handlers[eventType] {
		L.Unref(lua.LUA_REGISTRYINDEX, ref)
	}
	delete(r.handlers, eventType)
	return 0
}

func (r *RobotAPI) luaSleep(L *lua.State) int {
	ms := L.OptInteger(1, 0)
	timer := time.NewTimer(time.Duration(ms) * time.Millisecond)
	defer timer.Stop()
	pending := r.sub.C()
	for {
		select {
		case <-r.ctx.Done():
			L.RaiseError("interrupted")
			return 0
		case <-timer.C:
			return 0
		case ev, ok := <-pending:
			if !ok {
				pending = nil
				continue
			}
			r.dispatch(L, ev)
		}
	}
}

// dispatch calls the callbacks for ev.Type and AnyEvent. A failing callback is reported
// on stderr and does not stop the others. Must be called with the state held.
func (r *RobotAPI) dispatch(L *lua.State, ev robot.Event) {
	refs := append(append([]int(nil), r.handlers[string(ev.Type)]...), r.handlers[AnyEvent]...)
	for _, ref := range refs {
		err := r.CallRef(L, ref, func(L *lua.State) int {
			pushEvent(L, ev)
			return 1
		})
		if err != nil {
			r.logger.WithFields(logrus.Fields{"event": ev.Type, "error": err}).Warn("Lua event callback failed")
			r.Emit("stderr", fmt.Sprintf("Callback error: %v\n", err))
		}
	}
}

func pushEvent(L *lua.State, ev robot.Event) {
	L.CreateTable(0, 6)
	L.PushString(string(ev.Type))
	L.SetField(-2, "type")
	L.PushString(ev.Robot)
	L.SetField(-2, "robot")
	L.PushString(ev.Channel)
	L.SetField(-2, "channel")
	L.PushInteger(int64(ev.Port))
	L.SetField(-2, "port")
	if err := pushValue(L, ev.Value); err != nil {
		L.PushNil()
	}
	L.SetField(-2, "value")
	L.PushInteger(ev.Time.UnixMilli())
	L.SetField(-2, "time")
}
