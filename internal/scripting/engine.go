package scripting

import (
	"fmt"
	"os"
	"path/filepath"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
)

// Engine wraps a single gopher-lua VM running entity behaviours.
// Single-goroutine access only: ScriptSystem is registered sequential.
type Engine struct {
	vm  *lua.LState
	log *zap.Logger
}

// NewEngine creates a Lua engine and loads every script under dir: top-level
// files first, then the behaviours/ subdirectory. A missing dir loads nothing.
func NewEngine(dir string, log *zap.Logger) (*Engine, error) {
	if log == nil {
		log = zap.NewNop()
	}
	vm := lua.NewState(lua.Options{SkipOpenLibs: false})
	vm.SetGlobal("API_VERSION", lua.LNumber(1))

	e := &Engine{vm: vm, log: log}
	e.registerHost()

	if dir == "" {
		return e, nil
	}
	for _, sub := range []string{"", "behaviours"} {
		if err := e.loadDir(filepath.Join(dir, sub)); err != nil {
			vm.Close()
			return nil, fmt.Errorf("load scripts: %w", err)
		}
	}
	return e, nil
}

// registerHost exposes a logging function to scripts.
func (e *Engine) registerHost() {
	e.vm.SetGlobal("log_info", e.vm.NewFunction(func(L *lua.LState) int {
		e.log.Info("lua", zap.String("msg", L.CheckString(1)))
		return 0
	}))
}

// loadDir loads all .lua files in a directory.
func (e *Engine) loadDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil // skip missing dirs
		}
		return err
	}
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".lua" {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		if err := e.vm.DoFile(path); err != nil {
			return fmt.Errorf("load %s: %w", path, err)
		}
		e.log.Debug("loaded lua script", zap.String("file", path))
	}
	return nil
}

// DoString runs a chunk of Lua source in the engine's VM.
func (e *Engine) DoString(src string) error {
	return e.vm.DoString(src)
}

// Has reports whether a global function with the given name is defined.
func (e *Engine) Has(name string) bool {
	_, ok := e.vm.GetGlobal(name).(*lua.LFunction)
	return ok
}

// BehaviourContext is the entity snapshot passed to a behaviour function.
type BehaviourContext struct {
	EntityID uint32
	Name     string
	DT       float64 // seconds
	Time     float64 // seconds since start

	X, Y, Z    float64
	VX, VY, VZ float64
	HasPhysics bool
	Grounded   bool

	HP, MaxHP float64
	HasHealth bool

	Params map[string]float64
}

// Command is one action returned by a behaviour.
type Command struct {
	Type    string // "velocity", "move", "heal", "damage", "destroy", "log"
	X, Y, Z float64
	Amount  float64
	Message string
}

// CallBehaviour calls the Lua function name(ctx) and returns the commands it
// produced. A behaviour may return nil, a single command table or an array
// of command tables.
func (e *Engine) CallBehaviour(name string, ctx BehaviourContext) ([]Command, error) {
	fn, ok := e.vm.GetGlobal(name).(*lua.LFunction)
	if !ok {
		return nil, fmt.Errorf("lua behaviour %q not found", name)
	}

	t := e.vm.NewTable()
	t.RawSetString("entity", lua.LNumber(ctx.EntityID))
	t.RawSetString("name", lua.LString(ctx.Name))
	t.RawSetString("dt", lua.LNumber(ctx.DT))
	t.RawSetString("time", lua.LNumber(ctx.Time))
	t.RawSetString("x", lua.LNumber(ctx.X))
	t.RawSetString("y", lua.LNumber(ctx.Y))
	t.RawSetString("z", lua.LNumber(ctx.Z))
	if ctx.HasPhysics {
		t.RawSetString("vx", lua.LNumber(ctx.VX))
		t.RawSetString("vy", lua.LNumber(ctx.VY))
		t.RawSetString("vz", lua.LNumber(ctx.VZ))
		t.RawSetString("grounded", lua.LBool(ctx.Grounded))
	}
	if ctx.HasHealth {
		t.RawSetString("hp", lua.LNumber(ctx.HP))
		t.RawSetString("max_hp", lua.LNumber(ctx.MaxHP))
	}
	params := e.vm.NewTable()
	for k, v := range ctx.Params {
		params.RawSetString(k, lua.LNumber(v))
	}
	t.RawSetString("params", params)

	if err := e.vm.CallByParam(lua.P{
		Fn:      fn,
		NRet:    1,
		Protect: true,
	}, t); err != nil {
		return nil, fmt.Errorf("lua %s: %w", name, err)
	}

	result := e.vm.Get(-1)
	e.vm.Pop(1)

	rt, ok := result.(*lua.LTable)
	if !ok {
		return nil, nil
	}
	// A table with a "type" field is a single command.
	if rt.RawGetString("type") != lua.LNil {
		return []Command{parseCommand(rt)}, nil
	}
	var cmds []Command
	rt.ForEach(func(_, v lua.LValue) {
		if row, ok := v.(*lua.LTable); ok {
			cmds = append(cmds, parseCommand(row))
		}
	})
	return cmds, nil
}

func parseCommand(row *lua.LTable) Command {
	return Command{
		Type:    lStr(row, "type"),
		X:       lNum(row, "x"),
		Y:       lNum(row, "y"),
		Z:       lNum(row, "z"),
		Amount:  lNum(row, "amount"),
		Message: lStr(row, "message"),
	}
}

func lStr(t *lua.LTable, key string) string {
	if s, ok := t.RawGetString(key).(lua.LString); ok {
		return string(s)
	}
	return ""
}

func lNum(t *lua.LTable, key string) float64 {
	return float64(lua.LVAsNumber(t.RawGetString(key)))
}

// Close shuts down the Lua VM.
func (e *Engine) Close() {
	e.vm.Close()
}
