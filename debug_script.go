// debug_script.go - monitor scripting, grounded on the plain gopher-lua API
// rather than any teacher file: the dependency is declared in the teacher's
// go.mod but never imported by any of its own source, so this is the first
// real home it gets (see DESIGN.md).
package main

import (
	"fmt"

	lua "github.com/yuin/gopher-lua"
)

// RunScript loads a Lua chunk and runs it against a live monitor session,
// exposing just enough of DebuggableCPU to script breakpoint conditions and
// register/memory probes without hand-rolling a second expression language.
func RunScript(path string, mon *MachineMonitor) error {
	L := lua.NewState()
	defer L.Close()

	cpu := mon.CPU()

	L.SetGlobal("getreg", L.NewFunction(func(L *lua.LState) int {
		name := L.CheckString(1)
		v, ok := cpu.GetRegister(name)
		if !ok {
			L.Push(lua.LNil)
			return 1
		}
		L.Push(lua.LNumber(v))
		return 1
	}))

	L.SetGlobal("setreg", L.NewFunction(func(L *lua.LState) int {
		name := L.CheckString(1)
		val := L.CheckNumber(2)
		L.Push(lua.LBool(cpu.SetRegister(name, uint64(val))))
		return 1
	}))

	L.SetGlobal("readmem", L.NewFunction(func(L *lua.LState) int {
		addr := uint64(L.CheckNumber(1))
		L.Push(lua.LNumber(cpu.ReadMemory(addr, 1)[0]))
		return 1
	}))

	L.SetGlobal("writemem", L.NewFunction(func(L *lua.LState) int {
		addr := uint64(L.CheckNumber(1))
		val := byte(L.CheckNumber(2))
		cpu.WriteMemory(addr, []byte{val})
		return 0
	}))

	L.SetGlobal("breakpoint", L.NewFunction(func(L *lua.LState) int {
		addr := uint64(L.CheckNumber(1))
		L.Push(lua.LBool(cpu.SetBreakpoint(addr)))
		return 1
	}))

	L.SetGlobal("print_monitor", L.NewFunction(func(L *lua.LState) int {
		mon.appendOutput(L.CheckString(1), colorWhite)
		return 0
	}))

	if err := L.DoFile(path); err != nil {
		return fmt.Errorf("script %s: %w", path, err)
	}
	return nil
}
