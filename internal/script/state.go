package script

import (
	"fmt"
	"io"
	"strings"

	lua "github.com/yuin/gopher-lua"
)

// unsafeGlobals are removed from every state; they load code from disk or
// from strings outside the sandbox.
var unsafeGlobals = []string{"dofile", "loadfile", "load", "loadstring", "require", "module"}

// newState creates a Lua state with only the safe standard libraries
// opened and print redirected to out.
func newState(out io.Writer) *lua.LState {
	L := lua.NewState(lua.Options{
		SkipOpenLibs:        true,
		IncludeGoStackTrace: false,
	})

	lua.OpenBase(L)
	lua.OpenTable(L)
	lua.OpenString(L)
	lua.OpenMath(L)
	L.SetTop(0)

	for _, name := range unsafeGlobals {
		L.SetGlobal(name, lua.LNil)
	}
	installPrint(L, out)
	return L
}

// installPrint replaces print with one that writes tab-separated values and a
// newline to out.
func installPrint(L *lua.LState, out io.Writer) {
	L.SetGlobal("print", L.NewFunction(func(L *lua.LState) int {
		n := L.GetTop()
		parts := make([]string, 0, n)
		for i := 1; i <= n; i++ {
			parts = append(parts, L.ToStringMeta(L.Get(i)).String())
		}
		fmt.Fprintln(out, strings.Join(parts, "\t"))
		return 0
	}))
}

// doWithRecovery executes fn, turning a panic into an error.
func doWithRecovery(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("lua panic: %v", r)
		}
	}()
	return fn()
}

// load compiles code under the given chunk name and runs it.
func load(L *lua.LState, name, code string) error {
	return doWithRecovery(func() error {
		fn, err := L.Load(strings.NewReader(code), name)
		if err != nil {
			return err
		}
		L.Push(fn)
		return L.PCall(0, lua.MultRet, nil)
	})
}
