package script

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	glua "github.com/yuin/gopher-lua"
)

func TestNewState(t *testing.T) {
	state := NewState()
	defer state.Close()

	if state.IsClosed() {
		t.Error("NewState() returned closed state")
	}
}

func TestStateDoString(t *testing.T) {
	state := NewState()
	defer state.Close()

	if err := state.DoString(context.Background(), `x = 1 + 1`); err != nil {
		t.Fatalf("DoString() error = %v", err)
	}

	v := state.GetGlobal("x")
	if num, ok := v.(glua.LNumber); !ok || float64(num) != 2 {
		t.Errorf("x = %v, want 2", v)
	}
}

func TestStateDoStringSyntaxError(t *testing.T) {
	state := NewState()
	defer state.Close()

	if err := state.DoString(context.Background(), `invalid lua code !!!`); err == nil {
		t.Error("DoString() with invalid code should return error")
	}
}

func TestStateDoFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "s.lua")
	if err := os.WriteFile(path, []byte(`y = "from file"`), 0o644); err != nil {
		t.Fatal(err)
	}

	state := NewState()
	defer state.Close()

	if err := state.DoFile(context.Background(), path); err != nil {
		t.Fatalf("DoFile() error = %v", err)
	}
	if got := state.GetGlobal("y").String(); got != "from file" {
		t.Errorf("y = %q, want %q", got, "from file")
	}
}

func TestStateSandbox(t *testing.T) {
	state := NewState()
	defer state.Close()

	for _, fn := range []string{"dofile", "loadfile", "load", "loadstring", "io", "os", "debug"} {
		if v := state.GetGlobal(fn); v != glua.LNil {
			t.Errorf("%s should be unavailable, got %T", fn, v)
		}
	}
}

func TestStateRequire(t *testing.T) {
	tests := []struct {
		name    string
		code    string
		wantErr bool
	}{
		{"string", `local s = require("string")`, false},
		{"math", `local m = require("math")`, false},
		{"os", `require("os")`, true},
		{"io", `require("io")`, true},
		{"file module", `require("somefile")`, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			state := NewState()
			defer state.Close()

			err := state.DoString(context.Background(), tt.code)
			if (err != nil) != tt.wantErr {
				t.Errorf("DoString(%q) error = %v, wantErr %v", tt.code, err, tt.wantErr)
			}
		})
	}
}

func TestStatePrint(t *testing.T) {
	var out bytes.Buffer
	state := NewState(WithOutput(&out))
	defer state.Close()

	if err := state.DoString(context.Background(), `print("a", 1, true, nil)`); err != nil {
		t.Fatal(err)
	}
	if got := out.String(); got != "a\t1\ttrue\tnil\n" {
		t.Errorf("print output = %q", got)
	}
}

func TestStateTimeout(t *testing.T) {
	state := NewState(WithExecutionTimeout(50 * time.Millisecond))
	defer state.Close()

	err := state.DoString(context.Background(), `while true do end`)
	if !errors.Is(err, ErrExecutionTimeout) {
		t.Errorf("DoString(loop) error = %v, want ErrExecutionTimeout", err)
	}

	// The state stays usable after a timeout.
	if err := state.DoString(context.Background(), `z = 3`); err != nil {
		t.Errorf("DoString after timeout error = %v", err)
	}
}

func TestStateCanceled(t *testing.T) {
	state := NewState(WithExecutionTimeout(0))
	defer state.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := state.DoString(ctx, `while true do end`)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("DoString(canceled) error = %v, want context.Canceled", err)
	}
}

func TestStateClosed(t *testing.T) {
	state := NewState()
	if err := state.Close(); err != nil {
		t.Fatal(err)
	}
	if err := state.Close(); err != nil {
		t.Errorf("second Close() error = %v", err)
	}
	if err := state.DoString(context.Background(), `x = 1`); !errors.Is(err, ErrStateClosed) {
		t.Errorf("DoString after Close error = %v, want ErrStateClosed", err)
	}
	if err := state.Preload("m", func(L *glua.LState) int { return 0 }); !errors.Is(err, ErrStateClosed) {
		t.Errorf("Preload after Close error = %v, want ErrStateClosed", err)
	}
	if v := state.GetGlobal("x"); v != glua.LNil {
		t.Errorf("GetGlobal after Close = %v", v)
	}
}

func TestStateRuntimeErrorMessage(t *testing.T) {
	state := NewState()
	defer state.Close()

	err := state.DoString(context.Background(), `error("boom")`)
	if err == nil || !strings.Contains(err.Error(), "boom") {
		t.Errorf("DoString(error) = %v, want boom", err)
	}
}
