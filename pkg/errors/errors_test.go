// errors_test.go — 验证 AppError / Wrap / WithCode / CodeOf 的行为契约。
package errors

import (
	"errors"
	"io"
	"strings"
	"testing"
)

// TestWrapUnwrap 验证 Wrap 保留原始错误链，errors.Is 和 errors.As 正常工作。
func TestWrapUnwrap(t *testing.T) {
	wrapped := Wrap(ErrNotFound, "Resolver.Resolve", "ecosystem not found")

	if !errors.Is(wrapped, ErrNotFound) {
		t.Errorf("errors.Is(wrapped, ErrNotFound) = false, want true")
	}
	if errors.Is(wrapped, ErrTimeout) {
		t.Errorf("errors.Is(wrapped, ErrTimeout) = true, want false")
	}

	var appErr *AppError
	if !errors.As(wrapped, &appErr) {
		t.Fatalf("errors.As failed to extract *AppError")
	}
	if appErr.Op != "Resolver.Resolve" {
		t.Errorf("Op = %q, want %q", appErr.Op, "Resolver.Resolve")
	}
}

// TestWrapErrorString 验证 Error() 输出包含 op、message 和 cause。
func TestWrapErrorString(t *testing.T) {
	wrapped := Wrap(io.ErrUnexpectedEOF, "HTTPSource.fetch", "decode envelope")

	s := wrapped.Error()
	for _, want := range []string{"HTTPSource.fetch", "decode envelope", "unexpected EOF"} {
		if !strings.Contains(s, want) {
			t.Errorf("Error() = %q, missing %q", s, want)
		}
	}
}

// TestWrapfFormat 验证 Wrapf 格式化消息。
func TestWrapfFormat(t *testing.T) {
	wrapped := Wrapf(ErrInvalidInput, "element.Parse", "depth %d exceeds %d", 40, 32)

	var appErr *AppError
	if !errors.As(wrapped, &appErr) {
		t.Fatal("errors.As failed")
	}
	if appErr.Message != "depth 40 exceeds 32" {
		t.Errorf("Message = %q", appErr.Message)
	}
}

func TestCodeOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, ""},
		{"plain", io.EOF, ""},
		{"direct", WithCode(nil, "Interpreter.resolve", CodeBindingMiss, "missing /rows"), CodeBindingMiss},
		{"nested", Wrap(WithCode(ErrInvalidInput, "Guard", CodePayloadMismatch, "stars"), "Registry.Render", "guard failed"), CodePayloadMismatch},
		{"no_code_chain", Wrap(New("a", "b"), "c", "d"), ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CodeOf(tt.err); got != tt.want {
				t.Errorf("CodeOf() = %q, want %q", got, tt.want)
			}
		})
	}
}

// TestDoubleWrap 验证二次包装时 Is 仍能找到最深层哨兵。
func TestDoubleWrap(t *testing.T) {
	inner := Wrap(ErrUnknownKind, "Catalog.Validate", "Sparkline")
	outer := Wrap(inner, "Interpreter.Render", "fallback")

	if !Is(outer, ErrUnknownKind) {
		t.Error("Is(outer, ErrUnknownKind) = false after double wrap")
	}
	var appErr *AppError
	if !As(outer, &appErr) || appErr.Op != "Interpreter.Render" {
		t.Errorf("As(outer) = %+v", appErr)
	}
	if Unwrap := errors.Unwrap(New("Init", "x")); Unwrap != nil {
		t.Errorf("Unwrap(New) = %v, want nil", Unwrap)
	}
}
