// util_test.go — ClampInt / Env* / LoadFromEnv / NormalizeJSON 表驱动测试。
package util

import (
	"reflect"
	"testing"
)

func TestClampInt(t *testing.T) {
	tests := []struct {
		name      string
		v, lo, hi int
		want      int
	}{
		{"below_min", -1, 0, 10, 0},
		{"above_max", 20, 0, 10, 10},
		{"in_range", 5, 0, 10, 5},
		{"at_min", 0, 0, 10, 0},
		{"at_max", 10, 0, 10, 10},
		{"negative_range", -5, -10, -1, -5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ClampInt(tt.v, tt.lo, tt.hi)
			if got != tt.want {
				t.Errorf("ClampInt(%d, %d, %d) = %d, want %d", tt.v, tt.lo, tt.hi, got, tt.want)
			}
		})
	}
}

func TestEnvHelpers(t *testing.T) {
	t.Setenv("GENUI_T_INT", "7")
	t.Setenv("GENUI_T_BAD_INT", "x")
	t.Setenv("GENUI_T_LOW", "-3")
	t.Setenv("GENUI_T_FLOAT", "2.5")
	t.Setenv("GENUI_T_BOOL", "off")

	if got := EnvInt("GENUI_T_INT", 1, 0); got != 7 {
		t.Errorf("EnvInt = %d, want 7", got)
	}
	if got := EnvInt("GENUI_T_BAD_INT", 1, 0); got != 1 {
		t.Errorf("EnvInt(bad) = %d, want default 1", got)
	}
	if got := EnvInt("GENUI_T_LOW", 1, 0); got != 0 {
		t.Errorf("EnvInt(below min) = %d, want 0", got)
	}
	if got := EnvFloat("GENUI_T_FLOAT", 1, 0); got != 2.5 {
		t.Errorf("EnvFloat = %v, want 2.5", got)
	}
	if got := EnvBool("GENUI_T_BOOL", true); got {
		t.Error("EnvBool(off) = true, want false")
	}
	if got := EnvStr("GENUI_T_UNSET", "dflt"); got != "dflt" {
		t.Errorf("EnvStr = %q, want dflt", got)
	}
}

func TestLoadFromEnv(t *testing.T) {
	type cfg struct {
		Name    string  `env:"GENUI_T_NAME" default:"genui"`
		TopN    int     `env:"GENUI_T_TOPN" default:"10" min:"1"`
		Rate    float64 `env:"GENUI_T_RATE" default:"1.5"`
		Enabled bool    `env:"GENUI_T_ENABLED" default:"true"`
		Skipped string
	}
	t.Setenv("GENUI_T_TOPN", "0")

	var c cfg
	LoadFromEnv(&c)
	want := cfg{Name: "genui", TopN: 1, Rate: 1.5, Enabled: true}
	if c != want {
		t.Errorf("LoadFromEnv = %+v, want %+v", c, want)
	}

	// 非指针 / nil 不应 panic
	LoadFromEnv(nil)
	LoadFromEnv(c)
}

func TestNormalizeJSON(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want any
	}{
		{"nil", nil, nil},
		{"string", "a", "a"},
		{"int", 3, float64(3)},
		{"nested", map[string]any{"rows": []map[string]int{{"v": 1}}}, map[string]any{"rows": []any{map[string]any{"v": float64(1)}}}},
		{"unmarshalable", func() {}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizeJSON(tt.in); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("NormalizeJSON(%v) = %#v, want %#v", tt.in, got, tt.want)
			}
		})
	}
}
