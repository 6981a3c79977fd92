package flagx

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFilterArgs(t *testing.T) {
	tests := []struct {
		name         string
		args         []string
		allowedFlags []string
		want         []string
	}{
		{
			name:         "short flag with separate value",
			args:         []string{"encrypt", "-c", "conf.yaml", "--workers", "8"},
			allowedFlags: []string{"-c", "--config"},
			want:         []string{"-c", "conf.yaml"},
		},
		{
			name:         "long flag with equals",
			args:         []string{"--config=alt.json", "size", "100"},
			allowedFlags: []string{"-c", "--config"},
			want:         []string{"--config=alt.json"},
		},
		{
			name:         "unknown flags and positionals ignored",
			args:         []string{"--min-chunks", "4", "--digest=blake3", "file.bin"},
			allowedFlags: []string{"-c", "--config"},
			want:         []string{},
		},
		{
			name:         "flag without value at end is kept",
			args:         []string{"-c"},
			allowedFlags: []string{"-c"},
			want:         []string{"-c"},
		},
		{
			name:         "dash-prefixed token is not a value",
			args:         []string{"-c", "--verbose"},
			allowedFlags: []string{"-c"},
			want:         []string{"-c"},
		},
		{
			name:         "equals value may start with dashes",
			args:         []string{"--config=--odd.json"},
			allowedFlags: []string{"--config"},
			want:         []string{"--config=--odd.json"},
		},
		{
			name:         "positional containing equals is not a flag",
			args:         []string{"a=b", "-c", "x.json"},
			allowedFlags: []string{"-c"},
			want:         []string{"-c", "x.json"},
		},
		{
			name:         "repeated flag preserved in order",
			args:         []string{"-c", "one.json", "-c", "two.json"},
			allowedFlags: []string{"-c"},
			want:         []string{"-c", "one.json", "-c", "two.json"},
		},
		{
			name:         "empty args",
			args:         nil,
			allowedFlags: []string{"-c"},
			want:         []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FilterArgs(tt.args, tt.allowedFlags)
			if !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("FilterArgs() = %#v, want %#v", got, tt.want)
			}
		})
	}
}

func TestConfigFileFlag(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"short", []string{"encrypt", "-c", "/etc/ipchunk.yaml", "in.bin"}, "/etc/ipchunk.yaml"},
		{"single dash long", []string{"-config", "/p/long.json"}, "/p/long.json"},
		{"double dash long", []string{"--config", "/p/long.json"}, "/p/long.json"},
		{"equals form", []string{"size", "--config=/p/eq.yml", "1024"}, "/p/eq.yml"},
		{"last wins", []string{"-c", "/p/1.json", "--config", "/p/2.json"}, "/p/2.json"},
		{"absent", []string{"size", "--min-chunks", "3", "100"}, ""},
		{"after terminator", []string{"hash", "--", "-c", "file"}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ConfigFileFlag(tt.args))
		})
	}
}

func TestNormalizeConfigFlag(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want []string
	}{
		{"single dash separate", []string{"-config", "c.json", "size", "1"}, []string{"--config", "c.json", "size", "1"}},
		{"single dash equals", []string{"size", "-config=c.yml"}, []string{"size", "--config=c.yml"}},
		{"double dash untouched", []string{"--config", "c.json"}, []string{"--config", "c.json"}},
		{"short untouched", []string{"-c", "c.json"}, []string{"-c", "c.json"}},
		{"after terminator", []string{"hash", "--", "-config"}, []string{"hash", "--", "-config"}},
		{"empty", nil, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := append([]string(nil), tt.args...)
			assert.Equal(t, tt.want, NormalizeConfigFlag(tt.args))
			assert.Equal(t, in, tt.args, "input not modified")
		})
	}
}
