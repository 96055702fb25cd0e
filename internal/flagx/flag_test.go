package flagx

import (
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
			args:         []string{"-c", "conf.json", "-a", "localhost"},
			allowedFlags: []string{"-c"},
			want:         []string{"-c", "conf.json"},
		},
		{
			name:         "equals form",
			args:         []string{"-config=alt.json", "-a", "localhost"},
			allowedFlags: []string{"-config"},
			want:         []string{"-config=alt.json"},
		},
		{
			name:         "unknown flags ignored",
			args:         []string{"-x", "1", "--y=2", "positional"},
			allowedFlags: []string{"-c"},
			want:         []string{},
		},
		{
			name:         "flag without value at end",
			args:         []string{"-c"},
			allowedFlags: []string{"-c"},
			want:         []string{"-c"},
		},
		{
			name:         "next dash token is not a value",
			args:         []string{"-c", "-d"},
			allowedFlags: []string{"-c"},
			want:         []string{"-c"},
		},
		{
			name:         "server flags keep their order",
			args:         []string{"-a", ":8080", "-c", "conf.json", "-g", ":9090", "--other", "x"},
			allowedFlags: []string{"-a", "-g"},
			want:         []string{"-a", ":8080", "-g", ":9090"},
		},
		{
			name:         "repeated flag preserved",
			args:         []string{"-s", "one", "-s", "two"},
			allowedFlags: []string{"-s"},
			want:         []string{"-s", "one", "-s", "two"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FilterArgs(tt.args, tt.allowedFlags))
		})
	}
}

func TestConfigPath(t *testing.T) {
	assert.Equal(t, "/etc/diary.json", ConfigPath([]string{"-c", "/etc/diary.json"}))
	assert.Equal(t, "/etc/long.json", ConfigPath([]string{"-config", "/etc/long.json", "-a", ":1"}))
	assert.Equal(t, "/path/2.json", ConfigPath([]string{"-c", "/path/1.json", "-config=/path/2.json"}))
	assert.Empty(t, ConfigPath([]string{"-x", "1"}))
	assert.Empty(t, ConfigPath(nil))
}
