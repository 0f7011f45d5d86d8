package flagx

import (
	"os"
	"reflect"
	"testing"
)

func TestFilterArgs(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		allowed []string
		want    []string
	}{
		{
			name:    "separate value",
			args:    []string{"-d", "/tmp/data", "-z", "oops"},
			allowed: []string{"-d"},
			want:    []string{"-d", "/tmp/data"},
		},
		{
			name:    "equals form",
			args:    []string{"--config=conf.json", "-x=1"},
			allowed: []string{"--config"},
			want:    []string{"--config=conf.json"},
		},
		{
			name:    "flag without value followed by another flag",
			args:    []string{"-v", "-d", "dir"},
			allowed: []string{"-v", "-d"},
			want:    []string{"-v", "-d", "dir"},
		},
		{
			name:    "nothing allowed",
			args:    []string{"-a", "b"},
			allowed: []string{},
			want:    []string{},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := FilterArgs(tc.args, tc.allowed)
			if !reflect.DeepEqual(got, tc.want) {
				t.Errorf("FilterArgs(%v, %v) = %v, want %v", tc.args, tc.allowed, got, tc.want)
			}
		})
	}
}

func TestJsonConfigFlags(t *testing.T) {
	oldArgs := os.Args
	defer func() { os.Args = oldArgs }()

	tests := []struct {
		name string
		args []string
		want string
	}{
		{"short separate", []string{"prog", "-c", "conf.json"}, "conf.json"},
		{"long equals", []string{"prog", "--config=other.json"}, "other.json"},
		{"absent", []string{"prog", "-d", "dir"}, ""},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			os.Args = tc.args
			if got := JsonConfigFlags(); got != tc.want {
				t.Errorf("JsonConfigFlags() = %q, want %q", got, tc.want)
			}
		})
	}
}
