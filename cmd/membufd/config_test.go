package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	yaml := filepath.Join(dir, "membufd.yaml")
	if err := os.WriteFile(yaml, []byte("service: fromfile\nblocksize: 512\n"), 0644); err != nil {
		t.Fatal(err)
	}

	for _, tc := range []struct {
		name  string
		args  []string
		env   map[string]string
		want  *Config
		files []string
	}{
		{
			name:  "defaults",
			args:  []string{"a.txt", "b.txt"},
			want:  &Config{Service: "membuf", BlockSize: 4096},
			files: []string{"a.txt", "b.txt"},
		},
		{
			name: "file",
			args: []string{"--config", yaml},
			want: &Config{Service: "fromfile", BlockSize: 512},
		},
		{
			name: "env over file",
			args: []string{"--config", yaml},
			env:  map[string]string{"MEMBUFD_BLOCKSIZE": "64", "MEMBUFD_VERBOSE": "true"},
			want: &Config{Service: "fromfile", BlockSize: 64, Verbose: true},
		},
		{
			name:  "flags over env",
			args:  []string{"--config", yaml, "-s", "edits", "-b", "32", "x"},
			env:   map[string]string{"MEMBUFD_SERVICE": "fromenv"},
			want:  &Config{Service: "edits", BlockSize: 32},
			files: []string{"x"},
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			t.Setenv("HOME", t.TempDir())
			for k, v := range tc.env {
				t.Setenv(k, v)
			}
			cfg, files, err := loadConfig(tc.args)
			if err != nil {
				t.Fatalf("loadConfig(%q) failed: %v", tc.args, err)
			}
			if diff := cmp.Diff(tc.want, cfg); diff != "" {
				t.Errorf("config mismatch (-want +got):\n%s", diff)
			}
			if diff := cmp.Diff(tc.files, files, cmpopts.EquateEmpty()); diff != "" {
				t.Errorf("files mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestLoadConfigErrors(t *testing.T) {
	for _, args := range [][]string{
		{"-b", "0"},
		{"--service="},
		{"--config", filepath.Join(t.TempDir(), "missing.yaml")},
		{"--nosuchflag"},
	} {
		if _, _, err := loadConfig(args); err == nil {
			t.Errorf("loadConfig(%q) succeeded", args)
		}
	}
}
