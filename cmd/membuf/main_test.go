package main

import (
	"net"
	"strings"
	"testing"

	"9fans.net/go/plan9/client"
	"github.com/rjkroege/membuffer/fsys"
)

func mount(t *testing.T, reg *fsys.Registry) *client.Fsys {
	t.Helper()
	c0, c1 := net.Pipe()
	done := make(chan error, 1)
	go func() { done <- fsys.NewServer(reg).Serve(c0) }()

	conn, err := client.NewConn(c1)
	if err != nil {
		t.Fatalf("NewConn: %v", err)
	}
	fs, err := conn.Attach(nil, "membuf", "")
	if err != nil {
		t.Fatalf("Attach: %v", err)
	}
	t.Cleanup(func() {
		conn.Close()
		if err := <-done; err != nil {
			t.Errorf("Serve: %v", err)
		}
	})
	return fs
}

func TestRun(t *testing.T) {
	reg := fsys.NewRegistry(16)
	reg.New("a.txt")
	fs := mount(t, reg)

	for _, tc := range []struct {
		args  []string
		stdin string
		want  string
	}{
		{[]string{"ls"}, "", "index\nnew\n1/\n"},
		{[]string{"ls", "1"}, "", "addr\nbody\nctl\ndata\n"},
		{[]string{"1", "body", "hello\n"}, "", ""},
		{[]string{"1", "body", "-"}, "world\n", ""},
		{[]string{"1", "body"}, "", "hello\nworld\n"},
		{[]string{"new", "body", "x"}, "", "2\n"},
		{[]string{"2", "body"}, "", "x"},
		{[]string{"ls"}, "", "index\nnew\n1/\n2/\n"},
	} {
		var out strings.Builder
		if err := run(fs, tc.args, strings.NewReader(tc.stdin), &out); err != nil {
			t.Fatalf("run %q failed: %v", tc.args, err)
		}
		if got := out.String(); got != tc.want {
			t.Errorf("run %q got %q want %q", tc.args, got, tc.want)
		}
	}

	if err := run(fs, []string{"ls", "9"}, nil, &strings.Builder{}); err == nil {
		t.Error("ls of a missing file succeeded")
	}
}
