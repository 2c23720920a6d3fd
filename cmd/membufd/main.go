// Membufd serves text files for editing over 9P.
//
// Usage:
//
//	membufd [-s service] [-b blocksize] [-v] [file ...]
//
// The service is posted as a Unix socket in the name space directory
// (see client.Namespace) and can be used with membuf or 9p(1).
package main

import (
	"errors"
	"log"
	"net"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"9fans.net/go/plan9/client"
	"github.com/fhs/mux9p"
	"github.com/rjkroege/membuffer/fsys"
	"github.com/rjkroege/membuffer/textdata"
	"github.com/spf13/pflag"
)

func main() {
	log.SetFlags(0)
	log.SetPrefix("membufd: ")

	cfg, files, err := loadConfig(os.Args[1:])
	if errors.Is(err, pflag.ErrHelp) {
		os.Exit(0)
	}
	if err != nil {
		log.Fatal(err)
	}

	reg := fsys.NewRegistry(cfg.BlockSize)
	if cfg.Verbose {
		reg.OnChange = func(id int, u textdata.Update) {
			log.Printf("file %d: changed [%d, %d) now %d bytes long", id, u.Begin, u.OldEnd, u.Amount)
		}
	}
	for _, name := range files {
		id, err := reg.Open(name)
		if err != nil {
			log.Fatalf("can't open %s: %v", name, err)
		}
		if cfg.Verbose {
			log.Printf("serving %s as %d", name, id)
		}
	}
	srv := fsys.NewServer(reg)
	srv.SetVerbose(cfg.Verbose)

	addr, err := post(srv, cfg.Service)
	if err != nil {
		log.Fatal(err)
	}

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM, syscall.SIGHUP)
	<-sig
	os.Remove(addr)
}

// post makes srv available as service name in the name space and
// returns the socket address.
func post(srv *fsys.Server, name string) (string, error) {
	ns := client.Namespace()
	if ns == "" {
		return "", errors.New("no name space directory")
	}
	if err := os.MkdirAll(ns, 0700); err != nil {
		return "", err
	}
	addr := filepath.Join(ns, name)
	if conn, err := client.DialService(name); err == nil {
		conn.Close()
		return "", errors.New("service " + name + " is already running")
	}
	// Left behind by a daemon that did not exit cleanly.
	if err := os.Remove(addr); err != nil && !os.IsNotExist(err) {
		return "", err
	}

	c0, c1 := net.Pipe()
	go func() {
		if err := srv.Serve(c0); err != nil {
			log.Fatalf("9P server failed: %v", err)
		}
	}()
	go func() {
		if err := mux9p.Listen("unix", addr, c1, nil); err != nil {
			log.Fatalf("9P multiplexer failed: %v", err)
		}
	}()
	return addr, nil
}
