// Membuf reads or writes a file served by membufd.
//
// Usage:
//
//	membuf [-s service] index
//	membuf [-s service] ls [id]
//	membuf [-s service] id file [text]
//
// With no text, membuf copies id/file to standard output. Otherwise it
// writes text to id/file; a text of "-" writes standard input. The id
// may be "new", which creates a file and prints its id. Ls lists the
// root directory or that of file id.
package main

import (
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"9fans.net/go/plan9"
	"9fans.net/go/plan9/client"
	"github.com/rjkroege/membuffer/internal/ninep"
	"github.com/spf13/pflag"
)

var service = pflag.StringP("service", "s", "membuf", "name of the membufd service")

func usage() {
	fmt.Fprintf(os.Stderr, "usage: membuf [-s service] index\n")
	fmt.Fprintf(os.Stderr, "       membuf [-s service] ls [id]\n")
	fmt.Fprintf(os.Stderr, "       membuf [-s service] id file [text]\n")
	pflag.PrintDefaults()
	os.Exit(2)
}

func main() {
	log.SetFlags(0)
	log.SetPrefix("membuf: ")
	pflag.Usage = usage
	pflag.Parse()

	args := pflag.Args()
	if len(args) == 0 || len(args) > 3 {
		usage()
	}
	fsys, err := client.MountService(*service)
	if err != nil {
		log.Fatalf("can't mount %s: %v", *service, err)
	}
	if err := run(fsys, args, os.Stdin, os.Stdout); err != nil {
		log.Fatal(err)
	}
}

func run(fsys *client.Fsys, args []string, stdin io.Reader, stdout io.Writer) error {
	switch {
	case len(args) == 1 && args[0] == "index":
		return cat(fsys, "index", stdout)
	case len(args) == 1 && args[0] == "ls":
		return ls(fsys, "/", stdout)
	case len(args) == 2 && args[0] == "ls":
		return ls(fsys, args[1], stdout)
	case len(args) == 2:
		id, err := resolve(fsys, args[0], stdout)
		if err != nil {
			return err
		}
		return cat(fsys, id+"/"+args[1], stdout)
	case len(args) == 3:
		id, err := resolve(fsys, args[0], stdout)
		if err != nil {
			return err
		}
		text := io.Reader(strings.NewReader(args[2]))
		if args[2] == "-" {
			text = stdin
		}
		return write(fsys, id+"/"+args[1], text)
	}
	return fmt.Errorf("bad arguments %q", args)
}

// resolve turns "new" into the id of a newly created file.
func resolve(fsys *client.Fsys, id string, stdout io.Writer) (string, error) {
	if id != "new" {
		return id, nil
	}
	fid, err := fsys.Open("new", plan9.OREAD)
	if err != nil {
		return "", err
	}
	defer fid.Close()
	b, err := io.ReadAll(fid)
	if err != nil {
		return "", err
	}
	id = strings.TrimSpace(string(b))
	fmt.Fprintln(stdout, id)
	return id, nil
}

func cat(fsys *client.Fsys, name string, stdout io.Writer) error {
	fid, err := fsys.Open(name, plan9.OREAD)
	if err != nil {
		return err
	}
	defer fid.Close()
	_, err = io.Copy(stdout, fid)
	return err
}

// ls prints the entries of directory name, one per line, with a
// trailing slash on directories.
func ls(fsys *client.Fsys, name string, stdout io.Writer) error {
	fid, err := fsys.Open(name, plan9.OREAD)
	if err != nil {
		return err
	}
	defer fid.Close()

	var raw []byte
	buf := make([]byte, plan9.STATMAX)
	for {
		n, err := fid.Read(buf)
		if n > 0 {
			raw = append(raw, buf[:n]...)
		}
		if err != nil && err != io.EOF {
			return err
		}
		if err == io.EOF || n == 0 {
			break
		}
	}
	dirs, err := ninep.UnmarshalDirs(raw)
	if err != nil {
		return fmt.Errorf("listing %s: %w", name, err)
	}
	for _, d := range dirs {
		if d.Mode&plan9.DMDIR != 0 {
			fmt.Fprintf(stdout, "%s/\n", d.Name)
		} else {
			fmt.Fprintln(stdout, d.Name)
		}
	}
	return nil
}

func write(fsys *client.Fsys, name string, text io.Reader) error {
	fid, err := fsys.Open(name, plan9.OWRITE)
	if err != nil {
		return err
	}
	defer fid.Close()
	b, err := io.ReadAll(text)
	if err != nil {
		return err
	}
	if _, err := fid.Write(b); err != nil {
		return fmt.Errorf("writing %s: %w", name, err)
	}
	return nil
}
