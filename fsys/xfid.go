package fsys

import (
	"fmt"
	"strconv"
	"strings"

	"9fans.net/go/plan9"
	"github.com/rjkroege/membuffer/file"
	"github.com/rjkroege/membuffer/internal/ninep"
)

func (fs *fileServer) xfidread(x *plan9.Fcall, f *Fid, t *plan9.Fcall) error {
	q := FILE(f.qid)
	id := ID(f.qid)
	switch q {
	case Qindex:
		ninep.ReadString(t, x, fs.index())
		return nil
	case Qnew:
		ninep.ReadString(t, x, fmt.Sprintf("%d\n", f.newid))
		return nil
	}

	return fs.reg.do(id, func(e *entry) error {
		switch q {
		case Qbody:
			return ninep.ReadAt(t, x, e.f.Text(), e.f.Nbyte())
		case Qaddr:
			ninep.ReadString(t, x, fmt.Sprintf("%11d %11d ", e.addr0.Pos(), e.addr1.Pos()))
		case Qdata:
			q0, q1 := e.addr0.Pos(), e.addr1.Pos()
			ninep.ReadBuffer(t, x, e.f.Text().Copy(q0, q1-q0))
		case Qctl:
			ninep.ReadString(t, x, ctlprint(e))
		default:
			return fmt.Errorf("unknown qid %d in read", q)
		}
		return nil
	})
}

// index lists the served files.
func (fs *fileServer) index() string {
	var sb strings.Builder
	for _, id := range fs.reg.IDs() {
		fs.reg.do(id, func(e *entry) error {
			fmt.Fprintf(&sb, "%11d %11d %s\n", id, b2i(e.f.Dirty()), e.f.Name())
			return nil
		})
	}
	return sb.String()
}

// ctlprint formats the status of a file: id, length in bytes, number of
// lines, dirty flag and name.
func ctlprint(e *entry) string {
	f := e.f
	return fmt.Sprintf("%11d %11d %11d %11d %s\n",
		e.id, f.Nbyte(), f.Text().NumberOfLines(), b2i(f.Dirty()), f.Name())
}

func b2i(b bool) int {
	if b {
		return 1
	}
	return 0
}

func (fs *fileServer) xfidwrite(x *plan9.Fcall, f *Fid) error {
	q := FILE(f.qid)
	id := ID(f.qid)
	return fs.reg.do(id, func(e *entry) error {
		defer e.f.Text().FlushPendingUpdates()
		switch q {
		case Qbody:
			e.f.Insert(e.f.Nbyte(), x.Data)
			e.f.Mark()
		case Qaddr:
			q0, q1, err := parseAddr(e.f, string(x.Data))
			if err != nil {
				return err
			}
			e.setAddr(q0, q1)
		case Qdata:
			q0, q1 := e.addr0.Pos(), e.addr1.Pos()
			e.f.DeleteAt(e.addr0, q1-q0)
			e.f.InsertAt(e.addr0, x.Data)
			e.f.Mark()
		case Qctl:
			return fs.ctlwrite(e, string(x.Data))
		default:
			return fmt.Errorf("unknown qid %d in write", q)
		}
		return nil
	})
}

// ctlwrite executes one control message per line.
func (fs *fileServer) ctlwrite(e *entry, msg string) error {
	for _, line := range strings.Split(msg, "\n") {
		cmd, arg, _ := strings.Cut(strings.TrimSpace(line), " ")
		arg = strings.TrimSpace(arg)
		var err error
		switch cmd {
		case "":
		case "undo":
			if q0, q1, ok := e.f.Undo(); ok {
				e.setAddr(q0, q1)
			}
		case "redo":
			if q0, q1, ok := e.f.Redo(); ok {
				e.setAddr(q0, q1)
			}
		case "mark":
			e.f.Mark()
		case "clean":
			e.f.Clean()
		case "name":
			if arg == "" {
				return fmt.Errorf("%w: name needs an argument", ErrBadCtl)
			}
			e.f.SetName(arg)
		case "get":
			if e.f.Name() == "" {
				return file.ErrNoName
			}
			err = e.f.LoadFile(e.f.Name())
		case "put", "put!":
			err = e.f.Save(cmd == "put!")
		case "del":
			fs.reg.removeLocked(e.id)
			return nil
		default:
			return fmt.Errorf("%w: %q", ErrBadCtl, line)
		}
		if err != nil {
			return fmt.Errorf("%s: %w", cmd, err)
		}
	}
	return nil
}

// parseAddr evaluates addr against f. It understands
//
//	#n       the empty range at byte offset n
//	n        all of line n, counting from 1
//	n:c      the empty range at column c of line n, counting from 1
//	$        the end of the text
//	a,b      from the start of a to the end of b; a missing a is the
//	         start of the text and a missing b its end
func parseAddr(f *file.File, addr string) (q0, q1 int, err error) {
	addr = strings.TrimSpace(addr)
	if a, b, ok := strings.Cut(addr, ","); ok {
		q0, q1 = 0, f.Nbyte()
		if a != "" {
			if q0, _, err = simpleAddr(f, a); err != nil {
				return 0, 0, err
			}
		}
		if b != "" {
			if _, q1, err = simpleAddr(f, b); err != nil {
				return 0, 0, err
			}
		}
		if q0 > q1 {
			return 0, 0, fmt.Errorf("%w: addresses out of order", ErrBadAddr)
		}
		return q0, q1, nil
	}
	return simpleAddr(f, addr)
}

func simpleAddr(f *file.File, addr string) (q0, q1 int, err error) {
	td := f.Text()
	switch {
	case addr == "$":
		return td.Len(), td.Len(), nil
	case strings.HasPrefix(addr, "#"):
		n, err := strconv.Atoi(addr[1:])
		if err != nil || n < 0 || n > td.Len() {
			return 0, 0, fmt.Errorf("%w: %q", ErrBadAddr, addr)
		}
		return n, n, nil
	}

	ls, cs, hascol := strings.Cut(addr, ":")
	line, err := strconv.Atoi(ls)
	if err != nil || line < 0 || line > td.NumberOfLines()+1 {
		return 0, 0, fmt.Errorf("%w: %q", ErrBadAddr, addr)
	}
	if line == 0 {
		return 0, 0, nil
	}

	m := td.CreateMark(0)
	defer m.Release()
	if hascol {
		col, err := strconv.Atoi(cs)
		if err != nil || col < 1 {
			return 0, 0, fmt.Errorf("%w: %q", ErrBadAddr, addr)
		}
		m.MoveToLineAndColumn(line-1, col-1)
		return m.Pos(), m.Pos(), nil
	}
	m.MoveToLineAndColumn(line-1, 0)
	q0 = m.Pos()
	if !m.MoveToNextLineBegin() {
		m.MoveToEndOfLine()
	}
	return q0, m.Pos(), nil
}
