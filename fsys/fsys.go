// Package fsys serves a Registry of files over 9P2000 so that other
// programs can read and edit them. The tree is
//
//	/index      one line per file: id, dirty flag and name
//	/new        opening it creates a file; reading returns its id
//	/N/body     the text; writes append
//	/N/addr     the selected range as "q0 q1"; writes set it
//	/N/data     the selected text; writes replace it
//	/N/ctl      status; writes are commands
//
// Each connection is served sequentially.
package fsys

import (
	"errors"
	"fmt"
	"io"
	"log"
	"net"
	"os"
	"os/user"
	"strconv"
	"time"

	"9fans.net/go/plan9"
	"github.com/rjkroege/membuffer/internal/ninep"
)

// Errors returned by file server.
var (
	ErrPermission = os.ErrPermission
	ErrNotExist   = os.ErrNotExist
	ErrNotDir     = fmt.Errorf("not a directory")
	ErrBadCtl     = errors.New("ill-formed control message")
	ErrBadAddr    = errors.New("bad address syntax")
)

const (
	Qdir uint64 = iota
	Qindex
	Qnew
	Qaddr
	Qbody
	Qctl
	Qdata
)

type DirTab struct {
	name string
	t    uint8
	qid  uint64
	perm plan9.Perm
}

var dirtab = []*DirTab{
	{".", plan9.QTDIR, Qdir, 0500 | plan9.DMDIR},
	{"index", plan9.QTFILE, Qindex, 0400},
	{"new", plan9.QTFILE, Qnew, 0400},
}

var dirtabf = []*DirTab{
	{".", plan9.QTDIR, Qdir, 0500 | plan9.DMDIR},
	{"addr", plan9.QTFILE, Qaddr, 0600},
	{"body", plan9.QTAPPEND, Qbody, 0600 | plan9.DMAPPEND},
	{"ctl", plan9.QTFILE, Qctl, 0600},
	{"data", plan9.QTFILE, Qdata, 0600},
}

// fileDirTab returns the DirTab entry for the directory of file id.
func fileDirTab(id int) *DirTab {
	return &DirTab{
		name: strconv.Itoa(id),
		t:    plan9.QTDIR,
		qid:  Qdir,
		perm: plan9.DMDIR | 0700,
	}
}

func ID(q plan9.Qid) int {
	return int(((uint(q.Path)) >> 8) & 0xFFFFFF)
}

func FILE(q plan9.Qid) uint64 {
	return uint64(q.Path & 0xff)
}

func QID(id int, q uint64) uint64 {
	return uint64(id<<8) | q
}

// Server serves a Registry.
type Server struct {
	reg      *Registry
	username string
	verbose  bool
}

// NewServer returns a Server for reg.
func NewServer(reg *Registry) *Server {
	return &Server{
		reg:      reg,
		username: getuser(),
	}
}

// SetVerbose turns on logging of every 9P message.
func (s *Server) SetVerbose(v bool) { s.verbose = v }

type Fid struct {
	fid   uint32
	busy  bool
	open  bool
	qid   plan9.Qid
	dir   *DirTab
	newid int // file created by opening new
}

type fileServer struct {
	*Server
	conn        io.ReadWriteCloser
	fids        map[uint32]*Fid
	fcall       []fsfunc
	messagesize int
	err         error // first write error
}

type fsfunc func(*plan9.Fcall, *Fid)

func (fs *fileServer) initfcall() {
	fs.fcall = make([]fsfunc, plan9.Tmax)
	fs.fcall[plan9.Tflush] = fs.flush
	fs.fcall[plan9.Tversion] = fs.version
	fs.fcall[plan9.Tauth] = fs.auth
	fs.fcall[plan9.Tattach] = fs.attach
	fs.fcall[plan9.Twalk] = fs.walk
	fs.fcall[plan9.Topen] = fs.open
	fs.fcall[plan9.Tcreate] = fs.denyAccess
	fs.fcall[plan9.Tread] = fs.read
	fs.fcall[plan9.Twrite] = fs.write
	fs.fcall[plan9.Tclunk] = fs.clunk
	fs.fcall[plan9.Tremove] = fs.remove
	fs.fcall[plan9.Tstat] = fs.stat
	fs.fcall[plan9.Twstat] = fs.denyAccess
}

// Serve answers 9P requests read from conn until it is closed. It
// returns nil when the peer hangs up.
func (s *Server) Serve(conn io.ReadWriteCloser) error {
	fs := &fileServer{
		Server: s,
		conn:   conn,
		fids:   make(map[uint32]*Fid),
	}
	fs.initfcall()
	defer conn.Close()

	for fs.err == nil {
		fc, err := plan9.ReadFcall(conn)
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrClosedPipe) || errors.Is(err, net.ErrClosed) {
				return nil
			}
			return fmt.Errorf("reading 9P message: %w", err)
		}
		if s.verbose {
			log.Printf("<- %v", fc)
		}

		var f *Fid
		switch fc.Type {
		case plan9.Tversion, plan9.Tauth, plan9.Tflush:
		case plan9.Tattach:
			f = fs.newfid(fc.Fid)
		default:
			f = fs.newfid(fc.Fid)
			if !f.busy {
				fs.respond(fc, nil, fmt.Errorf("fid not in use"))
				continue
			}
		}
		if int(fc.Type) >= len(fs.fcall) || fs.fcall[fc.Type] == nil {
			fs.respond(fc, nil, fmt.Errorf("bad fcall type %d", fc.Type))
			continue
		}
		fs.fcall[fc.Type](fc, f)
	}
	return fs.err
}

func (fs *fileServer) respond(x *plan9.Fcall, t *plan9.Fcall, err error) {
	if t == nil {
		t = &plan9.Fcall{}
	}
	if err != nil {
		t.Type = plan9.Rerror
		t.Ename = err.Error()
	} else {
		t.Type = x.Type + 1
	}
	t.Fid = x.Fid
	t.Tag = x.Tag
	if fs.verbose {
		log.Printf("-> %v", t)
	}
	if err := plan9.WriteFcall(fs.conn, t); err != nil && fs.err == nil {
		fs.err = fmt.Errorf("write error in respond: %w", err)
	}
}

func (fs *fileServer) version(x *plan9.Fcall, f *Fid) {
	var t plan9.Fcall
	fs.messagesize = int(x.Msize)
	t.Msize = x.Msize
	if x.Version != "9P2000" {
		fs.respond(x, &t, fmt.Errorf("unrecognized 9P version"))
		return
	}
	t.Version = "9P2000"
	fs.respond(x, &t, nil)
}

func (fs *fileServer) auth(x *plan9.Fcall, f *Fid) {
	fs.respond(x, nil, fmt.Errorf("membufd: authentication not required"))
}

// flush has nothing to cancel: requests are answered in order.
func (fs *fileServer) flush(x *plan9.Fcall, f *Fid) {
	fs.respond(x, nil, nil)
}

func (fs *fileServer) attach(x *plan9.Fcall, f *Fid) {
	if x.Uname != fs.username {
		// Ignore mismatch because some libraries gets it wrong
		// anyway. 9fans.net/go/plan9/client just uses the
		// $USER environment variable.
		log.Printf("attach from uname %q does not match %q but allowing anyway",
			x.Uname, fs.username)
	}
	f.busy = true
	f.open = false
	f.qid = plan9.Qid{Path: Qdir, Type: plan9.QTDIR}
	f.dir = dirtab[0] // '.'
	fs.respond(x, &plan9.Fcall{Qid: f.qid}, nil)
}

func (fs *fileServer) walk(x *plan9.Fcall, f *Fid) {
	var t plan9.Fcall

	if f.open {
		fs.respond(x, &t, fmt.Errorf("walk of open file"))
		return
	}
	var nf *Fid
	if x.Fid != x.Newfid { // clone fid
		nf = fs.newfid(x.Newfid)
		if nf.busy {
			fs.respond(x, &t, fmt.Errorf("newfid already in use"))
			return
		}
		nf.busy = true
		nf.open = false
		nf.dir = f.dir
		nf.qid = f.qid
		f = nf // walk f
	}

	var err error
	wf := &Fid{qid: f.qid, dir: f.dir}
	for i, wname := range x.Wname {
		if i == plan9.MAXWELEM {
			err = fmt.Errorf("name too long")
			break
		}
		var found bool
		found, err = fs.walk1(wf, wname)
		if err != nil || !found {
			break
		}
		t.Wqid = append(t.Wqid, wf.qid)
	}
	if len(t.Wqid) == 0 && len(x.Wname) > 0 && err == nil {
		err = ErrNotExist
	}

	switch {
	case err != nil || len(t.Wqid) < len(x.Wname):
		if nf != nil {
			delete(fs.fids, nf.fid)
		}
	default:
		f.dir = wf.dir
		f.qid = wf.qid
	}
	fs.respond(x, &t, err)
}

// walk1 walks f to path name element wname.
// Found is set to true iff wname was found.
func (fs *fileServer) walk1(f *Fid, wname string) (found bool, err error) {
	if (f.qid.Type & plan9.QTDIR) == 0 {
		return false, ErrNotDir
	}

	if wname == ".." {
		f.qid = plan9.Qid{Path: QID(0, Qdir), Type: plan9.QTDIR}
		f.dir = dirtab[0]
		return true, nil
	}

	// is it a numeric name?
	if id, err := strconv.Atoi(wname); err == nil {
		if ID(f.qid) != 0 || !fs.reg.Exists(id) {
			return false, nil
		}
		f.dir = dirtabf[0] // '.'
		f.qid = plan9.Qid{Path: QID(id, Qdir), Type: plan9.QTDIR}
		return true, nil
	}

	id := ID(f.qid)
	d := dirtab
	if id != 0 {
		d = dirtabf
	}
	for _, de := range d[1:] {
		if wname == de.name {
			f.dir = de
			f.qid = plan9.Qid{Path: QID(id, de.qid), Type: de.t}
			return true, nil
		}
	}
	return false, nil // file not found
}

// denyAccess responds with a permission denied error.
func (fs *fileServer) denyAccess(x *plan9.Fcall, f *Fid) {
	fs.respond(x, nil, ErrPermission)
}

func (fs *fileServer) open(x *plan9.Fcall, f *Fid) {
	var m plan9.Perm
	// can't truncate anything, so just disregard
	mode := x.Mode &^ uint8(plan9.OTRUNC|plan9.OCEXEC)
	// can't execute or remove anything
	if mode == plan9.OEXEC || (mode&plan9.ORCLOSE) != 0 {
		fs.denyAccess(x, f)
		return
	}
	switch mode {
	case plan9.OREAD:
		m = 0400
	case plan9.OWRITE:
		m = 0200
	case plan9.ORDWR:
		m = 0600
	default:
		fs.denyAccess(x, f)
		return
	}
	if ((f.dir.perm &^ (plan9.DMDIR | plan9.DMAPPEND)) & m) != m {
		fs.denyAccess(x, f)
		return
	}

	id := ID(f.qid)
	switch {
	case FILE(f.qid) == Qnew:
		f.newid = fs.reg.New("")
	case id != 0 && !fs.reg.Exists(id):
		fs.respond(x, nil, ErrNotExist)
		return
	}
	f.open = true
	fs.respond(x, &plan9.Fcall{Qid: f.qid}, nil)
}

func (fs *fileServer) read(x *plan9.Fcall, f *Fid) {
	var t plan9.Fcall
	if f.qid.Type&plan9.QTDIR != 0 {
		fs.dirread(x, f, &t)
		fs.respond(x, &t, nil)
		return
	}
	err := fs.xfidread(x, f, &t)
	fs.respond(x, &t, err)
}

func (fs *fileServer) dirread(x *plan9.Fcall, f *Fid, t *plan9.Fcall) {
	clock := getclock()
	id := ID(f.qid)
	d := dirtab
	if id > 0 {
		d = dirtabf
	}
	d = d[1:] // Skip '.'

	var ids []int // for file sub-directories
	if id == 0 {
		ids = fs.reg.IDs()
	}
	ninep.DirRead(t, x, func(i int) *plan9.Dir {
		if i < len(d) {
			return d[i].Dir(id, fs.username, clock)
		}
		i -= len(d)
		if i < len(ids) {
			k := ids[i]
			return fileDirTab(k).Dir(k, fs.username, clock)
		}
		return nil
	})
}

func (fs *fileServer) write(x *plan9.Fcall, f *Fid) {
	err := fs.xfidwrite(x, f)
	t := plan9.Fcall{Count: uint32(len(x.Data))}
	fs.respond(x, &t, err)
}

func (fs *fileServer) clunk(x *plan9.Fcall, f *Fid) {
	delete(fs.fids, f.fid)
	fs.respond(x, nil, nil)
}

// remove always fails but, as 9P requires, clunks the fid.
func (fs *fileServer) remove(x *plan9.Fcall, f *Fid) {
	delete(fs.fids, f.fid)
	fs.denyAccess(x, f)
}

func (fs *fileServer) stat(x *plan9.Fcall, f *Fid) {
	var t plan9.Fcall

	id := ID(f.qid)
	dt := f.dir
	if id != 0 && FILE(f.qid) == Qdir {
		dt = fileDirTab(id)
	}
	b, _ := dt.Dir(id, fs.username, getclock()).Bytes()
	if len(b) > fs.messagesize-plan9.IOHDRSZ {
		// don't send partial directory entry
		fs.respond(x, nil, fmt.Errorf("msize too small"))
		return
	}
	t.Stat = b
	fs.respond(x, &t, nil)
}

func (fs *fileServer) newfid(fid uint32) *Fid {
	ff, ok := fs.fids[fid]
	if !ok {
		ff = &Fid{fid: fid}
		fs.fids[fid] = ff
	}
	return ff
}

var useFixedClock bool // for testing

// fixedClockValue is the same as the one used by https://play.golang.org/
// (when Go was open sourced).
const fixedClockValue = 1257894000

func getclock() int64 {
	if useFixedClock {
		return fixedClockValue
	}
	return time.Now().Unix()
}

// Dir converts DirTab to plan9.Dir. The given file id is used to
// compute Qid.Path, username/group is set to user, and Atime/Mtime is
// set to clock.
func (dt *DirTab) Dir(id int, user string, clock int64) *plan9.Dir {
	return &plan9.Dir{
		Qid: plan9.Qid{
			Path: QID(id, dt.qid),
			Type: dt.t,
		},
		Mode:   dt.perm,
		Atime:  uint32(clock),
		Mtime:  uint32(clock),
		Name:   dt.name,
		Uid:    user,
		Gid:    user,
		Muid:   user,
	}
}

func getuser() string {
	user, err := user.Current()
	if err != nil {
		// Same as https://9fans.github.io/usr/local/plan9/src/lib9/getuser.c
		return "none"
	}
	return user.Username
}
