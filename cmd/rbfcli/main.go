// rbfcli is a minimal interactive driver over the paged-file and
// record-based file managers, in the spirit of the teacher's cmd/simpledb
// REPL but scoped to this core's operations only: no query language, no
// network listener (spec.md explicitly leaves the public command surface
// as an external collaborator).
package main

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/luigitni/rbfdb/config"
	"github.com/luigitni/rbfdb/diag"
	"github.com/luigitni/rbfdb/pagefile"
	"github.com/luigitni/rbfdb/record"
)

var demoDesc = record.RecordDescriptor{
	{Name: "id", Type: record.TypeInt, MaxLength: 4},
	{Name: "tag", Type: record.TypeVarChar, MaxLength: 255},
}

type session struct {
	pfm     *pagefile.Manager
	records *record.Manager
	handles map[string]*pagefile.FileHandle
}

func newSession(opts config.Options) (*session, error) {
	pfm, err := pagefile.NewManager(opts.BaseDir)
	if err != nil {
		return nil, err
	}
	return &session{
		pfm:     pfm,
		records: record.NewManager(),
		handles: make(map[string]*pagefile.FileHandle),
	}, nil
}

func (s *session) handleFor(name string) (*pagefile.FileHandle, error) {
	h, ok := s.handles[name]
	if ok {
		return h, nil
	}
	h = &pagefile.FileHandle{}
	if err := s.pfm.OpenFile(name, h); err != nil {
		return nil, err
	}
	s.handles[name] = h
	return h, nil
}

func (s *session) exec(line string) (string, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return "", nil
	}

	switch fields[0] {
	case "create":
		if len(fields) != 2 {
			return "", fmt.Errorf("usage: create <file>")
		}
		if err := s.pfm.CreateFile(fields[1]); err != nil {
			return "", err
		}
		return "ok", nil

	case "destroy":
		if len(fields) != 2 {
			return "", fmt.Errorf("usage: destroy <file>")
		}
		if h, open := s.handles[fields[1]]; open {
			s.pfm.CloseFile(h)
			delete(s.handles, fields[1])
		}
		if err := s.pfm.DestroyFile(fields[1]); err != nil {
			return "", err
		}
		return "ok", nil

	case "insert":
		if len(fields) != 4 {
			return "", fmt.Errorf("usage: insert <file> <id> <tag>")
		}
		h, err := s.handleFor(fields[1])
		if err != nil {
			return "", err
		}
		id, err := strconv.Atoi(fields[2])
		if err != nil {
			return "", err
		}
		external := encodeDemo(int32(id), fields[3])
		rid, err := s.records.InsertRecord(h, demoDesc, external)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("rid=%d:%d", rid.PageNum, rid.SlotNum), nil

	case "read":
		if len(fields) != 4 {
			return "", fmt.Errorf("usage: read <file> <page> <slot>")
		}
		h, err := s.handleFor(fields[1])
		if err != nil {
			return "", err
		}
		page, err := strconv.ParseUint(fields[2], 10, 32)
		if err != nil {
			return "", err
		}
		slot, err := strconv.ParseUint(fields[3], 10, 16)
		if err != nil {
			return "", err
		}
		external, err := s.records.ReadRecord(h, demoDesc, record.RID{PageNum: uint32(page), SlotNum: uint16(slot)})
		if err != nil {
			return "", err
		}
		if err := record.PrintRecord(demoDesc, external); err != nil {
			return "", err
		}
		return "ok", nil

	case "dump":
		if len(fields) != 3 {
			return "", fmt.Errorf("usage: dump <file> <page>")
		}
		h, err := s.handleFor(fields[1])
		if err != nil {
			return "", err
		}
		page, err := strconv.ParseUint(fields[2], 10, 32)
		if err != nil {
			return "", err
		}
		d, err := record.DumpPage(h, uint32(page))
		if err != nil {
			return "", err
		}
		return d.String(), nil

	case "tracker":
		return s.pfm.DumpTracker(), nil

	default:
		return "", fmt.Errorf("unknown command %q", fields[0])
	}
}

func encodeDemo(id int32, tag string) []byte {
	external := []byte{0x00}
	external = appendUint32(external, uint32(id))
	external = appendUint32(external, uint32(len(tag)))
	external = append(external, []byte(tag)...)
	return external
}

func appendUint32(buf []byte, v uint32) []byte {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	return append(buf, b[:]...)
}

func main() {
	baseDir := "./rbfdata"
	if len(os.Args) > 1 {
		baseDir = os.Args[1]
	}

	s, err := newSession(config.New(config.WithBaseDir(baseDir)))
	if err != nil {
		diag.Errorf("startup: %v", err)
		os.Exit(1)
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	done := make(chan struct{})
	go repl(s, done)

	select {
	case <-quit:
	case <-done:
	}
	fmt.Println("shutting down...")
}

func repl(s *session, done chan<- struct{}) {
	defer close(done)

	fmt.Println("rbfcli ready. commands: create destroy insert read dump tracker exit")
	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			return
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "exit" {
			return
		}
		out, err := s.exec(line)
		if err != nil {
			diag.Errorf("%v", err)
			fmt.Println(err)
			continue
		}
		if out != "" {
			fmt.Println(out)
		}
	}
}
