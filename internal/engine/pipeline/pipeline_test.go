package pipeline

import (
	"WrplSpectra/internal/blk"
	"WrplSpectra/internal/core/model"
	"WrplSpectra/internal/core/tree"
	"WrplSpectra/internal/engine/correlator"
	"WrplSpectra/internal/engine/protocol"
	"context"
	"encoding/binary"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"
)

// stubSource returns a fixed result and records the offset it was asked for.
type stubSource struct {
	doc    string
	err    error
	called bool
	offset uint32
}

func (s *stubSource) Unpack(_ context.Context, _ []byte, rezOffset uint32) (tree.Value, error) {
	s.called = true
	s.offset = rezOffset
	if s.err != nil {
		return tree.Empty(), s.err
	}
	return tree.Parse([]byte(s.doc))
}

// replayBytes builds a header of the minimum size followed by tail.
func replayBytes(rezOffset uint32, tail []byte) []byte {
	buf := make([]byte, protocol.MinHeaderSize, protocol.MinHeaderSize+len(tail))
	copy(buf, protocol.Magic)
	binary.LittleEndian.PutUint32(buf[0x004:], 100)
	copy(buf[0x008:], "levels/test_map.bin\x00")
	binary.LittleEndian.PutUint32(buf[0x2AC:], rezOffset)
	buf[0x2B0] = 5
	binary.LittleEndian.PutUint64(buf[0x2DF:], 0x1234)
	return append(buf, tail...)
}

func TestProcess_InvalidOffsetEndToEnd(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("requires a Unix shell")
	}
	cli := filepath.Join(t.TempDir(), "wt_ext_cli")
	if err := os.WriteFile(cli, []byte("#!/bin/sh\necho called >&2\nexit 1\n"), 0755); err != nil {
		t.Fatalf("Failed to write fake cli: %v", err)
	}
	unpacker, err := blk.NewUnpacker(cli, time.Second, false)
	if err != nil {
		t.Fatalf("NewUnpacker failed: %v", err)
	}

	data := replayBytes(protocol.MinHeaderSize+100, nil)
	rec, err := NewProcessor(unpacker, correlator.Options{}).Process(context.Background(), "/replays/a.wrpl", data)
	if err != nil {
		t.Fatalf("Process failed: %v", err)
	}

	if rec.Header.Level != "test_map" {
		t.Errorf("Expected level 'test_map', got %q", rec.Header.Level)
	}
	if rec.Header.Difficulty != model.Realistic {
		t.Errorf("Expected Realistic, got %s", rec.Header.Difficulty)
	}
	if rec.Header.SessionID != "0x1234" {
		t.Errorf("Expected session id 0x1234, got %s", rec.Header.SessionID)
	}
	if rec.Header.Version != 100 || rec.Header.FileName != "a.wrpl" {
		t.Errorf("Unexpected header: %+v", rec.Header)
	}
	if !rec.Results.IsEmpty() || len(rec.Players) != 0 {
		t.Errorf("Expected empty results and roster")
	}
	if rec.Author.UserID != "-1" || rec.Author.Name != "server" {
		t.Errorf("Expected default author, got %+v", rec.Author)
	}
	if rec.Status != "left" {
		t.Errorf("Expected status 'left', got %q", rec.Status)
	}
	if rec.SourcePath != "/replays/a.wrpl" {
		t.Errorf("Expected source path to be kept, got %q", rec.SourcePath)
	}
}

func TestProcess_WithResults(t *testing.T) {
	src := &stubSource{doc: `{"status": "win", "timePlayed": 600, "authorUserId": "5", "author": "rec",
		"player": [{"userId": 5, "kills": 4}],
		"uiScriptsData": {"playersInfo": {"a": {"id": "5", "name": "rec", "crafts": {"0": "jp_type_97"}}}}}`}
	data := replayBytes(protocol.MinHeaderSize, []byte("blk"))

	rec, err := NewProcessor(src, correlator.Options{}).Process(context.Background(), "b.wrpl", data)
	if err != nil {
		t.Fatalf("Process failed: %v", err)
	}
	if !src.called || src.offset != protocol.MinHeaderSize {
		t.Errorf("Expected source to be called with the header offset, got %d", src.offset)
	}
	if rec.Status != "win" || rec.TimePlayed != 600 || rec.Author.Name != "rec" {
		t.Errorf("Unexpected record: %+v", rec)
	}
	if len(rec.Players) != 1 || rec.Players[0].Stats.Kills != 4 || rec.Players[0].Stats.Lineup[0] != "jp_type_97" {
		t.Errorf("Unexpected roster: %+v", rec.Players)
	}
}

func TestProcess_Errors(t *testing.T) {
	proc := NewProcessor(&stubSource{doc: `{}`}, correlator.Options{})

	if _, err := proc.Process(context.Background(), "short.wrpl", []byte{0xE5, 0xAC}); !errors.Is(err, protocol.ErrTruncatedHeader) {
		t.Errorf("Expected ErrTruncatedHeader, got %v", err)
	}

	bad := replayBytes(0, nil)
	bad[0] = 0
	if _, err := proc.Process(context.Background(), "bad.wrpl", bad); !errors.Is(err, protocol.ErrInvalidMagic) {
		t.Errorf("Expected ErrInvalidMagic, got %v", err)
	}

	soft := NewProcessor(&stubSource{err: blk.ErrServiceTimeout}, correlator.Options{})
	rec, err := soft.Process(context.Background(), "slow.wrpl", replayBytes(protocol.MinHeaderSize, []byte("x")))
	if err != nil {
		t.Fatalf("Expected soft failure to degrade, got %v", err)
	}
	if !rec.Results.IsEmpty() || rec.Status != "left" {
		t.Errorf("Expected degraded record, got %+v", rec)
	}

	fatal := NewProcessor(&stubSource{err: blk.ErrServiceUnavailable}, correlator.Options{})
	if _, err := fatal.Process(context.Background(), "x.wrpl", replayBytes(protocol.MinHeaderSize, []byte("x"))); !blk.IsFatal(err) {
		t.Errorf("Expected fatal error to propagate, got %v", err)
	}
}
