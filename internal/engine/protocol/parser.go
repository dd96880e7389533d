package protocol

import (
	"WrplSpectra/internal/core/model"
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
)

// Magic is the 4-byte signature every replay file starts with.
var Magic = []byte{0xE5, 0xAC, 0x00, 0x10}

// Header field offsets. Gaps between fields are reserved padding.
const (
	offVersion          = 0x004
	offLevel            = 0x008
	offLevelSettings    = 0x088
	offBattleType       = 0x18C
	offEnvironment      = 0x20C
	offVisibility       = 0x28C
	offRezOffset        = 0x2AC
	offDifficulty       = 0x2B0
	offSessionType      = 0x2D4
	offSessionID        = 0x2DF
	offMSetSize         = 0x2EB
	offLocName          = 0x30F
	offStartTime        = 0x38F
	offTimeLimit        = 0x393
	offScoreLimit       = 0x397
	offBattleClass      = 0x3CB
	offBattleKillStreak = 0x44B

	// MinHeaderSize is the smallest buffer that holds every header field.
	MinHeaderSize = offBattleKillStreak + 128
)

var (
	ErrInvalidMagic    = errors.New("invalid magic bytes")
	ErrTruncatedHeader = errors.New("truncated header")
)

var difficultyMap = map[uint8]model.Difficulty{
	0:  model.Arcade,
	5:  model.Realistic,
	10: model.Simulator,
}

// ParseHeader decodes the fixed-layout replay header at the start of data.
// It never reads past len(data).
func ParseHeader(data []byte) (*model.ReplayHeader, error) {
	if len(data) < MinHeaderSize {
		return nil, fmt.Errorf("%w: got %d bytes, need %d", ErrTruncatedHeader, len(data), MinHeaderSize)
	}
	if !bytes.Equal(data[:len(Magic)], Magic) {
		return nil, fmt.Errorf("%w: % x", ErrInvalidMagic, data[:len(Magic)])
	}

	h := &model.ReplayHeader{
		FileSize: len(data),
	}

	h.Version = u32(data, offVersion)
	h.Level = StripLevel(readString(data, offLevel, 128))
	h.LevelSettings = readString(data, offLevelSettings, 260)
	h.BattleType = readString(data, offBattleType, 128)
	h.Environment = readString(data, offEnvironment, 128)
	h.Visibility = readString(data, offVisibility, 32)

	h.RezOffset = u32(data, offRezOffset)
	h.DifficultyRaw = data[offDifficulty]
	h.Difficulty = DifficultyOf(h.DifficultyRaw)

	h.SessionType = u32(data, offSessionType)
	h.SessionIDInt = binary.LittleEndian.Uint64(data[offSessionID : offSessionID+8])
	h.SessionID = SessionIDText(h.SessionIDInt)

	h.MSetSize = u32(data, offMSetSize)
	h.LocName = readString(data, offLocName, 128)

	h.StartTime = u32(data, offStartTime)
	h.StartTimeReadable = time.Unix(int64(h.StartTime), 0).Format("2006-01-02 15:04:05")

	h.TimeLimit = u32(data, offTimeLimit)
	h.ScoreLimit = u32(data, offScoreLimit)
	h.BattleClass = readString(data, offBattleClass, 128)
	h.BattleKillStreak = readString(data, offBattleKillStreak, 128)

	return h, nil
}

// DifficultyOf maps the low nibble of the raw difficulty byte. Unknown
// values fall back to Arcade.
func DifficultyOf(raw uint8) model.Difficulty {
	if d, ok := difficultyMap[raw&0x0F]; ok {
		return d
	}
	return model.Arcade
}

// SessionIDText renders a session id as 0x-prefixed lowercase hex.
func SessionIDText(id uint64) string {
	return fmt.Sprintf("0x%x", id)
}

// StripLevel removes the "levels/" prefix and ".bin" suffix of a level path.
// Repeated affixes are removed as well, so stripping twice changes nothing.
func StripLevel(level string) string {
	for strings.HasPrefix(level, "levels/") {
		level = strings.TrimPrefix(level, "levels/")
	}
	for strings.HasSuffix(level, ".bin") {
		level = strings.TrimSuffix(level, ".bin")
	}
	return level
}

func u32(data []byte, off int) uint32 {
	return binary.LittleEndian.Uint32(data[off : off+4])
}

// readString extracts the null-terminated payload of a fixed-width window.
func readString(data []byte, off, size int) string {
	window := data[off : off+size]
	if i := bytes.IndexByte(window, 0); i >= 0 {
		window = window[:i]
	}
	return strings.TrimSpace(decodeText(window))
}

// decodeText tries UTF-8, then Windows-1252, then UTF-8 with replacement
// characters. It never fails.
func decodeText(b []byte) string {
	if utf8.Valid(b) {
		return string(b)
	}
	if s, err := charmap.Windows1252.NewDecoder().Bytes(b); err == nil && utf8.Valid(s) {
		return string(s)
	}
	return strings.ToValidUTF8(string(b), "\uFFFD")
}
