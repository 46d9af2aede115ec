// Package source discovers and decodes battle-log exports.
package source

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"os"

	"github.com/theirongolddev/crpush/internal/model"
)

// maxFileSize caps how much of a single export is read into memory.
const maxFileSize = 64 << 20

// ParseResult holds the output of decoding one battle log.
type ParseResult struct {
	Battles      []model.Battle
	ParseErrors  int // records that were not JSON objects
	InvalidTimes int // records kept but with an unparseable battleTime
	Err          error
}

// envelope matches provider responses that wrap the log in an items array.
type envelope struct {
	Items []json.RawMessage `json:"items"`
}

// DecodeBattleLog decodes a battle log in any of the shapes the provider and
// its proxies emit: a JSON array, an {"items": [...]} object, or one record
// per line. Records that fail to decode are counted and skipped.
func DecodeBattleLog(data []byte) ParseResult {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return ParseResult{}
	}

	switch trimmed[0] {
	case '[':
		var raws []json.RawMessage
		if err := json.Unmarshal(trimmed, &raws); err != nil {
			return ParseResult{Err: fmt.Errorf("decoding battle log: %w", err)}
		}
		return decodeRecords(raws)
	case '{':
		var env envelope
		if err := json.Unmarshal(trimmed, &env); err == nil && env.Items != nil {
			return decodeRecords(env.Items)
		}
	}
	return decodeLines(trimmed)
}

func decodeLines(data []byte) ParseResult {
	var raws []json.RawMessage
	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		raws = append(raws, json.RawMessage(bytes.Clone(line)))
	}
	result := decodeRecords(raws)
	if err := scanner.Err(); err != nil {
		result.Err = fmt.Errorf("scanning battle log: %w", err)
	}
	return result
}

func decodeRecords(raws []json.RawMessage) ParseResult {
	var result ParseResult
	result.Battles = make([]model.Battle, 0, len(raws))
	for _, raw := range raws {
		var b model.Battle
		if err := json.Unmarshal(raw, &b); err != nil {
			result.ParseErrors++
			continue
		}
		if _, ok := ParseBattleTime(b.BattleTime); !ok {
			result.InvalidTimes++
		}
		result.Battles = append(result.Battles, b)
	}
	return result
}

// ParseFile reads and decodes a battle-log export from disk.
func ParseFile(df DiscoveredFile) ParseResult {
	info, err := os.Stat(df.Path)
	if err != nil {
		return ParseResult{Err: err}
	}
	if info.Size() > maxFileSize {
		return ParseResult{Err: fmt.Errorf("%s: file exceeds %d bytes", df.Path, maxFileSize)}
	}

	data, err := os.ReadFile(df.Path)
	if err != nil {
		return ParseResult{Err: err}
	}
	return DecodeBattleLog(data)
}
