/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
)

func TestSetupWithWriterLevels(t *testing.T) {
	tests := []struct {
		env  string
		want zerolog.Level
	}{
		{"development", zerolog.DebugLevel},
		{"production", zerolog.InfoLevel},
		{"staging", zerolog.InfoLevel},
	}
	for _, tc := range tests {
		logger := SetupWithWriter(tc.env, &bytes.Buffer{})
		if logger.GetLevel() != tc.want {
			t.Fatalf("%s level = %v, want %v", tc.env, logger.GetLevel(), tc.want)
		}
	}
}

func TestComponentTagsEntries(t *testing.T) {
	var buf bytes.Buffer
	logger := Component(SetupWithWriter("production", &buf), "store")
	logger.Info().Int64("playlist_id", 3).Msg("saved")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("decode log line: %v", err)
	}
	if entry["component"] != "store" || entry["message"] != "saved" {
		t.Fatalf("unexpected entry: %v", entry)
	}
}
