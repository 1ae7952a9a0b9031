package core

import (
	"errors"
	"strings"
	"testing"
	"time"
)

const sampleHash = "9f86d081884c7d659a2feaa0c55ad015a3bf4f1b2b0b822cd15d6c15b0f00a08"

func TestValidateContentRecord(t *testing.T) {
	tests := []struct {
		name    string
		record  *ContentRecord
		wantErr error
	}{
		{
			name: "valid record",
			record: &ContentRecord{
				ContentHash:  sampleHash,
				OriginalName: "statement.pdf",
				AbsolutePath: "/tmp/statement.pdf",
				SizeBytes:    42,
				ProcessedAt:  time.Now().UTC(),
			},
			wantErr: nil,
		},
		{
			name: "valid record without path",
			record: &ContentRecord{
				ContentHash:  sampleHash,
				OriginalName: "statement.pdf",
			},
			wantErr: nil,
		},
		{
			name:    "nil record",
			record:  nil,
			wantErr: ErrInvalidRecord,
		},
		{
			name: "short hash",
			record: &ContentRecord{
				ContentHash:  "abc",
				OriginalName: "a.txt",
			},
			wantErr: ErrInvalidHash,
		},
		{
			name: "uppercase hash",
			record: &ContentRecord{
				ContentHash:  strings.ToUpper(sampleHash),
				OriginalName: "a.txt",
			},
			wantErr: ErrInvalidHash,
		},
		{
			name: "empty filename",
			record: &ContentRecord{
				ContentHash: sampleHash,
			},
			wantErr: ErrInvalidRecord,
		},
		{
			name: "negative size",
			record: &ContentRecord{
				ContentHash:  sampleHash,
				OriginalName: "a.txt",
				SizeBytes:    -1,
			},
			wantErr: ErrInvalidRecord,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateContentRecord(tt.record)
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("ValidateContentRecord() error = %v, want nil", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ValidateContentRecord() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateContentHash_NonHex(t *testing.T) {
	bad := strings.Repeat("z", ContentHashLength)
	if err := ValidateContentHash(bad); !errors.Is(err, ErrInvalidHash) {
		t.Errorf("ValidateContentHash() error = %v, want %v", err, ErrInvalidHash)
	}
}
