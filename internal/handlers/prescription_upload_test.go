package handlers

import (
	"mime/multipart"
	"net/textproto"
	"strings"
	"testing"
)

func uploadHeader(filename, contentType string, size int64) *multipart.FileHeader {
	header := textproto.MIMEHeader{}
	if contentType != "" {
		header.Set("Content-Type", contentType)
	}
	return &multipart.FileHeader{
		Filename: filename,
		Header:   header,
		Size:     size,
	}
}

func TestValidateUploadFile(t *testing.T) {
	const maxSize = 5 << 20

	cases := []struct {
		name        string
		file        *multipart.FileHeader
		wantMime    string
		wantErrPart string
	}{
		{
			name:     "jpeg accepted",
			file:     uploadHeader("scan.jpg", "image/jpeg", 1024),
			wantMime: "image/jpeg",
		},
		{
			name:     "uppercase extension accepted",
			file:     uploadHeader("SCAN.PNG", "image/png", 1024),
			wantMime: "image/png",
		},
		{
			name:     "pdf accepted",
			file:     uploadHeader("rx.pdf", "application/pdf", 2048),
			wantMime: "application/pdf",
		},
		{
			name:     "missing content type falls back to extension",
			file:     uploadHeader("scan.jpeg", "", 1024),
			wantMime: "image/jpeg",
		},
		{
			name:        "gif rejected",
			file:        uploadHeader("scan.gif", "image/gif", 1024),
			wantErrPart: "unsupported file type",
		},
		{
			name:        "executable rejected",
			file:        uploadHeader("rx.exe", "application/octet-stream", 1024),
			wantErrPart: "unsupported file type",
		},
		{
			name:        "spoofed content type rejected",
			file:        uploadHeader("scan.jpg", "text/html", 1024),
			wantErrPart: "unsupported file type",
		},
		{
			name:        "oversized file rejected",
			file:        uploadHeader("scan.jpg", "image/jpeg", maxSize+1),
			wantErrPart: "file too large",
		},
		{
			name:     "exact size cap accepted",
			file:     uploadHeader("scan.jpg", "image/jpeg", maxSize),
			wantMime: "image/jpeg",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			mimeType, err := validateUploadFile(tc.file, maxSize)
			if tc.wantErrPart != "" {
				if err == nil {
					t.Fatal("expected error")
				}
				if !strings.Contains(err.Error(), tc.wantErrPart) {
					t.Errorf("error %q does not mention %q", err, tc.wantErrPart)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if mimeType != tc.wantMime {
				t.Errorf("mime = %q, want %q", mimeType, tc.wantMime)
			}
		})
	}
}
