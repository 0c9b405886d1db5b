package ota

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestHTTPTransportApply(t *testing.T) {
	image := []byte("firmware-image-contents")
	sum := md5.Sum(image)

	var gotVersion string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotVersion = r.Header.Get(VersionHeader)
		w.Write(image)
	}))
	defer srv.Close()

	target := filepath.Join(t.TempDir(), "firmware", "next.bin")
	restarted := false
	tr := &HTTPTransport{
		Version:    "v1.0.0",
		Flasher:    FileFlasher{TargetPath: target},
		StagingDir: t.TempDir(),
		Restart:    func() { restarted = true },
	}

	outcome, err := tr.Apply(context.Background(), Request{
		URL: srv.URL,
		MD5: hex.EncodeToString(sum[:]),
	})
	if err != nil {
		t.Fatalf("Apply() error = %v", err)
	}
	if outcome != Applied {
		t.Fatalf("Apply() outcome = %v, want Applied", outcome)
	}
	if gotVersion != "v1.0.0" {
		t.Errorf("version header = %q, want v1.0.0", gotVersion)
	}
	if !restarted {
		t.Error("successful update did not request a restart")
	}

	installed, err := os.ReadFile(target)
	if err != nil {
		t.Fatalf("installed image unreadable: %v", err)
	}
	if string(installed) != string(image) {
		t.Error("installed image differs from served image")
	}
}

func TestHTTPTransportNoUpdate(t *testing.T) {
	for _, status := range []int{http.StatusNotModified, http.StatusNoContent} {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(status)
		}))

		tr := &HTTPTransport{Flasher: FileFlasher{TargetPath: filepath.Join(t.TempDir(), "next.bin")}}
		outcome, err := tr.Apply(context.Background(), Request{URL: srv.URL})
		srv.Close()

		if err != nil {
			t.Errorf("status %d: Apply() error = %v", status, err)
		}
		if outcome != NoUpdate {
			t.Errorf("status %d: outcome = %v, want NoUpdate", status, outcome)
		}
	}
}

func TestHTTPTransportServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	tr := &HTTPTransport{Flasher: FileFlasher{TargetPath: filepath.Join(t.TempDir(), "next.bin")}}
	outcome, err := tr.Apply(context.Background(), Request{URL: srv.URL})
	if err == nil {
		t.Error("Apply() expected error for 500 response")
	}
	if outcome != Failed {
		t.Errorf("outcome = %v, want Failed", outcome)
	}
}

func TestHTTPTransportChecksumMismatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("not the advertised image"))
	}))
	defer srv.Close()

	target := filepath.Join(t.TempDir(), "next.bin")
	restarted := false
	tr := &HTTPTransport{
		Flasher:    FileFlasher{TargetPath: target},
		StagingDir: t.TempDir(),
		Restart:    func() { restarted = true },
	}

	outcome, err := tr.Apply(context.Background(), Request{URL: srv.URL, MD5: "d41d8cd98f00b204e9800998ecf8427e"})
	if err == nil {
		t.Error("Apply() expected checksum error")
	}
	if outcome != Failed {
		t.Errorf("outcome = %v, want Failed", outcome)
	}
	if restarted {
		t.Error("restart requested after a failed update")
	}
	if _, statErr := os.Stat(target); statErr == nil {
		t.Error("image installed despite checksum mismatch")
	}
}

func TestHTTPTransportChecksumCaseInsensitive(t *testing.T) {
	image := []byte("image")
	sum := md5.Sum(image)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(image)
	}))
	defer srv.Close()

	tr := &HTTPTransport{
		Flasher:    FileFlasher{TargetPath: filepath.Join(t.TempDir(), "next.bin")},
		StagingDir: t.TempDir(),
	}

	outcome, err := tr.Apply(context.Background(), Request{URL: srv.URL, MD5: strings.ToUpper(hex.EncodeToString(sum[:]))})
	if err != nil {
		t.Fatalf("Apply() error = %v", err)
	}
	if outcome != Applied {
		t.Errorf("outcome = %v, want Applied", outcome)
	}
}

func TestHTTPTransportBadURL(t *testing.T) {
	tr := &HTTPTransport{Flasher: FileFlasher{TargetPath: filepath.Join(t.TempDir(), "next.bin")}}
	outcome, err := tr.Apply(context.Background(), Request{URL: "http://127.0.0.1:0/nope"})
	if err == nil {
		t.Error("Apply() expected error for unreachable service")
	}
	if outcome != Failed {
		t.Errorf("outcome = %v, want Failed", outcome)
	}
}

func TestOutcomeString(t *testing.T) {
	if Applied.String() != "applied" || NoUpdate.String() != "no-update" || Failed.String() != "failed" {
		t.Error("Outcome.String() mismatch")
	}
}
