package manifest

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/yllada/xvpnctl/common"
)

// writeManifest drops a manifest file into dir and returns its helper path.
func writeManifest(t *testing.T, dir, name, body string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name+".json"), []byte(body), 0600); err != nil {
		t.Fatal(err)
	}
}

// fakeHelper creates an empty executable file to satisfy path validation.
func fakeHelper(t *testing.T, dir string) string {
	t.Helper()
	path := filepath.Join(dir, "helper")
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"), 0700); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestResolver_Resolve(t *testing.T) {
	dir := t.TempDir()
	helper := fakeHelper(t, dir)

	writeManifest(t, dir, "com.example.helper", `{
		"name": "com.example.helper",
		"description": "Example helper",
		"path": "`+helper+`",
		"type": "stdio",
		"allowed_extensions": ["helper@example.com"]
	}`)

	r := &Resolver{ExtraDirs: []string{dir}}
	m, err := r.Resolve("com.example.helper")
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}

	if m.Path != helper {
		t.Errorf("Path = %v, want %v", m.Path, helper)
	}

	if m.FirstExtension() != "helper@example.com" {
		t.Errorf("FirstExtension() = %v, want helper@example.com", m.FirstExtension())
	}
}

func TestResolver_ResolveNotFound(t *testing.T) {
	r := &Resolver{ExtraDirs: []string{t.TempDir()}}

	_, err := r.Resolve("com.example.missing")
	if !errors.Is(err, common.ErrManifestNotFound) {
		t.Errorf("Resolve() error = %v, want ErrManifestNotFound", err)
	}
}

func TestLoad_RejectsNonStdio(t *testing.T) {
	dir := t.TempDir()
	helper := fakeHelper(t, dir)

	writeManifest(t, dir, "com.example.tcp", `{
		"name": "com.example.tcp",
		"path": "`+helper+`",
		"type": "tcp"
	}`)

	_, err := Load(filepath.Join(dir, "com.example.tcp.json"))
	if !errors.Is(err, common.ErrUnsupportedProtocol) {
		t.Errorf("Load() error = %v, want ErrUnsupportedProtocol", err)
	}
}

func TestLoad_RejectsMissingExecutable(t *testing.T) {
	dir := t.TempDir()

	writeManifest(t, dir, "com.example.gone", `{
		"name": "com.example.gone",
		"path": "`+filepath.Join(dir, "nope")+`",
		"type": "stdio"
	}`)

	_, err := Load(filepath.Join(dir, "com.example.gone.json"))
	if !errors.Is(err, common.ErrHelperNotFound) {
		t.Errorf("Load() error = %v, want ErrHelperNotFound", err)
	}
}

func TestLoad_RejectsMalformedJSON(t *testing.T) {
	dir := t.TempDir()
	writeManifest(t, dir, "com.example.bad", `{"name": `)

	if _, err := Load(filepath.Join(dir, "com.example.bad.json")); err == nil {
		t.Error("Load() should fail on malformed JSON")
	}
}

func TestManifest_FirstExtensionOrigins(t *testing.T) {
	m := &Manifest{
		AllowedOrigins: []string{"chrome-extension://abcdef/"},
	}

	if got := m.FirstExtension(); got != "chrome-extension://abcdef/" {
		t.Errorf("FirstExtension() = %v, want the first allowed origin", got)
	}

	empty := &Manifest{}
	if empty.FirstExtension() != "" {
		t.Error("FirstExtension() on empty manifest should be empty")
	}
}
