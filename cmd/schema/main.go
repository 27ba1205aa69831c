package main

import (
	"bytes"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"onepersonleft.ai/internal/share"
)

func main() {
	var (
		outPath string
		check   bool
	)
	flag.StringVar(&outPath, "out", "", "path to write the share-token JSON schema")
	flag.BoolVar(&check, "check", false, "fail if -out differs from the schema this build reflects")
	flag.Parse()

	if outPath == "" {
		fmt.Fprintln(os.Stderr, "--out is required")
		os.Exit(1)
	}

	data, err := share.SchemaJSON()
	if err != nil {
		fmt.Fprintf(os.Stderr, "build schema: %v\n", err)
		os.Exit(1)
	}

	if check {
		if err := checkSchema(outPath, data); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		return
	}
	if err := writeSchema(outPath, data); err != nil {
		fmt.Fprintf(os.Stderr, "failed to write schema: %v\n", err)
		os.Exit(1)
	}
}

func checkSchema(path string, want []byte) error {
	got, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read schema: %w", err)
	}
	if !bytes.Equal(got, want) {
		return fmt.Errorf("%s is stale; regenerate with -out %s", path, path)
	}
	return nil
}

func writeSchema(outPath string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return fmt.Errorf("create schema directory: %w", err)
	}

	tmpPath := outPath + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o644); err != nil {
		return fmt.Errorf("write temp schema: %w", err)
	}

	if err := os.Rename(tmpPath, outPath); err != nil {
		return fmt.Errorf("replace schema: %w", err)
	}

	return nil
}
