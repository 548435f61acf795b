// Command zorshgen turns a serialized borsh-rs schema container into Go
// source that declares the matching zorsh schemas.
//
//	zorshgen -in player_schema.bin -pkg game -out player_schema.go
package main

import (
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/rawbytedev/zorsh/pkg/schemadesc"
)

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, "zorshgen:", err)
		os.Exit(1)
	}
}

func run(args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("zorshgen", flag.ContinueOnError)
	fs.SetOutput(stderr)
	in := fs.String("in", "", "path of the serialized BorshSchemaContainer")
	out := fs.String("out", "", "output Go file (default stdout)")
	pkg := fs.String("pkg", "schemas", "package name of the generated file")
	describe := fs.Bool("describe", false, "print the resolved schema instead of generating code")
	verbose := fs.Bool("v", false, "debug logging")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *in == "" {
		return fmt.Errorf("-in is required")
	}

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))

	raw, err := os.ReadFile(*in)
	if err != nil {
		return err
	}
	c, err := schemadesc.Decode(raw)
	if err != nil {
		return fmt.Errorf("%s: %w", *in, err)
	}
	logger.Debug("decoded schema container", "declaration", c.Declaration, "definitions", len(c.Definitions))

	if *describe {
		d, err := schemadesc.Resolve(c)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(stdout, d)
		return err
	}

	src, err := schemadesc.Generate(c, *pkg)
	if err != nil {
		return err
	}
	if *out == "" {
		_, err = stdout.Write(src)
		return err
	}
	if err := os.WriteFile(*out, src, 0o644); err != nil {
		return err
	}
	logger.Info("wrote schemas", "declaration", c.Declaration, "path", *out, "bytes", len(src))
	return nil
}
