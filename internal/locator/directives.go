package locator

import (
	"bytes"
	"fmt"
	"go/format"
	"os"
	"path/filepath"
	"strings"
	"text/template"
)

// LibraryPath is the absolute path of the library the plan links against.
func (p LinkPlan) LibraryPath() string { return filepath.Join(p.Root, p.LibraryFile) }

// Directives returns the search-path and link-name flags, in that order.
func (p LinkPlan) Directives() []string {
	return []string{"-L" + p.Root, "-l" + p.LinkName}
}

// LDFlags renders the directives for a linker command line. With rpath the
// dynamic loader also finds the library at run time without LD_LIBRARY_PATH.
func (p LinkPlan) LDFlags(rpath bool) string {
	flags := p.ldflags(rpath)
	for i, f := range flags {
		if strings.ContainsAny(f, " \t\n'\"\\$`") {
			flags[i] = shellQuote(f)
		}
	}
	return strings.Join(flags, " ")
}

// CGOEnv renders a shell assignment for CGO_LDFLAGS.
func (p LinkPlan) CGOEnv(rpath bool) string {
	return "CGO_LDFLAGS=" + shellQuote(strings.Join(p.ldflags(rpath), " "))
}

func (p LinkPlan) ldflags(rpath bool) []string {
	flags := []string{"-L" + p.Root}
	if rpath {
		flags = append(flags, "-Wl,-rpath,"+p.Root)
	}
	return append(flags, "-l"+p.LinkName)
}

func shellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

// GenOptions controls the generated cgo directive file.
type GenOptions struct {
	Package string
	// Tag gates the file; empty means the file is always built.
	Tag   string
	RPath bool
}

var goSourceTmpl = template.Must(template.New("cgo").Parse(`// Code generated by clrhost gen; DO NOT EDIT.

{{if .Tag}}//go:build {{.Tag}}

{{end}}package {{.Package}}

// CoreCLR located via {{.Source}}: {{.Library}}

/*
#cgo LDFLAGS: {{.Flags}}
*/
import "C"
`))

// GoSource renders a Go file whose only content is the cgo LDFLAGS
// directive for the plan.
func (p LinkPlan) GoSource(opts GenOptions) ([]byte, error) {
	if opts.Package == "" {
		return nil, fmt.Errorf("gen: empty package name")
	}
	for _, f := range p.ldflags(opts.RPath) {
		// cgo splits LDFLAGS on whitespace and rejects some characters outright.
		if strings.ContainsAny(f, " \t\n\"'") {
			return nil, fmt.Errorf("gen: root %q cannot be expressed in a #cgo directive", p.Root)
		}
	}
	var buf bytes.Buffer
	err := goSourceTmpl.Execute(&buf, struct {
		Package, Tag, Source, Library, Flags string
	}{
		Package: opts.Package,
		Tag:     opts.Tag,
		Source:  p.Source.String(),
		Library: p.LibraryPath(),
		Flags:   strings.Join(p.ldflags(opts.RPath), " "),
	})
	if err != nil {
		return nil, err
	}
	return format.Source(buf.Bytes())
}

// WriteGoSource writes GoSource to path via a temp file and rename.
func (p LinkPlan) WriteGoSource(path string, opts GenOptions) error {
	src, err := p.GoSource(opts)
	if err != nil {
		return err
	}
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".clrhost-gen-*")
	if err != nil {
		return fmt.Errorf("gen: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(src); err != nil {
		tmp.Close()
		return fmt.Errorf("gen: write: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("gen: close: %w", err)
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return fmt.Errorf("gen: chmod: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("gen: rename: %w", err)
	}
	return nil
}
