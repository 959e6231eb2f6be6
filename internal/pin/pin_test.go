package pin

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"pycors/internal/resolve"
	"pycors/internal/toolchain"
	"pycors/internal/version"
)

func writePin(t *testing.T, dir, content string) {
	t.Helper()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, FileName), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestReadSkipsCommentsAndBlanks(t *testing.T) {
	dir := t.TempDir()
	writePin(t, dir, "\n# project interpreter\n\n  ~3.7  \n3.6.8\n")

	file, err := Read(filepath.Join(dir, FileName))
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if file.Specifier.String() != "~3.7" {
		t.Fatalf("specifier = %q", file.Specifier)
	}
}

func TestReadErrors(t *testing.T) {
	dir := t.TempDir()

	writePin(t, dir, "# nothing here\n\n")
	if _, err := Read(filepath.Join(dir, FileName)); !errors.Is(err, ErrEmpty) {
		t.Fatalf("expected ErrEmpty, got %v", err)
	}

	writePin(t, dir, "banana\n")
	_, err := Read(filepath.Join(dir, FileName))
	var malformed *version.MalformedSpecifierError
	if !errors.As(err, &malformed) {
		t.Fatalf("expected malformed specifier, got %v", err)
	}
}

func TestFindWalksUpward(t *testing.T) {
	root := t.TempDir()
	project := filepath.Join(root, "project")
	nested := filepath.Join(project, "src", "pkg")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatal(err)
	}
	writePin(t, project, "3.6.8\n")

	path, ok := Find(nested)
	if !ok || path != filepath.Join(project, FileName) {
		t.Fatalf("find from nested = %q %v", path, ok)
	}

	writePin(t, nested, "3.7.2\n")
	path, ok = Find(nested)
	if !ok || path != filepath.Join(nested, FileName) {
		t.Fatalf("current directory should take precedence, got %q", path)
	}
}

func TestLoadFallback(t *testing.T) {
	dir := t.TempDir()
	// A temp dir may sit below a directory with a stray pin; only assert the
	// fallback when nothing is found above.
	if _, ok := Find(dir); ok {
		t.Skip("pin file above temp dir")
	}
	file, err := Load(dir, version.Latest{})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if file.Path != "" || file.Specifier.String() != "latest" {
		t.Fatalf("unexpected fallback %+v", file)
	}
}

func TestWriteRoundTrip(t *testing.T) {
	candidates := []toolchain.Toolchain{}
	for _, v := range []string{"3.5.6", "3.6.8", "3.7.1", "3.7.2"} {
		candidates = append(candidates, toolchain.Toolchain{
			Version: version.MustParse(v),
			Origin:  toolchain.OriginManaged,
		})
	}

	for _, in := range []string{"3.7.1", "= 3.6.9", "~3.7", "3.6", ">=3.5, <3.7", "latest"} {
		dir := t.TempDir()
		spec := version.MustParseSpecifier(in)
		path, err := Write(dir, spec)
		if err != nil {
			t.Fatalf("write %q: %v", in, err)
		}
		if path != filepath.Join(dir, FileName) {
			t.Fatalf("write path = %q", path)
		}

		file, err := Load(dir, version.Latest{})
		if err != nil {
			t.Fatalf("load %q: %v", in, err)
		}
		direct := resolve.Resolve(spec, candidates)
		viaFile := resolve.Resolve(file.Specifier, candidates)
		if direct.Matched != viaFile.Matched || direct.Requested != viaFile.Requested {
			t.Fatalf("%q: direct %+v, via file %+v", in, direct, viaFile)
		}
		if direct.Matched && !direct.Toolchain.Version.Equal(viaFile.Toolchain.Version) {
			t.Fatalf("%q: direct %s, via file %s", in, direct.Toolchain.Version, viaFile.Toolchain.Version)
		}
	}
}
