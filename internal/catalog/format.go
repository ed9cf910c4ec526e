package catalog

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rcliao/symptom-catalog/internal/model"
)

// AliasSeparator joins aliases inside the aliases column.
const AliasSeparator = "|"

// Header is the first row of every catalog file.
var Header = []string{"code", "name", "aliases", "category"}

// Parse reads a catalog file body. Rows keep file order. Errors carry the
// offending line but no path; Load fills that in.
func Parse(r io.Reader) ([]model.Symptom, error) {
	cr := csv.NewReader(bufio.NewReader(r))
	cr.FieldsPerRecord = len(Header)

	head, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, &LoadError{Err: errors.New("empty file, missing header")}
	}
	if err != nil {
		return nil, rowError(err)
	}
	head[0] = strings.TrimPrefix(head[0], "\ufeff")
	for i, want := range Header {
		if !strings.EqualFold(strings.TrimSpace(head[i]), want) {
			return nil, &LoadError{Line: 1, Err: fmt.Errorf("header column %d is %q, want %q", i+1, head[i], want)}
		}
	}

	var out []model.Symptom
	seen := make(map[string]int)
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, rowError(err)
		}
		line, _ := cr.FieldPos(0)

		s := model.Symptom{
			Code:     strings.TrimSpace(rec[0]),
			Name:     strings.TrimSpace(rec[1]),
			Aliases:  splitAliases(rec[2]),
			Category: strings.TrimSpace(rec[3]),
		}
		if !model.ValidCode(s.Code) {
			return nil, &LoadError{Line: line, Err: fmt.Errorf("invalid code %q", s.Code)}
		}
		if s.Name == "" {
			return nil, &LoadError{Line: line, Err: fmt.Errorf("code %s has an empty name", s.Code)}
		}
		if prev, dup := seen[s.Code]; dup {
			return nil, &LoadError{Line: line, Err: fmt.Errorf("duplicate code %s (first on line %d)", s.Code, prev)}
		}
		seen[s.Code] = line
		out = append(out, s)
	}
	return out, nil
}

func rowError(err error) error {
	var pe *csv.ParseError
	if errors.As(err, &pe) {
		return &LoadError{Line: pe.Line, Err: pe.Err}
	}
	return &LoadError{Err: err}
}

func splitAliases(field string) []string {
	var out []string
	for _, a := range strings.Split(field, AliasSeparator) {
		if a = strings.TrimSpace(a); a != "" {
			out = append(out, a)
		}
	}
	return out
}

// WriteCSV writes the header and one row per symptom with CRLF line endings,
// the same bytes Python's csv module produces for this format.
func WriteCSV(w io.Writer, symptoms []model.Symptom) error {
	cw := csv.NewWriter(w)
	cw.UseCRLF = true
	if err := cw.Write(Header); err != nil {
		return err
	}
	for _, s := range symptoms {
		rec := []string{s.Code, s.Name, strings.Join(s.Aliases, AliasSeparator), s.Category}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// Save replaces the file at path with symptoms. The new content is written
// to a temporary file in the same directory and renamed over the old one, so
// readers of the file never see a partial catalog.
func Save(path string, symptoms []model.Symptom) error {
	mode := os.FileMode(0o644)
	if fi, err := os.Stat(path); err == nil {
		mode = fi.Mode().Perm()
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) // no-op after a successful rename

	if err := WriteCSV(tmp, symptoms); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, mode); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}
