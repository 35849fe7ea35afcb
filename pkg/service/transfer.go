package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"crudkit/pkg/excel"
)

// ReadDataFromJSON decodes a JSON array of records.
func (s *Service[E]) ReadDataFromJSON(r io.Reader) ([]*E, error) {
	var list []*E
	if err := json.NewDecoder(r).Decode(&list); err != nil {
		return nil, fmt.Errorf("decode json: %w", err)
	}
	if list == nil {
		list = []*E{}
	}
	return list, nil
}

// ReadDataFromExcel decodes the first sheet of an xlsx workbook.
func (s *Service[E]) ReadDataFromExcel(r io.Reader) ([]*E, error) {
	return excel.Read(r, s.table)
}

func (s *Service[E]) ImportDataFromJSON(ctx context.Context, r io.Reader) ([]*E, error) {
	list, err := s.ReadDataFromJSON(r)
	if err != nil {
		return nil, err
	}
	return s.SaveAll(ctx, list)
}

func (s *Service[E]) ImportDataFromExcel(ctx context.Context, r io.Reader) ([]*E, error) {
	list, err := s.ReadDataFromExcel(r)
	if err != nil {
		return nil, err
	}
	return s.SaveAll(ctx, list)
}

// ImportData saves the records in r, choosing the decoder by the extension
// of filename: json, xls or xlsx. Other extensions fail with
// *UnsupportedFormatError; xml fails with ErrImportNotImplemented.
func (s *Service[E]) ImportData(ctx context.Context, filename string, r io.Reader) ([]*E, error) {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(filename), "."))

	var (
		list []*E
		err  error
	)
	switch ext {
	case "json":
		list, err = s.ImportDataFromJSON(ctx, r)
	case "xls", "xlsx":
		list, err = s.ImportDataFromExcel(ctx, r)
	case "xml":
		return nil, fmt.Errorf("%s: %w", ext, ErrImportNotImplemented)
	default:
		return nil, &UnsupportedFormatError{Ext: ext}
	}
	if err != nil {
		return nil, err
	}

	s.log.Info("data imported",
		zap.String("table", s.table.Name()),
		zap.String("file", filename),
		zap.Int("count", len(list)),
	)
	return list, nil
}

// ExportDataToExcel writes the records with the given ids, or all records
// when ids is empty, to a workbook in a fresh temporary directory. Closing
// the returned reader removes that directory. The stream is empty when
// there is nothing to export.
func (s *Service[E]) ExportDataToExcel(ctx context.Context, ids []string) (io.ReadCloser, error) {
	var (
		list []*E
		err  error
	)
	if len(ids) == 0 {
		list, err = s.FindAll(ctx, nil, nil)
	} else {
		list, err = s.FindAllByID(ctx, ids)
	}
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return io.NopCloser(bytes.NewReader(nil)), nil
	}

	dir, err := os.MkdirTemp(s.tempDir, s.table.Name()+"-export-")
	if err != nil {
		return nil, fmt.Errorf("create export dir: %w", err)
	}
	path := filepath.Join(dir, s.table.Name()+"-"+uuid.NewString()+".xlsx")
	if err := excel.WriteFile(path, s.table, list); err != nil {
		_ = os.RemoveAll(dir)
		return nil, fmt.Errorf("write export: %w", err)
	}
	f, err := os.Open(path)
	if err != nil {
		_ = os.RemoveAll(dir)
		return nil, err
	}

	s.log.Debug("data exported",
		zap.String("table", s.table.Name()),
		zap.String("path", path),
		zap.Int("count", len(list)),
	)
	return &tempFile{File: f, dir: dir}, nil
}

// ExportData streams the export workbook to w and returns the file name a
// download should use.
func (s *Service[E]) ExportData(ctx context.Context, ids []string, w io.Writer) (string, error) {
	rc, err := s.ExportDataToExcel(ctx, ids)
	if err != nil {
		return "", err
	}
	_, err = io.Copy(w, rc)
	err = errors.Join(err, rc.Close())
	if err != nil {
		return "", err
	}
	return s.ExportFileName(), nil
}

// ExportFileName is the download name of an export made now.
func (s *Service[E]) ExportFileName() string {
	return fmt.Sprintf("%s%d.xlsx", s.table.Name(), s.now().UnixMilli())
}

// tempFile is a file whose directory is removed when it is closed.
type tempFile struct {
	*os.File
	dir string
}

func (f *tempFile) Close() error {
	return errors.Join(f.File.Close(), os.RemoveAll(f.dir))
}
