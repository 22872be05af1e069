package pipeline

import (
	"archive/tar"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/klauspost/compress/zstd"
)

// BundleName is the debug bundle written into each request's work dir.
const BundleName = "debug.tar.zst"

// BundleFile is one entry of a debug bundle.
type BundleFile struct {
	Name string
	Data []byte
}

// WriteDebugBundle writes files as a zstd-compressed tar archive.
func WriteDebugBundle(path string, files []BundleFile) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create bundle: %w", err)
	}
	if err := writeBundle(f, files); err != nil {
		f.Close()
		os.Remove(path)
		return err
	}
	return f.Close()
}

func writeBundle(w io.Writer, files []BundleFile) error {
	zw, err := zstd.NewWriter(w, zstd.WithEncoderLevel(zstd.EncoderLevelFromZstd(12)))
	if err != nil {
		return fmt.Errorf("create zstd encoder: %w", err)
	}
	tw := tar.NewWriter(zw)
	now := time.Now()
	for _, file := range files {
		hdr := &tar.Header{
			Name:    file.Name,
			Mode:    0o644,
			Size:    int64(len(file.Data)),
			ModTime: now,
		}
		if err := tw.WriteHeader(hdr); err != nil {
			zw.Close()
			return fmt.Errorf("write %s header: %w", file.Name, err)
		}
		if _, err := tw.Write(file.Data); err != nil {
			zw.Close()
			return fmt.Errorf("write %s: %w", file.Name, err)
		}
	}
	if err := tw.Close(); err != nil {
		zw.Close()
		return fmt.Errorf("close tar: %w", err)
	}
	return zw.Close()
}

// ReadDebugBundle returns the entries of a bundle in archive order.
func ReadDebugBundle(path string) ([]BundleFile, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	zr, err := zstd.NewReader(f)
	if err != nil {
		return nil, fmt.Errorf("open zstd stream: %w", err)
	}
	defer zr.Close()

	var files []BundleFile
	tr := tar.NewReader(zr)
	for {
		hdr, err := tr.Next()
		if errors.Is(err, io.EOF) {
			return files, nil
		}
		if err != nil {
			return nil, fmt.Errorf("read bundle: %w", err)
		}
		data, err := io.ReadAll(tr)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", hdr.Name, err)
		}
		files = append(files, BundleFile{Name: hdr.Name, Data: data})
	}
}
