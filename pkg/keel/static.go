package keel

import (
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// staticHandler serves files from dirs, searched in order, for paths under
// prefix. It answers If-Modified-Since with 304 and a single byte Range with 206.
func staticHandler(prefix string, dirs []string) HandlerFunc {
	prefix = strings.TrimRight(prefix, "/")
	return func(rc RequestContext) error {
		rel := strings.TrimPrefix(rc.Path(), prefix)
		rel = strings.TrimPrefix(rel, "/")
		if rel == "" {
			return ErrNotFound("")
		}
		clean := filepath.Clean(filepath.FromSlash(rel))
		if clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) || filepath.IsAbs(clean) {
			return ErrNotFound("")
		}

		for _, dir := range dirs {
			path := filepath.Join(dir, clean)
			info, err := os.Stat(path)
			if err != nil || info.IsDir() {
				continue
			}
			return serveFile(rc, path, info)
		}
		return ErrNotFound("")
	}
}

func serveFile(rc RequestContext, path string, info os.FileInfo) error {
	f, err := os.Open(path)
	if err != nil {
		return NewHttpError(http.StatusInternalServerError, "").WithInternal(err)
	}
	defer f.Close()

	contentType := mime.TypeByExtension(filepath.Ext(path))
	if contentType == "" {
		var sniff [512]byte
		n, _ := io.ReadFull(f, sniff[:])
		contentType = http.DetectContentType(sniff[:n])
	}

	res := rc.Response()
	modified := info.ModTime().UTC().Truncate(time.Second)
	res.SetHeader("Last-Modified", modified.Format(http.TimeFormat))
	res.SetHeader("Accept-Ranges", "bytes")

	if since, err := http.ParseTime(rc.Request().Header("If-Modified-Since")); err == nil && !modified.After(since) {
		return res.Blob(http.StatusNotModified, contentType, nil)
	}

	size := info.Size()
	start, end, status := parseByteRange(rc.Request().Header("Range"), size)
	switch status {
	case rangeUnsatisfiable:
		res.SetHeader("Content-Range", fmt.Sprintf("bytes */%d", size))
		return NewHttpError(http.StatusRequestedRangeNotSatisfiable, "")
	case rangePartial:
		part := make([]byte, end-start+1)
		if _, err := f.ReadAt(part, start); err != nil && err != io.EOF {
			return NewHttpError(http.StatusInternalServerError, "").WithInternal(err)
		}
		res.SetHeader("Content-Range", fmt.Sprintf("bytes %d-%d/%d", start, end, size))
		return res.Blob(http.StatusPartialContent, contentType, part)
	}

	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return NewHttpError(http.StatusInternalServerError, "").WithInternal(err)
	}
	content, err := io.ReadAll(f)
	if err != nil {
		return NewHttpError(http.StatusInternalServerError, "").WithInternal(err)
	}
	return res.Blob(http.StatusOK, contentType, content)
}

type rangeStatus int

const (
	rangeFull rangeStatus = iota
	rangePartial
	rangeUnsatisfiable
)

// parseByteRange reads a single "bytes=" range. Multiple ranges and malformed
// headers are ignored and the whole file is served.
func parseByteRange(header string, size int64) (start, end int64, status rangeStatus) {
	spec, ok := strings.CutPrefix(strings.TrimSpace(header), "bytes=")
	if !ok || strings.Contains(spec, ",") {
		return 0, 0, rangeFull
	}
	first, last, ok := strings.Cut(strings.TrimSpace(spec), "-")
	if !ok {
		return 0, 0, rangeFull
	}

	if first == "" {
		// suffix range: the last n bytes
		n, err := strconv.ParseInt(last, 10, 64)
		if err != nil || n < 0 {
			return 0, 0, rangeFull
		}
		if n == 0 || size == 0 {
			return 0, 0, rangeUnsatisfiable
		}
		if n > size {
			n = size
		}
		return size - n, size - 1, rangePartial
	}

	start, err := strconv.ParseInt(first, 10, 64)
	if err != nil || start < 0 {
		return 0, 0, rangeFull
	}
	if start >= size {
		return 0, 0, rangeUnsatisfiable
	}
	end = size - 1
	if last != "" {
		e, err := strconv.ParseInt(last, 10, 64)
		if err != nil || e < start {
			return 0, 0, rangeFull
		}
		if e < end {
			end = e
		}
	}
	return start, end, rangePartial
}
