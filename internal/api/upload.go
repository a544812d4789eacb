package api

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/vidnav/vidnav/internal/jobs"
	"github.com/vidnav/vidnav/internal/scenes"
)

// multipartMemory is how much of a multipart body is held in memory before
// spilling to disk.
const multipartMemory = 32 << 20

// upload is a video stored from a multipart request.
type upload struct {
	Path     string
	Filename string
}

// receiveVideo parses the multipart body and stores the "video" part as a
// temp file in dir. The caller owns the returned file. The parsed form
// stays available through r.FormValue; its spill files are removed by
// cleanupForm.
func receiveVideo(w http.ResponseWriter, r *http.Request, dir string, maxBytes int64) (*upload, error) {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxUploadBytes
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		if isTooLarge(err) {
			return nil, &requestError{status: http.StatusRequestEntityTooLarge, code: "FILE_TOO_LARGE",
				msg: fmt.Sprintf("file exceeds the %d MB upload limit", maxBytes>>20)}
		}
		return nil, badRequest("invalid multipart form")
	}

	file, header, err := r.FormFile("video")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return nil, badRequest("No video file provided")
		}
		return nil, badRequest("invalid video upload")
	}
	defer file.Close()

	if strings.TrimSpace(header.Filename) == "" {
		return nil, badRequest("No video file selected")
	}
	if !jobs.IsVideoFile(header.Filename) {
		return nil, &requestError{status: http.StatusBadRequest, code: "INVALID_FILE_TYPE", msg: "Invalid file type"}
	}

	path, err := storeUpload(file, dir, strings.ToLower(filepath.Ext(header.Filename)))
	if err != nil {
		return nil, err
	}
	return &upload{Path: path, Filename: filepath.Base(header.Filename)}, nil
}

func storeUpload(src multipart.File, dir, ext string) (string, error) {
	if dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return "", fmt.Errorf("create upload dir: %w", err)
		}
	}
	dst, err := os.CreateTemp(dir, "upload-*"+ext)
	if err != nil {
		return "", fmt.Errorf("create upload file: %w", err)
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		os.Remove(dst.Name())
		return "", fmt.Errorf("store upload: %w", err)
	}
	if err := dst.Close(); err != nil {
		os.Remove(dst.Name())
		return "", fmt.Errorf("store upload: %w", err)
	}
	return dst.Name(), nil
}

func cleanupForm(r *http.Request) {
	if r.MultipartForm != nil {
		r.MultipartForm.RemoveAll()
	}
}

func isTooLarge(err error) bool {
	var maxErr *http.MaxBytesError
	return errors.As(err, &maxErr) || strings.Contains(err.Error(), "request body too large")
}

// sceneOptions reads scene_method, threshold and min_scene_length form
// values over defaults.
func sceneOptions(r *http.Request, defaults scenes.Options) (scenes.Options, error) {
	opts := defaults
	if v := r.FormValue("scene_method"); v != "" {
		s, err := scenes.ParseStrategy(v)
		if err != nil {
			return opts, err
		}
		opts.Strategy = s
		if s != defaults.Strategy {
			opts.Threshold = 0
		}
	}
	if v := r.FormValue("threshold"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return opts, fmt.Errorf("invalid threshold %q", v)
		}
		opts.Threshold = f
	}
	if v := r.FormValue("min_scene_length"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return opts, fmt.Errorf("invalid min_scene_length %q", v)
		}
		opts.MinSceneLength = f
	}
	return opts.Normalize()
}
