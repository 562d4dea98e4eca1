package http

import (
	"encoding/base64"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/gin-gonic/gin"

	"riy-server/internal/logger"
	"riy-server/internal/scan"
	"riy-server/internal/waste"
)

var allowedImageTypes = []string{"image/jpeg", "image/png", "image/webp", "image/gif", "image/bmp"}

var (
	errImageTooLarge    = errors.New("image too large")
	errUnsupportedImage = errors.New("unsupported image type")
	errInvalidImageData = errors.New("image_data is not valid base64")
)

// scanResponse is a result with an optional error code, used when the scan
// succeeded but its points could not be recorded.
type scanResponse struct {
	*waste.ScanResult
	Error string `json:"error,omitempty"`
}

func (s *Server) maxUploadBytes() int64 {
	return s.cfg.MaxUploadMB * 1024 * 1024
}

// readImage takes the image from a multipart "image" field or a JSON
// "image_data" field holding base64 or a data URL.
func (s *Server) readImage(c *gin.Context) ([]byte, error) {
	maxBytes := s.maxUploadBytes()
	// base64 and multipart framing make the body larger than the image.
	bodyLimit := maxBytes*4/3 + 1024*1024
	if c.Request.ContentLength > bodyLimit {
		return nil, errImageTooLarge
	}
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, bodyLimit)

	var image []byte
	if strings.HasPrefix(c.ContentType(), "multipart/form-data") {
		file, header, err := c.Request.FormFile("image")
		if err != nil {
			if tooLarge(err) {
				return nil, errImageTooLarge
			}
			return nil, waste.ErrMissingImage
		}
		defer file.Close()
		if header.Size > maxBytes {
			return nil, errImageTooLarge
		}
		if image, err = io.ReadAll(file); err != nil {
			return nil, err
		}
	} else {
		var payload struct {
			ImageData string `json:"image_data"`
		}
		if err := c.ShouldBindJSON(&payload); err != nil {
			if tooLarge(err) {
				return nil, errImageTooLarge
			}
			return nil, waste.ErrMissingImage
		}
		data, err := decodeImageData(payload.ImageData)
		if err != nil {
			return nil, err
		}
		image = data
	}

	if len(image) == 0 {
		return nil, waste.ErrMissingImage
	}
	if int64(len(image)) > maxBytes {
		return nil, errImageTooLarge
	}
	mt := mimetype.Detect(image)
	for _, t := range allowedImageTypes {
		if mt.Is(t) {
			return image, nil
		}
	}
	return nil, errUnsupportedImage
}

func tooLarge(err error) bool {
	var maxErr *http.MaxBytesError
	return errors.As(err, &maxErr)
}

func decodeImageData(s string) ([]byte, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, waste.ErrMissingImage
	}
	if strings.HasPrefix(s, "data:") {
		i := strings.Index(s, ",")
		if i < 0 {
			return nil, errInvalidImageData
		}
		s = s[i+1:]
	}
	data, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		if data, err = base64.RawStdEncoding.DecodeString(s); err != nil {
			return nil, errInvalidImageData
		}
	}
	return data, nil
}

func imageError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, waste.ErrMissingImage):
		c.JSON(400, gin.H{"error": "image_missing"})
	case errors.Is(err, errInvalidImageData):
		c.JSON(400, gin.H{"error": "invalid_image_data"})
	case errors.Is(err, errImageTooLarge):
		c.JSON(413, gin.H{"error": "file too large"})
	case errors.Is(err, errUnsupportedImage):
		c.JSON(415, gin.H{"error": "unsupported_image_type"})
	default:
		c.JSON(400, gin.H{"error": "failed to read file"})
	}
}

func (s *Server) analyzeWaste(c *gin.Context) {
	image, err := s.readImage(c)
	if err != nil {
		imageError(c, err)
		return
	}

	req := scan.Request{Image: image}
	if id, ok := userID(c); ok {
		req.UserID = &id
	}
	out := s.scans.Scan(c.Request.Context(), req)
	logger.Debug("scan trace %v", out.Trace)
	if out.Result != nil {
		s.saveImage(c, image, out.Result)
	}

	switch {
	case out.State == scan.Completed:
		c.JSON(200, scanResponse{ScanResult: out.Result})
	case errors.Is(out.Err, waste.ErrPersistence) && out.Result != nil:
		c.JSON(200, scanResponse{ScanResult: out.Result, Error: "points_not_recorded"})
	case errors.Is(out.Err, waste.ErrMissingImage):
		c.JSON(400, gin.H{"error": "image_missing"})
	case errors.Is(out.Err, waste.ErrClassificationFailed):
		c.JSON(502, gin.H{"error": "classification_failed", "details": out.Err.Error(), "retryable": true})
	case errors.Is(out.Err, waste.ErrUserNotFound):
		c.JSON(404, gin.H{"error": "user_not_found"})
	default:
		logger.Error("scan failed: %v", out.Err)
		c.JSON(500, gin.H{"error": "internal_error"})
	}
}

// saveImage keeps a copy of the scanned image when a store is configured.
// Failures only cost the image URL.
func (s *Server) saveImage(c *gin.Context, image []byte, res *waste.ScanResult) {
	if s.images == nil {
		return
	}
	url, err := s.images.Save(c.Request.Context(), image)
	if err != nil {
		logger.Warning("failed to store scan image: %v", err)
		return
	}
	res.ImageURL = url
}
