package ai

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/xeipuuv/gojsonschema"

	"riy-server/internal/config"
	"riy-server/internal/waste"
)

//go:embed response.schema.json
var responseSchema string

const maxResponseBytes = 1 << 20

var schema = mustSchema(responseSchema)

func mustSchema(s string) *gojsonschema.Schema {
	sch, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(s))
	if err != nil {
		panic(err)
	}
	return sch
}

// RemoteClassifier posts images to an object detection service and maps the
// detected class onto a waste category.
type RemoteClassifier struct {
	url      string
	http     *http.Client
	resolver Resolver
}

func NewRemoteClassifier(cfg *config.Config, resolver Resolver) *RemoteClassifier {
	return &RemoteClassifier{
		url:      cfg.ClassifierURL,
		http:     &http.Client{Timeout: time.Duration(cfg.ClassifierTimeoutSec) * time.Second},
		resolver: resolver,
	}
}

type remoteResponse struct {
	DetectedClass string  `json:"detected_class"`
	Category      string  `json:"category"`
	Confidence    float64 `json:"confidence"`
}

func (c *RemoteClassifier) Classify(ctx context.Context, image []byte) (Classification, error) {
	if len(image) == 0 {
		return Classification{}, waste.ErrMissingImage
	}

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("image", "scan"+mimetype.Detect(image).Extension())
	if err != nil {
		return Classification{}, failed("building request: %v", err)
	}
	if _, err := fw.Write(image); err != nil {
		return Classification{}, failed("building request: %v", err)
	}
	_ = mw.Close()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, &buf)
	if err != nil {
		return Classification{}, failed("building request: %v", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := c.http.Do(req)
	if err != nil {
		return Classification{}, fmt.Errorf("%w: %w", waste.ErrClassificationFailed, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return Classification{}, fmt.Errorf("%w: %w", waste.ErrClassificationFailed, err)
	}
	if resp.StatusCode >= 300 {
		var out struct {
			Error string `json:"error"`
		}
		msg := strings.TrimSpace(string(body))
		if json.Unmarshal(body, &out) == nil && out.Error != "" {
			msg = out.Error
		}
		return Classification{}, failed("classifier returned %d: %s", resp.StatusCode, msg)
	}

	res, err := schema.Validate(gojsonschema.NewBytesLoader(body))
	if err != nil {
		return Classification{}, failed("unparseable response: %v", err)
	}
	if !res.Valid() {
		d := []string{}
		for _, e := range res.Errors() {
			d = append(d, e.String())
		}
		return Classification{}, failed("response does not match schema: %s", strings.Join(d, "; "))
	}

	var out remoteResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return Classification{}, failed("unparseable response: %v", err)
	}

	category, known := c.resolver.Resolve(out.DetectedClass)
	if !known && out.Category != "" {
		category, known = c.resolver.Resolve(out.Category)
	}
	conf := out.Confidence
	return Classification{
		Label:      out.DetectedClass,
		Category:   category,
		Confidence: &conf,
		Known:      known,
	}, nil
}
