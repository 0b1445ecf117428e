package api

import (
	"crypto/sha256"
	_ "embed"
	"encoding/hex"
	"net/http"
	"sync"

	"sigs.k8s.io/yaml"
)

//go:embed openapi.yaml
var openAPISource []byte

type openAPIDoc struct {
	json []byte
	etag string
}

var loadOpenAPI = sync.OnceValues(func() (openAPIDoc, error) {
	body, err := yaml.YAMLToJSON(openAPISource)
	if err != nil {
		return openAPIDoc{}, err
	}
	sum := sha256.Sum256(body)
	return openAPIDoc{json: body, etag: `"` + hex.EncodeToString(sum[:8]) + `"`}, nil
})

// OpenAPIHandler serves openapi.yaml as JSON with a content ETag.
func OpenAPIHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			w.Header().Set("Allow", "GET, HEAD")
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}

		doc, err := loadOpenAPI()
		if err != nil {
			http.Error(w, "openapi unavailable", http.StatusInternalServerError)
			return
		}

		w.Header().Set("ETag", doc.etag)
		w.Header().Set("Cache-Control", "public, max-age=300")
		if r.Header.Get("If-None-Match") == doc.etag {
			w.WriteHeader(http.StatusNotModified)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		if r.Method == http.MethodHead {
			return
		}
		_, _ = w.Write(doc.json)
	}
}
