package api

import (
	"encoding/xml"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"github.com/goccy/go-json"
	log "github.com/sirupsen/logrus"
)

const (
	mimeJSON = "application/json"
	mimeXML  = "application/xml"
)

// wantsXML reports whether the Accept header ranks XML above JSON. JSON wins ties and */*.
func wantsXML(r *http.Request) bool {
	accept := r.Header.Get("Accept")
	if accept == "" {
		return false
	}
	var qJSON, qXML float64 = -1, -1
	for _, part := range strings.Split(accept, ",") {
		mediaType, params, err := mime.ParseMediaType(strings.TrimSpace(part))
		if err != nil {
			continue
		}
		q := 1.0
		if v, ok := params["q"]; ok {
			if f, err := strconv.ParseFloat(v, 64); err == nil {
				q = f
			}
		}
		switch mediaType {
		case mimeXML, "text/xml":
			qXML = max(qXML, q)
		case mimeJSON, "*/*", "application/*":
			qJSON = max(qJSON, q)
		}
	}
	return qXML > 0 && qXML > qJSON
}

// writeBody writes v as XML when the caller asked for it, JSON otherwise.
func writeBody(w http.ResponseWriter, r *http.Request, code int, v any) {
	var err error
	if wantsXML(r) {
		w.Header().Set("Content-Type", mimeXML)
		w.WriteHeader(code)
		err = xml.NewEncoder(w).Encode(v)
	} else {
		err = writeJSON(w, code, v)
	}
	if err != nil {
		log.WithError(err).WithField("path", r.URL.Path).Warn("failed to write response")
	}
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, code int, v any) error {
	w.Header().Set("Content-Type", mimeJSON)
	w.WriteHeader(code)
	return json.NewEncoder(w).Encode(v)
}
