package api

import (
	"fmt"
	"html"
	"net/http"
	"pnoti/internal/types"

	log "github.com/sirupsen/logrus"
)

const helpPage = `<html><pre>
PENDING NOTIFICATIONS SERVICE (%s)
-----------------------------

Manages pending notifications for devices.

Called by devices:
  GET    /notifications/{deviceId}                 -- service IDs with a pending notification (404 if none)
  GET    /notifications/{deviceId}/{serviceId}     -- 200 if pending for this service, 404 otherwise

Called by back-end services:
  POST   /notifications/{deviceId}[/{serviceId}]   -- create a pending notification
  DELETE /notifications/{deviceId}[/{serviceId}]   -- delete pending notifications
                                                      (removing the last service removes the device)

Provided for deployment and monitoring:
  GET    /notifications[?offset={x}&count={y}]     -- device IDs with pending notifications
  GET    /pending                                  -- this help text
  GET    /pending/version                          -- service version
  GET    /pending/status                           -- 204 if all OK
</pre></html>
`

func handleHelp(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = fmt.Fprintf(w, helpPage, html.EscapeString(types.Version))
}

func handleVersion(w http.ResponseWriter, r *http.Request) {
	log.WithField("version", types.Version).Info("getVersion")
	writeBody(w, r, http.StatusOK, types.VersionInfo{Version: types.Version})
}

func handleStatus(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusNoContent)
}
