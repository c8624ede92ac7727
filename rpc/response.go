package rpc

import (
	"bytes"
	"encoding/json"
	"fmt"
	"html/template"
	"net/http"
)

type (
	ErrorResponse struct {
		Message string `json:"message"`
	}

	ResponseWriter struct {
		LogErr func(err error)
	}
)

func (rw *ResponseWriter) logError(err error) {
	if rw.LogErr != nil {
		rw.LogErr(err)
	}
}

func (rw *ResponseWriter) WriteResponse(w http.ResponseWriter, data any) {
	w.Header().Set(headerContentType, applicationJson)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		rw.logError(fmt.Errorf("failed to encode response data as json: %w", err))
	}
}

func (rw *ResponseWriter) ErrorResponse(w http.ResponseWriter, code int, err error) {
	w.Header().Set(headerContentType, applicationJson)
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(ErrorResponse{Message: err.Error()}); err != nil {
		rw.logError(fmt.Errorf("failed to encode error response as json: %w", err))
	}
}

/*
WriteHTML executes the named template into a buffer first so that template
errors can still be reported with status 500.
*/
func (rw *ResponseWriter) WriteHTML(w http.ResponseWriter, code int, tmpl *template.Template, name string, data any) {
	buf := &bytes.Buffer{}
	if err := tmpl.ExecuteTemplate(buf, name, data); err != nil {
		rw.logError(fmt.Errorf("failed to render template %s: %w", name, err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	w.Header().Set(headerContentType, textHtml)
	w.WriteHeader(code)
	if _, err := buf.WriteTo(w); err != nil {
		rw.logError(fmt.Errorf("failed to write html response: %w", err))
	}
}
