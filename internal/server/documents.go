package server

import (
	"net/http"

	apihttp "github.com/wolfeidau/sheetclock/internal/http"
)

type addDocumentRequest struct {
	SheetURL string `json:"sheetUrl"`
}

func (s *Server) listDocuments(w http.ResponseWriter, r *http.Request) {
	docs, err := s.svc.Documents.List(r.Context())
	if err != nil {
		apihttp.WriteError(w, r, err, "Error loading documents")
		return
	}
	apihttp.WriteData(w, docs)
}

func (s *Server) addDocument(w http.ResponseWriter, r *http.Request) {
	var req addDocumentRequest
	if err := apihttp.DecodeJSON(w, r, &req); err != nil {
		apihttp.WriteError(w, r, err, "Error adding document")
		return
	}

	doc, err := s.svc.Documents.Add(r.Context(), caller(r), req.SheetURL)
	if err != nil {
		apihttp.WriteError(w, r, err, "Error adding document")
		return
	}
	apihttp.WriteData(w, doc)
}

func (s *Server) deleteDocument(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.Documents.Delete(r.Context(), r.PathValue("id")); err != nil {
		apihttp.WriteError(w, r, err, "Error removing document")
		return
	}
	apihttp.WriteMessage(w, "Document removed from tracking")
}

func (s *Server) documentStatus(w http.ResponseWriter, r *http.Request) {
	status, err := s.svc.Documents.CheckStatus(r.Context(), caller(r), r.PathValue("id"))
	if err != nil {
		apihttp.WriteError(w, r, err, "Error checking document status")
		return
	}
	apihttp.WriteData(w, status)
}
