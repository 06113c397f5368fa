package server

import (
	"net/http"

	"github.com/wolfeidau/sheetclock/internal/admin"
	apihttp "github.com/wolfeidau/sheetclock/internal/http"
)

type changeCredentialRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

type resetCredentialRequest struct {
	NewPassword string `json:"newPassword"`
}

func (s *Server) listEmployees(w http.ResponseWriter, r *http.Request) {
	emps, err := s.svc.Admin.List(r.Context())
	if err != nil {
		apihttp.WriteError(w, r, err, "Error loading employees")
		return
	}
	apihttp.WriteData(w, emps)
}

func (s *Server) addEmployee(w http.ResponseWriter, r *http.Request) {
	var in admin.AddInput
	if err := apihttp.DecodeJSON(w, r, &in); err != nil {
		apihttp.WriteError(w, r, err, "Error adding employee")
		return
	}

	emp, err := s.svc.Admin.Add(r.Context(), in)
	if err != nil {
		apihttp.WriteError(w, r, err, "Error adding employee")
		return
	}
	apihttp.WriteData(w, emp)
}

func (s *Server) profile(w http.ResponseWriter, r *http.Request) {
	emp, err := s.svc.Admin.Profile(r.Context(), caller(r))
	if err != nil {
		apihttp.WriteError(w, r, err, "Error loading profile")
		return
	}
	apihttp.WriteData(w, emp)
}

func (s *Server) changeCredential(w http.ResponseWriter, r *http.Request) {
	var req changeCredentialRequest
	if err := apihttp.DecodeJSON(w, r, &req); err != nil {
		apihttp.WriteError(w, r, err, "Error updating password")
		return
	}

	if err := s.svc.Admin.ChangeOwnCredential(r.Context(), caller(r), req.CurrentPassword, req.NewPassword); err != nil {
		apihttp.WriteError(w, r, err, "Error updating password")
		return
	}
	apihttp.WriteMessage(w, "Password updated successfully")
}

func (s *Server) resetCredential(w http.ResponseWriter, r *http.Request) {
	var req resetCredentialRequest
	if err := apihttp.DecodeJSON(w, r, &req); err != nil {
		apihttp.WriteError(w, r, err, "Error resetting password")
		return
	}

	if err := s.svc.Admin.ResetCredential(r.Context(), r.PathValue("id"), req.NewPassword); err != nil {
		apihttp.WriteError(w, r, err, "Error resetting password")
		return
	}
	apihttp.WriteMessage(w, "Password reset successfully")
}

func (s *Server) deleteEmployee(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.Admin.Delete(r.Context(), r.PathValue("id")); err != nil {
		apihttp.WriteError(w, r, err, "Error deleting employee")
		return
	}
	apihttp.WriteMessage(w, "Employee deleted successfully")
}
