package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/diagnosis/pilgrim-quotes/internal/http/response"
	"github.com/diagnosis/pilgrim-quotes/services/marketplace/internal/domain"
)

func (h *Handlers) ListPackages(w http.ResponseWriter, r *http.Request) {
	pkgs, err := h.marketplace.ListPackages(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	response.WriteJSON(w, http.StatusOK, pkgs)
}

func (h *Handlers) GetPackageBySlug(w http.ResponseWriter, r *http.Request) {
	pkg, err := h.marketplace.GetPackageBySlug(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if pkg == nil {
		response.NotFound(w, domain.ErrNotFound.Error())
		return
	}
	response.WriteJSON(w, http.StatusOK, pkg)
}

func (h *Handlers) ComparePackages(w http.ResponseWriter, r *http.Request) {
	var in compareRequest
	if !decodeJSON(w, r, &in) {
		return
	}
	rows, err := h.marketplace.ComparePackages(r.Context(), in.IDs)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	response.WriteJSON(w, http.StatusOK, rows)
}

func (h *Handlers) ListOperators(w http.ResponseWriter, r *http.Request) {
	ops, err := h.marketplace.ListOperators(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	response.WriteJSON(w, http.StatusOK, ops)
}

func (h *Handlers) GetOperator(w http.ResponseWriter, r *http.Request) {
	op, err := h.marketplace.GetOperator(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if op == nil {
		response.NotFound(w, domain.ErrNotFound.Error())
		return
	}
	response.WriteJSON(w, http.StatusOK, op)
}

func (h *Handlers) ListOperatorPackages(w http.ResponseWriter, r *http.Request) {
	rc, ok := requestContext(w, r)
	if !ok {
		return
	}
	pkgs, err := h.marketplace.GetOperatorPackages(r.Context(), rc)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	response.WriteJSON(w, http.StatusOK, pkgs)
}

func (h *Handlers) CreatePackage(w http.ResponseWriter, r *http.Request) {
	rc, ok := requestContext(w, r)
	if !ok {
		return
	}
	var in domain.PackageInput
	if !decodeJSON(w, r, &in) {
		return
	}
	pkg, err := h.marketplace.CreatePackage(r.Context(), rc, in)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	response.WriteJSON(w, http.StatusCreated, pkg)
}

func (h *Handlers) GetOperatorPackage(w http.ResponseWriter, r *http.Request) {
	rc, ok := requestContext(w, r)
	if !ok {
		return
	}
	pkg, err := h.marketplace.GetPackageByID(r.Context(), rc, chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if pkg == nil {
		response.NotFound(w, domain.ErrNotFound.Error())
		return
	}
	response.WriteJSON(w, http.StatusOK, pkg)
}

// UpdatePackage decodes strictly into PackagePatch, so fields outside the patchable set
// (id, operator_id, slug) are rejected as unknown.
func (h *Handlers) UpdatePackage(w http.ResponseWriter, r *http.Request) {
	rc, ok := requestContext(w, r)
	if !ok {
		return
	}
	var patch domain.PackagePatch
	if !decodeJSON(w, r, &patch) {
		return
	}
	pkg, err := h.marketplace.UpdatePackage(r.Context(), rc, chi.URLParam(r, "id"), patch)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	response.WriteJSON(w, http.StatusOK, pkg)
}

func (h *Handlers) DeletePackage(w http.ResponseWriter, r *http.Request) {
	rc, ok := requestContext(w, r)
	if !ok {
		return
	}
	if err := h.marketplace.DeletePackage(r.Context(), rc, chi.URLParam(r, "id")); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
