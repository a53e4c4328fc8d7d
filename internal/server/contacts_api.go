package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/act-community/steward/internal/routing"
	"github.com/act-community/steward/modules/contacts/domain/types"
	contactservices "github.com/act-community/steward/modules/contacts/services"
)

type contactPayload struct {
	ID        string           `json:"id"`
	Tags      []string         `json:"tags"`
	Fields    map[string]any   `json:"fields"`
	CreatedAt time.Time        `json:"created_at"`
	UpdatedAt time.Time        `json:"updated_at"`
	Review    types.ReviewFlag `json:"review"`
}

func contactToPayload(record contactservices.GuardedContact) contactPayload {
	tags := record.Contact.Tags
	if tags == nil {
		tags = []string{}
	}
	return contactPayload{
		ID:        record.Contact.ID,
		Tags:      tags,
		Fields:    record.Contact.Fields,
		CreatedAt: record.Contact.CreatedAt,
		UpdatedAt: record.Contact.UpdatedAt,
		Review:    record.Review,
	}
}

func handleContactGet(w http.ResponseWriter, r *http.Request, guarded *contactservices.GuardedStore) {
	record, err := guarded.Get(r.Context(), routing.PathParam(r, "id"))
	if err != nil {
		writeStoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, contactToPayload(record))
}

type fieldConditionPayload struct {
	Field string `json:"field"`
	Op    string `json:"op"`
	Value any    `json:"value"`
}

type contactSearchRequest struct {
	Fields  []fieldConditionPayload `json:"fields"`
	AnyTags []string                `json:"any_tags"`
	AllTags []string                `json:"all_tags"`
}

func (req contactSearchRequest) predicate() (types.Predicate, error) {
	p := types.Predicate{AnyTags: req.AnyTags, AllTags: req.AllTags}
	for _, cond := range req.Fields {
		field := strings.TrimSpace(cond.Field)
		if field == "" {
			return types.Predicate{}, fmt.Errorf("field name required")
		}
		op := types.CompareOp(strings.ToLower(strings.TrimSpace(cond.Op)))
		switch op {
		case types.CompareEq, types.CompareGte, types.CompareLte, types.CompareExists:
		default:
			return types.Predicate{}, fmt.Errorf("unknown op %q", cond.Op)
		}
		p.Fields = append(p.Fields, types.FieldCondition{Field: field, Op: op, Value: cond.Value})
	}
	return p, nil
}

func handleContactSearch(w http.ResponseWriter, r *http.Request, guarded *contactservices.GuardedStore) {
	var req contactSearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		routing.WriteError(w, r, http.StatusBadRequest, "INVALID_JSON", "invalid json")
		return
	}
	predicate, err := req.predicate()
	if err != nil {
		routing.WriteError(w, r, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}

	records, err := guarded.Search(r.Context(), predicate)
	if err != nil {
		writeStoreError(w, r, err)
		return
	}
	out := make([]contactPayload, 0, len(records))
	for _, record := range records {
		out = append(out, contactToPayload(record))
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"contacts": out,
		"count":    len(out),
	})
}

type contactPatchRequest struct {
	Fields map[string]any   `json:"fields"`
	Tags   tagUpdatePayload `json:"tags"`
}

type tagUpdatePayload struct {
	Add    []string `json:"add"`
	Remove []string `json:"remove"`
}

func handleContactPatch(w http.ResponseWriter, r *http.Request, guarded *contactservices.GuardedStore) {
	var req contactPatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		routing.WriteError(w, r, http.StatusBadRequest, "INVALID_JSON", "invalid json")
		return
	}
	if len(req.Fields) == 0 && len(req.Tags.Add) == 0 && len(req.Tags.Remove) == 0 {
		routing.WriteError(w, r, http.StatusBadRequest, "INVALID_REQUEST", "empty patch")
		return
	}

	record, err := guarded.Write(r.Context(), routing.PathParam(r, "id"), req.Fields, types.TagUpdate{
		Add:    req.Tags.Add,
		Remove: req.Tags.Remove,
	})
	if err != nil {
		writeStoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, contactToPayload(record))
}

func handleContactTagAdd(w http.ResponseWriter, r *http.Request, guarded *contactservices.GuardedStore) {
	var req struct {
		Tag string `json:"tag"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		routing.WriteError(w, r, http.StatusBadRequest, "INVALID_JSON", "invalid json")
		return
	}
	tag := strings.TrimSpace(req.Tag)
	if tag == "" {
		routing.WriteError(w, r, http.StatusBadRequest, "INVALID_REQUEST", "tag required")
		return
	}

	record, err := guarded.AddTag(r.Context(), routing.PathParam(r, "id"), tag)
	if err != nil {
		writeStoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, contactToPayload(record))
}

func handleContactTagRemove(w http.ResponseWriter, r *http.Request, guarded *contactservices.GuardedStore) {
	record, err := guarded.RemoveTag(r.Context(), routing.PathParam(r, "id"), routing.PathParam(r, "tag"))
	if err != nil {
		writeStoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, contactToPayload(record))
}
