package handler

import (
	"net/http"

	"github.com/permpkin/admin-console/internal/schema"
)

// bind reads the request body, validates it against shape and decodes the
// result into out. The validated map is returned for presence checks.
func bind(w http.ResponseWriter, r *http.Request, v *schema.Validator, shape schema.Shape, out any) (map[string]any, error) {
	raw, err := decodeRequest(w, r)
	if err != nil {
		return nil, err
	}
	data, err := v.Validate(shape, raw)
	if err != nil {
		return nil, err
	}
	if err := schema.Decode(data, out); err != nil {
		return nil, err
	}
	return data, nil
}

// bindQuery validates the query string against shape and decodes it.
func bindQuery(r *http.Request, v *schema.Validator, shape schema.Shape, out any) error {
	data, err := v.Validate(shape, decodeQuery(r))
	if err != nil {
		return err
	}
	return schema.Decode(data, out)
}

// respondOne filters entity through shape and sends it under key.
func respondOne(w http.ResponseWriter, key string, shape schema.Shape, entity any) {
	out, err := schema.Filter(shape, entity)
	if err != nil {
		writeDomainError(w, err, key)
		return
	}
	writeSuccess(w, map[string]any{key: out})
}

// respondMany filters every item through shape and sends the list under key.
func respondMany[T any](w http.ResponseWriter, key string, shape schema.Shape, items []T) {
	views, err := schema.FilterEach(shape, items)
	if err != nil {
		writeDomainError(w, err, key)
		return
	}
	writeSuccess(w, map[string]any{key: views})
}

// tagNames splits the {tag} path segment on commas.
func tagNames(r *http.Request) []string {
	return schema.SplitList(r.PathValue("tag"))
}

// HandleMissingTag answers tag routes whose tag segment is empty.
func HandleMissingTag(w http.ResponseWriter, r *http.Request) {
	writeFailure(w, http.StatusBadRequest, map[string]string{"tag": "Missing Tag"})
}

// HandleMissingGroup answers membership routes whose group segment is empty.
func HandleMissingGroup(w http.ResponseWriter, r *http.Request) {
	writeFailure(w, http.StatusBadRequest, map[string]string{"group": "Missing id"})
}

// HandleMethodNotAllowed answers known paths called with an unsupported method.
func HandleMethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	writeFailure(w, http.StatusMethodNotAllowed, nil)
}

// HandleNotFound answers unknown API paths.
func HandleNotFound(w http.ResponseWriter, r *http.Request) {
	writeFailure(w, http.StatusNotFound, nil)
}
