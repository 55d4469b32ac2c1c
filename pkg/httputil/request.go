package httputil

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gorilla/mux"
)

// ParsePathString extracts a string path parameter
func ParsePathString(r *http.Request, key string) (string, error) {
	vars := mux.Vars(r)
	str := vars[key]
	if str == "" {
		return "", fmt.Errorf("missing path parameter: %s", key)
	}
	return str, nil
}

// ParsePathName extracts a path parameter that names a single file. Empty
// values, separators and dot segments are rejected.
func ParsePathName(r *http.Request, key string) (string, error) {
	name, err := ParsePathString(r, key)
	if err != nil {
		return "", err
	}
	if name == "." || name == ".." || strings.ContainsAny(name, `/\`) || strings.Contains(name, "..") {
		return "", fmt.Errorf("invalid path parameter %s: %q", key, name)
	}
	return name, nil
}

// ParsePathNameOrError extracts a file name parameter and writes a 400 on failure
func ParsePathNameOrError(w http.ResponseWriter, r *http.Request, key string) (string, bool) {
	val, err := ParsePathName(r, key)
	if err != nil {
		WriteBadRequest(w, err.Error())
		return "", false
	}
	return val, true
}
