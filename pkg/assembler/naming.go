package assembler

import (
	"strings"
	"unicode"

	"github.com/platinummonkey/symbolgraph/pkg/openapi"
)

// EndpointLocalID returns the operation's explicit identifier, or one
// derived from its method and path.
func EndpointLocalID(op *openapi.Operation) string {
	if id := strings.TrimSpace(op.OperationID); id != "" {
		return id
	}
	return DeriveOperationID(op.Method, op.Path)
}

// DeriveOperationID combines the lowercase verb with the sanitized path:
//
//	GET /users         -> get_users
//	GET /users/{id}    -> get_users_id
//	POST /             -> post_root
func DeriveOperationID(method, path string) string {
	verb := strings.ToLower(method)
	words := strings.FieldsFunc(path, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	if len(words) == 0 {
		return verb + "_root"
	}
	return verb + "_" + strings.Join(words, "_")
}

// sanitize restricts an identifier segment to letters, digits, '_' and '-'
func sanitize(s string) string {
	var b strings.Builder
	lastUnderscore := false
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '-' {
			b.WriteRune(r)
			lastUnderscore = false
			continue
		}
		if !lastUnderscore {
			b.WriteByte('_')
			lastUnderscore = true
		}
	}
	out := b.String()
	if strings.Trim(out, "_") == "" {
		return "_"
	}
	return out
}
