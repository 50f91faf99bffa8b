package sqlagent

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

var (
	errNotSelect     = errors.New("only a single SELECT statement is allowed")
	errForbiddenWord = errors.New("statement contains a forbidden keyword")
)

var (
	fencePattern     = regexp.MustCompile("(?s)^```[a-zA-Z]*\\s*(.*?)\\s*```$")
	wordPattern      = regexp.MustCompile(`[A-Za-z_][A-Za-z0-9_]*`)
	literalPattern   = regexp.MustCompile(`'(?:[^']|'')*'`)
	qualifierPattern = regexp.MustCompile("(?i)[\"`\\[]?\\b(main|temp)[\"`\\]]?\\s*\\.\\s*[\"`\\[]?([A-Za-z_][A-Za-z0-9_]*)")
)

// internal schema objects and table-valued pragma functions
var reservedPrefixes = []string{"sqlite_", "pragma_"}

var forbiddenWords = map[string]struct{}{
	"INSERT": {}, "UPDATE": {}, "DELETE": {}, "DROP": {}, "ALTER": {}, "CREATE": {},
	"ATTACH": {}, "DETACH": {}, "PRAGMA": {}, "REPLACE": {}, "VACUUM": {}, "REINDEX": {},
}

// extractStatement strips code fences and a trailing semicolon from model output.
func extractStatement(output string) string {
	s := strings.TrimSpace(output)
	if m := fencePattern.FindStringSubmatch(s); m != nil {
		s = m[1]
	}
	s = strings.TrimSpace(s)
	return strings.TrimSpace(strings.TrimSuffix(s, ";"))
}

// validateStatement enforces a single read-only statement that references no
// table outside allowed. known lists every table of the database.
func validateStatement(stmt string, allowed, known []string) error {
	if stmt == "" {
		return errNotSelect
	}
	// string literals may legitimately contain keywords or semicolons
	literals := literalPattern.FindAllString(stmt, -1)
	bare := literalPattern.ReplaceAllString(stmt, "''")
	if strings.Contains(bare, ";") {
		return errNotSelect
	}

	words := wordPattern.FindAllString(bare, -1)
	if len(words) == 0 {
		return errNotSelect
	}
	switch strings.ToUpper(words[0]) {
	case "SELECT", "WITH":
	default:
		return errNotSelect
	}

	for _, w := range words {
		if _, bad := forbiddenWords[strings.ToUpper(w)]; bad {
			return fmt.Errorf("%w: %s", errForbiddenWord, strings.ToUpper(w))
		}
	}

	allowedSet := make(map[string]struct{}, len(allowed))
	for _, t := range allowed {
		allowedSet[strings.ToLower(t)] = struct{}{}
	}
	knownSet := make(map[string]struct{}, len(known))
	for _, t := range known {
		knownSet[strings.ToLower(t)] = struct{}{}
	}
	notAvailable := func(name string) error {
		return fmt.Errorf("table %q is not available; use only: %s", name, strings.Join(allowed, ", "))
	}

	for _, w := range words {
		lw := strings.ToLower(w)
		for _, p := range reservedPrefixes {
			if strings.HasPrefix(lw, p) {
				return notAvailable(w)
			}
		}
		if _, isTable := knownSet[lw]; !isTable {
			continue
		}
		// a CTE named after a table still counts as that table
		if _, ok := allowedSet[lw]; !ok {
			return notAvailable(w)
		}
	}

	for _, m := range qualifierPattern.FindAllStringSubmatch(bare, -1) {
		if _, ok := allowedSet[strings.ToLower(m[2])]; !ok {
			return notAvailable(m[1] + "." + m[2])
		}
	}

	// sqlite resolves a quoted string in table position as a table name
	for _, lit := range literals {
		name := strings.ToLower(strings.TrimSpace(strings.ReplaceAll(strings.Trim(lit, "'"), "''", "'")))
		if _, isTable := knownSet[name]; isTable {
			if _, ok := allowedSet[name]; !ok {
				return notAvailable(name)
			}
		}
		for _, p := range reservedPrefixes {
			if strings.HasPrefix(name, p) {
				return notAvailable(name)
			}
		}
	}
	return nil
}
