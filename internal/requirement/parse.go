package requirement

import (
	"fmt"
	"strings"
)

var ops = []string{"===", "~=", "==", "!=", "<=", ">=", "<", ">"}

// Parse reads a PEP 508 style specifier: name, optional [extras], then either
// version clauses or "@ url", then an optional "; marker".
func Parse(spec string) (Requirement, error) {
	text := strings.TrimSpace(spec)
	if text == "" {
		return Requirement{}, errEmptySpec
	}
	r := Requirement{Specifier: text}
	fail := func(format string, args ...any) (Requirement, error) {
		return Requirement{}, fmt.Errorf("requirement %q: %s", text, fmt.Sprintf(format, args...))
	}

	body := text
	if head, marker, ok := strings.Cut(text, ";"); ok {
		body = strings.TrimSpace(head)
		r.Marker = strings.TrimSpace(marker)
		if r.Marker == "" {
			return fail("empty environment marker")
		}
	}

	n := scanName(body)
	if n == 0 {
		return fail("missing project name")
	}
	r.Project = body[:n]
	if !isAlnum(r.Project[len(r.Project)-1]) {
		return fail("project name %q must end with a letter or digit", r.Project)
	}
	rest := strings.TrimSpace(body[n:])

	if strings.HasPrefix(rest, "[") {
		end := strings.IndexByte(rest, ']')
		if end < 0 {
			return fail("unterminated extras")
		}
		for _, extra := range strings.Split(rest[1:end], ",") {
			extra = strings.TrimSpace(extra)
			if extra == "" || scanName(extra) != len(extra) {
				return fail("invalid extra %q", extra)
			}
			r.Extras = append(r.Extras, extra)
		}
		rest = strings.TrimSpace(rest[end+1:])
	}

	if url, ok := strings.CutPrefix(rest, "@"); ok {
		r.URL = strings.TrimSpace(url)
		if r.URL == "" || strings.ContainsAny(r.URL, " \t") {
			return fail("invalid direct reference %q", url)
		}
		r.Name = r.Project
		return r, nil
	}

	if rest != "" {
		for _, raw := range strings.Split(rest, ",") {
			c, err := parseClause(strings.TrimSpace(raw))
			if err != nil {
				return fail("%v", err)
			}
			r.Clauses = append(r.Clauses, c)
		}
	}
	r.Name = r.Project
	return r, nil
}

func parseClause(s string) (Clause, error) {
	for _, op := range ops {
		if v, ok := strings.CutPrefix(s, op); ok {
			v = strings.TrimSpace(v)
			if v == "" || !validVersion(v) {
				return Clause{}, fmt.Errorf("invalid version %q in clause %q", v, s)
			}
			return Clause{Op: op, Version: v}, nil
		}
	}
	return Clause{}, fmt.Errorf("invalid version clause %q", s)
}

func scanName(s string) int {
	if s == "" || !isAlnum(s[0]) {
		return 0
	}
	i := 1
	for i < len(s) && (isAlnum(s[i]) || s[i] == '.' || s[i] == '-' || s[i] == '_') {
		i++
	}
	return i
}

func validVersion(v string) bool {
	for i := 0; i < len(v); i++ {
		c := v[i]
		if !isAlnum(c) && !strings.ContainsRune(".*+!_-", rune(c)) {
			return false
		}
	}
	return true
}

func isAlnum(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9'
}
