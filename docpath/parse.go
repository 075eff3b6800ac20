package docpath

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

func escapeKey(k string) string {
	if !strings.ContainsAny(k, `\,]`) {
		return k
	}
	var b strings.Builder
	for _, r := range k {
		switch r {
		case '\\', ',', ']':
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Parse parses the display form produced by Path.String.
func Parse(s string) (Path, error) {
	if len(s) < 2 || s[0] != '[' || s[len(s)-1] != ']' {
		return Path{}, errors.New("docpath: path must be enclosed in brackets")
	}
	body := s[1 : len(s)-1]
	if body == "" {
		return Path{}, nil
	}

	var steps []Step
	var cur strings.Builder
	escaped := false
	flush := func() error {
		st, err := parseStep(cur.String())
		if err != nil {
			return err
		}
		steps = append(steps, st)
		cur.Reset()
		return nil
	}
	for _, r := range body {
		switch {
		case escaped:
			cur.WriteRune(r)
			escaped = false
		case r == '\\':
			escaped = true
		case r == ',':
			if err := flush(); err != nil {
				return Path{}, err
			}
		case r == ']':
			return Path{}, errors.New("docpath: unescaped ']' in path")
		default:
			cur.WriteRune(r)
		}
	}
	if escaped {
		return Path{}, errors.New("docpath: dangling escape")
	}
	if err := flush(); err != nil {
		return Path{}, err
	}
	return Path{steps: steps}, nil
}

func parseStep(s string) (Step, error) {
	tag, rest, ok := strings.Cut(s, ":")
	if !ok {
		return Step{}, fmt.Errorf("docpath: step %q missing kind", s)
	}
	switch tag {
	case "obj":
		return ObjectStep(rest), nil
	case "arr":
		i, err := strconv.Atoi(rest)
		if err != nil || i < 0 || strconv.Itoa(i) != rest {
			return Step{}, fmt.Errorf("docpath: invalid array index %q", rest)
		}
		return ArrayStep(i), nil
	default:
		return Step{}, fmt.Errorf("docpath: unknown step kind %q", tag)
	}
}
