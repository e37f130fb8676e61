package dataset

import (
	"bufio"
	"strings"

	"github.com/YuminosukeSato/gamabench/pkg/errors"
)

// ReadARFF reads a dense ARFF file. Supported attribute types are numeric,
// real, integer, nominal ({a,b,...}), string and date (read as string).
func ReadARFF(path, target, encoding string) (*Frame, error) {
	rc, err := openDecoded(path, encoding)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	var (
		attrs  []Attribute
		rows   [][]string
		inData bool
		lineNo int
	)
	sc := bufio.NewScanner(rc)
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for sc.Scan() {
		lineNo++
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "%") {
			continue
		}

		if inData {
			if strings.HasPrefix(line, "{") {
				return nil, errors.Newf("%s:%d: sparse ARFF rows are not supported", path, lineNo)
			}
			fields, err := splitARFF(line)
			if err != nil {
				return nil, errors.Wrapf(err, "%s:%d", path, lineNo)
			}
			rows = append(rows, fields)
			continue
		}

		lower := strings.ToLower(line)
		switch {
		case strings.HasPrefix(lower, "@relation"):
		case strings.HasPrefix(lower, "@attribute"):
			a, err := parseAttribute(strings.TrimSpace(line[len("@attribute"):]))
			if err != nil {
				return nil, errors.Wrapf(err, "%s:%d", path, lineNo)
			}
			attrs = append(attrs, a)
		case strings.HasPrefix(lower, "@data"):
			inData = true
		default:
			return nil, errors.Newf("%s:%d: unexpected header line %q", path, lineNo, line)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, errors.Wrapf(err, "read %s", path)
	}
	if !inData {
		return nil, errors.Newf("%s: no @data section", path)
	}
	return build(attrs, rows, target)
}

// parseAttribute parses the part of an @attribute line after the keyword.
func parseAttribute(decl string) (Attribute, error) {
	name, rest, err := nextToken(decl)
	if err != nil {
		return Attribute{}, err
	}
	rest = strings.TrimSpace(rest)
	if strings.HasPrefix(rest, "{") {
		end := strings.LastIndex(rest, "}")
		if end < 0 {
			return Attribute{}, errors.Newf("unterminated nominal values for %q", name)
		}
		values, err := splitARFF(rest[1:end])
		if err != nil {
			return Attribute{}, err
		}
		return Attribute{Name: name, Kind: Nominal, Values: values}, nil
	}

	typ := strings.ToLower(strings.Fields(rest + " x")[0])
	switch typ {
	case "numeric", "real", "integer":
		return Attribute{Name: name, Kind: Numeric}, nil
	case "string", "date":
		return Attribute{Name: name, Kind: String}, nil
	default:
		return Attribute{}, errors.Newf("unsupported type %q for attribute %q", typ, name)
	}
}

// nextToken reads one possibly quoted token and returns the remainder.
func nextToken(s string) (string, string, error) {
	s = strings.TrimLeft(s, " \t")
	if s == "" {
		return "", "", errors.New("missing token")
	}
	if q := s[0]; q == '\'' || q == '"' {
		var b strings.Builder
		for i := 1; i < len(s); i++ {
			switch {
			case s[i] == '\\' && i+1 < len(s):
				i++
				b.WriteByte(s[i])
			case s[i] == q:
				return b.String(), s[i+1:], nil
			default:
				b.WriteByte(s[i])
			}
		}
		return "", "", errors.Newf("unterminated quote in %q", s)
	}
	end := strings.IndexAny(s, " \t{")
	if end < 0 {
		return s, "", nil
	}
	return s[:end], s[end:], nil
}

// splitARFF splits a comma separated list honoring quotes. "?" becomes the
// empty string, which marks a missing value.
func splitARFF(line string) ([]string, error) {
	var out []string
	rest := line
	for {
		rest = strings.TrimLeft(rest, " \t")
		var field string
		if rest != "" && (rest[0] == '\'' || rest[0] == '"') {
			tok, r, err := nextToken(rest)
			if err != nil {
				return nil, err
			}
			field, rest = tok, strings.TrimLeft(r, " \t")
		} else {
			i := strings.IndexByte(rest, ',')
			if i < 0 {
				field, rest = strings.TrimSpace(rest), ""
			} else {
				field, rest = strings.TrimSpace(rest[:i]), rest[i:]
			}
			if field == "?" {
				field = ""
			}
		}
		out = append(out, field)
		if rest == "" {
			return out, nil
		}
		if rest[0] != ',' {
			return nil, errors.Newf("expected ',' in %q", line)
		}
		rest = rest[1:]
	}
}
