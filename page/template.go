package page

import (
	"regexp"
	"slices"
	"strings"

	"github.com/pkg/errors"
)

var (
	ErrMissingPlaceholder = errors.New("no value for placeholder")
	ErrInvalidPlaceholder = errors.New("invalid placeholder")
	ErrUnusedValue        = errors.New("value has no placeholder")
)

// Placeholders are @name or @{name}. A literal @ is written @@. The @ never
// shows up in the page's own markup or script, unlike $ or {{.
var placeholderPattern = regexp.MustCompile(
	`@(?:(@)|([_a-zA-Z][_a-zA-Z0-9]*)|\{([_a-zA-Z][_a-zA-Z0-9]*)\}|())`,
)

// Template is a page skeleton with @-delimited placeholders
type Template struct {
	source string
}

func NewTemplate(source string) *Template {
	return &Template{source: source}
}

// Substitute replaces every placeholder with its value. Values are inserted
// as-is and are not scanned for further placeholders.
func (t *Template) Substitute(values map[string]string) (string, error) {
	var b strings.Builder
	b.Grow(len(t.source))

	last := 0
	for _, m := range placeholderPattern.FindAllStringSubmatchIndex(t.source, -1) {
		b.WriteString(t.source[last:m[0]])
		last = m[1]

		switch {
		case m[2] >= 0:
			b.WriteByte('@')
		case m[4] >= 0, m[6] >= 0:
			name := t.group(m, 2)
			if name == "" {
				name = t.group(m, 3)
			}
			value, ok := values[name]
			if !ok {
				return "", errors.Wrapf(ErrMissingPlaceholder, "@%s", name)
			}
			b.WriteString(value)
		default:
			line, col := t.position(m[0])
			return "", errors.Wrapf(ErrInvalidPlaceholder, "line %d, col %d", line, col)
		}
	}
	b.WriteString(t.source[last:])

	return b.String(), nil
}

// Names lists the placeholders in the order they first appear
func (t *Template) Names() []string {
	seen := map[string]bool{}
	names := []string{}
	for _, m := range placeholderPattern.FindAllStringSubmatchIndex(t.source, -1) {
		name := t.group(m, 2)
		if name == "" {
			name = t.group(m, 3)
		}
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		names = append(names, name)
	}
	return names
}

// Validate checks that values covers every placeholder and nothing else,
// naming all the offenders at once.
func (t *Template) Validate(values map[string]string) error {
	names := t.Names()

	missing := []string{}
	for _, name := range names {
		if _, ok := values[name]; !ok {
			missing = append(missing, "@"+name)
		}
	}
	if len(missing) > 0 {
		return errors.Wrap(ErrMissingPlaceholder, strings.Join(missing, ", "))
	}

	unused := []string{}
	for name := range values {
		if !slices.Contains(names, name) {
			unused = append(unused, name)
		}
	}
	if len(unused) > 0 {
		slices.Sort(unused)
		return errors.Wrap(ErrUnusedValue, strings.Join(unused, ", "))
	}
	return nil
}

func (t *Template) group(m []int, n int) string {
	if m[2*n] < 0 {
		return ""
	}
	return t.source[m[2*n]:m[2*n+1]]
}

func (t *Template) position(offset int) (int, int) {
	before := t.source[:offset]
	line := strings.Count(before, "\n") + 1
	col := offset - strings.LastIndex(before, "\n")
	return line, col
}
