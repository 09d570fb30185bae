package shaders

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	structBlockRegex = regexp.MustCompile(`struct\s+(\w+)\s*\{([^}]*)\}`)
	fieldRegex       = regexp.MustCompile(`^(?:@\w+\([^)]*\)\s*)*(\w+)\s*:\s*(.+)$`)
	blockCommentRe   = regexp.MustCompile(`(?s)/\*.*?\*/`)
)

// Field is one member of a WGSL struct.
type Field struct {
	Name string
	Type string
}

// StructFields returns the members of struct name in declaration order.
func StructFields(source, name string) ([]Field, error) {
	cleaned := stripComments(source)
	for _, m := range structBlockRegex.FindAllStringSubmatch(cleaned, -1) {
		if m[1] != name {
			continue
		}
		var fields []Field
		for _, part := range strings.Split(m[2], ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			fm := fieldRegex.FindStringSubmatch(part)
			if fm == nil {
				return nil, fmt.Errorf("struct %s: cannot parse member %q", name, part)
			}
			fields = append(fields, Field{Name: fm[1], Type: strings.TrimSpace(fm[2])})
		}
		return fields, nil
	}
	return nil, fmt.Errorf("struct %s not found", name)
}

// CapturedFields returns the names of the particle struct members the update
// stage writes, in the order they are laid out in the buffer.
func CapturedFields(source string) ([]string, error) {
	fields, err := StructFields(source, ParticleStructName)
	if err != nil {
		return nil, err
	}
	names := make([]string, len(fields))
	for i, f := range fields {
		names[i] = f.Name
	}
	return names, nil
}

func stripComments(source string) string {
	source = blockCommentRe.ReplaceAllString(source, "")
	var sb strings.Builder
	for _, line := range strings.Split(source, "\n") {
		if idx := strings.Index(line, "//"); idx >= 0 {
			line = line[:idx]
		}
		sb.WriteString(line)
		sb.WriteByte('\n')
	}
	return sb.String()
}
