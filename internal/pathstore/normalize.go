package pathstore

import "strings"

// Normalize converts an OS-native path into the engine's canonical
// comparison form: backslashes become forward slashes, a leading
// drive-letter segment ("C:") is lowercased, and a trailing slash is
// trimmed. All other path segments are left case-preserving.
func Normalize(path string) string {
	p := strings.ReplaceAll(path, `\`, "/")

	if len(p) >= 2 && p[1] == ':' && isASCIILetter(p[0]) {
		p = strings.ToLower(p[:1]) + p[1:]
	}

	if len(p) > 1 && strings.HasSuffix(p, "/") {
		p = strings.TrimRight(p, "/")
	}

	return p
}

func isASCIILetter(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}

// Name returns the final path component of a normalized path.
func Name(normalized string) string {
	if normalized == "" {
		return ""
	}
	idx := strings.LastIndexByte(normalized, '/')
	if idx < 0 {
		return normalized
	}
	return normalized[idx+1:]
}

// Parent returns the normalized parent of a normalized path, or "" if
// the path has no parent (it is a filesystem or drive root).
func Parent(normalized string) string {
	idx := strings.LastIndexByte(normalized, '/')
	if idx <= 0 {
		return ""
	}
	return normalized[:idx]
}

// IsAncestor reports whether ancestor is a proper ancestor of
// descendant under normalized-path prefix comparison.
func IsAncestor(ancestor, descendant string) bool {
	if ancestor == descendant {
		return false
	}
	if !strings.HasPrefix(descendant, ancestor) {
		return false
	}
	rest := descendant[len(ancestor):]
	return strings.HasPrefix(rest, "/")
}

// IsAncestorOrSelf reports whether ancestor is descendant or a proper
// ancestor of it.
func IsAncestorOrSelf(ancestor, descendant string) bool {
	return ancestor == descendant || IsAncestor(ancestor, descendant)
}

// CommonAncestor returns the deepest normalized directory that is an
// ancestor of (or equal to) both a and b. Disjoint paths (different
// drives, or no shared segment beyond "/") return "".
func CommonAncestor(a, b string) string {
	as := strings.Split(a, "/")
	bs := strings.Split(b, "/")

	n := len(as)
	if len(bs) < n {
		n = len(bs)
	}

	var common []string
	for i := 0; i < n; i++ {
		sa, sb := as[i], bs[i]
		if i == 0 {
			// Drive-letter / root segment compares case-insensitively.
			if !strings.EqualFold(sa, sb) {
				break
			}
		} else if sa != sb {
			break
		}
		common = append(common, sa)
	}

	// A lone drive/root segment ("C:", or "" for "/") means the paths share
	// nothing beyond the filesystem root: they are disjoint.
	if len(common) <= 1 {
		return ""
	}

	return strings.Join(common, "/")
}
