package organize

import (
	"path/filepath"
	"runtime"
	"strings"
)

// protectedTrees are refused along with everything beneath them.
var protectedTrees = []string{
	"/bin", "/sbin", "/etc", "/lib", "/lib64", "/usr", "/boot",
	"/dev", "/proc", "/sys", "/run",
	"/var/log", "/var/lib", "/var/cache", "/var/spool", "/var/mail",
	"/var/db", "/var/run", "/var/backups", "/var/empty",
	"/System", "/Library", "/Applications", "/private/etc",
	"/private/var/db", "/private/var/log", "/private/var/run",
	`C:\Windows`, `C:\Program Files`, `C:\Program Files (x86)`, `C:\ProgramData`,
	`C:\Users\Default`,
}

// protectedRoots are refused only as the target itself. Home and temp
// directories live below them (/root, /var/folders, /var/tmp,
// /private/var/folders).
var protectedRoots = []string{
	"/", "/var", "/root", "/Users", "/home", "/private", "/opt",
	`C:\`, `C:\Users`,
}

// IsCriticalPath reports whether path is an operating-system location the
// engine must never reorganize. Matching respects separator boundaries, so
// /etc2 is not /etc.
func IsCriticalPath(path string) bool {
	p := normalizeForCompare(path)
	for _, tree := range protectedTrees {
		t := normalizeForCompare(tree)
		if p == t || strings.HasPrefix(p, withSeparator(t)) {
			return true
		}
	}
	for _, root := range protectedRoots {
		if p == normalizeForCompare(root) {
			return true
		}
	}
	return false
}

func normalizeForCompare(p string) string {
	p = filepath.Clean(p)
	if runtime.GOOS == "windows" {
		p = strings.ToLower(p)
	}
	return p
}

func withSeparator(p string) string {
	if strings.HasSuffix(p, string(filepath.Separator)) {
		return p
	}
	return p + string(filepath.Separator)
}
