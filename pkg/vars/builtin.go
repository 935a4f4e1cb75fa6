package vars

import (
	"os"
	"os/user"
	"runtime"
	"time"

	"github.com/tplforge/tplforge/internal/version"
)

// Builtin returns the always-available context variables. They use the
// dunder naming convention so user variables never collide with them;
// user variables still win if they do.
func Builtin(outDir string) map[string]any {
	now := time.Now()

	wd, err := os.Getwd()
	if err != nil {
		wd = "."
	}
	if outDir == "" {
		outDir = wd
	}

	username := ""
	if u, err := user.Current(); err == nil {
		username = u.Username
	} else {
		username = os.Getenv("USER")
	}

	return map[string]any{
		"__version__":           version.Version,
		"__go_version__":        runtime.Version(),
		"__user__":              username,
		"__pid__":               int64(os.Getpid()),
		"__ppid__":              int64(os.Getppid()),
		"__working_directory__": wd,
		"__output_directory__":  outDir,
		"__date__":              now.Format("02-01-2006"),
		"__date_inv__":          now.Format("2006-01-02"),
		"__time__":              now.Format("15:04:05"),
		"__datetime__":          now.Format("2006-01-02 15:04:05"),
	}
}
