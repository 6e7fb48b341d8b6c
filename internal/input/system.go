package input

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/stigoleg/coffeine/internal/util"
)

// Display is the kind of graphical session input is sent to.
type Display string

const (
	DisplayWayland Display = "wayland"
	DisplayX11     Display = "x11"
	DisplayUnknown Display = "unknown"
)

// DetectDisplay inspects the session environment. Wayland wins when both
// are present, since XWayland also sets DISPLAY.
func DetectDisplay(getenv func(string) string) Display {
	session := strings.ToLower(getenv("XDG_SESSION_TYPE"))
	switch {
	case getenv("WAYLAND_DISPLAY") != "", session == string(DisplayWayland):
		return DisplayWayland
	case getenv("DISPLAY") != "", session == string(DisplayX11):
		return DisplayX11
	default:
		return DisplayUnknown
	}
}

// PackageManager guesses the distribution's package manager from
// /etc/os-release, falling back to whichever known manager is installed.
func PackageManager() string {
	if f, err := os.Open("/etc/os-release"); err == nil {
		defer f.Close()
		id, like := parseOSRelease(f)
		if pm := packageManagerFor(id, like); pm != "" {
			return pm
		}
	}
	for _, pm := range []string{"apt", "dnf", "yum", "pacman", "zypper", "apk"} {
		if util.HasCommand(pm) {
			return pm
		}
	}
	return ""
}

func parseOSRelease(r io.Reader) (id, idLike string) {
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if v, ok := strings.CutPrefix(line, "ID="); ok {
			id = strings.ToLower(strings.Trim(v, `"`))
		}
		if v, ok := strings.CutPrefix(line, "ID_LIKE="); ok {
			idLike = strings.ToLower(strings.Trim(v, `"`))
		}
	}
	return id, idLike
}

func packageManagerFor(id, idLike string) string {
	is := func(names ...string) bool {
		for _, n := range names {
			if id == n || strings.Contains(idLike, n) {
				return true
			}
		}
		return false
	}
	switch {
	case is("debian", "ubuntu", "pop"):
		return "apt"
	case is("fedora", "rhel", "centos"):
		return "dnf"
	case is("arch", "manjaro"):
		return "pacman"
	case is("opensuse", "suse"):
		return "zypper"
	case is("alpine"):
		return "apk"
	default:
		return ""
	}
}

// InstallHint tells the user how to get a missing input tool.
func InstallHint(tool, pm string) string {
	var cmd string
	switch pm {
	case "apt":
		cmd = "sudo apt install " + tool
	case "dnf", "yum", "zypper":
		cmd = fmt.Sprintf("sudo %s install %s", pm, tool)
	case "pacman":
		cmd = "sudo pacman -S " + tool
	case "apk":
		cmd = "sudo apk add " + tool
	default:
		return fmt.Sprintf("install %s with your package manager", tool)
	}
	if tool == ydotoolBin {
		cmd += " (ydotoold must be running)"
	}
	return cmd
}
