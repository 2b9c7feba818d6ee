package internal

import (
	"fmt"
	"log"
	"os"
	"os/user"
	"regexp"
	"runtime"
	"sort"
	"strconv"
	"strings"

	"github.com/earthboundkid/versioninfo/v2"
)

var sensitiveRegex = regexp.MustCompile(`(?i)(PASSWORD|API_KEY|ACCESS_KEY|SECRET|REDIS_ADDR)`)

func ShowVersion() {
	log.Printf("Version: %s\n", versioninfo.Short())
	log.Printf("Go: %s, GOMAXPROCS: %d, CPUs: %d", runtime.Version(), runtime.GOMAXPROCS(0), runtime.NumCPU())
}

// ConfigVars logs the effective settings in key order, hiding any value
// whose key looks like it may hold credentials.
func ConfigVars(vars map[string]string) {
	log.Println("Configuration")

	keys := make([]string, 0, len(vars))
	for k := range vars {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		log.Printf("  %s: %s\n", k, maskValue(k, vars[k]))
	}
}

func maskValue(key, value string) string {
	if value != "" && sensitiveRegex.MatchString(key) {
		return "********"
	}
	return value
}

// UserInfo describes the process identity the server runs under, so that
// permission problems writing outputs or results files can be traced.
func UserInfo() string {
	parts := []string{"pid=" + strconv.Itoa(os.Getpid())}

	if u, err := user.Current(); err != nil {
		parts = append(parts, "user=unknown ("+err.Error()+")")
	} else {
		parts = append(parts, fmt.Sprintf("uid=%s(%s) gid=%s", u.Uid, u.Username, u.Gid))
	}

	gids, err := os.Getgroups()
	if err != nil {
		return strings.Join(parts, " ")
	}
	names := make([]string, 0, len(gids))
	for _, gid := range gids {
		id := strconv.Itoa(gid)
		if g, err := user.LookupGroupId(id); err == nil {
			names = append(names, g.Name+"("+id+")")
		} else {
			names = append(names, id)
		}
	}
	parts = append(parts, "groups=["+strings.Join(names, ",")+"]")

	return strings.Join(parts, " ")
}
