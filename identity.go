package httpagent

import (
	"errors"
	"net/url"
	"sort"
	"strings"

	"github.com/google/uuid"
)

// idNamespace is the fixed UUID namespace for deriving sensor identifiers.
// Changing it would re-key every entity on the host platform.
var idNamespace = uuid.MustParse("7a6f2c3e-9b1d-4e8a-b5c4-0d2f81e6a937")

// SensorID derives the stable unique identifier for one observable entity.
//
// The identifier is a name-based (SHA-1) UUID over the endpoint's host,
// path, canonicalized query string, and static template variables, plus
// the sensor's extraction expression. Two sensors with the same derived
// identifier are the same logical entity across configuration reloads,
// even if declared independently.
//
// The query string and the vars both participate in the hash so that
// endpoints sharing a URL template but differing in how it is filled in
// (?station=KSEA vs ?station=KJFK as a literal query, or station: KSEA vs
// station: KJFK as a {{.Vars.station}} variable) produce distinct
// identifiers. Query parameters and var names are sorted before hashing,
// so declaration order does not matter.
func SensorID(rawURL, expression string, vars map[string]string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", err
	}
	if u.Host == "" {
		return "", errors.New("url must be absolute")
	}

	// url.Values.Encode sorts keys, giving a canonical query form
	canonical := u.Host + u.Path + "?" + u.Query().Encode() + "|" + canonicalVars(vars) + "|" + expression
	return uuid.NewSHA1(idNamespace, []byte(canonical)).String(), nil
}

// canonicalVars flattens a vars map into a stable key=value form.
func canonicalVars(vars map[string]string) string {
	if len(vars) == 0 {
		return ""
	}
	keys := make([]string, 0, len(vars))
	for k := range vars {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, k+"="+url.QueryEscape(vars[k]))
	}
	return strings.Join(pairs, "&")
}
