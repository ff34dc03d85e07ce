package playbook

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"al.essio.dev/pkg/shellescape"

	"github.com/loadinglucian/deployer-php-sub001/internal/domain"
)

// VarPrefix is prepended to every variable name handed to a script.
const VarPrefix = "DEPLOYER_"

// OutputFileVar names the variable carrying the output-channel path.
const OutputFileVar = VarPrefix + "OUTPUT_FILE"

type pair struct {
	name  string
	value string
}

// Vars is an ordered set of NAME=value pairs destined for the remote
// shell environment. Setting an existing name overwrites its value in
// place, so explicit caller values win over earlier auto-derived ones.
type Vars struct {
	pairs []pair
	index map[string]int
}

// NewVars returns an empty variable set.
func NewVars() *Vars {
	return &Vars{index: make(map[string]int)}
}

// Set stores a string value under the normalized variable name.
func (v *Vars) Set(name, value string) {
	key := VarName(name)
	if i, ok := v.index[key]; ok {
		v.pairs[i].value = value
		return
	}
	v.index[key] = len(v.pairs)
	v.pairs = append(v.pairs, pair{name: key, value: value})
}

// SetJSON JSON-encodes value and stores it. Encoding failure is a
// programmer error (an unencodable caller value) and aborts construction.
func (v *Vars) SetJSON(name string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("playbook: variable %s is not JSON-encodable: %w", VarName(name), err)
	}
	v.Set(name, string(data))
	return nil
}

// SetAny stores scalars as plain strings and everything else JSON-encoded.
func (v *Vars) SetAny(name string, value any) error {
	switch val := value.(type) {
	case string:
		v.Set(name, val)
	case bool:
		v.Set(name, strconv.FormatBool(val))
	case int:
		v.Set(name, strconv.Itoa(val))
	case int64:
		v.Set(name, strconv.FormatInt(val, 10))
	case float64:
		v.Set(name, strconv.FormatFloat(val, 'f', -1, 64))
	case nil:
		v.Set(name, "")
	default:
		return v.SetJSON(name, value)
	}
	return nil
}

// Get returns the current value for a name, if set.
func (v *Vars) Get(name string) (string, bool) {
	i, ok := v.index[VarName(name)]
	if !ok {
		return "", false
	}
	return v.pairs[i].value, true
}

// Names returns the variable names in insertion order.
func (v *Vars) Names() []string {
	names := make([]string, len(v.pairs))
	for i, p := range v.pairs {
		names[i] = p.name
	}
	return names
}

// ShellPrefix renders the set as space-separated NAME=value assignments
// with every value individually shell-escaped, suitable for prefixing a
// command so the variables live only in that command's environment.
func (v *Vars) ShellPrefix() string {
	parts := make([]string, len(v.pairs))
	for i, p := range v.pairs {
		parts[i] = p.name + "=" + shellescape.Quote(p.value)
	}
	return strings.Join(parts, " ")
}

// VarName normalizes a plain identifier into the prefixed upper-snake
// form scripts expect. Names already carrying the prefix pass through.
func VarName(name string) string {
	upper := strings.ToUpper(strings.TrimSpace(name))
	if strings.HasPrefix(upper, VarPrefix) {
		return upper
	}
	return VarPrefix + upper
}

// BuildVars assembles the full variable set for one execution: the fresh
// output-channel path, auto-derived server and site context, then caller
// overrides last so they win on name collisions.
func BuildVars(target domain.ServerTarget, site *domain.SiteContext, outputPath string, overrides map[string]any) (*Vars, error) {
	v := NewVars()
	v.Set("OUTPUT_FILE", outputPath)
	v.Set("SERVER", target.Name)

	if target.Facts != nil {
		if target.Facts.Distribution != "" {
			v.Set("DIST", target.Facts.Distribution)
		}
		if target.Facts.PermissionLevel != "" {
			v.Set("PERMS", target.Facts.PermissionLevel)
		}
	}

	if site != nil {
		v.Set("DOMAIN", site.Domain)
		v.Set("PHP_VERSION", site.PHPVersion)
		if site.Repo != "" {
			v.Set("REPO", site.Repo)
		}
		if site.Branch != "" {
			v.Set("BRANCH", site.Branch)
		}
		if err := v.SetJSON("JOBS", jobsOrEmpty(site.Jobs)); err != nil {
			return nil, err
		}
		if err := v.SetJSON("WORKERS", workersOrEmpty(site.Workers)); err != nil {
			return nil, err
		}
	}

	// Deterministic order for caller overrides keeps the rendered
	// command stable across runs.
	for _, name := range sortedKeys(overrides) {
		if err := v.SetAny(name, overrides[name]); err != nil {
			return nil, err
		}
	}

	return v, nil
}

func jobsOrEmpty(jobs []domain.ScheduledJob) []domain.ScheduledJob {
	if jobs == nil {
		return []domain.ScheduledJob{}
	}
	return jobs
}

func workersOrEmpty(workers []domain.WorkerProcess) []domain.WorkerProcess {
	if workers == nil {
		return []domain.WorkerProcess{}
	}
	return workers
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
