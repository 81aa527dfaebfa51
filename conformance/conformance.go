// Package conformance is the executable specification of the policy matrix.
//
// Suites are YAML documents describing a data set and a list of expected
// decisions. The runner seeds an in-memory store, builds an Authorizer, and
// evaluates every check twice against the unchanged data, so a flaky or
// non-deterministic rule fails loudly. The builtin suites cover the
// properties the engine guarantees: the role matrix, admin override,
// fail-closed unknown roles, recursion termination on cross-referencing
// participation data, and the public-read exceptions.
//
// The same suites run against a live PostgreSQL database in the integration
// tests and through `showgate conformance`.
package conformance

import (
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"sigs.k8s.io/yaml"

	"github.com/showgate/showgate"
)

//go:embed suites/*.yaml
var builtinFS embed.FS

// Suite is one conformance document.
type Suite struct {
	Name    string  `json:"name"`
	Fixture Fixture `json:"fixture"`
	Checks  []Check `json:"checks"`
}

// Fixture is the data set a suite evaluates against.
type Fixture struct {
	Profiles      []Profile       `json:"profiles,omitempty"`
	Shows         []Show          `json:"shows,omitempty"`
	Series        []Series        `json:"series,omitempty"`
	Participation []Participation `json:"participation,omitempty"`
	Attendance    []Attendance    `json:"planned_attendance,omitempty"`
	WantLists     []WantList      `json:"want_lists,omitempty"`
	Shared        []Shared        `json:"shared_want_lists,omitempty"`
	Conversations []Conversation  `json:"conversations,omitempty"`
	Participants  []Participant   `json:"conversation_participants,omitempty"`
	Messages      []Message       `json:"messages,omitempty"`
	Favorites     []Favorite      `json:"favorites,omitempty"`
	Reviews       []Review        `json:"reviews,omitempty"`
}

// Fixture row types. Field names mirror the storage schema.

type Profile struct {
	ID   string `json:"id"`
	Role string `json:"role"`
}

type Show struct {
	ID          string   `json:"id"`
	OrganizerID string   `json:"organizer_id"`
	Status      string   `json:"status,omitempty"`
	Dealers     []string `json:"dealers,omitempty"`
}

type Series struct {
	ID          string `json:"id"`
	OrganizerID string `json:"organizer_id"`
	Name        string `json:"name,omitempty"`
}

type Participation struct {
	ID     string `json:"id"`
	ShowID string `json:"show_id"`
	UserID string `json:"user_id"`
	Role   string `json:"role,omitempty"`
	Status string `json:"status,omitempty"`
}

type Attendance struct {
	ID     string `json:"id"`
	UserID string `json:"user_id"`
	ShowID string `json:"show_id"`
}

type WantList struct {
	ID      string `json:"id"`
	UserID  string `json:"user_id"`
	Content string `json:"content,omitempty"`
}

type Shared struct {
	ID         string `json:"id"`
	WantListID string `json:"want_list_id"`
	ShowID     string `json:"show_id"`
}

type Conversation struct {
	ID        string `json:"id"`
	CreatedBy string `json:"created_by"`
	Subject   string `json:"subject,omitempty"`
}

type Participant struct {
	ID             string `json:"id"`
	ConversationID string `json:"conversation_id"`
	UserID         string `json:"user_id"`
}

type Message struct {
	ID             string `json:"id"`
	ConversationID string `json:"conversation_id"`
	SenderID       string `json:"sender_id"`
	Body           string `json:"body,omitempty"`
}

type Favorite struct {
	ID     string `json:"id"`
	UserID string `json:"user_id"`
	ShowID string `json:"show_id"`
}

type Review struct {
	ID     string `json:"id"`
	ShowID string `json:"show_id"`
	UserID string `json:"user_id"`
	Rating int    `json:"rating,omitempty"`
}

// Check is one expected decision. An empty principal means anonymous; an
// empty id means a type-level probe.
type Check struct {
	Name      string `json:"name"`
	Principal string `json:"principal,omitempty"`
	Operation string `json:"operation"`
	Entity    string `json:"entity"`
	ID        string `json:"id,omitempty"`
	Want      string `json:"want"` // allow, deny, unauthenticated
}

// wantEffect maps the YAML effect names onto the engine's enum.
func wantEffect(s string) (showgate.Effect, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "allow":
		return showgate.EffectAllow, nil
	case "deny":
		return showgate.EffectDeny, nil
	case "unauthenticated":
		return showgate.EffectUnauthenticated, nil
	}
	return showgate.EffectDeny, fmt.Errorf("unknown expected effect %q", s)
}

// ParseSuite parses one YAML suite document.
func ParseSuite(data []byte) (Suite, error) {
	var s Suite
	if err := yaml.Unmarshal(data, &s); err != nil {
		return Suite{}, fmt.Errorf("parsing suite: %w", err)
	}
	if s.Name == "" {
		return Suite{}, fmt.Errorf("suite has no name")
	}
	if len(s.Checks) == 0 {
		return Suite{}, fmt.Errorf("suite %q has no checks", s.Name)
	}
	for i, c := range s.Checks {
		if _, err := wantEffect(c.Want); err != nil {
			return Suite{}, fmt.Errorf("suite %q check %d: %w", s.Name, i, err)
		}
	}
	return s, nil
}

// BuiltinSuites returns the embedded suites, sorted by file name.
func BuiltinSuites() ([]Suite, error) {
	return loadSuitesFS(builtinFS, "suites")
}

// LoadSuites reads *.yaml suites from a directory.
func LoadSuites(dir string) ([]Suite, error) {
	return loadSuitesFS(os.DirFS(dir), ".")
}

func loadSuitesFS(fsys fs.FS, root string) ([]Suite, error) {
	entries, err := fs.Glob(fsys, filepath.Join(root, "*.yaml"))
	if err != nil {
		return nil, err
	}
	sort.Strings(entries)
	var suites []Suite
	for _, name := range entries {
		data, err := fs.ReadFile(fsys, name)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", name, err)
		}
		s, err := ParseSuite(data)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		suites = append(suites, s)
	}
	if len(suites) == 0 {
		return nil, fmt.Errorf("no suites found")
	}
	return suites, nil
}
