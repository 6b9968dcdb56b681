package settings

import (
	"fmt"
	"os"

	"github.com/spf13/viper"
)

// Document is one scope's raw configuration as loaded from disk.
// A nil Document means the scope file does not exist.
type Document map[string]any

// MalformedError reports a settings file that exists but cannot be read
// as a JSON document. It is never swallowed: a broken scope must surface
// instead of silently weakening the policy chain.
type MalformedError struct {
	Scope Scope
	Path  string
	Err   error
}

func (e *MalformedError) Error() string {
	return fmt.Sprintf("malformed settings at %s scope (%s): %v", e.Scope, e.Path, e.Err)
}

func (e *MalformedError) Unwrap() error {
	return e.Err
}

// Store loads single-scope settings documents. It never writes; settings
// files are written only by the init collaborator (see writer.go).
type Store struct {
	projectDir string
}

// NewStore creates a store rooted at the given project directory.
func NewStore(projectDir string) *Store {
	return &Store{projectDir: projectDir}
}

// Load reads one scope's settings document. An absent file returns
// (nil, nil); an unreadable or unparseable file returns *MalformedError.
func (s *Store) Load(scope Scope) (Document, error) {
	path := scope.Path(s.projectDir)

	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, &MalformedError{Scope: scope, Path: path, Err: err}
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("json")
	if err := v.ReadInConfig(); err != nil {
		return nil, &MalformedError{Scope: scope, Path: path, Err: err}
	}

	return Document(v.AllSettings()), nil
}
