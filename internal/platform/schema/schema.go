package schema

import (
	"bytes"
	"crypto/sha256"
	"embed"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/yungbote/subsets-backend/internal/platform/apierr"
)

//go:embed schemas/*.json
var embedded embed.FS

// Embedded returns the bundled schema of a collection.
func Embedded(collection string) (json.RawMessage, error) {
	raw, err := embedded.ReadFile("schemas/" + collection + ".json")
	if err != nil {
		return nil, apierr.NotFound("schema", collection)
	}
	return json.RawMessage(raw), nil
}

// Validator compiles schemas on first use and caches them by content.
type Validator struct {
	mu       sync.Mutex
	compiled map[string]*jsonschema.Schema
}

func NewValidator() *Validator {
	return &Validator{compiled: map[string]*jsonschema.Schema{}}
}

func (v *Validator) compile(name string, raw json.RawMessage) (*jsonschema.Schema, error) {
	sum := sha256.Sum256(raw)
	key := name + "@" + hex.EncodeToString(sum[:8])

	v.mu.Lock()
	defer v.mu.Unlock()
	if s, ok := v.compiled[key]; ok {
		return s, nil
	}
	c := jsonschema.NewCompiler()
	c.Draft = jsonschema.Draft7
	url := "mem://schemas/" + name + ".json"
	if err := c.AddResource(url, bytes.NewReader(raw)); err != nil {
		return nil, fmt.Errorf("load schema %s: %w", name, err)
	}
	s, err := c.Compile(url)
	if err != nil {
		return nil, fmt.Errorf("compile schema %s: %w", name, err)
	}
	v.compiled[key] = s
	return s, nil
}

// Validate checks doc against schemaRaw. Violations become an
// *apierr.ValidationError with one "location: message" entry each.
func (v *Validator) Validate(name string, schemaRaw json.RawMessage, doc []byte) error {
	s, err := v.compile(name, schemaRaw)
	if err != nil {
		return err
	}
	var inst any
	dec := json.NewDecoder(bytes.NewReader(doc))
	dec.UseNumber()
	if err := dec.Decode(&inst); err != nil {
		return apierr.Validationf("document is not valid JSON: %v", err)
	}
	err = s.Validate(inst)
	if err == nil {
		return nil
	}
	var ve *jsonschema.ValidationError
	if !errors.As(err, &ve) {
		return err
	}
	return apierr.Validation(violations(ve)...)
}

func violations(ve *jsonschema.ValidationError) []string {
	seen := map[string]bool{}
	out := []string{}
	for _, e := range ve.BasicOutput().Errors {
		if e.Error == "" || isSummary(e.Error) {
			continue
		}
		loc := e.InstanceLocation
		if loc == "" {
			loc = "/"
		}
		msg := loc + ": " + e.Error
		if !seen[msg] {
			seen[msg] = true
			out = append(out, msg)
		}
	}
	if len(out) == 0 {
		out = append(out, ve.Error())
	}
	sort.Strings(out)
	return out
}

// The basic output includes wrapper entries that only point at nested causes.
func isSummary(msg string) bool {
	return strings.HasPrefix(msg, "doesn't validate with")
}
