// Package dispatch routes free-text business questions to aggregation
// routines by ordered keyword matching.
package dispatch

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed vocabulary.yaml
var defaultVocabulary []byte

// Names reported for questions no category recognizes.
const (
	CategoryDefault = "default"
	RouteFallback   = "fallback"
)

// Vocabulary is the declarative routing table.
type Vocabulary struct {
	Sets       map[string][]string `yaml:"sets"`
	Categories []CategorySpec      `yaml:"categories"`
}

// CategorySpec is one top-level category. Default is required.
type CategorySpec struct {
	Name    string      `yaml:"name"`
	Trigger string      `yaml:"trigger"`
	Routes  []RouteSpec `yaml:"routes"`
	Default string      `yaml:"default"`
}

// RouteSpec selects Route when every set in When matches.
type RouteSpec struct {
	Route string   `yaml:"route"`
	When  []string `yaml:"when"`
}

// ParseVocabulary decodes a YAML vocabulary. Unknown fields are rejected.
func ParseVocabulary(data []byte) (*Vocabulary, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	var v Vocabulary
	if err := dec.Decode(&v); err != nil {
		return nil, fmt.Errorf("failed to parse vocabulary: %w", err)
	}
	return &v, nil
}

// DefaultVocabulary returns the embedded vocabulary.
func DefaultVocabulary() (*Vocabulary, error) {
	return ParseVocabulary(defaultVocabulary)
}

// Decision names the category and route a question resolved to.
type Decision struct {
	Category string `json:"category"`
	Route    string `json:"route"`
}

type keywordSet []string

func (s keywordSet) matches(q string) bool {
	for _, kw := range s {
		if strings.Contains(q, kw) {
			return true
		}
	}
	return false
}

type route struct {
	name string
	when []keywordSet
}

func (r route) matches(q string) bool {
	for _, s := range r.when {
		if !s.matches(q) {
			return false
		}
	}
	return true
}

type category struct {
	name     string
	trigger  keywordSet
	routes   []route
	fallback string
}

// Router resolves questions against a compiled vocabulary. It is immutable
// and safe for concurrent use.
type Router struct {
	categories []category
}

// NewRouter compiles v, checking that every referenced set exists and every
// category has a default route.
func NewRouter(v *Vocabulary) (*Router, error) {
	if v == nil || len(v.Categories) == 0 {
		return nil, errors.New("vocabulary has no categories")
	}

	set := func(name string) (keywordSet, error) {
		words, ok := v.Sets[name]
		if !ok || len(words) == 0 {
			return nil, fmt.Errorf("unknown or empty keyword set %q", name)
		}
		ks := make(keywordSet, len(words))
		for i, w := range words {
			ks[i] = strings.ToLower(w)
		}
		return ks, nil
	}

	seen := map[string]bool{}
	r := &Router{}
	for _, spec := range v.Categories {
		if spec.Name == "" || seen[spec.Name] {
			return nil, fmt.Errorf("category name %q is empty or duplicated", spec.Name)
		}
		seen[spec.Name] = true
		if spec.Default == "" {
			return nil, fmt.Errorf("category %s has no default route", spec.Name)
		}
		trigger, err := set(spec.Trigger)
		if err != nil {
			return nil, fmt.Errorf("category %s: %w", spec.Name, err)
		}
		c := category{name: spec.Name, trigger: trigger, fallback: spec.Default}
		for _, rs := range spec.Routes {
			if rs.Route == "" || len(rs.When) == 0 {
				return nil, fmt.Errorf("category %s: route needs a name and conditions", spec.Name)
			}
			rt := route{name: rs.Route}
			for _, name := range rs.When {
				ks, err := set(name)
				if err != nil {
					return nil, fmt.Errorf("category %s route %s: %w", spec.Name, rs.Route, err)
				}
				rt.when = append(rt.when, ks)
			}
			c.routes = append(c.routes, rt)
		}
		r.categories = append(r.categories, c)
	}
	return r, nil
}

// Route lower-cases the question and returns the first matching category and
// its first matching route. It is a pure function of the question.
func (r *Router) Route(question string) Decision {
	q := strings.ToLower(question)
	for _, c := range r.categories {
		if !c.trigger.matches(q) {
			continue
		}
		for _, rt := range c.routes {
			if rt.matches(q) {
				return Decision{Category: c.name, Route: rt.name}
			}
		}
		return Decision{Category: c.name, Route: c.fallback}
	}
	return Decision{Category: CategoryDefault, Route: RouteFallback}
}

// Categories returns category names in evaluation order.
func (r *Router) Categories() []string {
	names := make([]string, len(r.categories))
	for i, c := range r.categories {
		names[i] = c.name
	}
	return names
}

// Routes returns every route name the router can produce.
func (r *Router) Routes() []string {
	seen := map[string]bool{RouteFallback: true}
	names := []string{RouteFallback}
	add := func(n string) {
		if !seen[n] {
			seen[n] = true
			names = append(names, n)
		}
	}
	for _, c := range r.categories {
		for _, rt := range c.routes {
			add(rt.name)
		}
		add(c.fallback)
	}
	return names
}
