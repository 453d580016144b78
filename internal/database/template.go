package database

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strconv"
	"strings"
	"text/template"
	"text/template/parse"

	"github.com/koustreak/querykit/internal/errs"
)

// TemplateSpec renders SQL by substituting {{.key}} placeholders in Text with
// the matching entries of Values.
//
// Substituted values become part of the SQL text. Only use TemplateSpec with
// trusted, operator-controlled values such as schema or table names; end-user
// values belong in Query.Args behind ? markers.
type TemplateSpec struct {
	Text   string
	Values map[string]any
}

// Build renders the template. A key referenced by the template that is
// absent from Values, or present with a nil value, fails with
// ErrKindMissingParameter naming that key. This covers keys reached through
// {{template}}, {{index}} and nested maps. Any other parse or render
// failure is ErrKindTemplate.
func (s *TemplateSpec) Build() (string, error) {
	return render("query", s.Text, s.Values)
}

// Fields returns the top-level keys referenced by the template, in order of
// first appearance.
func (s *TemplateSpec) Fields() ([]string, error) {
	tmpl, err := parseTemplate("query", s.Text)
	if err != nil {
		return nil, err
	}
	return fieldRefs(tmpl), nil
}

func parseTemplate(name, text string) (*template.Template, error) {
	tmpl, err := template.New(name).
		Option("missingkey=error").
		Funcs(template.FuncMap{"index": strictIndex}).
		Parse(text)
	if err != nil {
		return nil, errs.Wrap(errs.ErrKindTemplate, "malformed template", err)
	}
	return tmpl, nil
}

func render(name, text string, values map[string]any) (string, error) {
	tmpl, err := parseTemplate(name, text)
	if err != nil {
		return "", err
	}

	for _, key := range fieldRefs(tmpl) {
		if v, ok := values[key]; !ok || v == nil {
			return "", errs.MissingParameter(key)
		}
	}

	if values == nil {
		values = map[string]any{}
	}

	var sb strings.Builder
	if err := tmpl.Execute(&sb, values); err != nil {
		return "", execErr(err)
	}
	return sb.String(), nil
}

var noEntryRe = regexp.MustCompile(`no entry for key ("(?:[^"\\]|\\.)*")`)

// execErr classifies an execution failure. Lookups that escaped the static
// walk still surface as missing parameters.
func execErr(err error) error {
	var e *errs.Error
	if errors.As(err, &e) {
		return e
	}
	if m := noEntryRe.FindStringSubmatch(err.Error()); m != nil {
		if key, uerr := strconv.Unquote(m[1]); uerr == nil {
			return errs.MissingParameter(key)
		}
	}
	return errs.Wrap(errs.ErrKindTemplate, "template substitution failed", err)
}

// strictIndex replaces the builtin index so that an absent or nil map entry
// is a missing parameter instead of "<no value>" in the output.
func strictIndex(item any, keys ...any) (any, error) {
	v := reflect.ValueOf(item)
	for _, k := range keys {
		v = indirect(v)
		if !v.IsValid() {
			return nil, errs.New(errs.ErrKindTemplate, "index of nil value")
		}
		switch v.Kind() {
		case reflect.Map:
			kv := reflect.ValueOf(k)
			if !kv.IsValid() || !kv.Type().AssignableTo(v.Type().Key()) {
				return nil, errs.New(errs.ErrKindTemplate, fmt.Sprintf("cannot index %s with %T", v.Type(), k))
			}
			x := v.MapIndex(kv)
			if !x.IsValid() || !indirect(x).IsValid() {
				return nil, errs.MissingParameter(fmt.Sprint(k))
			}
			v = x
		case reflect.Slice, reflect.Array, reflect.String:
			i, ok := k.(int)
			if !ok || i < 0 || i >= v.Len() {
				return nil, errs.New(errs.ErrKindTemplate, fmt.Sprintf("index %v out of range", k))
			}
			v = v.Index(i)
		default:
			return nil, errs.New(errs.ErrKindTemplate, fmt.Sprintf("cannot index %s", v.Type()))
		}
	}
	if !v.IsValid() {
		return nil, nil
	}
	return v.Interface(), nil
}

// indirect unwraps interfaces and pointers. A nil one yields the zero Value.
func indirect(v reflect.Value) reflect.Value {
	for v.IsValid() && (v.Kind() == reflect.Interface || v.Kind() == reflect.Pointer) {
		if v.IsNil() {
			return reflect.Value{}
		}
		v = v.Elem()
	}
	return v
}

// fieldRefs collects the keys looked up on the root value. Bodies of range
// and with blocks rebind dot, so only their pipelines and else branches are
// inspected. Named templates are followed when they are invoked with dot
// itself.
func fieldRefs(tmpl *template.Template) []string {
	if tmpl.Tree == nil {
		return nil
	}
	w := &fieldWalker{tmpl: tmpl, seen: map[string]bool{}, visited: map[string]bool{}}
	w.walk(tmpl.Tree.Root)
	return w.keys
}

type fieldWalker struct {
	tmpl    *template.Template
	seen    map[string]bool
	visited map[string]bool
	keys    []string
}

func (w *fieldWalker) add(key string) {
	if !w.seen[key] {
		w.seen[key] = true
		w.keys = append(w.keys, key)
	}
}

func (w *fieldWalker) walk(node parse.Node) {
	switch n := node.(type) {
	case *parse.ListNode:
		if n == nil {
			return
		}
		for _, c := range n.Nodes {
			w.walk(c)
		}
	case *parse.ActionNode:
		w.walk(n.Pipe)
	case *parse.IfNode:
		w.walk(n.Pipe)
		w.walk(n.List)
		w.walk(n.ElseList)
	case *parse.RangeNode:
		w.walk(n.Pipe)
		w.walk(n.ElseList)
	case *parse.WithNode:
		w.walk(n.Pipe)
		w.walk(n.ElseList)
	case *parse.TemplateNode:
		w.walk(n.Pipe)
		if isDot(n.Pipe) && !w.visited[n.Name] {
			w.visited[n.Name] = true
			if t := w.tmpl.Lookup(n.Name); t != nil && t.Tree != nil {
				w.walk(t.Tree.Root)
			}
		}
	case *parse.PipeNode:
		if n == nil {
			return
		}
		for _, c := range n.Cmds {
			w.walk(c)
		}
	case *parse.CommandNode:
		for _, a := range n.Args {
			w.walk(a)
		}
	case *parse.ChainNode:
		w.walk(n.Node)
	case *parse.FieldNode:
		w.add(n.Ident[0])
	case *parse.VariableNode:
		if len(n.Ident) > 1 && n.Ident[0] == "$" {
			w.add(n.Ident[1])
		}
	}
}

func isDot(p *parse.PipeNode) bool {
	if p == nil || len(p.Decl) > 0 || len(p.Cmds) != 1 || len(p.Cmds[0].Args) != 1 {
		return false
	}
	_, ok := p.Cmds[0].Args[0].(*parse.DotNode)
	return ok
}
