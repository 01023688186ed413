// Package resolver turns Title and Body templates into a concrete message
// by substituting ${name} attribute references with record attribute values.
package resolver

import (
	"fmt"
	"io"
	"strings"

	"github.com/jmehdipour/teams-notify/internal/model"
	"github.com/valyala/fasttemplate"
)

const (
	startTag = "${"
	endTag   = "}"
)

// Resolver holds the compiled Title and Body templates. It is immutable and
// safe for concurrent use.
type Resolver struct {
	title *fasttemplate.Template
	body  *fasttemplate.Template
}

// New compiles both templates. An unterminated placeholder is a
// configuration error.
func New(title, body string) (*Resolver, error) {
	tt, err := fasttemplate.NewTemplate(title, startTag, endTag)
	if err != nil {
		return nil, fmt.Errorf("compile title template: %w", err)
	}
	bt, err := fasttemplate.NewTemplate(body, startTag, endTag)
	if err != nil {
		return nil, fmt.Errorf("compile body template: %w", err)
	}
	return &Resolver{title: tt, body: bt}, nil
}

// Resolve never fails: a reference to a missing attribute becomes "".
func (r *Resolver) Resolve(rec *model.Record) model.Message {
	lookup := attrFunc(rec)
	return model.Message{
		Title: r.title.ExecuteFuncString(lookup),
		Body:  r.body.ExecuteFuncString(lookup),
	}
}

func attrFunc(rec *model.Record) fasttemplate.TagFunc {
	return func(w io.Writer, tag string) (int, error) {
		v, _ := rec.Attr(strings.TrimSpace(tag))
		return io.WriteString(w, v)
	}
}

// References lists the attribute names a template refers to, in order of
// first appearance.
func References(tpl string) []string {
	var names []string
	seen := make(map[string]struct{})
	for {
		i := strings.Index(tpl, startTag)
		if i < 0 {
			return names
		}
		tpl = tpl[i+len(startTag):]
		j := strings.Index(tpl, endTag)
		if j < 0 {
			return names
		}
		name := strings.TrimSpace(tpl[:j])
		tpl = tpl[j+len(endTag):]
		if _, ok := seen[name]; ok || name == "" {
			continue
		}
		seen[name] = struct{}{}
		names = append(names, name)
	}
}
