package validate

import (
	"bytes"
	"errors"
	"strconv"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"github.com/santhosh-tekuri/jsonschema/v6/kind"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/hfsrb/hfsrb/internal/jsonvalue"
	"github.com/hfsrb/hfsrb/internal/schema"
)

const schemaURL = "hfsrb://validate/schema.json"

// Validator checks instances against schemas. Compiled schemas are cached by
// their canonical bytes, so a single Validator should be shared; it is safe
// for concurrent use.
type Validator struct {
	schemas sync.Map // marshaled schema -> compiled
	printer *message.Printer
}

type compiled struct {
	schema *jsonschema.Schema
	err    error
}

func New() *Validator {
	return &Validator{printer: message.NewPrinter(language.English)}
}

var defaultValidator = New()

// Validate checks instance against schemaDoc with a shared Validator.
func Validate(instance, schemaDoc jsonvalue.Value) Result {
	return defaultValidator.Validate(instance, schemaDoc)
}

// Validate checks instance against schemaDoc. Violations are sorted by path
// then rule. A schema that does not compile yields a single root violation
// with RuleSchema.
func (v *Validator) Validate(instance, schemaDoc jsonvalue.Value) Result {
	result := newResult()

	c := v.compile(schemaDoc)
	if c.err != nil {
		result.AddViolation("", RuleSchema, "schema does not compile: %v", c.err)
		return result
	}

	doc, err := toAny(instance)
	if err != nil {
		result.AddViolation("", RuleSchema, "instance is not JSON: %v", err)
		return result
	}

	err = c.schema.Validate(doc)
	var verr *jsonschema.ValidationError
	if errors.As(err, &verr) {
		v.collect(&result, instance, verr)
	} else if err != nil {
		result.AddViolation("", RuleSchema, "%v", err)
	}

	result.sort()
	return result
}

func (v *Validator) compile(schemaDoc jsonvalue.Value) compiled {
	raw, err := jsonvalue.Marshal(schemaDoc)
	if err != nil {
		return compiled{err: err}
	}
	key := string(raw)
	if cached, ok := v.schemas.Load(key); ok {
		return cached.(compiled)
	}

	c := compiled{}
	c.schema, c.err = compileSchema(schemaDoc)
	cached, _ := v.schemas.LoadOrStore(key, c)
	return cached.(compiled)
}

func compileSchema(schemaDoc jsonvalue.Value) (*jsonschema.Schema, error) {
	doc, err := toAny(schema.WithoutFormat(schemaDoc))
	if err != nil {
		return nil, err
	}
	compiler := jsonschema.NewCompiler()
	compiler.DefaultDraft(jsonschema.Draft7)
	if err := compiler.AddResource(schemaURL, doc); err != nil {
		return nil, err
	}
	return compiler.Compile(schemaURL)
}

// collect flattens the error tree into one violation per leaf. A missing
// required property is reported at the property's own path.
func (v *Validator) collect(r *Result, instance jsonvalue.Value, verr *jsonschema.ValidationError) {
	if len(verr.Causes) > 0 {
		for _, cause := range verr.Causes {
			v.collect(r, instance, cause)
		}
		return
	}

	at := locate(instance, verr.InstanceLocation)
	if req, ok := verr.ErrorKind.(*kind.Required); ok {
		for _, name := range req.Missing {
			r.AddViolation(at.Child(name).String(), RuleRequired, "missing required property %q", name)
		}
		return
	}

	rule := RuleSchema
	if kw := verr.ErrorKind.KeywordPath(); len(kw) > 0 {
		rule = Rule(kw[0])
	}
	r.AddViolation(at.String(), rule, "%s", verr.ErrorKind.LocalizedString(v.printer))
}

// locate turns a JSON pointer token list into a Path, using the instance to
// tell array indexes from object keys that look numeric.
func locate(instance jsonvalue.Value, tokens []string) jsonvalue.Path {
	var p jsonvalue.Path
	cur := instance
	for _, tok := range tokens {
		if items, ok := cur.AsArray(); ok {
			if i, err := strconv.Atoi(tok); err == nil && i >= 0 && i < len(items) {
				p = p.Index(i)
				cur = items[i]
				continue
			}
		}
		p = p.Child(tok)
		if obj, ok := cur.AsObject(); ok {
			cur, _ = obj.Get(tok)
		}
	}
	return p
}

func toAny(v jsonvalue.Value) (any, error) {
	raw, err := jsonvalue.Marshal(v)
	if err != nil {
		return nil, err
	}
	return jsonschema.UnmarshalJSON(bytes.NewReader(raw))
}
