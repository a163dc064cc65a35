package compiler

import (
	"errors"
	"fmt"

	"cuelang.org/go/cue"
	cueerrors "cuelang.org/go/cue/errors"

	"github.com/roach88/arcflow/internal/attr"
	"github.com/roach88/arcflow/internal/predicate"
	"github.com/roach88/arcflow/internal/strategy"
)

// DecodeCUE parses a CUE value into a strategy Description.
// Uses CUE SDK's Go API directly (not CLI subprocess).
//
// The value is the strategy struct itself:
//
//	groups: [{name: "low", where: {attr: "pprio", op: "<=", value: 1}}]
//	structure: {group: "low"}
func DecodeCUE(v cue.Value) (*strategy.Description, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	d := &strategy.Description{}
	if gv := lookup(v, "groups"); gv.Exists() {
		iter, err := gv.List()
		if err != nil {
			return nil, formatCUEError(err)
		}
		for i := 0; iter.Next(); i++ {
			g, err := decodeGroup(iter.Value(), fmt.Sprintf("groups[%d]", i))
			if err != nil {
				return nil, err
			}
			d.Groups = append(d.Groups, g)
		}
	}

	// Structure is optional; without one the engine uses its default
	if sv := lookup(v, "structure"); sv.Exists() {
		e, err := decodeElement(sv, "structure")
		if err != nil {
			return nil, err
		}
		d.Structure = e
	}
	return d, nil
}

func decodeGroup(v cue.Value, field string) (strategy.GroupDecl, error) {
	name, err := requiredString(v, "name", field)
	if err != nil {
		return strategy.GroupDecl{}, err
	}
	wv := lookup(v, "where")
	if !wv.Exists() {
		return strategy.GroupDecl{}, &DecodeError{Field: field + ".where", Message: "where is required", Pos: v.Pos()}
	}
	p, err := decodePredicate(wv, field+".where")
	if err != nil {
		return strategy.GroupDecl{}, err
	}
	return strategy.GroupDecl{Name: name, Where: p}, nil
}

func decodePredicate(v cue.Value, field string) (predicate.Predicate, error) {
	if tv := lookup(v, "all"); tv.Exists() {
		all, err := tv.Bool()
		if err != nil {
			return nil, &DecodeError{Field: field + ".all", Message: "all must be a boolean", Pos: tv.Pos()}
		}
		if !all {
			return nil, &DecodeError{Field: field + ".all", Message: "all only accepts true", Pos: tv.Pos()}
		}
		return predicate.True{}, nil
	}
	if av := lookup(v, "attr"); av.Exists() {
		a, err := attribute(av, field+".attr")
		if err != nil {
			return nil, err
		}
		opName, err := requiredString(v, "op", field)
		if err != nil {
			return nil, err
		}
		op, err := predicate.ParseOp(opName)
		if err != nil {
			return nil, &DecodeError{Field: field + ".op", Message: err.Error(), Pos: v.Pos()}
		}
		vv := lookup(v, "value")
		if !vv.Exists() {
			return nil, &DecodeError{Field: field + ".value", Message: "value is required", Pos: v.Pos()}
		}
		n, err := vv.Int64()
		if err != nil {
			return nil, formatCUEError(err)
		}
		return predicate.Compare{Attr: a, Op: op, Value: int(n)}, nil
	}
	if iv := lookup(v, "in"); iv.Exists() {
		names, err := stringList(iv)
		if err != nil {
			return nil, err
		}
		return predicate.MemberOf{Groups: names}, nil
	}
	if nv := lookup(v, "not"); nv.Exists() {
		p, err := decodePredicate(nv, field+".not")
		if err != nil {
			return nil, err
		}
		return predicate.Not{P: p}, nil
	}
	for _, name := range []string{"and", "or"} {
		lv := lookup(v, name)
		if !lv.Exists() {
			continue
		}
		iter, err := lv.List()
		if err != nil {
			return nil, formatCUEError(err)
		}
		var ps []predicate.Predicate
		for i := 0; iter.Next(); i++ {
			p, err := decodePredicate(iter.Value(), fmt.Sprintf("%s.%s[%d]", field, name, i))
			if err != nil {
				return nil, err
			}
			ps = append(ps, p)
		}
		if name == "and" {
			return predicate.And{Predicates: ps}, nil
		}
		return predicate.Or{Predicates: ps}, nil
	}
	return nil, &DecodeError{Field: field, Message: "unrecognized predicate", Pos: v.Pos()}
}

func decodeElement(v cue.Value, field string) (strategy.Element, error) {
	if gv := lookup(v, "group"); gv.Exists() {
		name, err := gv.String()
		if err != nil {
			return nil, formatCUEError(err)
		}
		key, err := optionalAttribute(v, "key", field)
		if err != nil {
			return nil, err
		}
		return strategy.GroupRef{Name: name, Key: key}, nil
	}
	if sv := lookup(v, "struct"); sv.Exists() {
		return decodeStruct(sv, field+".struct")
	}
	if rv := lookup(v, "reg"); rv.Exists() {
		return decodeReg(rv, field+".reg")
	}
	return nil, &DecodeError{Field: field, Message: "element must be one of group, struct, reg", Pos: v.Pos()}
}

func decodeStruct(v cue.Value, field string) (*strategy.Struct, error) {
	s := &strategy.Struct{}
	ev := lookup(v, "elements")
	if !ev.Exists() {
		return nil, &DecodeError{Field: field + ".elements", Message: "elements are required", Pos: v.Pos()}
	}
	iter, err := ev.List()
	if err != nil {
		return nil, formatCUEError(err)
	}
	for i := 0; iter.Next(); i++ {
		e, err := decodeElement(iter.Value(), fmt.Sprintf("%s.elements[%d]", field, i))
		if err != nil {
			return nil, err
		}
		s.Elements = append(s.Elements, e)
	}
	if s.Key, err = optionalCombined(v, field); err != nil {
		return nil, err
	}
	if s.Coll, err = decodeColl(v, field); err != nil {
		return nil, err
	}
	return s, nil
}

func decodeReg(v cue.Value, field string) (*strategy.Reg, error) {
	group, err := requiredString(v, "group", field)
	if err != nil {
		return nil, err
	}
	r := &strategy.Reg{Group: group}
	if r.ArcKey, err = optionalAttribute(v, "arc_key", field); err != nil {
		return nil, err
	}
	pv := lookup(v, "partition")
	if !pv.Exists() {
		return nil, &DecodeError{Field: field + ".partition", Message: "partition is required", Pos: v.Pos()}
	}
	if r.Partition, err = decodePartition(pv, field+".partition"); err != nil {
		return nil, err
	}
	if r.Key, err = optionalCombined(v, field); err != nil {
		return nil, err
	}
	if r.Coll, err = decodeColl(v, field); err != nil {
		return nil, err
	}
	return r, nil
}

func decodePartition(v cue.Value, field string) (strategy.Partition, error) {
	if mv := lookup(v, "many"); mv.Exists() {
		field += ".many"
		by, err := attribute(lookup(mv, "by"), field+".by")
		if err != nil {
			return nil, err
		}
		m := &strategy.Many{By: by}
		if m.Key, err = optionalCombined(mv, field); err != nil {
			return nil, err
		}
		if m.Coll, err = decodeColl(mv, field); err != nil {
			return nil, err
		}
		return m, nil
	}
	if ev := lookup(v, "each"); ev.Exists() {
		field += ".each"
		by, err := attribute(lookup(ev, "by"), field+".by")
		if err != nil {
			return nil, err
		}
		e := &strategy.Each{By: by}
		if e.Key, err = optionalCombined(ev, field); err != nil {
			return nil, err
		}
		iv := lookup(ev, "inner")
		if !iv.Exists() {
			return nil, &DecodeError{Field: field + ".inner", Message: "inner partition is required", Pos: ev.Pos()}
		}
		if e.Inner, err = decodePartition(iv, field+".inner"); err != nil {
			return nil, err
		}
		if e.Coll, err = decodeColl(ev, field); err != nil {
			return nil, err
		}
		return e, nil
	}
	return nil, &DecodeError{Field: field, Message: "partition must be one of many, each", Pos: v.Pos()}
}

func decodeColl(v cue.Value, field string) (strategy.Coll, error) {
	cv := lookup(v, "coll")
	field += ".coll"
	if !cv.Exists() {
		return strategy.Coll{}, &DecodeError{Field: field, Message: "coll is required", Pos: v.Pos()}
	}
	typ, err := requiredString(cv, "type", field)
	if err != nil {
		return strategy.Coll{}, err
	}
	c := strategy.Coll{Type: strategy.CollType(typ)}
	if c.Iter, err = optionalString(cv, "iter"); err != nil {
		return strategy.Coll{}, err
	}
	if c.Order, err = optionalString(cv, "order"); err != nil {
		return strategy.Coll{}, err
	}
	if rv := lookup(cv, "reverse"); rv.Exists() {
		if c.Reverse, err = rv.Bool(); err != nil {
			return strategy.Coll{}, formatCUEError(err)
		}
	}
	return c, nil
}

// optionalCombined decodes the "key" field, either an attribute name or
// {ops: [...], attr?: name}.
func optionalCombined(v cue.Value, field string) (*attr.Combined, error) {
	kv := lookup(v, "key")
	if !kv.Exists() {
		return nil, nil
	}
	field += ".key"
	if kv.Kind() == cue.StringKind {
		a, err := attribute(kv, field)
		if err != nil {
			return nil, err
		}
		return attr.Of(a), nil
	}
	leaf, err := optionalAttribute(kv, "attr", field)
	if err != nil {
		return nil, err
	}
	var ops []attr.Op
	if ov := lookup(kv, "ops"); ov.Exists() {
		names, err := stringList(ov)
		if err != nil {
			return nil, err
		}
		for _, n := range names {
			op, err := attr.ParseOp(n)
			if err != nil {
				return nil, &DecodeError{Field: field + ".ops", Message: err.Error(), Pos: ov.Pos()}
			}
			ops = append(ops, op)
		}
	}
	c, err := attr.NewCombined(leaf, ops...)
	if err != nil {
		if errors.Is(err, attr.ErrWrongKey) {
			return nil, configErr(ErrCodeWrongKey, "", "%s: %v", field, err)
		}
		return nil, err
	}
	return c, nil
}

func attribute(v cue.Value, field string) (attr.Attribute, error) {
	if !v.Exists() {
		return attr.None, &DecodeError{Field: field, Message: "attribute is required", Pos: v.Pos()}
	}
	name, err := v.String()
	if err != nil {
		return attr.None, formatCUEError(err)
	}
	a, err := attr.Parse(name)
	if err != nil {
		return attr.None, &DecodeError{Field: field, Message: err.Error(), Pos: v.Pos()}
	}
	return a, nil
}

func optionalAttribute(v cue.Value, name, field string) (attr.Attribute, error) {
	av := lookup(v, name)
	if !av.Exists() {
		return attr.None, nil
	}
	return attribute(av, field+"."+name)
}

func requiredString(v cue.Value, name, field string) (string, error) {
	sv := lookup(v, name)
	if !sv.Exists() {
		return "", &DecodeError{Field: field + "." + name, Message: name + " is required", Pos: v.Pos()}
	}
	s, err := sv.String()
	if err != nil {
		return "", formatCUEError(err)
	}
	return s, nil
}

func optionalString(v cue.Value, name string) (string, error) {
	sv := lookup(v, name)
	if !sv.Exists() {
		return "", nil
	}
	s, err := sv.String()
	if err != nil {
		return "", formatCUEError(err)
	}
	return s, nil
}

func stringList(v cue.Value) ([]string, error) {
	iter, err := v.List()
	if err != nil {
		return nil, formatCUEError(err)
	}
	var out []string
	for iter.Next() {
		s, err := iter.Value().String()
		if err != nil {
			return nil, formatCUEError(err)
		}
		out = append(out, s)
	}
	return out, nil
}

// lookup selects a regular field by its string label, so keyword-like
// names such as "in" resolve.
func lookup(v cue.Value, name string) cue.Value {
	return v.LookupPath(cue.MakePath(cue.Str(name)))
}

// formatCUEError converts CUE errors to DecodeError with position info.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}

	errs := cueerrors.Errors(err)
	if len(errs) == 0 {
		return err
	}

	first := errs[0]
	if positions := cueerrors.Positions(first); len(positions) > 0 {
		return &DecodeError{
			Field:   "cue",
			Message: first.Error(),
			Pos:     positions[0],
		}
	}
	return err
}
