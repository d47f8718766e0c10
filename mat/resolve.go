package mat

import (
	"fmt"

	"github.com/robert-malhotra/go-mat/internal/linkmeta"
)

// resolveAll builds the object graph in two passes. Pass 1 assembles every
// object's ordered property map with references left as *Reference
// placeholders, so forward references resolve regardless of declaration
// order. Pass 2 substitutes placeholders by object-ID lookup through the
// shared table, memoizing per ID; a cycle resolves to a back-reference
// rather than recursing forever.
func (ss *Subsystem) resolveAll() error {
	n := len(ss.meta.Objects)
	ss.objects = make([]*Object, n)
	for id := 1; id < n; id++ {
		obj, err := ss.buildObject(uint32(id))
		if err != nil {
			return err
		}
		ss.objects[id] = obj
	}
	for id := 1; id < n; id++ {
		ss.valueOf(uint32(id))
	}
	return nil
}

// buildObject assembles the raw property map for one object ID from its
// field-descriptor block and the content cells.
func (ss *Subsystem) buildObject(id uint32) (*Object, error) {
	entry := ss.meta.Objects[id]

	className, err := ss.meta.ClassName(entry.ClassID)
	if err != nil {
		return nil, subsystemErr(err)
	}

	descs, err := ss.meta.FieldsFor(entry)
	if err != nil {
		return nil, subsystemErr(err)
	}

	obj := &Object{Class: className, ID: id}
	for _, desc := range descs {
		name, err := ss.meta.Name(desc.NameIndex)
		if err != nil {
			return nil, subsystemErr(err)
		}

		switch desc.Kind {
		case linkmeta.FieldKindContent:
			cell, err := ss.contentCell(desc.Value)
			if err != nil {
				return nil, err
			}
			val, err := convertValue(cell)
			if err != nil {
				ss.diag(Diagnostic{
					Kind: DiagUnsupportedType, ObjectID: id, Field: name,
					Message: err.Error(),
				})
				val = nil
			}
			obj.Fields = append(obj.Fields, Field{Name: name, Value: val})

		case linkmeta.FieldKindInline:
			obj.Fields = append(obj.Fields, Field{Name: name, Value: desc.Value != 0})

		default:
			ss.diag(Diagnostic{
				Kind: DiagUnsupportedType, ObjectID: id, Field: name,
				Message: fmt.Sprintf("field descriptor kind %d", desc.Kind),
			})
			obj.Fields = append(obj.Fields, Field{Name: name, Value: desc.Value})
		}
	}

	ss.attachHandles(obj, entry)
	ss.applyDefaults(obj, entry.ClassID)

	return obj, nil
}

// attachHandles adds the handle objects listed for this object's
// dependency slot as synthetic properties, resolved through the object
// table by their type-2 instance IDs.
func (ss *Subsystem) attachHandles(obj *Object, entry linkmeta.ObjectEntry) {
	if int(entry.DepID) >= len(ss.meta.HandleInstances) {
		return
	}
	for i, t2 := range ss.meta.HandleInstances[entry.DepID] {
		name := fmt.Sprintf("_Handle_%d", i+1)
		targetID := ss.findByType2(t2)
		if targetID == 0 {
			ss.diag(Diagnostic{
				Kind: DiagDanglingReference, ObjectID: obj.ID, Field: name,
				Message: fmt.Sprintf("no object with type-2 instance ID %d", t2),
			})
			continue
		}
		obj.Fields = append(obj.Fields, Field{Name: name, Value: &Reference{
			ClassID:  ss.meta.Objects[targetID].ClassID,
			ObjectID: uint32(targetID),
		}})
	}
}

// findByType2 returns the object ID carrying the given type-2 instance
// ID, or 0 when none does.
func (ss *Subsystem) findByType2(type2ID uint32) int {
	if type2ID == 0 {
		return 0
	}
	for i := range ss.meta.Objects {
		if ss.meta.Objects[i].Type2ID == type2ID {
			return i
		}
	}
	return 0
}

// applyDefaults fills properties the object does not set explicitly from
// the per-class default property table in the last trailing cell.
func (ss *Subsystem) applyDefaults(obj *Object, classID uint32) {
	defaults := ss.cells[len(ss.cells)-1]
	if int(classID) >= len(defaults.Cells) {
		return
	}
	entry := defaults.Cells[classID]
	if entry == nil || len(entry.Fields) == 0 {
		return
	}
	for j, name := range entry.FieldNames {
		if _, ok := obj.Get(name); ok {
			continue
		}
		val, err := convertValue(entry.Fields[0][j])
		if err != nil {
			ss.diag(Diagnostic{
				Kind: DiagUnsupportedType, ObjectID: obj.ID, Field: name,
				Message: fmt.Sprintf("class default: %v", err),
			})
			continue
		}
		obj.Fields = append(obj.Fields, Field{Name: name, Value: val})
	}
}

// valueOf returns the final decoded value for an object ID, resolving
// references inside its property map and applying the registered type
// decoder for its class. Results are memoized; first writer wins.
func (ss *Subsystem) valueOf(id uint32) any {
	if v, ok := ss.decoded[id]; ok {
		return v
	}
	if ss.resolving[id] {
		// Cycle: hand back the object itself as a back-reference.
		return ss.objects[id]
	}
	ss.resolving[id] = true

	obj := ss.objects[id]
	for i := range obj.Fields {
		obj.Fields[i].Value = ss.substitute(obj.Fields[i].Value, id, obj.Fields[i].Name)
	}

	var v any = obj
	if !ss.raw {
		if decode, ok := classDecoders[obj.Class]; ok {
			out, err := decode(ss, obj)
			if err != nil {
				ss.diag(Diagnostic{
					Kind: DiagUnsupportedType, ObjectID: id,
					Message: fmt.Sprintf("decoding %s: %v", obj.Class, err),
				})
			} else {
				v = out
			}
		}
	}

	delete(ss.resolving, id)
	ss.decoded[id] = v
	return v
}

// substitute walks a property value and replaces reference placeholders
// with the decoded objects they address. Resolved objects are not
// descended into: each object's own pass handles its fields.
func (ss *Subsystem) substitute(v any, id uint32, field string) any {
	switch t := v.(type) {
	case *Reference:
		if t.ObjectID == 0 || int(t.ObjectID) >= len(ss.objects) {
			ss.diag(Diagnostic{
				Kind: DiagDanglingReference, ObjectID: id, Field: field,
				Message: fmt.Sprintf("reference to object %d of %d", t.ObjectID, ss.NumObjects()),
			})
			return t
		}
		return ss.valueOf(t.ObjectID)

	case *CellArray:
		for i := range t.Values {
			t.Values[i] = ss.substitute(t.Values[i], id, field)
		}
		return t

	case *StructArray:
		for i := range t.Elements {
			for j := range t.Elements[i] {
				t.Elements[i][j] = ss.substitute(t.Elements[i][j], id, field)
			}
		}
		return t

	default:
		return v
	}
}
