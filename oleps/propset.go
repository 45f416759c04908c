package oleps

// PropertySet contains the decoded properties of one property set.
//
// You don't instantiate this type yourself. You get PropertySet objects
// from the PropertySetStream returned by ReadPropertySetStream.
type PropertySet struct {
	// Size is the size in bytes declared by the property set header.
	Size uint32

	// CodePage selects the encoding of every string in the set.
	// HasCodePage is false when the set has no CodePage property.
	CodePage    CodePage
	HasCodePage bool

	// Locale is the LCID of the Locale property, if HasLocale.
	Locale    uint32
	HasLocale bool

	// Behavior tells whether dictionary names are case sensitive.
	// Defaults to CaseInsensitive.
	Behavior Behavior

	// Dictionary maps property names to identifiers. nil when the set has
	// no Dictionary property.
	Dictionary *Dictionary

	properties map[PropertyID]TypedValue
	ids        []PropertyID
}

// propertyOffset is one entry of the PropertyIdentifierAndOffset table.
type propertyOffset struct {
	id     PropertyID
	offset uint32
}

// Get returns the value of a property.
func (ps *PropertySet) Get(id PropertyID) (Value, bool) {
	tv, ok := ps.properties[id]
	return tv.Value, ok
}

// Typed returns the value of a property with its type tag.
func (ps *PropertySet) Typed(id PropertyID) (TypedValue, bool) {
	tv, ok := ps.properties[id]
	return tv, ok
}

// Lookup returns the value of a property by its dictionary name.
func (ps *PropertySet) Lookup(name string) (Value, bool) {
	id, ok := ps.Dictionary.ID(name)
	if !ok {
		return nil, false
	}
	return ps.Get(id)
}

// Name returns the dictionary name of a property, if any.
func (ps *PropertySet) Name(id PropertyID) (string, bool) {
	return ps.Dictionary.Name(id)
}

// IDs returns the identifiers of all properties other than the Dictionary,
// in the order of the offset table.
func (ps *PropertySet) IDs() []PropertyID {
	out := make([]PropertyID, len(ps.ids))
	copy(out, ps.ids)
	return out
}

// Len returns the number of properties other than the Dictionary.
func (ps *PropertySet) Len() int {
	return len(ps.ids)
}

// Property returns the value of a property if it has type T.
func Property[T Value](ps *PropertySet, id PropertyID) (T, bool) {
	var zero T
	v, ok := ps.Get(id)
	if !ok {
		return zero, false
	}
	t, ok := v.(T)
	return t, ok
}

// NamedProperty returns the value of a named property if it has type T.
func NamedProperty[T Value](ps *PropertySet, name string) (T, bool) {
	var zero T
	v, ok := ps.Lookup(name)
	if !ok {
		return zero, false
	}
	t, ok := v.(T)
	return t, ok
}

// ReadPropertySet decodes the property set that begins at offset bytes
// past start in data.
func ReadPropertySet(data []byte, start int, offset uint32, opts *Options) (*PropertySet, error) {
	return newDecoder(data, opts).readPropertySet(start, offset)
}

func (d *decoder) readPropertySet(streamStart int, offset uint32) (*PropertySet, error) {
	setStart := streamStart + int(offset)
	if err := d.r.seek(setStart); err != nil {
		return nil, err
	}
	size, err := d.r.u32()
	if err != nil {
		return nil, err
	}
	count, err := d.r.u32()
	if err != nil {
		return nil, err
	}
	if uint64(count)*8 > uint64(d.r.remaining()) {
		return nil, newCorrupted(setStart+4, "%d properties exceed the remaining %d bytes", count, d.r.remaining())
	}
	if int64(size) > int64(len(d.r.data)-setStart) {
		d.log.Infof("property set at %d declares %d bytes but only %d remain", setStart, size, len(d.r.data)-setStart)
	}

	table := make([]propertyOffset, count)
	for i := range table {
		id, _ := d.r.u32()
		off, _ := d.r.u32()
		table[i] = propertyOffset{id: PropertyID(id), offset: off}
	}
	tableEnd := d.r.pos

	ps := &PropertySet{
		Size:       size,
		Behavior:   CaseInsensitive,
		properties: make(map[PropertyID]TypedValue, count),
	}

	// CodePage, Locale and Behavior come first: the rest depends on them.
	for _, p := range table {
		switch p.id {
		case PIDCodePage, PIDLocale, PIDBehavior:
		default:
			continue
		}
		tv, err := d.readPropertyAt(setStart, p, 0)
		if err != nil {
			return nil, err
		}
		d.applySpecial(ps, p.id, tv)
	}

	for _, p := range table {
		if p.id != PIDDictionary {
			continue
		}
		if !ps.HasCodePage {
			return nil, newCorrupted(setStart+int(p.offset), "dictionary without a CodePage property")
		}
		if err := d.r.seek(setStart + int(p.offset)); err != nil {
			return nil, err
		}
		dict, err := d.readDictionary(ps.CodePage, ps.Behavior)
		if err != nil {
			return nil, err
		}
		if ps.Dictionary != nil {
			if d.opts.RejectDuplicates {
				return nil, newCorrupted(setStart+int(p.offset), "duplicate Dictionary property")
			}
			d.log.Warningf("property set at %d has more than one Dictionary", setStart)
		}
		ps.Dictionary = dict
	}

	for _, p := range table {
		if p.id == PIDDictionary {
			continue
		}
		tv, err := d.readPropertyAt(setStart, p, ps.CodePage)
		if err != nil {
			return nil, err
		}
		if _, dup := ps.properties[p.id]; dup {
			if d.opts.RejectDuplicates {
				return nil, newCorrupted(setStart+int(p.offset), "duplicate property %s", p.id)
			}
			d.log.Warningf("duplicate property %s in property set at %d", p.id, setStart)
		} else {
			ps.ids = append(ps.ids, p.id)
		}
		ps.properties[p.id] = tv
	}

	d.r.pos = tableEnd
	return ps, nil
}

func (d *decoder) readPropertyAt(setStart int, p propertyOffset, cp CodePage) (TypedValue, error) {
	if err := d.r.seek(setStart + int(p.offset)); err != nil {
		return TypedValue{}, err
	}
	tv, err := d.readTypedValue(cp, false)
	if err != nil {
		d.log.Debugf("property %s at offset %d: %v", p.id, p.offset, err)
		return TypedValue{}, err
	}
	return tv, nil
}

// applySpecial copies the CodePage, Locale and Behavior properties into
// their fields. Values of the wrong type are logged and ignored.
func (d *decoder) applySpecial(ps *PropertySet, id PropertyID, tv TypedValue) {
	switch id {
	case PIDCodePage:
		// Stored as VT_I2, but code pages above 32767 are common.
		if v, ok := tv.Value.(Int16); ok {
			ps.CodePage = CodePage(uint16(v))
			ps.HasCodePage = true
			d.log.Debugf("code page %s", ps.CodePage)
			return
		}
	case PIDLocale:
		if v, ok := tv.Value.(Uint32); ok {
			ps.Locale = uint32(v)
			ps.HasLocale = true
			return
		}
	case PIDBehavior:
		if v, ok := tv.Value.(Uint32); ok {
			switch Behavior(v) {
			case CaseInsensitive, CaseSensitive:
				ps.Behavior = Behavior(v)
			default:
				d.log.Warningf("unknown Behavior value %d, using %s", uint32(v), CaseInsensitive)
			}
			return
		}
	}
	d.log.Warningf("ignoring %s property of type %s", id, tv.Type)
}
