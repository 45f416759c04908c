package oleps

// ControlStream is the contents of the control stream that flags a file
// using the alternate property set stream binding.
type ControlStream struct {
	Reserved2        uint16
	ApplicationState uint32

	// CLSID is present only when the stream is long enough to hold one.
	CLSID    CLSID
	HasCLSID bool
}

// ReadControlStream decodes a control stream.
func ReadControlStream(data []byte) (*ControlStream, error) {
	r := newReader(data)
	reserved1, err := r.u16()
	if err != nil {
		return nil, err
	}
	if reserved1 != 0 {
		return nil, newCorrupted(0, "control stream reserved field is 0x%04x", reserved1)
	}
	cs := &ControlStream{}
	if cs.Reserved2, err = r.u16(); err != nil {
		return nil, err
	}
	if cs.ApplicationState, err = r.u32(); err != nil {
		return nil, err
	}
	if r.remaining() >= 16 {
		cs.CLSID, _ = r.guid()
		cs.HasCLSID = true
	}
	return cs, nil
}
