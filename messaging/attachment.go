package messaging

import (
	"fmt"

	"github.com/pstkit/pst/internal/ltp"
	"github.com/pstkit/pst/internal/ndb"
	"github.com/pstkit/pst/internal/node"
)

// Attachment is the façade over one row of a message's attachment
// table, opened by Message.OpenAttachment: its own property context plus
// the variant payload PidTagAttachMethod selects.
type Attachment struct {
	message    *Message
	node       *node.Node
	properties map[uint16]ltp.PropertyValue
}

// Properties returns every property the attachment's PC holds.
func (a *Attachment) Properties() map[uint16]ltp.PropertyValue { return a.properties }

// Method is PidTagAttachMethod, selecting which AttachmentData variant
// Data returns.
func (a *Attachment) Method() (AttachMethod, error) {
	v, ok := a.properties[PidTagAttachMethod]
	if !ok {
		return 0, fmt.Errorf("%w: attach method", ltp.ErrMissingProperty)
	}
	n, ok2 := v.Value.(int32)
	if !ok2 {
		return 0, fmt.Errorf("%w: attach method", ltp.ErrWrongPropertyType)
	}
	return AttachMethod(uint32(n)), nil
}

// Filename prefers the long filename (PidTagAttachLongFilename) and
// falls back to the short 8.3 one (PidTagAttachFilename).
func (a *Attachment) Filename() (string, error) {
	if v, ok := a.properties[PidTagAttachLongFilename]; ok {
		return stringProperty(v)
	}
	if v, ok := a.properties[PidTagAttachFilename]; ok {
		return stringProperty(v)
	}
	return "", fmt.Errorf("%w: attach filename", ltp.ErrMissingProperty)
}

// AttachmentDataKind discriminates the variant AttachmentData carries,
// selected by the attachment's method.
type AttachmentDataKind int

const (
	// AttachmentDataNone is returned for AttachMethodNone,
	// AttachMethodByReference and AttachMethodByReferenceOnly: the
	// format carries no payload for these (§9 open question).
	AttachmentDataNone AttachmentDataKind = iota
	// AttachmentDataBinary holds a by-value attachment's raw bytes.
	AttachmentDataBinary
	// AttachmentDataEmbeddedMessage holds a fully decoded nested
	// Message façade.
	AttachmentDataEmbeddedMessage
	// AttachmentDataStorage holds a storage attachment's raw block
	// bytes, undecoded.
	AttachmentDataStorage
)

// AttachmentData is the variant payload Attachment.Data resolves,
// tagged by Kind.
type AttachmentData struct {
	Kind    AttachmentDataKind
	Binary  []byte
	Message *Message
	Storage []byte
}

// Data resolves this attachment's payload per its AttachMethod.
func (a *Attachment) Data() (AttachmentData, error) {
	method, err := a.Method()
	if err != nil {
		return AttachmentData{}, err
	}

	switch method {
	case AttachMethodNone, AttachMethodByReference, AttachMethodByReferenceOnly:
		return AttachmentData{Kind: AttachmentDataNone}, nil

	case AttachMethodByValue:
		v, ok := a.properties[PidTagAttachDataBinary]
		if !ok {
			return AttachmentData{}, fmt.Errorf("%w: attach data binary", ltp.ErrMissingProperty)
		}
		b, err := binaryProperty(v)
		if err != nil {
			return AttachmentData{}, err
		}
		return AttachmentData{Kind: AttachmentDataBinary, Binary: b}, nil

	case AttachMethodEmbeddedMessage:
		ref, err := a.objectRef()
		if err != nil {
			return AttachmentData{}, err
		}
		sub, err := a.node.SubNode(ndb.NodeID(ref.NID))
		if err != nil {
			return AttachmentData{}, fmt.Errorf("embedded message: %w", err)
		}
		msg, err := a.message.store.buildMessage(sub)
		if err != nil {
			return AttachmentData{}, fmt.Errorf("embedded message: %w", err)
		}
		return AttachmentData{Kind: AttachmentDataEmbeddedMessage, Message: msg}, nil

	case AttachMethodStorage:
		ref, err := a.objectRef()
		if err != nil {
			return AttachmentData{}, err
		}
		sub, err := a.node.SubNode(ndb.NodeID(ref.NID))
		if err != nil {
			return AttachmentData{}, fmt.Errorf("storage attachment: %w", err)
		}
		return AttachmentData{Kind: AttachmentDataStorage, Storage: sub.Data}, nil

	default:
		return AttachmentData{}, fmt.Errorf("%w: 0x%x", ErrInvalidAttachMethod, method)
	}
}

func (a *Attachment) objectRef() (ltp.ObjectRef, error) {
	v, ok := a.properties[PidTagAttachDataBinary]
	if !ok {
		return ltp.ObjectRef{}, fmt.Errorf("%w: attach data binary", ltp.ErrMissingProperty)
	}
	ref, ok := v.Value.(ltp.ObjectRef)
	if !ok {
		return ltp.ObjectRef{}, fmt.Errorf("%w: attach data binary is not an object reference", ltp.ErrWrongPropertyType)
	}
	return ref, nil
}
